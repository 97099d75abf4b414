package render

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// PDFAssembler places one raster image per A4 page, full bleed.
type PDFAssembler struct {
	pdf   *gofpdf.Fpdf
	pages int
}

func NewPDFAssembler(title string) *PDFAssembler {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("arafiles", true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &PDFAssembler{pdf: pdf}
}

// AddPage appends img as the next page.
func (a *PDFAssembler) AddPage(img image.Image) error {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return err
	}
	name := fmt.Sprintf("page-%d", a.pages+1)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	a.pdf.RegisterImageOptionsReader(name, opts, &buf)
	a.pdf.AddPage()
	a.pdf.ImageOptions(name, 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
	if err := a.pdf.Error(); err != nil {
		return fmt.Errorf("add pdf page %d: %w", a.pages+1, err)
	}
	a.pages++
	return nil
}

// Pages is the number of pages added so far.
func (a *PDFAssembler) Pages() int { return a.pages }

// Output writes the finished document.
func (a *PDFAssembler) Output(w io.Writer) error {
	if err := a.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
