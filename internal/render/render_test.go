package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arafiles/internal/domain"
	"arafiles/internal/layout"
)

func testFonts(t *testing.T) *FontSet {
	t.Helper()
	fonts, err := DefaultFonts()
	require.NoError(t, err)
	return fonts
}

func solid(w, h int) image.Image {
	return newCanvas(w, h, color.RGBA{0x20, 0x40, 0x80, 0xff})
}

func TestWrapText_LinesFitWidth(t *testing.T) {
	fc := newFaceCache(testFonts(t))
	defer fc.close()
	face := fc.face(16, false)

	text := "the quick brown fox jumps over the lazy dog and keeps running far away"
	lines := wrapText(face, text, 120)
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, measureString(face, l), 120.0, "line %q", l)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
}

func TestWrapText_LongWordSplit(t *testing.T) {
	fc := newFaceCache(testFonts(t))
	defer fc.close()
	face := fc.face(16, false)

	word := strings.Repeat("W", 40)
	lines := wrapText(face, word, 100)
	assert.Greater(t, len(lines), 1)
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestWrapText_KeepsNewlines(t *testing.T) {
	fc := newFaceCache(testFonts(t))
	defer fc.close()
	lines := wrapText(fc.face(16, false), "a\n\nb", 500)
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func TestOptionLabels(t *testing.T) {
	assert.Equal(t, "A. ", LetterLabel(0))
	assert.Equal(t, "D. ", LetterLabel(3))
	assert.Equal(t, "(b) ", ParenLabel(1))
}

func TestFitSize(t *testing.T) {
	w, h := fitSize(1000, 500, 300, 220)
	assert.Equal(t, 300.0, w)
	assert.Equal(t, 150.0, h)

	w, h = fitSize(100, 1000, 300, 220)
	assert.Equal(t, 22.0, w)
	assert.Equal(t, 220.0, h)

	w, h = fitSize(50, 40, 300, 220)
	assert.Equal(t, 50.0, w, "never scaled up")
	assert.Equal(t, 40.0, h)
}

func TestBalanceSplit(t *testing.T) {
	assert.Equal(t, 0, BalanceSplit(nil))
	assert.Equal(t, 1, BalanceSplit([]float64{10, 10}))
	assert.Equal(t, 2, BalanceSplit([]float64{10, 10, 10}))
	assert.Equal(t, 1, BalanceSplit([]float64{100, 10, 10, 10}))
}

func TestBlock_AlignFollowsDirection(t *testing.T) {
	assert.Equal(t, domain.AlignLeft, Block{Question: domain.NewTextQuestion("hello")}.Align())
	assert.Equal(t, domain.AlignRight, Block{Question: domain.NewTextQuestion("سلام")}.Align())
	q := domain.NewTextQuestion("سلام")
	q.Align = domain.AlignCenter
	assert.Equal(t, domain.AlignCenter, Block{Question: q}.Align())
}

func TestLayoutBlock_GrowsWithContent(t *testing.T) {
	fc := newFaceCache(testFonts(t))
	defer fc.close()
	st := PageBlockStyle()

	bare := layoutBlock(fc, st, Block{Number: 1, Question: domain.NewTextQuestion("")}, 360)
	assert.Equal(t, []string{"1."}, bare.header)

	q := domain.NewTextQuestion("What is two plus two?")
	q.Options = []string{"three", "four"}
	withOpts := layoutBlock(fc, st, Block{Number: 1, Question: q}, 360)
	assert.Greater(t, withOpts.height, bare.height)
	assert.Equal(t, "A. three", withOpts.options[0][0])

	withImg := layoutBlock(fc, st, Block{Number: 1, Question: q, Image: solid(1200, 900)}, 360)
	assert.InDelta(t, 220, withImg.imgH, 1)
	assert.Equal(t, withOpts.height+st.ImageGap+withImg.imgH, withImg.height)
	assert.LessOrEqual(t, withImg.imgW, 360-2*st.inset())

	compact := layoutBlock(fc, st.Compact(), Block{Number: 1, Question: q}, 360)
	assert.Less(t, compact.height, withOpts.height)
}

func TestPager_RenderPage(t *testing.T) {
	spec := DefaultPageSpec()
	spec.Scale = 1
	blocks := []Block{
		{Number: 1, Question: domain.NewTextQuestion("first"), NumberAlign: domain.AlignRight},
		{Number: 2, Question: domain.NewTextQuestion("second"), NumberAlign: domain.AlignRight, Image: solid(400, 300)},
	}
	p := NewPager(testFonts(t), spec, "Physics", blocks)
	defer p.Close()

	assert.Less(t, p.ColumnHeight(), 1123.0-40)
	assert.Greater(t, p.ColumnHeight(), 1000.0)
	assert.Equal(t, 368.0, p.ColumnWidth())

	pages, err := p.Engine().Paginate(context.Background(), len(blocks), p.Measure)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, []int{0, 1}, pages[0].Questions())

	img := p.Render(pages[0])
	assert.Equal(t, image.Rect(0, 0, 794, 1123), img.Bounds())
}

func TestPager_ScaleMultipliesDimensions(t *testing.T) {
	spec := DefaultPageSpec()
	p := NewPager(testFonts(t), spec, "", []Block{{Number: 1, Question: domain.NewTextQuestion("x")}})
	defer p.Close()

	img := p.Render(layout.Page{Columns: [2]layout.Column{{Items: []layout.Placement{{Question: 0}}}}})
	assert.Equal(t, image.Rect(0, 0, 794*3, 1123*3), img.Bounds())
}

func TestPager_OversizedCompactStaysInColumn(t *testing.T) {
	spec := DefaultPageSpec()
	spec.Scale = 1
	q := domain.NewTextQuestion(strings.Repeat("long question text ", 400))
	p := NewPager(testFonts(t), spec, "T", []Block{{Number: 1, Question: q}})
	defer p.Close()

	h, err := p.Measure(context.Background(), 0)
	require.NoError(t, err)
	require.Greater(t, h, p.ColumnHeight())

	pages, err := p.Engine().Paginate(context.Background(), 1, p.Measure)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.True(t, pages[0].Columns[0].Items[0].Compact)

	// The bottom padding row must stay white: the block was scaled to fit.
	img := p.Render(pages[0])
	b := img.Bounds()
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt(b.Max.X/4, b.Max.Y-5))
}

func TestRenderSheet(t *testing.T) {
	spec := DefaultSheetSpec()
	spec.Scale = 1
	var blocks []Block
	for i := 0; i < 5; i++ {
		blocks = append(blocks, Block{Number: i + 1, Question: domain.NewTextQuestion("question")})
	}
	img, err := RenderSheet(context.Background(), testFonts(t), spec, "Sheet", blocks)
	require.NoError(t, err)
	assert.Equal(t, 794, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 100)
}

func TestRenderSheet_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RenderSheet(ctx, testFonts(t), DefaultSheetSpec(), "x", []Block{{Number: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFAssembler(t *testing.T) {
	a := NewPDFAssembler("Quiz")
	require.NoError(t, a.AddPage(solid(79, 112)))
	require.NoError(t, a.AddPage(solid(79, 112)))
	assert.Equal(t, 2, a.Pages())

	var buf bytes.Buffer
	require.NoError(t, a.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, solid(3, 2)))
	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 2), img.Bounds().Size())

	_, err = DecodeImage([]byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedImage)
}
