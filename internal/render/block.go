package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"arafiles/internal/domain"
)

// BlockStyle is the box model of one question block, in CSS pixels.
type BlockStyle struct {
	Padding        float64
	Border         float64
	BorderColor    color.Color
	FontSize       float64
	LineHeight     float64
	HeaderGap      float64 // below the header line(s)
	OptionsGap     float64 // above the option list
	OptionGap      float64 // between option rows
	ImageGap       float64 // above the image
	ImageMaxHeight float64
	ImageFirst     bool
	OptionLabel    func(i int) string
}

// LetterLabel renders option labels as "A. ", "B. ", ...
func LetterLabel(i int) string {
	return string(rune('A'+i%26)) + ". "
}

// ParenLabel renders option labels as "(a) ", "(b) ", ...
func ParenLabel(i int) string {
	return "(" + string(rune('a'+i%26)) + ") "
}

// PageBlockStyle is the block used on paginated PDF pages.
func PageBlockStyle() BlockStyle {
	return BlockStyle{
		Padding:        10,
		Border:         1,
		BorderColor:    color.RGBA{0xcc, 0xcc, 0xcc, 0xff},
		FontSize:       16,
		LineHeight:     1.4,
		HeaderGap:      8,
		OptionGap:      4,
		ImageGap:       10,
		ImageMaxHeight: 220,
		OptionLabel:    LetterLabel,
	}
}

// Compact is the fallback for a block taller than a whole column.
func (s BlockStyle) Compact() BlockStyle {
	s.FontSize = 12
	s.LineHeight = 1.2
	return s
}

// SheetBlockStyle is the block used by the single-image export.
func SheetBlockStyle() BlockStyle {
	return BlockStyle{
		Padding:        12,
		Border:         1,
		BorderColor:    color.RGBA{0xdd, 0xdd, 0xdd, 0xff},
		FontSize:       16,
		LineHeight:     1.4,
		OptionsGap:     8,
		OptionGap:      4,
		ImageGap:       10,
		ImageMaxHeight: 240,
		ImageFirst:     true,
		OptionLabel:    ParenLabel,
	}
}

func (s BlockStyle) scaled(k float64) BlockStyle {
	s.Padding *= k
	s.Border = math.Max(1, math.Round(s.Border*k))
	s.FontSize *= k
	s.HeaderGap *= k
	s.OptionsGap *= k
	s.OptionGap *= k
	s.ImageGap *= k
	s.ImageMaxHeight *= k
	return s
}

func (s BlockStyle) inset() float64 { return s.Padding + s.Border }

// Block is one question ready to lay out. Image is nil when the question
// has no image or its blob is missing.
type Block struct {
	Number      int
	Question    domain.Question
	Image       image.Image
	NumberAlign domain.Alignment
}

// Align is the block's text alignment: explicit, else the text direction.
func (b Block) Align() domain.Alignment {
	if b.Question.Align != "" {
		return b.Question.Align
	}
	return domain.DetectDirection(b.Question.Text).Start()
}

type blockLayout struct {
	header  []string
	options [][]string
	imgW    float64
	imgH    float64
	height  float64
}

func layoutBlock(fc *faceCache, st BlockStyle, b Block, width float64) blockLayout {
	inner := math.Max(1, width-2*st.inset())
	body := textStyle{size: st.FontSize, lineHeight: st.LineHeight}
	head := textStyle{size: st.FontSize, lineHeight: st.LineHeight, bold: true}

	var lay blockLayout
	lay.header = wrapText(fc.face(head.size, true), b.Question.Label(b.Number), inner)
	h := 2*st.inset() + float64(len(lay.header))*head.lineBox() + st.HeaderGap

	if n := len(b.Question.Options); n > 0 {
		face := fc.face(body.size, false)
		h += st.OptionsGap
		for i, opt := range b.Question.Options {
			lines := wrapText(face, st.OptionLabel(i)+opt, inner)
			lay.options = append(lay.options, lines)
			h += float64(len(lines)) * body.lineBox()
		}
		h += float64(n-1) * st.OptionGap
	}

	if b.Image != nil {
		sz := b.Image.Bounds().Size()
		lay.imgW, lay.imgH = fitSize(float64(sz.X), float64(sz.Y), inner, st.ImageMaxHeight)
		if lay.imgH > 0 {
			h += st.ImageGap + lay.imgH
		}
	}
	lay.height = math.Ceil(h)
	return lay
}

func drawBlock(dst draw.Image, fc *faceCache, st BlockStyle, b Block, lay blockLayout, x, y, width float64) {
	strokeRect(dst, rectF(x, y, width, lay.height), int(st.Border), st.BorderColor)

	inner := width - 2*st.inset()
	left := x + st.inset()
	cur := y + st.inset()
	body := textStyle{size: st.FontSize, lineHeight: st.LineHeight}
	head := textStyle{size: st.FontSize, lineHeight: st.LineHeight, bold: true}
	align := b.Align()

	cur = drawLines(dst, fc.face(head.size, true), head, lay.header, left, cur, inner, b.NumberAlign, color.Black)
	cur += st.HeaderGap

	drawImage := func() {
		if b.Image == nil || lay.imgH <= 0 {
			return
		}
		cur += st.ImageGap
		ix := alignX(align, left, inner, lay.imgW)
		drawScaled(dst, rectF(ix, cur, lay.imgW, lay.imgH), b.Image)
		cur += lay.imgH
	}
	drawOptions := func() {
		if len(lay.options) == 0 {
			return
		}
		cur += st.OptionsGap
		face := fc.face(body.size, false)
		for i, lines := range lay.options {
			if i > 0 {
				cur += st.OptionGap
			}
			cur = drawLines(dst, face, body, lines, left, cur, inner, align, color.Black)
		}
	}

	if st.ImageFirst {
		drawImage()
		drawOptions()
	} else {
		drawOptions()
		drawImage()
	}
}
