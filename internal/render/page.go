package render

import (
	"context"
	"image"
	"image/color"
	"math"

	"arafiles/internal/domain"
	"arafiles/internal/layout"
)

// PageSpec is a fixed-size two-column page, in CSS pixels. Scale
// multiplies every dimension at render time.
type PageSpec struct {
	Width       float64
	Height      float64
	Padding     float64
	TitleSize   float64
	TitleGap    float64
	ColumnGap   float64
	BlockGap    float64
	Scale       float64
	Block       BlockStyle
	RightToLeft bool // column 1 on the right
}

// DefaultPageSpec is an A4 page at 96dpi rasterized at 3x.
func DefaultPageSpec() PageSpec {
	return PageSpec{
		Width:     794,
		Height:    1123,
		Padding:   20,
		TitleSize: 18,
		TitleGap:  12,
		ColumnGap: 18,
		BlockGap:  12,
		Scale:     3,
		Block:     PageBlockStyle(),
	}
}

func (s PageSpec) scaled() PageSpec {
	k := s.Scale
	if k <= 0 {
		k = 1
	}
	s.Width = math.Round(s.Width * k)
	s.Height = math.Round(s.Height * k)
	s.Padding *= k
	s.TitleSize *= k
	s.TitleGap *= k
	s.ColumnGap *= k
	s.BlockGap *= k
	s.Block = s.Block.scaled(k)
	s.Scale = 1
	return s
}

const titleLineHeight = 1.2

// Pager renders the pages of one folder. All sizes it reports are device
// pixels. A Pager is not safe for concurrent use; Close releases its faces.
type Pager struct {
	spec   PageSpec
	fc     *faceCache
	title  []string
	blocks []Block
}

// NewPager prepares a paginated render of blocks under title.
func NewPager(fonts *FontSet, spec PageSpec, title string, blocks []Block) *Pager {
	p := &Pager{spec: spec.scaled(), fc: newFaceCache(fonts), blocks: blocks}
	p.title = wrapText(p.fc.face(p.spec.TitleSize, true), title, p.contentWidth())
	return p
}

func (p *Pager) Close() { p.fc.close() }

func (p *Pager) contentWidth() float64 {
	return p.spec.Width - 2*p.spec.Padding
}

func (p *Pager) titleHeight() float64 {
	return float64(len(p.title)) * math.Ceil(p.spec.TitleSize*titleLineHeight)
}

// ColumnHeight is the height budget of one column.
func (p *Pager) ColumnHeight() float64 {
	return p.spec.Height - 2*p.spec.Padding - p.titleHeight() - p.spec.TitleGap
}

// ColumnWidth is the width of one column.
func (p *Pager) ColumnWidth() float64 {
	return math.Floor((p.contentWidth() - p.spec.ColumnGap) / 2)
}

// BlockGap is the vertical gap between blocks in a column.
func (p *Pager) BlockGap() float64 { return p.spec.BlockGap }

// Engine returns a pagination engine sized for this pager.
func (p *Pager) Engine() *layout.Engine {
	return layout.NewEngine(p.ColumnHeight(), p.BlockGap())
}

// Measure is a layout.MeasureFunc over the pager's blocks.
func (p *Pager) Measure(_ context.Context, i int) (float64, error) {
	return layoutBlock(p.fc, p.spec.Block, p.blocks[i], p.ColumnWidth()).height, nil
}

// Render rasterizes one page.
func (p *Pager) Render(pg layout.Page) *image.RGBA {
	s := p.spec
	dst := newCanvas(int(s.Width), int(s.Height), color.White)

	titleStyle := textStyle{size: s.TitleSize, lineHeight: titleLineHeight, bold: true}
	drawLines(dst, p.fc.face(s.TitleSize, true), titleStyle, p.title, s.Padding, s.Padding, p.contentWidth(), domain.AlignCenter, color.Black)

	top := s.Padding + p.titleHeight() + s.TitleGap
	colW := p.ColumnWidth()
	colH := p.ColumnHeight()
	xs := [2]float64{s.Padding, s.Padding + colW + s.ColumnGap}
	if s.RightToLeft {
		xs[0], xs[1] = xs[1], xs[0]
	}

	for c, col := range pg.Columns {
		y := top
		for i, it := range col.Items {
			if i > 0 {
				y += s.BlockGap
			}
			y += p.drawPlacement(dst, it, xs[c], y, colW, colH)
		}
	}
	return dst
}

// drawPlacement draws one block and returns the height it used. A compact
// block still taller than the column is scaled down uniformly to fit.
func (p *Pager) drawPlacement(dst *image.RGBA, it layout.Placement, x, y, w, colH float64) float64 {
	b := p.blocks[it.Question]
	st := p.spec.Block
	if it.Compact {
		st = st.Compact()
	}
	lay := layoutBlock(p.fc, st, b, w)
	if !it.Compact || lay.height <= colH {
		drawBlock(dst, p.fc, st, b, lay, x, y, w)
		return lay.height
	}

	tmp := newCanvas(int(w), int(lay.height), color.White)
	drawBlock(tmp, p.fc, st, b, lay, 0, 0, w)
	k := colH / lay.height
	drawScaled(dst, rectF(x, y, w*k, colH), tmp)
	return colH
}
