package render

import (
	"context"
	"image"
	"image/color"
	"math"

	"arafiles/internal/domain"
)

// SheetSpec is the single tall image export: a title over two balanced
// columns with no page height limit. Sizes are CSS pixels.
type SheetSpec struct {
	Width       float64
	Padding     float64
	TitleSize   float64
	TitleGap    float64
	ColumnGap   float64
	BlockMargin float64
	Scale       float64
	Block       BlockStyle
	RightToLeft bool
}

// DefaultSheetSpec mirrors the on-screen export view.
func DefaultSheetSpec() SheetSpec {
	return SheetSpec{
		Width:       794,
		Padding:     32,
		TitleSize:   24,
		TitleGap:    20,
		ColumnGap:   18,
		BlockMargin: 12,
		Scale:       3,
		Block:       SheetBlockStyle(),
	}
}

func (s SheetSpec) scaled() SheetSpec {
	k := s.Scale
	if k <= 0 {
		k = 1
	}
	s.Width = math.Round(s.Width * k)
	s.Padding *= k
	s.TitleSize *= k
	s.TitleGap *= k
	s.ColumnGap *= k
	s.BlockMargin *= k
	s.Block = s.Block.scaled(k)
	s.Scale = 1
	return s
}

// BalanceSplit returns k such that items [0,k) go to column 1 and [k,n) to
// column 2, minimising the taller column. Ties favour a taller column 1.
func BalanceSplit(heights []float64) int {
	total := 0.0
	for _, h := range heights {
		total += h
	}
	best, bestK := math.Inf(1), 0
	prefix := 0.0
	for k := 0; k <= len(heights); k++ {
		if k > 0 {
			prefix += heights[k-1]
		}
		if m := math.Max(prefix, total-prefix); m <= best {
			best, bestK = m, k
		}
	}
	return bestK
}

// RenderSheet rasterizes blocks as one image.
func RenderSheet(ctx context.Context, fonts *FontSet, spec SheetSpec, title string, blocks []Block) (*image.RGBA, error) {
	s := spec.scaled()
	fc := newFaceCache(fonts)
	defer fc.close()

	content := s.Width - 2*s.Padding
	colW := math.Floor((content - s.ColumnGap) / 2)

	titleFace := fc.face(s.TitleSize, true)
	titleStyle := textStyle{size: s.TitleSize, lineHeight: titleLineHeight, bold: true}
	titleLines := wrapText(titleFace, title, content)
	titleH := float64(len(titleLines)) * titleStyle.lineBox()

	lays := make([]blockLayout, len(blocks))
	heights := make([]float64, len(blocks))
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lays[i] = layoutBlock(fc, s.Block, b, colW)
		heights[i] = lays[i].height + s.BlockMargin
	}
	split := BalanceSplit(heights)
	colHeights := [2]float64{}
	for i, h := range heights {
		if i < split {
			colHeights[0] += h
		} else {
			colHeights[1] += h
		}
	}

	total := 2*s.Padding + titleH + s.TitleGap + math.Max(colHeights[0], colHeights[1])
	dst := newCanvas(int(s.Width), int(math.Ceil(total)), color.White)
	drawLines(dst, titleFace, titleStyle, titleLines, s.Padding, s.Padding, content, domain.AlignCenter, color.Black)

	top := s.Padding + titleH + s.TitleGap
	xs := [2]float64{s.Padding, s.Padding + colW + s.ColumnGap}
	if s.RightToLeft {
		xs[0], xs[1] = xs[1], xs[0]
	}
	ys := [2]float64{top, top}
	for i, b := range blocks {
		c := 0
		if i >= split {
			c = 1
		}
		drawBlock(dst, fc, s.Block, b, lays[i], xs[c], ys[c], colW)
		ys[c] += heights[i]
	}
	return dst, nil
}
