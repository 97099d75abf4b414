package layout

import (
	"context"
	"fmt"
	"math"
)

// Placement is one question on a page, by its index in the folder.
// Compact marks a block force-placed because it is taller than a column.
type Placement struct {
	Question int  `json:"question"`
	Compact  bool `json:"compact,omitempty"`
}

// Column is an ordered run of placements and the height it uses.
type Column struct {
	Items  []Placement `json:"items"`
	Height float64     `json:"height"`
}

// Page is a two-column page.
type Page struct {
	Columns [2]Column `json:"columns"`
}

// Empty reports whether neither column holds anything.
func (p Page) Empty() bool {
	return len(p.Columns[0].Items) == 0 && len(p.Columns[1].Items) == 0
}

// Questions lists the placed question indexes, column 1 then column 2.
func (p Page) Questions() []int {
	var out []int
	for _, c := range p.Columns {
		for _, it := range c.Items {
			out = append(out, it.Question)
		}
	}
	return out
}

// MeasureFunc returns the rendered height of question i.
type MeasureFunc func(ctx context.Context, i int) (float64, error)

// EmitFunc receives each finished page, in order.
type EmitFunc func(ctx context.Context, p Page) error

// Engine is the greedy two-column paginator. Questions fill column 1, then
// column 2, then a new page; nothing is ever moved back or rebalanced.
type Engine struct {
	columnHeight float64
	gap          float64
}

// NewEngine creates an Engine for columns of the given height with gap
// between consecutive blocks.
func NewEngine(columnHeight, gap float64) *Engine {
	return &Engine{columnHeight: columnHeight, gap: gap}
}

func (e *Engine) ColumnHeight() float64 { return e.columnHeight }

func (e *Engine) fits(c *Column, h float64) bool {
	if len(c.Items) == 0 {
		return h <= e.columnHeight
	}
	return c.Height+e.gap+h <= e.columnHeight
}

func (e *Engine) place(c *Column, p Placement, h float64) {
	if len(c.Items) > 0 {
		c.Height += e.gap
	}
	c.Items = append(c.Items, p)
	c.Height += h
}

// Run paginates count questions. Each finished page goes to emit before the
// next question is measured. A block that does not fit even an empty
// column 1 is force-placed there as Compact and accounted as one full
// column at most. A page is only emitted when it holds something, so an
// empty folder yields no pages.
func (e *Engine) Run(ctx context.Context, count int, measure MeasureFunc, emit EmitFunc) error {
	if e.columnHeight <= 0 {
		return fmt.Errorf("column height %.1f: must be positive", e.columnHeight)
	}

	var page Page
	col := 0

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := measure(ctx, i)
		if err != nil {
			return fmt.Errorf("measure question %d: %w", i, err)
		}

		if e.fits(&page.Columns[col], h) {
			e.place(&page.Columns[col], Placement{Question: i}, h)
			continue
		}
		if col == 0 {
			col = 1
			if e.fits(&page.Columns[col], h) {
				e.place(&page.Columns[col], Placement{Question: i}, h)
				continue
			}
		}

		if !page.Empty() {
			if err := emit(ctx, page); err != nil {
				return err
			}
		}
		page = Page{}
		col = 0
		if e.fits(&page.Columns[0], h) {
			e.place(&page.Columns[0], Placement{Question: i}, h)
			continue
		}
		e.place(&page.Columns[0], Placement{Question: i, Compact: true}, math.Min(h, e.columnHeight))
	}

	if !page.Empty() {
		return emit(ctx, page)
	}
	return nil
}

// Paginate runs the engine and collects the pages.
func (e *Engine) Paginate(ctx context.Context, count int, measure MeasureFunc) ([]Page, error) {
	var pages []Page
	err := e.Run(ctx, count, measure, func(_ context.Context, p Page) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// Heights adapts a fixed list of heights into a MeasureFunc.
func Heights(hs []float64) MeasureFunc {
	return func(_ context.Context, i int) (float64, error) {
		if i < 0 || i >= len(hs) {
			return 0, fmt.Errorf("no height for question %d", i)
		}
		return hs[i], nil
	}
}
