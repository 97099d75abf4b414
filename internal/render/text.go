package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"arafiles/internal/domain"
)

// textStyle is one run of wrapped text: a face size in device pixels plus a
// line-height factor.
type textStyle struct {
	size       float64
	lineHeight float64
	bold       bool
}

func (t textStyle) lineBox() float64 {
	return math.Ceil(t.size * t.lineHeight)
}

func measureString(face font.Face, s string) float64 {
	if s == "" {
		return 0
	}
	return float64(font.MeasureString(face, s)) / 64
}

// wrapText breaks text into lines no wider than maxWidth. Explicit
// newlines are kept; a single word wider than maxWidth is split by rune.
func wrapText(face font.Face, text string, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if measureString(face, candidate) <= maxWidth {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			if measureString(face, w) <= maxWidth {
				line = w
				continue
			}
			parts := splitRunes(face, w, maxWidth)
			lines = append(lines, parts[:len(parts)-1]...)
			line = parts[len(parts)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

func splitRunes(face font.Face, word string, maxWidth float64) []string {
	var parts []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && measureString(face, string(next)) > maxWidth {
			parts = append(parts, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(parts, string(cur))
}

// alignX returns the left edge of a line of width w inside [left, left+box].
func alignX(a domain.Alignment, left, box, w float64) float64 {
	switch a {
	case domain.AlignCenter:
		return left + (box-w)/2
	case domain.AlignRight:
		return left + box - w
	}
	return left
}

// drawLines draws pre-wrapped lines starting at top and returns the y just
// below the last line box.
func drawLines(dst draw.Image, face font.Face, st textStyle, lines []string, left, top, box float64, a domain.Alignment, col color.Color) float64 {
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lh := st.lineBox()
	src := image.NewUniform(col)
	y := top
	for _, l := range lines {
		baseline := y + (lh-(ascent+descent))/2 + ascent
		x := alignX(a, left, box, measureString(face, l))
		d := &font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)},
		}
		d.DrawString(l)
		y += lh
	}
	return y
}
