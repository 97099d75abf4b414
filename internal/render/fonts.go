package render

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet is a parsed regular/bold pair. Parsed fonts are safe to share;
// faces are not, so each render builds its own faceCache.
type FontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

var (
	defaultFontsOnce sync.Once
	defaultFonts     *FontSet
	defaultFontsErr  error
)

// DefaultFonts returns the embedded Go font pair.
func DefaultFonts() (*FontSet, error) {
	defaultFontsOnce.Do(func() {
		reg, err := opentype.Parse(goregular.TTF)
		if err != nil {
			defaultFontsErr = fmt.Errorf("parse regular font: %w", err)
			return
		}
		bol, err := opentype.Parse(gobold.TTF)
		if err != nil {
			defaultFontsErr = fmt.Errorf("parse bold font: %w", err)
			return
		}
		defaultFonts = &FontSet{regular: reg, bold: bol}
	})
	return defaultFonts, defaultFontsErr
}

// LoadFonts reads a regular/bold pair from TTF or OTF files. An empty bold
// path reuses the regular font. Empty paths fall back to DefaultFonts.
func LoadFonts(regularPath, boldPath string) (*FontSet, error) {
	if regularPath == "" {
		return DefaultFonts()
	}
	reg, err := parseFontFile(regularPath)
	if err != nil {
		return nil, err
	}
	bol := reg
	if boldPath != "" {
		if bol, err = parseFontFile(boldPath); err != nil {
			return nil, err
		}
	}
	return &FontSet{regular: reg, bold: bol}, nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

type fontKey struct {
	size float64
	bold bool
}

type faceCache struct {
	fonts *FontSet
	cache map[fontKey]font.Face
}

func newFaceCache(fonts *FontSet) *faceCache {
	return &faceCache{fonts: fonts, cache: map[fontKey]font.Face{}}
}

// face returns a face of size pixels. Sizes are device pixels, so DPI is 72.
func (c *faceCache) face(size float64, bold bool) font.Face {
	key := fontKey{size: size, bold: bold}
	if f, ok := c.cache[key]; ok {
		return f
	}
	base := c.fonts.regular
	if bold {
		base = c.fonts.bold
	}
	if base == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	c.cache[key] = f
	return f
}

func (c *faceCache) close() {
	for _, f := range c.cache {
		f.Close()
	}
	c.cache = map[fontKey]font.Face{}
}
