package domain

type Direction string

const (
	DirLTR Direction = "ltr"
	DirRTL Direction = "rtl"
)

// DetectDirection returns rtl when text contains any rune of the Arabic
// block (U+0600..U+06FF), ltr otherwise. Display only, never stored.
func DetectDirection(text string) Direction {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return DirRTL
		}
	}
	return DirLTR
}

// Start is the alignment a block falls back to when none is set.
func (d Direction) Start() Alignment {
	if d == DirRTL {
		return AlignRight
	}
	return AlignLeft
}
