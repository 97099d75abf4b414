package domain

// Alignment is the horizontal alignment of a question block or its number.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

const (
	DefaultColor   = "#3B82F6"
	DefaultPerPage = 6
	MinPerPage     = 2
	MaxPerPage     = 20
)

// Folder is a named, ordered collection of questions.
// Its identity is its position in Document.Folders.
type Folder struct {
	Name        string     `json:"name"`
	Desc        string     `json:"desc"`
	Color       string     `json:"color"`
	PerPage     int        `json:"perPage"`
	NumberAlign Alignment  `json:"numberAlign"`
	Questions   []Question `json:"questions"`
}

// NewFolder returns a folder with the defaults the editor starts from.
func NewFolder(name, desc string) Folder {
	return Folder{
		Name:        name,
		Desc:        desc,
		Color:       DefaultColor,
		PerPage:     DefaultPerPage,
		NumberAlign: AlignRight,
		Questions:   []Question{},
	}
}

// Clone returns a deep copy of the folder.
func (f Folder) Clone() Folder {
	out := f
	out.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		out.Questions[i] = q.Clone()
	}
	return out
}

// Title is the heading used on exported pages.
func (f Folder) Title() string {
	if f.Name == "" {
		return "Arafiles"
	}
	return f.Name
}

// ValidNumberAlign reports whether a is usable as a question number alignment.
func ValidNumberAlign(a Alignment) bool {
	return a == AlignLeft || a == AlignRight
}

// ValidAlign reports whether a is usable as a block alignment.
// The empty alignment means "follow the text direction".
func ValidAlign(a Alignment) bool {
	switch a {
	case "", AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// ClampPerPage maps 0 to the default and clamps everything else to MinPerPage..MaxPerPage.
func ClampPerPage(n int) int {
	switch {
	case n == 0:
		return DefaultPerPage
	case n < MinPerPage:
		return MinPerPage
	case n > MaxPerPage:
		return MaxPerPage
	}
	return n
}
