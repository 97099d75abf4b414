package domain

import (
	"time"

	"github.com/samber/lo"
)

// DocumentVersion is written into every persisted payload and backup.
const DocumentVersion = 2

const (
	DefaultTheme      = "dark"
	DefaultBackground = "gradient1"
)

// Document is the whole editable state: preferences plus the folder tree.
// The same shape is persisted by the metadata store and written as data.json
// inside backup archives.
type Document struct {
	Version    int       `json:"version"`
	Theme      string    `json:"theme"`
	Background string    `json:"background"`
	ExportedAt time.Time `json:"exportedAt"`
	Folders    []Folder  `json:"folders"`
}

// NewDocument returns an empty document with default preferences.
func NewDocument() *Document {
	return &Document{
		Version:    DocumentVersion,
		Theme:      DefaultTheme,
		Background: DefaultBackground,
		Folders:    []Folder{},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := *d
	out.Folders = make([]Folder, len(d.Folders))
	for i, f := range d.Folders {
		out.Folders[i] = f.Clone()
	}
	return &out
}

// Normalize fills defaults and migrates legacy image payloads.
// A question carrying both a blob reference and an inline legacy image
// keeps only the reference. A legacy-only question is left untouched.
func (d *Document) Normalize() {
	if d.Version == 0 {
		d.Version = DocumentVersion
	}
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	if d.Background == "" {
		d.Background = DefaultBackground
	}
	if d.Folders == nil {
		d.Folders = []Folder{}
	}
	for i := range d.Folders {
		f := &d.Folders[i]
		if f.Questions == nil {
			f.Questions = []Question{}
		}
		if f.Color == "" {
			f.Color = DefaultColor
		}
		f.PerPage = ClampPerPage(f.PerPage)
		if !ValidNumberAlign(f.NumberAlign) {
			f.NumberAlign = AlignRight
		}
		for j := range f.Questions {
			q := &f.Questions[j]
			if q.Options == nil {
				q.Options = []string{}
			}
			if q.ImageRef != "" && q.LegacyImage != "" {
				q.LegacyImage = ""
			}
			if q.Kind == "" {
				q.Kind = QuestionText
				if q.HasImage() {
					q.Kind = QuestionImage
				}
			}
			if !ValidAlign(q.Align) {
				q.Align = ""
			}
		}
	}
}

// BlobRefs returns the distinct blob ids referenced by any question, in
// document order.
func (d *Document) BlobRefs() []string {
	var refs []string
	for _, f := range d.Folders {
		for _, q := range f.Questions {
			if q.ImageRef != "" {
				refs = append(refs, q.ImageRef)
			}
		}
	}
	return lo.Uniq(refs)
}

// References reports whether any question references blobID.
func (d *Document) References(blobID string) bool {
	return lo.Contains(d.BlobRefs(), blobID)
}
