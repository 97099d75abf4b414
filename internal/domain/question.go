package domain

import (
	"strconv"
	"strings"
)

type QuestionKind string

const (
	QuestionText  QuestionKind = "text"
	QuestionImage QuestionKind = "image"
)

// Question is a single quiz item. Kind discriminates the two variants:
// text questions never own a blob, image questions own ImageRef exclusively.
// LegacyImage holds an inline data URL written by older versions and is
// only read when ImageRef is empty.
type Question struct {
	Kind        QuestionKind `json:"type"`
	Text        string       `json:"text"`
	ImageRef    string       `json:"imageId,omitempty"`
	LegacyImage string       `json:"image,omitempty"`
	Options     []string     `json:"options"`
	Align       Alignment    `json:"align,omitempty"`
}

// NewTextQuestion returns an empty-options text question.
func NewTextQuestion(text string) Question {
	return Question{Kind: QuestionText, Text: text, Options: []string{}}
}

// NewImageQuestion returns an image question owning blobID.
func NewImageQuestion(blobID string) Question {
	return Question{Kind: QuestionImage, ImageRef: blobID, Options: []string{}}
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	out := q
	out.Options = append([]string{}, q.Options...)
	return out
}

// HasImage reports whether the question references any image payload.
func (q Question) HasImage() bool {
	return q.ImageRef != "" || q.LegacyImage != ""
}

// Label is the header shown for the question: "N. text" or just "N.".
func (q Question) Label(number int) string {
	if strings.TrimSpace(q.Text) == "" {
		return strconv.Itoa(number) + "."
	}
	return strconv.Itoa(number) + ". " + q.Text
}

// NextAlign cycles center -> right -> left -> center.
func (q Question) NextAlign() Alignment {
	switch q.Align {
	case AlignCenter:
		return AlignRight
	case AlignRight:
		return AlignLeft
	}
	return AlignCenter
}
