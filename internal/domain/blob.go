package domain

import (
	"context"
	"strings"
	"time"
)

// Blob is a stored image payload.
type Blob struct {
	ID        string    `json:"id"`
	Bytes     []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlobStore holds image payloads keyed by an opaque id.
// Get returns an error wrapping ErrMissingBlob when the id is unknown.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	PutWithID(ctx context.Context, id string, data []byte, mimeType string) error
	Get(ctx context.Context, id string) (*Blob, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// MetadataStore durably holds the serialized document.
// Load returns a fresh document when nothing has been saved yet.
type MetadataStore interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Clear(ctx context.Context) error
}

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

// ExtForMime maps a stored mime type to the archive file extension.
func ExtForMime(mime string) string {
	switch {
	case strings.Contains(mime, "jpeg"):
		return "jpg"
	case strings.Contains(mime, "webp"):
		return "webp"
	}
	return "png"
}

// MimeForExt is the inverse of ExtForMime, used when restoring archives.
func MimeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return MimeJPEG
	case "webp":
		return MimeWebP
	}
	return MimePNG
}
