package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"arafiles/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Document Service — folder/question mutations
// ─────────────────────────────────────────────────────────────

// DocumentService owns the working document. Every mutation returns a
// domain.Change, schedules a debounced persist and emits
// EventDocumentChanged. Rejected no-ops return domain.NoChange and a nil
// error. Blob I/O for a mutation runs while the document lock is held so
// mutations stay strictly ordered.
type DocumentService struct {
	mu  sync.Mutex
	doc *domain.Document
	// keys[i] identifies doc.Folders[i] for as long as it exists, across
	// index shifts. Never persisted.
	keys    []uint64
	nextKey uint64

	blobs     domain.BlobStore
	meta      domain.MetadataStore
	persister *Persister
	emitter   EventEmitter
	log       *zap.Logger
}

// NewDocumentService creates a DocumentService over an empty document.
// Call Load to read the persisted one.
func NewDocumentService(blobs domain.BlobStore, meta domain.MetadataStore, persister *Persister, emitter EventEmitter, log *zap.Logger) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{
		doc:       domain.NewDocument(),
		blobs:     blobs,
		meta:      meta,
		persister: persister,
		emitter:   emitter,
		log:       log.Named("document"),
	}
}

// Load replaces the working document with the persisted one.
func (s *DocumentService) Load(ctx context.Context) error {
	doc, err := s.meta.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.rekey()
	s.mu.Unlock()
	s.log.Info("document loaded", zap.Int("folders", len(doc.Folders)))
	return nil
}

// Flush writes any pending debounced save now. Used on shutdown.
func (s *DocumentService) Flush(ctx context.Context) error {
	return s.persister.Flush(ctx)
}

// Snapshot returns a deep copy of the working document.
func (s *DocumentService) Snapshot() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Folder returns a copy of one folder.
func (s *DocumentService) Folder(i int) (domain.Folder, error) {
	f, _, err := s.folderRef(i)
	return f, err
}

// mutate runs fn under the lock and, when it changed something, persists
// and announces the result.
func (s *DocumentService) mutate(ctx context.Context, fn func(doc *domain.Document) (domain.Change, error)) (domain.Change, error) {
	s.mu.Lock()
	change, err := fn(s.doc)
	var snap *domain.Document
	if err == nil && change.Changed() {
		snap = s.doc.Clone()
	}
	s.mu.Unlock()

	if err != nil {
		return domain.NoChange, err
	}
	if snap == nil {
		return domain.NoChange, nil
	}
	s.persister.Schedule(snap)
	s.emit(ctx, change)
	return change, nil
}

func (s *DocumentService) emit(ctx context.Context, change domain.Change) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, EventDocumentChanged, change)
	}
}

// folderRef returns a copy of folder i and its identity key.
func (s *DocumentService) folderRef(i int) (domain.Folder, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.folder(i)
	if err != nil {
		return domain.Folder{}, 0, err
	}
	return f.Clone(), s.keys[i], nil
}

func (s *DocumentService) newKey() uint64 {
	s.nextKey++
	return s.nextKey
}

// rekey assigns fresh keys to every folder of s.doc.
func (s *DocumentService) rekey() {
	s.keys = make([]uint64, len(s.doc.Folders))
	for i := range s.keys {
		s.keys[i] = s.newKey()
	}
}

func (s *DocumentService) folder(i int) (*domain.Folder, error) {
	if i < 0 || i >= len(s.doc.Folders) {
		return nil, fmt.Errorf("folder %d: %w", i, domain.ErrFolderNotFound)
	}
	return &s.doc.Folders[i], nil
}

func (s *DocumentService) question(fi, qi int) (*domain.Question, error) {
	f, err := s.folder(fi)
	if err != nil {
		return nil, err
	}
	if qi < 0 || qi >= len(f.Questions) {
		return nil, fmt.Errorf("question %d in folder %d: %w", qi, fi, domain.ErrQuestionNotFound)
	}
	return &f.Questions[qi], nil
}

// ── Folders ──────────────────────────────────────────────────

// AddFolder appends a folder. An empty name is a no-op.
func (s *DocumentService) AddFolder(ctx context.Context, name, desc string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		if strings.TrimSpace(name) == "" {
			return domain.NoChange, nil
		}
		doc.Folders = append(doc.Folders, domain.NewFolder(name, desc))
		s.keys = append(s.keys, s.newKey())
		return domain.FolderChange(domain.ChangeFolderAdded, len(doc.Folders)-1), nil
	})
}

// DeleteFolder removes a folder. Blobs owned by its questions stay in the
// blob store until a full reset.
func (s *DocumentService) DeleteFolder(ctx context.Context, i int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(i)
		if err != nil {
			return domain.NoChange, err
		}
		refs := lo.FilterMap(f.Questions, func(q domain.Question, _ int) (string, bool) {
			return q.ImageRef, q.ImageRef != ""
		})
		doc.Folders = append(doc.Folders[:i], doc.Folders[i+1:]...)
		s.keys = append(s.keys[:i], s.keys[i+1:]...)
		if left := lo.CountBy(refs, func(id string) bool { return !doc.References(id) }); left > 0 {
			s.log.Warn("deleted folder leaves unreferenced blobs", zap.Int("folder", i), zap.Int("blobs", left))
		}
		return domain.FolderChange(domain.ChangeFolderDeleted, i), nil
	})
}

// BlobLister is a blob store that can enumerate its ids.
type BlobLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Orphans returns the ids of stored blobs no question references, oldest
// first. Deleting a folder leaves its blobs behind; these are them.
func (s *DocumentService) Orphans(ctx context.Context) ([]string, error) {
	lister, ok := s.blobs.(BlobLister)
	if !ok {
		return nil, fmt.Errorf("orphans: blob store cannot list ids")
	}
	// list under the lock so a concurrent capture isn't miscounted
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := lister.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("orphans: %w", err)
	}
	return lo.Reject(ids, func(id string, _ int) bool { return s.doc.References(id) }), nil
}

// EditFolder updates name, description and accent color in place.
// An empty color resets to the default.
func (s *DocumentService) EditFolder(ctx context.Context, i int, name, desc, color string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(i)
		if err != nil {
			return domain.NoChange, err
		}
		if color == "" {
			color = domain.DefaultColor
		}
		f.Name, f.Desc, f.Color = name, desc, color
		return domain.FolderChange(domain.ChangeFolderEdited, i), nil
	})
}

// SetFolderLayout updates questions-per-page (clamped to 2..20) and the
// question number alignment.
func (s *DocumentService) SetFolderLayout(ctx context.Context, i, perPage int, numberAlign domain.Alignment) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(i)
		if err != nil {
			return domain.NoChange, err
		}
		if !domain.ValidNumberAlign(numberAlign) {
			return domain.NoChange, fmt.Errorf("number alignment %q: must be left or right", numberAlign)
		}
		f.PerPage = domain.ClampPerPage(perPage)
		f.NumberAlign = numberAlign
		return domain.FolderChange(domain.ChangeFolderLayout, i), nil
	})
}

// ── Questions ────────────────────────────────────────────────

// AddTextQuestion appends a text question with no options.
func (s *DocumentService) AddTextQuestion(ctx context.Context, fi int, text string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(fi)
		if err != nil {
			return domain.NoChange, err
		}
		f.Questions = append(f.Questions, domain.NewTextQuestion(text))
		return domain.QuestionChange(domain.ChangeQuestionAdded, fi, len(f.Questions)-1), nil
	})
}

// AddImageQuestion appends an image question owning an already stored blob.
func (s *DocumentService) AddImageQuestion(ctx context.Context, fi int, blobID string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(fi)
		if err != nil {
			return domain.NoChange, err
		}
		f.Questions = append(f.Questions, domain.NewImageQuestion(blobID))
		return domain.QuestionChange(domain.ChangeQuestionAdded, fi, len(f.Questions)-1), nil
	})
}

// CaptureImageQuestion stores raw image bytes as a new blob and appends an
// image question owning it. Only png, jpeg and webp are accepted.
func (s *DocumentService) CaptureImageQuestion(ctx context.Context, fi int, data []byte) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(fi)
		if err != nil {
			return domain.NoChange, err
		}
		mime, err := SniffImage(data)
		if err != nil {
			return domain.NoChange, err
		}
		id, err := s.blobs.Put(ctx, data, mime)
		if err != nil {
			return domain.NoChange, fmt.Errorf("store captured image: %w", err)
		}
		f.Questions = append(f.Questions, domain.NewImageQuestion(id))
		return domain.QuestionChange(domain.ChangeQuestionAdded, fi, len(f.Questions)-1), nil
	})
}

// ImportImage files an image under the folder named folderName, creating
// the folder when no folder has that name. The first match wins.
func (s *DocumentService) ImportImage(ctx context.Context, folderName string, data []byte) (domain.Change, error) {
	if strings.TrimSpace(folderName) == "" {
		return domain.NoChange, fmt.Errorf("import image: %w", domain.ErrFolderNotFound)
	}
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		mime, err := SniffImage(data)
		if err != nil {
			return domain.NoChange, err
		}
		_, fi, found := lo.FindIndexOf(doc.Folders, func(f domain.Folder) bool { return f.Name == folderName })
		if !found {
			doc.Folders = append(doc.Folders, domain.NewFolder(folderName, ""))
			s.keys = append(s.keys, s.newKey())
			fi = len(doc.Folders) - 1
		}
		id, err := s.blobs.Put(ctx, data, mime)
		if err != nil {
			if !found {
				doc.Folders = doc.Folders[:fi]
				s.keys = s.keys[:fi]
			}
			return domain.NoChange, fmt.Errorf("store imported image: %w", err)
		}
		f := &doc.Folders[fi]
		f.Questions = append(f.Questions, domain.NewImageQuestion(id))
		return domain.QuestionChange(domain.ChangeQuestionAdded, fi, len(f.Questions)-1), nil
	})
}

func (s *DocumentService) EditQuestionText(ctx context.Context, fi, qi int, text string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		q.Text = text
		return domain.QuestionChange(domain.ChangeQuestionEdited, fi, qi), nil
	})
}

// EditQuestionImage replaces a question's image. The new blob is stored
// first; the old blob is deleted only after that succeeds, and a failed
// delete just leaves an orphan. The legacy inline payload is dropped.
func (s *DocumentService) EditQuestionImage(ctx context.Context, fi, qi int, data []byte) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		mime, err := SniffImage(data)
		if err != nil {
			return domain.NoChange, err
		}
		id, err := s.blobs.Put(ctx, data, mime)
		if err != nil {
			return domain.NoChange, fmt.Errorf("store replacement image: %w", err)
		}

		old := q.ImageRef
		q.ImageRef = id
		q.LegacyImage = ""
		q.Kind = domain.QuestionImage

		if old != "" && old != id {
			if err := s.blobs.Delete(ctx, old); err != nil {
				s.log.Warn("delete replaced blob", zap.String("blob", old), zap.Error(err))
			}
		}
		return domain.QuestionChange(domain.ChangeQuestionImage, fi, qi), nil
	})
}

// EditQuestionAlign sets the block alignment. The empty alignment means
// "follow the text direction".
func (s *DocumentService) EditQuestionAlign(ctx context.Context, fi, qi int, align domain.Alignment) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		if !domain.ValidAlign(align) {
			return domain.NoChange, fmt.Errorf("alignment %q: must be left, center or right", align)
		}
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		q.Align = align
		return domain.QuestionChange(domain.ChangeQuestionAlign, fi, qi), nil
	})
}

// CycleQuestionAlign advances center -> right -> left -> center.
func (s *DocumentService) CycleQuestionAlign(ctx context.Context, fi, qi int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		q.Align = q.NextAlign()
		return domain.QuestionChange(domain.ChangeQuestionAlign, fi, qi), nil
	})
}

// DeleteQuestion deletes the owned blob first, then removes the question.
// A failed blob delete is logged and the question is removed anyway.
func (s *DocumentService) DeleteQuestion(ctx context.Context, fi, qi int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		if q.ImageRef != "" {
			if err := s.blobs.Delete(ctx, q.ImageRef); err != nil {
				s.log.Warn("delete question blob", zap.String("blob", q.ImageRef), zap.Error(err))
			}
		}
		f := &doc.Folders[fi]
		f.Questions = append(f.Questions[:qi], f.Questions[qi+1:]...)
		return domain.QuestionChange(domain.ChangeQuestionDeleted, fi, qi), nil
	})
}

// MoveQuestion reorders by remove-then-insert. from == to or an invalid
// question index is a no-op.
func (s *DocumentService) MoveQuestion(ctx context.Context, fi, from, to int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		f, err := s.folder(fi)
		if err != nil {
			return domain.NoChange, err
		}
		n := len(f.Questions)
		if from == to || from < 0 || from >= n || to < 0 || to >= n {
			return domain.NoChange, nil
		}
		q := f.Questions[from]
		qs := append(f.Questions[:from:from], f.Questions[from+1:]...)
		qs = append(qs[:to], append([]domain.Question{q}, qs[to:]...)...)
		f.Questions = qs
		change := domain.QuestionChange(domain.ChangeQuestionMoved, fi, from)
		change.To = to
		return change, nil
	})
}

// ── Options ──────────────────────────────────────────────────

// EditQuestionOptions replaces the whole option list.
func (s *DocumentService) EditQuestionOptions(ctx context.Context, fi, qi int, options []string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		q.Options = append([]string{}, options...)
		return domain.QuestionChange(domain.ChangeQuestionOptions, fi, qi), nil
	})
}

// AddOption appends an empty option.
func (s *DocumentService) AddOption(ctx context.Context, fi, qi int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		q.Options = append(q.Options, "")
		return domain.QuestionChange(domain.ChangeQuestionOptions, fi, qi), nil
	})
}

// SetOption updates one option. An out-of-range option index is a no-op.
func (s *DocumentService) SetOption(ctx context.Context, fi, qi, oi int, text string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		if oi < 0 || oi >= len(q.Options) {
			return domain.NoChange, nil
		}
		q.Options[oi] = text
		return domain.QuestionChange(domain.ChangeQuestionOptions, fi, qi), nil
	})
}

// RemoveOption removes one option. An out-of-range option index is a no-op.
func (s *DocumentService) RemoveOption(ctx context.Context, fi, qi, oi int) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		q, err := s.question(fi, qi)
		if err != nil {
			return domain.NoChange, err
		}
		if oi < 0 || oi >= len(q.Options) {
			return domain.NoChange, nil
		}
		q.Options = append(q.Options[:oi], q.Options[oi+1:]...)
		return domain.QuestionChange(domain.ChangeQuestionOptions, fi, qi), nil
	})
}

// ── Preferences ──────────────────────────────────────────────

func (s *DocumentService) SetTheme(ctx context.Context, theme string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		if theme == "" || theme == doc.Theme {
			return domain.NoChange, nil
		}
		doc.Theme = theme
		return domain.FolderChange(domain.ChangePreferences, -1), nil
	})
}

func (s *DocumentService) SetBackground(ctx context.Context, background string) (domain.Change, error) {
	return s.mutate(ctx, func(doc *domain.Document) (domain.Change, error) {
		if background == "" || background == doc.Background {
			return domain.NoChange, nil
		}
		doc.Background = background
		return domain.FolderChange(domain.ChangePreferences, -1), nil
	})
}

// ── Whole document ───────────────────────────────────────────

// Replace swaps in a new working document, as after a backup import.
func (s *DocumentService) Replace(ctx context.Context, doc *domain.Document) (domain.Change, error) {
	doc = doc.Clone()
	doc.Normalize()
	return s.mutate(ctx, func(*domain.Document) (domain.Change, error) {
		s.doc = doc
		s.rekey()
		return domain.FolderChange(domain.ChangeDocumentReplaced, -1), nil
	})
}

// Reset clears every blob and the persisted document, then starts over
// with an empty document.
func (s *DocumentService) Reset(ctx context.Context) (domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop unsaved state and wait out an in-flight save before anything is
	// cleared, so the old document cannot be written back afterwards.
	s.persister.Discard()
	if err := s.blobs.Clear(ctx); err != nil {
		return domain.NoChange, fmt.Errorf("reset: %w", err)
	}
	if err := s.meta.Clear(ctx); err != nil {
		return domain.NoChange, fmt.Errorf("reset: %w", err)
	}
	s.doc = domain.NewDocument()
	s.keys = nil
	change := domain.FolderChange(domain.ChangeDocumentReset, -1)
	s.emit(ctx, change)
	s.log.Info("document reset")
	return change, nil
}

// ── Images ───────────────────────────────────────────────────

// ImageData is a question image ready for display or rendering.
type ImageData struct {
	Bytes    []byte
	MimeType string
}

// QuestionImage resolves a question's image: blob reference first, then the
// legacy inline data URL. A dangling reference yields nil, not an error.
func (s *DocumentService) QuestionImage(ctx context.Context, fi, qi int) (*ImageData, error) {
	s.mu.Lock()
	q, err := s.question(fi, qi)
	var ref, legacy string
	if err == nil {
		ref, legacy = q.ImageRef, q.LegacyImage
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return ResolveImage(ctx, s.blobs, ref, legacy, s.log)
}

// ResolveImage loads the image for a blob reference or a legacy data URL.
// Missing blobs and undecodable data URLs resolve to nil.
func ResolveImage(ctx context.Context, blobs domain.BlobStore, ref, legacy string, log *zap.Logger) (*ImageData, error) {
	if ref != "" {
		b, err := blobs.Get(ctx, ref)
		switch {
		case errors.Is(err, domain.ErrMissingBlob):
			log.Debug("dangling image reference", zap.String("blob", ref))
			return nil, nil
		case err != nil:
			return nil, err
		}
		return &ImageData{Bytes: b.Bytes, MimeType: b.MimeType}, nil
	}
	if legacy != "" {
		data, mime, ok := decodeDataURL(legacy)
		if !ok {
			log.Debug("undecodable legacy image")
			return nil, nil
		}
		return &ImageData{Bytes: data, MimeType: mime}, nil
	}
	return nil, nil
}

// decodeDataURL parses "data:<mime>;base64,<payload>".
func decodeDataURL(s string) ([]byte, string, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = domain.MimePNG
	}
	return data, mime, true
}

// SniffImage returns the mime type of png, jpeg or webp data and
// ErrUnsupportedImage for anything else.
func SniffImage(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	switch mime {
	case domain.MimePNG, domain.MimeJPEG, domain.MimeWebP:
		return mime, nil
	}
	return "", fmt.Errorf("%s: %w", mime, domain.ErrUnsupportedImage)
}
