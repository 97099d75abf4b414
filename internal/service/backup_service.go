package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arafiles/internal/archive"
	"arafiles/internal/domain"
)

const (
	backupDataFile = "data.json"
	backupImageDir = "images/"

	// blobFetchLimit bounds concurrent blob reads while building an archive.
	blobFetchLimit = 4
)

// BackupFileName is the conventional archive name for a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("arafiles-backup-%d.zip", t.UnixMilli())
}

// BackupSummary describes an exported or imported archive.
type BackupSummary struct {
	Folders       int `json:"folders"`
	Questions     int `json:"questions"`
	Images        int `json:"images"`
	MissingImages int `json:"missingImages"`
}

// ─────────────────────────────────────────────────────────────
// Backup Service — zip archives of the document plus its blobs
// ─────────────────────────────────────────────────────────────

// BackupService writes and restores backup archives: data.json holding the
// document, plus images/<blobId>.<ext> for every referenced blob.
type BackupService struct {
	docs  *DocumentService
	blobs domain.BlobStore
	log   *zap.Logger
}

func NewBackupService(docs *DocumentService, blobs domain.BlobStore, log *zap.Logger) *BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupService{docs: docs, blobs: blobs, log: log.Named("backup")}
}

// Export writes an archive of the current document to w. Blobs that no
// longer resolve are left out and counted in MissingImages.
func (s *BackupService) Export(ctx context.Context, w io.Writer) (BackupSummary, error) {
	doc := s.docs.Snapshot()
	doc.Version = domain.DocumentVersion
	doc.ExportedAt = time.Now().UTC()

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return BackupSummary{}, fmt.Errorf("encode %s: %w", backupDataFile, err)
	}

	refs := doc.BlobRefs()
	fetched := make([]*domain.Blob, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobFetchLimit)
	for i, id := range refs {
		g.Go(func() error {
			b, err := s.blobs.Get(gctx, id)
			if errors.Is(err, domain.ErrMissingBlob) {
				s.log.Warn("referenced blob missing, skipped", zap.String("blob", id))
				return nil
			}
			if err != nil {
				return err
			}
			fetched[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BackupSummary{}, fmt.Errorf("collect images: %w", err)
	}

	files := []archive.File{{Name: backupDataFile, Data: payload}}
	summary := summarize(doc)
	for i, b := range fetched {
		if b == nil {
			summary.MissingImages++
			continue
		}
		files = append(files, archive.File{
			Name: backupImageDir + refs[i] + "." + domain.ExtForMime(b.MimeType),
			Data: b.Bytes,
		})
		summary.Images++
	}

	if err := archive.Write(w, files); err != nil {
		return BackupSummary{}, err
	}
	s.log.Info("backup exported",
		zap.Int("folders", summary.Folders),
		zap.Int("images", summary.Images),
		zap.Int("missing", summary.MissingImages),
	)
	return summary, nil
}

// Import restores an archive produced by Export (or by the browser app).
// data.json is validated before anything is written; every archived image
// is then stored under its original id and the working document replaced.
// A malformed archive fails with domain.ErrInvalidBackupFormat and leaves
// the document untouched.
func (s *BackupService) Import(ctx context.Context, data []byte) (BackupSummary, error) {
	files, err := archive.Read(data)
	if err != nil {
		return BackupSummary{}, fmt.Errorf("%w: %w", domain.ErrInvalidBackupFormat, err)
	}
	doc, err := decodeBackupDocument(files)
	if err != nil {
		return BackupSummary{}, err
	}

	summary := summarize(doc)
	for _, f := range files {
		rel, ok := strings.CutPrefix(f.Name, backupImageDir)
		if !ok || rel == "" || strings.Contains(rel, "/") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return BackupSummary{}, err
		}
		id, _, _ := strings.Cut(rel, ".")
		if id == "" {
			continue
		}
		if err := s.blobs.PutWithID(ctx, id, f.Data, domain.MimeForExt(path.Ext(rel))); err != nil {
			return BackupSummary{}, fmt.Errorf("restore image %s: %w", id, err)
		}
		summary.Images++
	}

	cur := s.docs.Snapshot()
	if doc.Theme == "" {
		doc.Theme = cur.Theme
	}
	if doc.Background == "" {
		doc.Background = cur.Background
	}
	if _, err := s.docs.Replace(ctx, doc); err != nil {
		return BackupSummary{}, err
	}
	s.log.Info("backup imported", zap.Int("folders", summary.Folders), zap.Int("images", summary.Images))
	return summary, nil
}

// decodeBackupDocument finds data.json and requires a "folders" array.
// Defaults are filled later by Replace, so empty preferences stay visible.
func decodeBackupDocument(files []archive.File) (*domain.Document, error) {
	f, ok := archive.Find(files, backupDataFile)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrInvalidBackupFormat, backupDataFile)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &top); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidBackupFormat, backupDataFile, err)
	}
	folders, ok := top["folders"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(folders), []byte("[")) {
		return nil, fmt.Errorf("%w: %s has no folder list", domain.ErrInvalidBackupFormat, backupDataFile)
	}

	doc := &domain.Document{}
	if err := json.Unmarshal(f.Data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidBackupFormat, backupDataFile, err)
	}
	return doc, nil
}

func summarize(doc *domain.Document) BackupSummary {
	s := BackupSummary{Folders: len(doc.Folders)}
	for _, f := range doc.Folders {
		s.Questions += len(f.Questions)
	}
	return s
}
