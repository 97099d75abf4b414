package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"arafiles/internal/domain"
)

// BlobStore implements domain.BlobStore on the images table.
type BlobStore struct {
	db *DB
}

func NewBlobStore(db *DB) *BlobStore {
	return &BlobStore{db: db}
}

// NewBlobID allocates a fresh image id.
func NewBlobID() string {
	return "img_" + uuid.New().String()
}

func (s *BlobStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	id := NewBlobID()
	if err := s.PutWithID(ctx, id, data, mimeType); err != nil {
		return "", err
	}
	return id, nil
}

// PutWithID stores data under id, replacing any existing entry.
func (s *BlobStore) PutWithID(ctx context.Context, id string, data []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = domain.MimePNG
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO images (id, bytes, mime_type, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET bytes = excluded.bytes, mime_type = excluded.mime_type, created_at = excluded.created_at`,
		id, data, mimeType, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put blob %s: %w: %w", id, domain.ErrStorageFailure, err)
	}
	return nil
}

func (s *BlobStore) Get(ctx context.Context, id string) (*domain.Blob, error) {
	b := &domain.Blob{}
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, bytes, mime_type, created_at FROM images WHERE id = ?`, id,
	).Scan(&b.ID, &b.Bytes, &b.MimeType, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get blob %s: %w", id, domain.ErrMissingBlob)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w: %w", id, domain.ErrStorageFailure, err)
	}
	return b, nil
}

// Delete removes a blob. Deleting an unknown id is not an error.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete blob %s: %w: %w", id, domain.ErrStorageFailure, err)
	}
	return nil
}

// Clear removes every blob. Used by the full reset.
func (s *BlobStore) Clear(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM images`); err != nil {
		return fmt.Errorf("clear blobs: %w: %w", domain.ErrStorageFailure, err)
	}
	return nil
}

// ListIDs returns every stored blob id, oldest first.
func (s *BlobStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT id FROM images ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w: %w", domain.ErrStorageFailure, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
