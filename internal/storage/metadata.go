package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arafiles/internal/domain"
)

const documentKey = "document"

// MetadataStore implements domain.MetadataStore as a single JSON value in
// the kv table. One row per save keeps every write atomic.
type MetadataStore struct {
	db *DB
}

func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

func (s *MetadataStore) Load(ctx context.Context) (*domain.Document, error) {
	raw, err := s.Get(ctx, documentKey)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return domain.NewDocument(), nil
	}
	doc := &domain.Document{}
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *MetadataStore) Save(ctx context.Context, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.Set(ctx, documentKey, string(data))
}

// Clear drops every stored key.
func (s *MetadataStore) Clear(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear metadata: %w: %w", domain.ErrStorageFailure, err)
	}
	return nil
}

// Get returns the value stored under key, or "" when absent.
func (s *MetadataStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w: %w", key, domain.ErrStorageFailure, err)
	}
	return value, nil
}

func (s *MetadataStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w: %w", key, domain.ErrStorageFailure, err)
	}
	return nil
}
