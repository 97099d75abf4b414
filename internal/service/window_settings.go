package service

import (
	"context"
	"fmt"
	"strconv"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main Wails window size between sessions.
// Stored next to the document as plain kv rows.

// SettingsStore is the key-value side of the metadata store.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	store SettingsStore
}

// NewWindowSettingsService creates a WindowSettingsService.
func NewWindowSettingsService(store SettingsStore) *WindowSettingsService {
	return &WindowSettingsService{store: store}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 860
	minWindowWidth      = 720
	minWindowHeight     = 540
)

// LoadWindowSize returns the saved window dimensions, or the defaults when
// nothing usable is stored.
func (s *WindowSettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	w := s.load(ctx, settingWindowWidth)
	h := s.load(ctx, settingWindowHeight)
	if w < minWindowWidth {
		w = DefaultWindowWidth
	}
	if h < minWindowHeight {
		h = DefaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

func (s *WindowSettingsService) load(ctx context.Context, key string) int {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(raw)
	return n
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if err := s.store.Set(ctx, settingWindowWidth, strconv.Itoa(width)); err != nil {
		return fmt.Errorf("save window width: %w", err)
	}
	if err := s.store.Set(ctx, settingWindowHeight, strconv.Itoa(height)); err != nil {
		return fmt.Errorf("save window height: %w", err)
	}
	return nil
}
