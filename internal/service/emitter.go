package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from the desktop runtime
// ─────────────────────────────────────────────────────────────

// Event names emitted by the services.
const (
	EventDocumentChanged = "document:changed"
	EventStorageWarning  = "storage:warning"
	EventExportProgress  = "export:progress"
	EventBackupCreated   = "backup:created"
	EventInboxImported   = "inbox:imported"
)

// EventEmitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit;
// the CLI uses a logging emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// The debounced persister emits from timer goroutines, hence the mutex.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event, in order.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// ProgressEvent is the payload of EventExportProgress.
type ProgressEvent struct {
	Folder int    `json:"folder"`
	Kind   string `json:"kind"`
	Page   int    `json:"page"`
	Done   bool   `json:"done"`
}

// WarningEvent is the payload of EventStorageWarning.
type WarningEvent struct {
	Message string `json:"message"`
}
