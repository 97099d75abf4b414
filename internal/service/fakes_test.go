package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/service"
)

var errQuota = errors.New("quota exceeded")

// memBlobs is an in-memory domain.BlobStore that records operations.
type memBlobs struct {
	mu         sync.Mutex
	data       map[string]domain.Blob
	ops        []string
	next       int
	failPut    bool
	failGet    bool
	failDelete bool
	getGate    *gate
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string]domain.Blob{}} }

func (m *memBlobs) Put(ctx context.Context, data []byte, mime string) (string, error) {
	m.mu.Lock()
	m.next++
	id := fmt.Sprintf("img_%d", m.next)
	m.mu.Unlock()
	return id, m.PutWithID(ctx, id, data, mime)
}

func (m *memBlobs) PutWithID(_ context.Context, id string, data []byte, mime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return fmt.Errorf("put: %w: %w", domain.ErrStorageFailure, errQuota)
	}
	m.data[id] = domain.Blob{ID: id, Bytes: append([]byte{}, data...), MimeType: mime, CreatedAt: time.Now()}
	m.ops = append(m.ops, "put:"+id)
	return nil
}

func (m *memBlobs) Get(_ context.Context, id string) (*domain.Blob, error) {
	m.mu.Lock()
	g := m.getGate
	m.mu.Unlock()
	g.pass()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, fmt.Errorf("get: %w", domain.ErrStorageFailure)
	}
	b, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrMissingBlob)
	}
	return &b, nil
}

func (m *memBlobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("delete: %w", domain.ErrStorageFailure)
	}
	delete(m.data, id)
	m.ops = append(m.ops, "delete:"+id)
	return nil
}

func (m *memBlobs) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string]domain.Blob{}
	m.ops = append(m.ops, "clear")
	return nil
}

func (m *memBlobs) ListIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memBlobs) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *memBlobs) opLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.ops...)
}

// blockGets makes every Get wait until the returned gate is released.
func (m *memBlobs) blockGets() *gate {
	g := newGate()
	m.mu.Lock()
	m.getGate = g
	m.mu.Unlock()
	return g
}

// gate holds callers until released and signals the first one to arrive.
type gate struct {
	entered     chan struct{}
	release     chan struct{}
	enterOnce   sync.Once
	releaseOnce sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// pass blocks until Open; a nil gate never blocks.
func (g *gate) pass() {
	if g == nil {
		return
	}
	g.enterOnce.Do(func() { close(g.entered) })
	<-g.release
}

// Wait returns once a caller is parked in pass.
func (g *gate) Wait(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("nobody reached the gate")
	}
}

func (g *gate) Open() { g.releaseOnce.Do(func() { close(g.release) }) }

// memMeta is an in-memory domain.MetadataStore that counts saves.
type memMeta struct {
	mu       sync.Mutex
	doc      *domain.Document
	saves    int
	fail     bool
	saveGate *gate
}

func (m *memMeta) Load(context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return domain.NewDocument(), nil
	}
	return m.doc.Clone(), nil
}

func (m *memMeta) Save(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	g := m.saveGate
	m.mu.Unlock()
	g.pass()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("save: %w: %w", domain.ErrStorageFailure, errQuota)
	}
	m.doc = doc.Clone()
	m.saves++
	return nil
}

func (m *memMeta) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = nil
	return nil
}

func (m *memMeta) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memMeta) last() *domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil
	}
	return m.doc.Clone()
}

// blockSaves makes every Save wait until the returned gate is released.
func (m *memMeta) blockSaves() *gate {
	g := newGate()
	m.mu.Lock()
	m.saveGate = g
	m.mu.Unlock()
	return g
}

func (m *memMeta) setFail(v bool) {
	m.mu.Lock()
	m.fail = v
	m.mu.Unlock()
}

type harness struct {
	blobs     *memBlobs
	meta      *memMeta
	emitter   *service.MockEmitter
	persister *service.Persister
	docs      *service.DocumentService
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	h := &harness{blobs: newMemBlobs(), meta: &memMeta{}, emitter: &service.MockEmitter{}}
	log := zap.NewNop()
	h.persister = service.NewPersister(h.meta, h.emitter, log, delay)
	h.docs = service.NewDocumentService(h.blobs, h.meta, h.persister, h.emitter, log)
	require.NoError(t, h.docs.Load(context.Background()))
	return h
}

// seedFolder adds a folder with n text questions and returns its index.
func (h *harness) seedFolder(t *testing.T, name string, n int) int {
	t.Helper()
	ctx := context.Background()
	ch, err := h.docs.AddFolder(ctx, name, "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := h.docs.AddTextQuestion(ctx, ch.Folder, fmt.Sprintf("q%d", i+1))
		require.NoError(t, err)
	}
	return ch.Folder
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
