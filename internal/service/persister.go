package service

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"arafiles/internal/domain"
)

// DefaultPersistDelay is the quiet period before a scheduled save runs.
const DefaultPersistDelay = 250 * time.Millisecond

// ─────────────────────────────────────────────────────────────
// Persister — debounced writes of the document snapshot
// ─────────────────────────────────────────────────────────────

// Persister coalesces rapid Schedule calls into one MetadataStore.Save of
// the latest snapshot. A failed save keeps the snapshot pending so the next
// Schedule or Flush retries it; the caller's in-memory document is never
// touched.
type Persister struct {
	store   domain.MetadataStore
	emitter EventEmitter
	log     *zap.Logger

	debounced func(f func())

	mu      sync.Mutex
	pending *domain.Document
	// bumped by Discard; a snapshot taken under an older epoch is never
	// re-queued
	epoch uint64

	// serializes writes so a slow save can't be overtaken by an older one
	writeMu sync.Mutex
}

// NewPersister creates a Persister. A non-positive delay uses DefaultPersistDelay.
func NewPersister(store domain.MetadataStore, emitter EventEmitter, log *zap.Logger, delay time.Duration) *Persister {
	if delay <= 0 {
		delay = DefaultPersistDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Persister{
		store:     store,
		emitter:   emitter,
		log:       log.Named("persist"),
		debounced: debounce.New(delay),
	}
}

// Schedule records doc as the state to save and (re)arms the debounce
// timer. doc must not be mutated afterwards; callers pass a clone.
func (p *Persister) Schedule(doc *domain.Document) {
	p.mu.Lock()
	p.pending = doc
	p.mu.Unlock()
	p.debounced(func() {
		_ = p.Flush(context.Background())
	})
}

// Flush writes the pending snapshot immediately, if any.
func (p *Persister) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	doc, epoch := p.pending, p.epoch
	p.pending = nil
	p.mu.Unlock()
	if doc == nil {
		return nil
	}

	if err := p.store.Save(ctx, doc); err != nil {
		p.mu.Lock()
		if p.pending == nil && p.epoch == epoch {
			p.pending = doc
		}
		p.mu.Unlock()

		p.log.Warn("save failed, keeping in-memory state", zap.Error(err))
		if p.emitter != nil {
			p.emitter.Emit(ctx, EventStorageWarning, WarningEvent{Message: err.Error()})
		}
		return err
	}
	p.log.Debug("document saved", zap.Int("folders", len(doc.Folders)))
	return nil
}

// Pending reports whether a snapshot is waiting to be written.
func (p *Persister) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Discard drops the pending snapshot without writing it and returns once
// any save already in progress has finished. A save that fails after
// Discard is not retried.
func (p *Persister) Discard() {
	p.mu.Lock()
	p.pending = nil
	p.epoch++
	p.mu.Unlock()

	p.writeMu.Lock()
	// wait for an in-flight Flush
	p.writeMu.Unlock()
}
