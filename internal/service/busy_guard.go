package service

import (
	"context"
	"sync"
)

// busyGuard tracks which folders have an export in progress. Folders are
// identified by the key DocumentService hands out, not by index, so
// deleting an earlier folder never frees or blocks the wrong one.
// Shutdown waits on it so a half-written export file is not left behind.
type busyGuard struct {
	mu     sync.Mutex
	active map[uint64]struct{}
	wg     sync.WaitGroup
}

// start claims folder for one export; false means one is already running.
func (g *busyGuard) start(folder uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[folder]; ok {
		return false
	}
	if g.active == nil {
		g.active = make(map[uint64]struct{})
	}
	g.active[folder] = struct{}{}
	g.wg.Add(1)
	return true
}

func (g *busyGuard) finish(folder uint64) {
	g.mu.Lock()
	delete(g.active, folder)
	g.mu.Unlock()
	g.wg.Done()
}

func (g *busyGuard) exporting(folder uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[folder]
	return ok
}

// drain returns when no export is running, or early when ctx ends.
func (g *busyGuard) drain(ctx context.Context) {
	idle := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
