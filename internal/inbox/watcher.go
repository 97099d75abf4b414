package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/service"
)

// DefaultSettle is how long a file must stay quiet before it is imported.
// Editors and browsers write downloads in several chunks.
const DefaultSettle = 500 * time.Millisecond

// importedDir receives files after a successful import.
const importedDir = "imported"

// Importer files raw image bytes under a named folder.
// *service.DocumentService implements it.
type Importer interface {
	ImportImage(ctx context.Context, folder string, data []byte) (domain.Change, error)
}

// Watcher turns image files dropped into a directory into image questions.
// Each imported file is moved to the imported/ subdirectory so it is never
// picked up twice.
type Watcher struct {
	dir      string
	folder   string
	importer Importer
	emitter  service.EventEmitter
	log      *zap.Logger
	settle   time.Duration

	fsw   *fsnotify.Watcher
	ready chan string
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer

	closeOnce sync.Once
}

// New creates the directory if needed and starts watching it. Call Start to
// process events and Close to stop. settle <= 0 uses DefaultSettle.
func New(dir, folder string, importer Importer, emitter service.EventEmitter, log *zap.Logger, settle time.Duration) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", dir, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		folder:   folder,
		importer: importer,
		emitter:  emitter,
		log:      log.Named("inbox"),
		settle:   settle,
		fsw:      fsw,
		ready:    make(chan string),
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start imports files already waiting in the directory, then processes
// events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.scan()
		w.loop(ctx)
	}()
	w.log.Info("watching inbox", zap.String("dir", w.dir), zap.String("folder", w.folder))
}

// Close stops the watcher and waits for an in-flight import to finish.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.mu.Lock()
		for p, t := range w.timers {
			t.Stop()
			delete(w.timers, p)
		}
		w.mu.Unlock()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case path := <-w.ready:
			w.importFile(ctx, path)
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scan queues files that arrived while nothing was watching.
func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("scan inbox", zap.Error(err))
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	if !Accepts(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		w.log.Warn("read inbox file", zap.String("path", path), zap.Error(err))
		return
	}
	change, err := w.importer.ImportImage(ctx, w.folder, data)
	if err != nil {
		w.log.Warn("import inbox file", zap.String("path", path), zap.Error(err))
		return
	}

	dest := filepath.Join(w.dir, importedDir, filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err == nil {
		err = os.Rename(path, dest)
	}
	if err != nil {
		w.log.Warn("move imported file", zap.String("path", path), zap.Error(err))
	}

	w.log.Info("imported image", zap.String("path", path), zap.Int("folder", change.Folder), zap.Int("question", change.Question))
	if w.emitter != nil {
		w.emitter.Emit(ctx, service.EventInboxImported, map[string]any{
			"path":     path,
			"folder":   change.Folder,
			"question": change.Question,
		})
	}
}

// Accepts reports whether path looks like an importable image. Hidden and
// partial download files are ignored.
func Accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}
