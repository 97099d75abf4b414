package workspace

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"arafiles/internal/config"
	"arafiles/internal/inbox"
	"arafiles/internal/service"
	"arafiles/internal/storage"
)

// LogEmitter is the EventEmitter used when no desktop frontend is attached.
// Events are only logged.
type LogEmitter struct {
	Log *zap.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	if e.Log != nil {
		e.Log.Debug("event", zap.String("event", event), zap.Any("data", data))
	}
}

// Workspace is the fully wired service graph over one data directory.
// The desktop app, the CLI and the standalone MCP server all start from it.
type Workspace struct {
	Config *config.Config

	DB        *storage.DB
	Blobs     *storage.BlobStore
	Meta      *storage.MetadataStore
	Persister *service.Persister
	Docs      *service.DocumentService
	Exports   *service.ExportService
	Backups   *service.BackupService

	// Started by StartBackground; nil when disabled in the config.
	Scheduler *service.BackupScheduler
	Inbox     *inbox.Watcher

	emitter service.EventEmitter
	log     *zap.Logger
}

// Open validates cfg, opens the database and loads the document.
// A nil emitter logs events instead.
func Open(ctx context.Context, cfg *config.Config, emitter service.EventEmitter, log *zap.Logger) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = LogEmitter{Log: log.Named("events")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	fonts, err := cfg.LoadFonts()
	if err != nil {
		db.Close()
		return nil, err
	}

	w := &Workspace{
		Config:  cfg,
		DB:      db,
		Blobs:   storage.NewBlobStore(db),
		Meta:    storage.NewMetadataStore(db),
		emitter: emitter,
		log:     log,
	}
	w.Persister = service.NewPersister(w.Meta, emitter, log, cfg.PersistDelay())
	w.Docs = service.NewDocumentService(w.Blobs, w.Meta, w.Persister, emitter, log)
	w.Backups = service.NewBackupService(w.Docs, w.Blobs, log)
	w.Exports, err = service.NewExportService(w.Docs, w.Blobs, fonts, cfg.PageSpec(), cfg.SheetSpec(), emitter, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := w.Docs.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	fields := []zap.Field{zap.String("db", db.Path())}
	if orphans, err := w.Docs.Orphans(ctx); err != nil {
		log.Warn("could not count orphaned images", zap.Error(err))
	} else if len(orphans) > 0 {
		fields = append(fields, zap.Int("orphaned_images", len(orphans)))
	}
	log.Info("workspace opened", fields...)
	return w, nil
}

// StartBackground starts the backup scheduler and the inbox watcher when
// the config enables them.
func (w *Workspace) StartBackground(ctx context.Context) error {
	cfg := w.Config
	if cfg.Backup.Schedule != "" && w.Scheduler == nil {
		s := service.NewBackupScheduler(w.Backups, cfg.BackupDir(), cfg.Backup.Schedule, cfg.Backup.Keep, w.emitter, w.log)
		if err := s.Start(); err != nil {
			return err
		}
		w.Scheduler = s
	}
	if cfg.Inbox.Dir != "" && w.Inbox == nil {
		watcher, err := inbox.New(cfg.Inbox.Dir, cfg.Inbox.Folder, w.Docs, w.emitter, w.log, 0)
		if err != nil {
			return err
		}
		watcher.Start(ctx)
		w.Inbox = watcher
	}
	return nil
}

// BackupNow writes one archive into the backup directory and applies the
// retention limit, whether or not a schedule is running.
func (w *Workspace) BackupNow(ctx context.Context) (string, error) {
	s := w.Scheduler
	if s == nil {
		s = service.NewBackupScheduler(w.Backups, w.Config.BackupDir(), w.Config.Backup.Schedule, w.Config.Backup.Keep, w.emitter, w.log)
	}
	return s.RunOnce(ctx)
}

// Close stops background work, waits for running exports, writes any
// pending save and closes the database.
func (w *Workspace) Close(ctx context.Context) error {
	var errs []error
	if w.Inbox != nil {
		errs = append(errs, w.Inbox.Close())
		w.Inbox = nil
	}
	if w.Scheduler != nil {
		w.Scheduler.Stop()
		w.Scheduler = nil
	}
	w.Exports.Wait(ctx)
	if err := w.Docs.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush document: %w", err))
	}
	errs = append(errs, w.DB.Close())
	return errors.Join(errs...)
}
