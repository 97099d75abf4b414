package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"arafiles/internal/fsutil"
)

// ─────────────────────────────────────────────────────────────
// Backup Scheduler — periodic archives with retention
// ─────────────────────────────────────────────────────────────

// BackupScheduler writes a backup archive into dir on a cron schedule and
// keeps only the newest keep archives.
type BackupScheduler struct {
	backups *BackupService
	dir     string
	spec    string
	keep    int
	emitter EventEmitter
	log     *zap.Logger
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	// serializes runs so a slow archive and the next tick never overlap
	runMu sync.Mutex
}

// NewBackupScheduler creates a scheduler. keep <= 0 keeps every archive.
func NewBackupScheduler(backups *BackupService, dir, spec string, keep int, emitter EventEmitter, log *zap.Logger) *BackupScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupScheduler{
		backups: backups,
		dir:     dir,
		spec:    spec,
		keep:    keep,
		emitter: emitter,
		log:     log.Named("backup-scheduler"),
		now:     time.Now,
	}
}

// Start registers the cron job and starts the scheduler.
func (s *BackupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Error("scheduled backup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("backup schedule started", zap.String("schedule", s.spec), zap.String("dir", s.dir))
	return nil
}

// Stop stops the scheduler and waits for a running backup to finish.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// RunOnce writes one archive now and prunes old ones. It returns the
// archive path.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	path := filepath.Join(s.dir, BackupFileName(s.now()))
	var summary BackupSummary
	err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		summary, err = s.backups.Export(ctx, w)
		return err
	})
	if err != nil {
		return "", err
	}
	if s.emitter != nil {
		s.emitter.Emit(ctx, EventBackupCreated, map[string]any{"path": path, "summary": summary})
	}
	if err := s.prune(); err != nil {
		s.log.Warn("prune old backups", zap.Error(err))
	}
	return path, nil
}

// prune removes the oldest archives beyond keep.
func (s *BackupScheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	archives, err := ListBackups(s.dir)
	if err != nil {
		return err
	}
	if len(archives) <= s.keep {
		return nil
	}
	for _, old := range archives[:len(archives)-s.keep] {
		if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		s.log.Debug("pruned backup", zap.String("path", old.Path))
	}
	return nil
}

// BackupArchive is a backup file found on disk.
type BackupArchive struct {
	Path    string    `json:"path"`
	TakenAt time.Time `json:"takenAt"`
}

// ListBackups returns the archives in dir named by BackupFileName, oldest
// first. A missing dir is empty.
func ListBackups(dir string) ([]BackupArchive, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var out []BackupArchive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stamp, ok := strings.CutPrefix(e.Name(), "arafiles-backup-")
		if !ok {
			continue
		}
		stamp, ok = strings.CutSuffix(stamp, ".zip")
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(stamp, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, BackupArchive{Path: filepath.Join(dir, e.Name()), TakenAt: time.UnixMilli(ms)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}
