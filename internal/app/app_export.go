package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/fsutil"
	"arafiles/internal/layout"
	"arafiles/internal/service"
	"arafiles/internal/workspace"
)

// ============================================================
// Export
// ============================================================

// ExportResult tells the frontend where an export landed.
// An empty Path means the user cancelled the dialog.
type ExportResult struct {
	Path  string `json:"path"`
	Pages int    `json:"pages,omitempty"`
}

func (a *App) PlanPages(folder int) ([]layout.Page, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return ws.Exports.Plan(a.ctx, folder)
}

func (a *App) IsExporting(folder int) bool {
	if a.ws == nil {
		return false
	}
	return a.ws.Exports.Busy(folder)
}

// exportRun is one PDF or PNG export started from the dialog.
type exportRun struct {
	cancel context.CancelFunc
}

// CancelExport stops the running PDF or PNG export of folder. The partly
// written file is removed. Returns false when nothing was running.
func (a *App) CancelExport(folder int) bool {
	a.exportMu.Lock()
	defer a.exportMu.Unlock()
	run, ok := a.exports[folder]
	if ok {
		run.cancel()
		delete(a.exports, folder)
	}
	return ok
}

// exportContext derives a cancellable context for one export of folder.
// done must be called when the export returns.
func (a *App) exportContext(folder int) (context.Context, func()) {
	ctx, cancel := context.WithCancel(a.ctx)
	run := &exportRun{cancel: cancel}
	a.exportMu.Lock()
	if a.exports == nil {
		a.exports = make(map[int]*exportRun)
	}
	a.exports[folder] = run
	a.exportMu.Unlock()

	return ctx, func() {
		cancel()
		a.exportMu.Lock()
		if a.exports[folder] == run {
			delete(a.exports, folder)
		}
		a.exportMu.Unlock()
	}
}

// ExportPDF asks for a destination and writes the folder as a paged PDF.
func (a *App) ExportPDF(folder int) (ExportResult, error) {
	ws, err := a.ready()
	if err != nil {
		return ExportResult{}, err
	}
	path, err := a.saveDialog(folder, "Export PDF", ".pdf", "PDF (*.pdf)", "*.pdf")
	if path == "" || err != nil {
		return ExportResult{}, err
	}
	return a.writePDF(ws, folder, path)
}

func (a *App) writePDF(ws *workspace.Workspace, folder int, path string) (ExportResult, error) {
	ctx, done := a.exportContext(folder)
	defer done()
	var pages int
	err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		pages, err = ws.Exports.ExportDocument(ctx, folder, w)
		return err
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export pdf: %w", err)
	}
	a.log.Info("exported pdf", zap.String("path", path), zap.Int("pages", pages))
	return ExportResult{Path: path, Pages: pages}, nil
}

// ExportPNG asks for a destination and writes the folder as one image.
func (a *App) ExportPNG(folder int) (ExportResult, error) {
	ws, err := a.ready()
	if err != nil {
		return ExportResult{}, err
	}
	path, err := a.saveDialog(folder, "Export Image", ".png", "PNG image (*.png)", "*.png")
	if path == "" || err != nil {
		return ExportResult{}, err
	}
	return a.writePNG(ws, folder, path)
}

func (a *App) writePNG(ws *workspace.Workspace, folder int, path string) (ExportResult, error) {
	ctx, done := a.exportContext(folder)
	defer done()
	err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		return ws.Exports.ExportImage(ctx, folder, w)
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export png: %w", err)
	}
	a.log.Info("exported png", zap.String("path", path))
	return ExportResult{Path: path}, nil
}

func (a *App) saveDialog(folder int, title, ext, filterName, pattern string) (string, error) {
	f, err := a.ws.Docs.Folder(folder)
	if err != nil {
		return "", err
	}
	return wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           title,
		DefaultFilename: fsutil.SafeName(f.Title()) + ext,
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: filterName, Pattern: pattern},
		},
	})
}

// ============================================================
// Backup
// ============================================================

// ExportBackup asks for a destination and writes a backup zip.
func (a *App) ExportBackup() (ExportResult, error) {
	ws, err := a.ready()
	if err != nil {
		return ExportResult{}, err
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export Backup",
		DefaultFilename: service.BackupFileName(time.Now()),
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Backup (*.zip)", Pattern: "*.zip"},
		},
	})
	if path == "" || err != nil {
		return ExportResult{}, err
	}

	err = fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := ws.Backups.Export(a.ctx, w)
		return err
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export backup: %w", err)
	}
	return ExportResult{Path: path}, nil
}

// ImportBackup asks for a backup zip and replaces the whole document with it.
// A cancelled dialog returns a zero summary and no error.
func (a *App) ImportBackup() (service.BackupSummary, error) {
	ws, err := a.ready()
	if err != nil {
		return service.BackupSummary{}, err
	}
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Import Backup",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Backup (*.zip)", Pattern: "*.zip"},
		},
	})
	if path == "" || err != nil {
		return service.BackupSummary{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return service.BackupSummary{}, fmt.Errorf("read backup: %w", err)
	}
	return ws.Backups.Import(a.ctx, data)
}

// ListBackups returns the archives in the backup directory, oldest first.
func (a *App) ListBackups() ([]service.BackupArchive, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return service.ListBackups(ws.Config.BackupDir())
}

// PickImageQuestion asks for an image file and appends it to the folder.
func (a *App) PickImageQuestion(folder int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Add Image Question",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.webp"},
		},
	})
	if path == "" || err != nil {
		return domain.NoChange, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NoChange, fmt.Errorf("read image: %w", err)
	}
	return ws.Docs.CaptureImageQuestion(a.ctx, folder, data)
}
