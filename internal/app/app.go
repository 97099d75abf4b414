package app

import (
	"context"
	"fmt"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"arafiles/internal/config"
	"arafiles/internal/logging"
	"arafiles/internal/service"
	"arafiles/internal/workspace"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	configPath string
	ws         *workspace.Workspace
	window     *service.WindowSettingsService
	log        *zap.Logger

	exportMu sync.Mutex
	exports  map[int]*exportRun // by folder index
}

// New creates a new App. An empty configPath uses config.DefaultPath.
func New(configPath string) *App {
	return &App{configPath: configPath, log: zap.NewNop()}
}

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	log, err := logging.New(cfg.Logging, false)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to build logger: %v", err)
		return
	}
	a.log = log

	ws, err := workspace.Open(ctx, cfg, wailsEmitter{}, log)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open workspace: %v", err)
		return
	}
	a.ws = ws

	a.window = service.NewWindowSettingsService(ws.Meta)
	size := a.window.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	if err := ws.StartBackground(ctx); err != nil {
		log.Warn("background tasks not started", zap.Error(err))
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(ctx, w, h); err != nil {
			a.log.Warn("save window size", zap.Error(err))
		}
	}
	if a.ws != nil {
		if err := a.ws.Close(ctx); err != nil {
			a.log.Error("close workspace", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// ready returns the open workspace, or an error before Startup finished.
func (a *App) ready() (*workspace.Workspace, error) {
	if a.ws == nil {
		return nil, fmt.Errorf("workspace not open")
	}
	return a.ws, nil
}
