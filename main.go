package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	arafilesApp "arafiles/internal/app"
	"arafiles/internal/service"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := newDesktopCmd(runDesktop).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newDesktopCmd parses the desktop flags and hands the config path to run.
func newDesktopCmd(run func(configPath string) error) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "arafiles-desktop",
		Short:        "Arafiles desktop app",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		// wails dev passes its own flags through
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: user config dir)")
	return cmd
}

func runDesktop(configPath string) error {
	app := arafilesApp.New(configPath)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Arafiles",
		Width:     service.DefaultWindowWidth,
		Height:    service.DefaultWindowHeight,
		MinWidth:  720,
		MinHeight: 540,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Arafiles",
				Message: "Question folders with PDF and image export",
			},
		},
	})
}
