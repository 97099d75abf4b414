package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arafiles/internal/config"
	"arafiles/internal/domain"
	"arafiles/internal/logging"
	"arafiles/internal/workspace"
)

// cli holds the global flags and what PersistentPreRunE builds from them.
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "arafiles",
		Short: "Organize exam questions into folders and export them",
		Long: `arafiles keeps question folders in a local database and renders them
as two-column A4 PDFs or tall PNG sheets. Arabic text is laid out right to left.

The desktop app, this CLI and the MCP server share the same data directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, c.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: user config dir)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.folderCmd(),
		c.questionCmd(),
		c.exportCmd(),
		c.backupCmd(),
		c.resetCmd(),
		c.orphansCmd(),
		c.serveCmd(),
		c.mcpCmd(),
	)
	return root
}

// notifyContext is replaced in tests.
var notifyContext = signal.NotifyContext

// withWorkspace opens the workspace, runs fn and closes it, so pending
// saves are written before the command returns. fn's context ends on
// SIGINT or SIGTERM; closing still uses the parent context.
func (c *cli) withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, ws *workspace.Workspace) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ws, err := workspace.Open(ctx, c.cfg, nil, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ws.Close(ctx))
	}()

	runCtx, stop := notifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(runCtx, ws)
}

// printChange reports the outcome of a mutation.
func printChange(w io.Writer, change domain.Change) {
	if !change.Changed() {
		fmt.Fprintln(w, "no change")
		return
	}
	switch {
	case change.Question >= 0:
		fmt.Fprintf(w, "%s: folder %d, question %d\n", change.Op, change.Folder, change.Question)
	case change.Folder >= 0:
		fmt.Fprintf(w, "%s: folder %d\n", change.Op, change.Folder)
	default:
		fmt.Fprintln(w, change.Op)
	}
}

// intArgs parses positional index arguments.
func intArgs(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", a)
		}
		out[i] = n
	}
	return out, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
