package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "arafiles/internal/mcp"
	"arafiles/internal/workspace"
)

func (c *cli) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every folder and every stored image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all data; pass --yes to confirm")
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				change, err := ws.Docs.Reset(ctx)
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

// orphansCmd lists stored images that no question references any more.
func (c *cli) orphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List stored images left behind by deleted folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				ids, err := ws.Docs.Orphans(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d orphaned image(s)\n", len(ids))
				return nil
			})
		},
	}
}

// serveCmd runs the backup schedule and the inbox watcher until interrupted.
func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled backups and the inbox watcher in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Backup.Schedule == "" && c.cfg.Inbox.Dir == "" {
				return fmt.Errorf("nothing to serve: set backup.schedule or inbox.dir in the config")
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				if err := ws.StartBackground(ctx); err != nil {
					return err
				}
				c.logger.Info("serving",
					zap.String("backup_schedule", c.cfg.Backup.Schedule),
					zap.String("inbox", c.cfg.Inbox.Dir))
				<-ctx.Done()
				c.logger.Info("shutting down")
				return nil
			})
		},
	}
}

// mcpCmd serves the MCP tools over stdio. Logs go to stderr or the
// configured file so stdout carries only protocol messages.
func (c *cli) mcpCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				dir := outDir
				if dir == "" {
					dir = filepath.Join(c.cfg.DataDir, "exports")
				}
				srv := mcpserver.New(mcpserver.Deps{
					Docs:    ws.Docs,
					Exports: ws.Exports,
					Backups: ws.Backups,
					OutDir:  dir,
					Log:     c.logger,
				})
				return srv.ServeStdio()
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Default directory for exports (default: <data dir>/exports)")
	return cmd
}
