package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"arafiles/internal/fsutil"
	"arafiles/internal/service"
	"arafiles/internal/workspace"
)

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a folder as PDF or PNG",
	}

	var pdfOut string
	pdf := &cobra.Command{
		Use:   "pdf <folder>",
		Short: "Write an A4 PDF with two columns per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				path, err := outputPath(ws, idx[0], pdfOut, ".pdf")
				if err != nil {
					return err
				}
				var pages int
				err = fsutil.WriteFileAtomic(path, func(w io.Writer) error {
					var err error
					pages, err = ws.Exports.ExportDocument(ctx, idx[0], w)
					return err
				})
				if err != nil {
					return fmt.Errorf("export pdf: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d page(s) to %s\n", pages, path)
				return nil
			})
		},
	}
	pdf.Flags().StringVarP(&pdfOut, "output", "o", "", "Output file (default: <folder name>.pdf)")

	var pngOut string
	png := &cobra.Command{
		Use:   "png <folder>",
		Short: "Write one tall PNG with two balanced columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				path, err := outputPath(ws, idx[0], pngOut, ".png")
				if err != nil {
					return err
				}
				err = fsutil.WriteFileAtomic(path, func(w io.Writer) error {
					return ws.Exports.ExportImage(ctx, idx[0], w)
				})
				if err != nil {
					return fmt.Errorf("export png: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	png.Flags().StringVarP(&pngOut, "output", "o", "", "Output file (default: <folder name>.png)")

	plan := &cobra.Command{
		Use:   "plan <folder>",
		Short: "Print the page and column of every question as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				pages, err := ws.Exports.Plan(ctx, idx[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pages)
			})
		},
	}

	cmd.AddCommand(pdf, png, plan)
	return cmd
}

// outputPath is out, or <folder title><ext> in the working directory.
func outputPath(ws *workspace.Workspace, fi int, out, ext string) (string, error) {
	if out != "" {
		return out, nil
	}
	f, err := ws.Docs.Folder(fi)
	if err != nil {
		return "", err
	}
	return fsutil.SafeName(f.Title()) + ext, nil
}

func (c *cli) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and list backup archives",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a backup zip with every folder and image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				path := out
				if path == "" {
					path = service.BackupFileName(time.Now())
				}
				var summary service.BackupSummary
				err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
					var err error
					summary, err = ws.Backups.Export(ctx, w)
					return err
				})
				if err != nil {
					return fmt.Errorf("export backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d folders, %d questions, %d images)\n",
					path, summary.Folders, summary.Questions, summary.Images)
				if summary.MissingImages > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "skipped %d missing image(s)\n", summary.MissingImages)
				}
				return nil
			})
		},
	}
	export.Flags().StringVarP(&out, "output", "o", "", "Output file (default: arafiles-backup-<ms>.zip)")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all folders with the contents of a backup zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				summary, err := ws.Backups.Import(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d folders, %d questions, %d images\n",
					summary.Folders, summary.Questions, summary.Images)
				return nil
			})
		},
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Write a backup into the backup directory and prune old ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				path, err := ws.BackupNow(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archives in the backup directory, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archives, err := service.ListBackups(c.cfg.BackupDir())
			if err != nil {
				return err
			}
			for _, a := range archives {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(a.Path))
			}
			return nil
		},
	}

	cmd.AddCommand(export, imp, run, list)
	return cmd
}
