package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arafiles/internal/domain"
	"arafiles/internal/workspace"
)

func (c *cli) folderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "List, create, edit and delete folders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "#\tNAME\tQUESTIONS\tDIR")
				for i, f := range ws.Docs.Snapshot().Folders {
					fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i, f.Title(), len(f.Questions), domain.DetectDirection(f.Title()))
				}
				return w.Flush()
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <folder>",
		Short: "Print a folder as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				f, err := ws.Docs.Folder(idx[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(f)
			})
		},
	}

	var desc string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				change, err := ws.Docs.AddFolder(ctx, args[0], desc)
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&desc, "desc", "d", "", "Description")

	var editName, editDesc, editColor string
	edit := &cobra.Command{
		Use:   "edit <folder>",
		Short: "Rename a folder or change its description or color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				f, err := ws.Docs.Folder(idx[0])
				if err != nil {
					return err
				}
				name, d, color := f.Name, f.Desc, f.Color
				if cmd.Flags().Changed("name") {
					name = editName
				}
				if cmd.Flags().Changed("desc") {
					d = editDesc
				}
				if cmd.Flags().Changed("color") {
					color = editColor
				}
				change, err := ws.Docs.EditFolder(ctx, idx[0], name, d, color)
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "New name")
	edit.Flags().StringVar(&editDesc, "desc", "", "New description")
	edit.Flags().StringVar(&editColor, "color", "", "New color, e.g. #3B82F6")

	var perPage int
	var numberAlign string
	layoutCmd := &cobra.Command{
		Use:   "layout <folder>",
		Short: "Set questions per page and number alignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				f, err := ws.Docs.Folder(idx[0])
				if err != nil {
					return err
				}
				pp, na := f.PerPage, f.NumberAlign
				if cmd.Flags().Changed("per-page") {
					pp = perPage
				}
				if cmd.Flags().Changed("number-align") {
					na = domain.Alignment(numberAlign)
				}
				change, err := ws.Docs.SetFolderLayout(ctx, idx[0], pp, na)
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}
	layoutCmd.Flags().IntVar(&perPage, "per-page", domain.DefaultPerPage, "Questions per page (2-20)")
	layoutCmd.Flags().StringVar(&numberAlign, "number-align", "", "Question number position: left or right")

	del := &cobra.Command{
		Use:   "delete <folder>",
		Short: "Delete a folder and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := intArgs(args)
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				change, err := ws.Docs.DeleteFolder(ctx, idx[0])
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, add, edit, layoutCmd, del)
	return cmd
}
