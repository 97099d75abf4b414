package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arafiles/internal/domain"
	"arafiles/internal/workspace"
)

// changeCmd builds a subcommand whose leading nIdx args are indexes and
// whose body performs one mutation.
func (c *cli) changeCmd(use, short string, args cobra.PositionalArgs, nIdx int,
	fn func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			idx, err := intArgs(argv[:nIdx])
			if err != nil {
				return err
			}
			return c.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				change, err := fn(ctx, ws, idx, argv[nIdx:])
				if err != nil {
					return err
				}
				printChange(cmd.OutOrStdout(), change)
				return nil
			})
		},
	}
}

func (c *cli) questionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Add, edit, reorder and delete questions",
	}

	var options []string
	add := c.changeCmd("add <folder> <text>", "Append a text question", cobra.ExactArgs(2), 1,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			change, err := ws.Docs.AddTextQuestion(ctx, idx[0], rest[0])
			if err != nil || len(options) == 0 {
				return change, err
			}
			if _, err := ws.Docs.EditQuestionOptions(ctx, idx[0], change.Question, options); err != nil {
				return change, fmt.Errorf("set options: %w", err)
			}
			return change, nil
		})
	add.Flags().StringArrayVarP(&options, "option", "o", nil, "Answer option (repeatable)")

	image := c.changeCmd("image <folder> <file>", "Append an image question from a png, jpeg or webp file", cobra.ExactArgs(2), 1,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			data, err := os.ReadFile(rest[0])
			if err != nil {
				return domain.NoChange, fmt.Errorf("read image: %w", err)
			}
			return ws.Docs.CaptureImageQuestion(ctx, idx[0], data)
		})

	edit := c.changeCmd("edit <folder> <question> <text>", "Replace a question's text", cobra.ExactArgs(3), 2,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			return ws.Docs.EditQuestionText(ctx, idx[0], idx[1], rest[0])
		})

	replaceImage := c.changeCmd("replace-image <folder> <question> <file>", "Replace a question's image", cobra.ExactArgs(3), 2,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			data, err := os.ReadFile(rest[0])
			if err != nil {
				return domain.NoChange, fmt.Errorf("read image: %w", err)
			}
			return ws.Docs.EditQuestionImage(ctx, idx[0], idx[1], data)
		})

	opts := c.changeCmd("options <folder> <question> [option...]", "Replace the answer options; none clears them", cobra.MinimumNArgs(2), 2,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			return ws.Docs.EditQuestionOptions(ctx, idx[0], idx[1], rest)
		})

	align := c.changeCmd("align <folder> <question> [left|center|right]", "Set alignment, or cycle it when no value is given", cobra.RangeArgs(2, 3), 2,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			if len(rest) == 0 {
				return ws.Docs.CycleQuestionAlign(ctx, idx[0], idx[1])
			}
			return ws.Docs.EditQuestionAlign(ctx, idx[0], idx[1], domain.Alignment(rest[0]))
		})

	move := c.changeCmd("move <folder> <from> <to>", "Move a question within its folder", cobra.ExactArgs(3), 3,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			return ws.Docs.MoveQuestion(ctx, idx[0], idx[1], idx[2])
		})

	del := c.changeCmd("delete <folder> <question>", "Delete a question and its image", cobra.ExactArgs(2), 2,
		func(ctx context.Context, ws *workspace.Workspace, idx []int, rest []string) (domain.Change, error) {
			return ws.Docs.DeleteQuestion(ctx, idx[0], idx[1])
		})

	cmd.AddCommand(add, image, edit, replaceImage, opts, align, move, del)
	return cmd
}
