package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"arafiles/internal/domain"
)

func (s *Server) registerQuestionTools() {
	s.mcp.AddTool(mcp.NewTool("add_text_question",
		mcp.WithDescription("Append a text question to a folder, optionally with answer options"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Question text. Arabic text is laid out right to left."), mcp.Required()),
		mcp.WithArray("options", mcp.Description("Answer options, labelled A, B, C... on export"), mcp.Items(map[string]any{"type": "string"})),
	), s.handleAddTextQuestion)

	s.mcp.AddTool(mcp.NewTool("add_image_question",
		mcp.WithDescription("Append an image question from a PNG, JPEG or WebP file on disk"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Image file path"), mcp.Required()),
	), s.handleAddImageQuestion)

	s.mcp.AddTool(mcp.NewTool("edit_question_text",
		mcp.WithDescription("Replace the text of a question"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("question", mcp.Description("Zero-based question index"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
	), s.handleEditQuestionText)

	s.mcp.AddTool(mcp.NewTool("set_question_options",
		mcp.WithDescription("Replace the whole answer option list of a question"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("question", mcp.Description("Zero-based question index"), mcp.Required()),
		mcp.WithArray("options", mcp.Description("Answer options, empty to clear"), mcp.Items(map[string]any{"type": "string"}), mcp.Required()),
	), s.handleSetQuestionOptions)

	s.mcp.AddTool(mcp.NewTool("set_question_align",
		mcp.WithDescription("Set block alignment. Empty follows the text direction."),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("question", mcp.Description("Zero-based question index"), mcp.Required()),
		mcp.WithString("align", mcp.Description("left, center, right or empty"), mcp.Enum("", "left", "center", "right")),
	), s.handleSetQuestionAlign)

	s.mcp.AddTool(mcp.NewTool("move_question",
		mcp.WithDescription("Move a question to another position in the same folder"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("from", mcp.Description("Current zero-based index"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Target zero-based index"), mcp.Required()),
	), s.handleMoveQuestion)

	s.mcp.AddTool(mcp.NewTool("delete_question",
		mcp.WithDescription("Delete a question and its image. Later questions are renumbered."),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("question", mcp.Description("Zero-based question index"), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleDeleteQuestion)
}

func (s *Server) handleAddTextQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	text := req.GetString("text", "")
	change, err := s.docs.AddTextQuestion(ctx, fi, text)
	if err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}
	if opts := req.GetStringSlice("options", nil); len(opts) > 0 {
		if _, err := s.docs.EditQuestionOptions(ctx, fi, change.Question, opts); err != nil {
			return nil, fmt.Errorf("set options: %w", err)
		}
	}
	return changeResult(change)
}

func (s *Server) handleAddImageQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	path, err := req.RequireString("path")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	change, err := s.docs.CaptureImageQuestion(ctx, fi, data)
	if err != nil {
		return nil, fmt.Errorf("add image question: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleEditQuestionText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, qi, err := questionArgs(req)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.EditQuestionText(ctx, fi, qi, req.GetString("text", ""))
	if err != nil {
		return nil, fmt.Errorf("edit question: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleSetQuestionOptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, qi, err := questionArgs(req)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.EditQuestionOptions(ctx, fi, qi, req.GetStringSlice("options", nil))
	if err != nil {
		return nil, fmt.Errorf("set options: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleSetQuestionAlign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, qi, err := questionArgs(req)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.EditQuestionAlign(ctx, fi, qi, domain.Alignment(req.GetString("align", "")))
	if err != nil {
		return nil, fmt.Errorf("set align: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleMoveQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	from, err := req.RequireInt("from")
	if err != nil {
		return nil, err
	}
	to, err := req.RequireInt("to")
	if err != nil {
		return nil, err
	}
	change, err := s.docs.MoveQuestion(ctx, fi, from, to)
	if err != nil {
		return nil, fmt.Errorf("move question: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleDeleteQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, qi, err := questionArgs(req)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.DeleteQuestion(ctx, fi, qi)
	if err != nil {
		return nil, fmt.Errorf("delete question: %w", err)
	}
	return changeResult(change)
}
