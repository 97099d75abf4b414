package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"arafiles/internal/domain"
)

func (s *Server) registerFolderTools() {
	// ── list_folders ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List all folders with their index and question count"),
	), s.handleListFolders)

	// ── get_folder ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_folder",
		mcp.WithDescription("Get a folder with all of its questions"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
	), s.handleGetFolder)

	// ── add_folder ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_folder",
		mcp.WithDescription("Create a new folder at the end of the list"),
		mcp.WithString("name", mcp.Description("Folder name, also used as the export title"), mcp.Required()),
		mcp.WithString("desc", mcp.Description("Optional description")),
	), s.handleAddFolder)

	// ── edit_folder ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("edit_folder",
		mcp.WithDescription("Rename a folder and update its description and accent color"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
		mcp.WithString("desc", mcp.Description("New description")),
		mcp.WithString("color", mcp.Description("Accent color such as #3B82F6")),
	), s.handleEditFolder)

	// ── set_folder_layout ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_folder_layout",
		mcp.WithDescription("Set questions per page (2-20) and question number alignment"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithNumber("perPage", mcp.Description("Questions per page, clamped to 2..20")),
		mcp.WithString("numberAlign", mcp.Description("left or right"), mcp.Enum("left", "right")),
	), s.handleSetFolderLayout)

	// ── delete_folder ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_folder",
		mcp.WithDescription("Delete a folder and all of its questions. Later folders shift down by one."),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleDeleteFolder)
}

type folderSummary struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
	Questions int    `json:"questions"`
	Direction string `json:"direction"`
}

func (s *Server) handleListFolders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.folderSummaries())
}

func (s *Server) folderSummaries() []folderSummary {
	doc := s.docs.Snapshot()
	out := make([]folderSummary, len(doc.Folders))
	for i, f := range doc.Folders {
		out[i] = folderSummary{
			Index:     i,
			Name:      f.Name,
			Desc:      f.Desc,
			Questions: len(f.Questions),
			Direction: string(domain.DetectDirection(f.Title())),
		}
	}
	return out
}

func (s *Server) handleGetFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	f, err := s.docs.Folder(fi)
	if err != nil {
		return nil, err
	}
	return jsonResult(f)
}

func (s *Server) handleAddFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	change, err := s.docs.AddFolder(ctx, name, req.GetString("desc", ""))
	if err != nil {
		return nil, fmt.Errorf("add folder: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleEditFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	cur, err := s.docs.Folder(fi)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.EditFolder(ctx, fi,
		req.GetString("name", cur.Name),
		req.GetString("desc", cur.Desc),
		req.GetString("color", cur.Color),
	)
	if err != nil {
		return nil, fmt.Errorf("edit folder: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleSetFolderLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	cur, err := s.docs.Folder(fi)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.SetFolderLayout(ctx, fi,
		req.GetInt("perPage", cur.PerPage),
		domain.Alignment(req.GetString("numberAlign", string(cur.NumberAlign))),
	)
	if err != nil {
		return nil, fmt.Errorf("set folder layout: %w", err)
	}
	return changeResult(change)
}

func (s *Server) handleDeleteFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	change, err := s.docs.DeleteFolder(ctx, fi)
	if err != nil {
		return nil, fmt.Errorf("delete folder: %w", err)
	}
	return changeResult(change)
}
