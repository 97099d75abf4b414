package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"arafiles/internal/fsutil"
	"arafiles/internal/service"
)

func (s *Server) registerExportTools() {
	s.mcp.AddTool(mcp.NewTool("plan_pages",
		mcp.WithDescription("Show which questions land on which page and column of the PDF export, without rendering"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
	), s.handlePlanPages)

	s.mcp.AddTool(mcp.NewTool("export_pdf",
		mcp.WithDescription("Render a folder as an A4 PDF with two columns per page"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Output file (optional, defaults to <name>.pdf in the export directory)")),
	), s.handleExportPDF)

	s.mcp.AddTool(mcp.NewTool("export_png",
		mcp.WithDescription("Render a folder as one tall PNG with two balanced columns"),
		mcp.WithNumber("folder", mcp.Description("Zero-based folder index"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Output file (optional, defaults to <name>.png in the export directory)")),
	), s.handleExportPNG)

	s.mcp.AddTool(mcp.NewTool("export_backup",
		mcp.WithDescription("Write a backup zip with every folder and image"),
		mcp.WithString("path", mcp.Description("Output file (optional)")),
	), s.handleExportBackup)

	s.mcp.AddTool(mcp.NewTool("import_backup",
		mcp.WithDescription("Replace all folders with the contents of a backup zip"),
		mcp.WithString("path", mcp.Description("Backup zip to import"), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleImportBackup)
}

func (s *Server) handlePlanPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	pages, err := s.exports.Plan(ctx, fi)
	if err != nil {
		return nil, fmt.Errorf("plan pages: %w", err)
	}
	return jsonResult(pages)
}

func (s *Server) handleExportPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	path, err := s.outputPath(req, fi, ".pdf")
	if err != nil {
		return nil, err
	}
	var pages int
	err = fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		pages, err = s.exports.ExportDocument(ctx, fi, w)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return textResult(fmt.Sprintf("Wrote %d page(s) to %s", pages, path)), nil
}

func (s *Server) handleExportPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fi, err := folderArg(req)
	if err != nil {
		return nil, err
	}
	path, err := s.outputPath(req, fi, ".png")
	if err != nil {
		return nil, err
	}
	err = fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		return s.exports.ExportImage(ctx, fi, w)
	})
	if err != nil {
		return nil, fmt.Errorf("export png: %w", err)
	}
	return textResult(fmt.Sprintf("Wrote %s", path)), nil
}

func (s *Server) handleExportBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		path = filepath.Join(s.outDir, service.BackupFileName(time.Now()))
	}
	var summary service.BackupSummary
	err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		summary, err = s.backups.Export(ctx, w)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export backup: %w", err)
	}
	return jsonResult(map[string]any{"path": path, "summary": summary})
}

func (s *Server) handleImportBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	summary, err := s.backups.Import(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("import backup: %w", err)
	}
	return jsonResult(summary)
}

// outputPath is the "path" argument, or <folder name><ext> in outDir.
func (s *Server) outputPath(req mcp.CallToolRequest, fi int, ext string) (string, error) {
	if p := req.GetString("path", ""); p != "" {
		return p, nil
	}
	f, err := s.docs.Folder(fi)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.outDir, fsutil.SafeName(f.Title())+ext), nil
}
