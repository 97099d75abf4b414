package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	foldersURI      = "arafiles://folders"
	folderURIPrefix = "arafiles://folder/"
)

func (s *Server) registerResources() {
	// ── arafiles://folders ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		foldersURI,
		"All Folders",
		mcp.WithMIMEType("application/json"),
	), s.handleFoldersResource)

	// ── arafiles://folder/{index} ──────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			folderURIPrefix+"{index}",
			"Questions in a Folder",
		),
		s.handleFolderResource,
	)
}

func (s *Server) handleFoldersResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, _ := json.MarshalIndent(s.folderSummaries(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      foldersURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleFolderResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	fi, err := folderIndexFromURI(uri)
	if err != nil {
		return nil, err
	}
	f, err := s.docs.Folder(fi)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(f, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// folderIndexFromURI extracts the index from "arafiles://folder/{index}".
func folderIndexFromURI(uri string) (int, error) {
	rest, ok := strings.CutPrefix(uri, folderURIPrefix)
	if !ok {
		return 0, fmt.Errorf("could not extract folder index from URI: %s", uri)
	}
	fi, err := strconv.Atoi(strings.TrimSuffix(rest, "/"))
	if err != nil {
		return 0, fmt.Errorf("could not extract folder index from URI: %s", uri)
	}
	return fi, nil
}
