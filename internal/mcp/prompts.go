package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_quiz",
		mcp.WithPromptDescription("Guide through building a multiple-choice quiz folder and exporting it"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic of the quiz"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("count",
			mcp.ArgumentDescription("Number of questions (default 10)"),
		),
	), s.handleBuildQuizPrompt)
}

func (s *Server) handleBuildQuizPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	count := req.Params.Arguments["count"]
	if count == "" {
		count = "10"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a quiz about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a quiz about "%s" with %s questions. Follow these steps:

1. Use add_folder with the topic as its name. Note the folder index in the result.
2. For each question, use add_text_question with the question text and 3 to 5 options.
   Do not number the questions or letter the options yourself; the export does that.
3. Use plan_pages to check the layout. Long questions take more room.
4. If pages look crowded, use set_folder_layout to lower perPage.
5. Export with export_pdf and report the file path.`, topic, count),
				},
			},
		},
	}, nil
}
