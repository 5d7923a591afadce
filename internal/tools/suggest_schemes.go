package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronhq/xcdiag/internal/scheme"
	"github.com/mark3labs/mcp-go/mcp"
)

// SuggestSchemesTool handles the suggest_schemes MCP tool.
// It reports which schemes under a project root declare a given test
// target.
type SuggestSchemesTool struct{}

// NewSuggestSchemesTool creates a SuggestSchemesTool.
func NewSuggestSchemesTool() *SuggestSchemesTool {
	return &SuggestSchemesTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *SuggestSchemesTool) Definition() mcp.Tool {
	return mcp.NewTool("suggest_schemes",
		mcp.WithDescription(
			"List the schemes under a project root that declare a given "+
				"test target. The target may be a bare name or a slash-"+
				"qualified test selector like 'MyAppTests/testLogin'.",
		),
		mcp.WithString("project_root",
			mcp.Required(),
			mcp.Description("Project root directory to scan for .xcscheme files."),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Test-target identifier to look up."),
		),
	)
}

// Handle processes the suggest_schemes tool call.
func (t *SuggestSchemesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root := req.GetString("project_root", "")
	if root == "" {
		return mcp.NewToolResultError("'project_root' is required"), nil
	}
	target := req.GetString("target", "")
	if target == "" {
		return mcp.NewToolResultError("'target' is required"), nil
	}

	finder := &scheme.Finder{Root: root}
	matched, names := finder.SchemesDeclaring(ctx, target)
	if len(names) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No schemes declare target %q.", scheme.TargetName(target))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Target %q is declared by scheme(s): %s.", matched, strings.Join(names, ", "))), nil
}
