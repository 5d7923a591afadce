package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronhq/xcdiag/internal/preview"
	"github.com/mark3labs/mcp-go/mcp"
)

// ExtractPreviewsTool handles the extract_previews MCP tool.
// It extracts #Preview blocks from Swift source text.
type ExtractPreviewsTool struct{}

// NewExtractPreviewsTool creates an ExtractPreviewsTool.
func NewExtractPreviewsTool() *ExtractPreviewsTool {
	return &ExtractPreviewsTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ExtractPreviewsTool) Definition() mcp.Tool {
	return mcp.NewTool("extract_previews",
		mcp.WithDescription(
			"Extract #Preview blocks from Swift source text. Handles "+
				"braces inside strings, multiline strings, and nested "+
				"comments; returns each block's optional name and body.",
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Swift source text to scan."),
		),
	)
}

// Handle processes the extract_previews tool call.
func (t *ExtractPreviewsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	if source == "" {
		return mcp.NewToolResultError("'source' is required"), nil
	}

	blocks := preview.Extract(source)
	if len(blocks) == 0 {
		return mcp.NewToolResultText("No #Preview blocks found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d #Preview block(s):\n", len(blocks))
	for i, blk := range blocks {
		name := blk.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", i+1, name, blk.Body)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
