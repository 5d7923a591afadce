package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryTool handles the diagnostics_history MCP tool.
// It lists recent diagnostic runs from the local journal.
type HistoryTool struct {
	store *history.Store
}

// NewHistoryTool creates a HistoryTool over the given store. The store
// may be nil when history was disabled at startup.
func NewHistoryTool(store *history.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("diagnostics_history",
		mcp.WithDescription(
			"List recent diagnostic runs (build, test, and result-bundle "+
				"parses) recorded by this server, newest first.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return. Defaults to 10."),
		),
	)
}

// Handle processes the diagnostics_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.store == nil {
		return mcp.NewToolResultError("History is disabled: the journal store failed to initialize."), nil
	}
	limit := intArg(req, "limit", 10)
	if limit <= 0 {
		return mcp.NewToolResultError("'limit' must be positive"), nil
	}

	runs, err := t.store.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("tools: listing history: %w", err)
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No diagnostic runs recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d diagnostic run(s):\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(&b, "  %s  %-6s %-7s errors=%d warnings=%d failed=%d passed=%d\n",
			r.CreatedAt, r.Kind, r.Status,
			r.ErrorCount, r.WarningCount, r.FailedTestCount, r.PassedTestCount)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
