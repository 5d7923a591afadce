package tools

import (
	"context"

	"github.com/cameronhq/xcdiag/internal/buildlog"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/cameronhq/xcdiag/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// DiagnoseBuildLogTool handles the diagnose_build_log MCP tool.
// It extracts errors, warnings, and linker failures from captured
// xcodebuild console output and renders a fixed-format report.
type DiagnoseBuildLogTool struct {
	store  *history.Store
	logger *zap.Logger
}

// NewDiagnoseBuildLogTool creates a DiagnoseBuildLogTool. The history
// store may be nil, in which case runs are not journaled.
func NewDiagnoseBuildLogTool(store *history.Store, logger *zap.Logger) *DiagnoseBuildLogTool {
	return &DiagnoseBuildLogTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *DiagnoseBuildLogTool) Definition() mcp.Tool {
	return mcp.NewTool("diagnose_build_log",
		mcp.WithDescription(
			"Diagnose captured xcodebuild build output. Extracts compiler "+
				"errors, warnings, and linker failures into a structured "+
				"report. Pass stderr separately so infrastructure-daemon "+
				"crashes can be detected.",
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Raw xcodebuild stdout (console text) of the build invocation."),
		),
		mcp.WithString("stderr",
			mcp.Description("Raw stderr of the same invocation. Scanned for test-infrastructure daemon crash signatures."),
		),
	)
}

// Handle processes the diagnose_build_log tool call.
func (t *DiagnoseBuildLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output := req.GetString("output", "")
	if output == "" {
		return mcp.NewToolResultError("'output' is required"), nil
	}
	stderr := req.GetString("stderr", "")

	result := buildlog.Parse(output)
	report, runErr := triage.Build(result, stderr)

	journal(t.store, t.logger, "build", reportText(report, runErr), result)
	return runOutcome(report, runErr), nil
}
