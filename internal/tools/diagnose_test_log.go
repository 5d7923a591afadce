package tools

import (
	"context"

	"github.com/cameronhq/xcdiag/internal/buildlog"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/cameronhq/xcdiag/internal/scheme"
	"github.com/cameronhq/xcdiag/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// DiagnoseTestLogTool handles the diagnose_test_log MCP tool.
// On top of the build-log extraction it applies test-run triage:
// zero-tests-under-a-filter becomes a hard failure, enriched with a
// scheme suggestion when a project root is available.
type DiagnoseTestLogTool struct {
	store  *history.Store
	logger *zap.Logger
}

// NewDiagnoseTestLogTool creates a DiagnoseTestLogTool. The history
// store may be nil, in which case runs are not journaled.
func NewDiagnoseTestLogTool(store *history.Store, logger *zap.Logger) *DiagnoseTestLogTool {
	return &DiagnoseTestLogTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *DiagnoseTestLogTool) Definition() mcp.Tool {
	return mcp.NewTool("diagnose_test_log",
		mcp.WithDescription(
			"Diagnose captured xcodebuild test output. Extracts failed "+
				"tests, errors, and coverage into a structured report. When "+
				"`only_testing` selectors were used, a run that executed "+
				"zero tests is reported as a failure with scheme suggestions.",
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Raw xcodebuild stdout (console text) of the test invocation."),
		),
		mcp.WithString("stderr",
			mcp.Description("Raw stderr of the same invocation. Scanned for test-infrastructure daemon crash signatures."),
		),
		mcp.WithArray("only_testing",
			mcp.Description("The -only-testing selectors passed to xcodebuild, if any. Enables zero-test detection."),
			mcp.WithStringItems(),
		),
		mcp.WithString("project_root",
			mcp.Description("Project root directory to scan for scheme files when suggesting alternatives. Optional."),
		),
	)
}

// Handle processes the diagnose_test_log tool call.
func (t *DiagnoseTestLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output := req.GetString("output", "")
	if output == "" {
		return mcp.NewToolResultError("'output' is required"), nil
	}

	opts := triage.Options{
		Stderr:      req.GetString("stderr", ""),
		OnlyTesting: stringsArg(req, "only_testing"),
	}
	if root := req.GetString("project_root", ""); root != "" {
		opts.Schemes = &scheme.Finder{Root: root}
	}

	result := buildlog.Parse(output)
	report, runErr := triage.Test(ctx, result, opts)

	journal(t.store, t.logger, "test", reportText(report, runErr), result)
	return runOutcome(report, runErr), nil
}
