package tools

import (
	"context"
	"fmt"

	"github.com/cameronhq/xcdiag/internal/command"
	"github.com/cameronhq/xcdiag/internal/diag"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/cameronhq/xcdiag/internal/triage"
	"github.com/cameronhq/xcdiag/internal/xcresult"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// ParseResultBundleTool handles the parse_result_bundle MCP tool.
// It introspects an .xcresult bundle via xcresulttool and renders the
// same report shape as the log-based tools.
type ParseResultBundleTool struct {
	parser *xcresult.Parser
	store  *history.Store
	logger *zap.Logger
}

// NewParseResultBundleTool creates a ParseResultBundleTool using the
// given process runner for the xcresulttool invocation.
func NewParseResultBundleTool(runner command.Runner, store *history.Store, logger *zap.Logger) *ParseResultBundleTool {
	return &ParseResultBundleTool{parser: xcresult.New(runner), store: store, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseResultBundleTool) Definition() mcp.Tool {
	return mcp.NewTool("parse_result_bundle",
		mcp.WithDescription(
			"Parse an .xcresult bundle into a diagnostic report: errors, "+
				"warnings, failed tests, and code coverage. Requires "+
				"xcresulttool (ships with Xcode) on the host.",
		),
		mcp.WithString("bundle_path",
			mcp.Required(),
			mcp.Description("Filesystem path to the .xcresult bundle."),
		),
	)
}

// Handle processes the parse_result_bundle tool call.
func (t *ParseResultBundleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bundlePath := req.GetString("bundle_path", "")
	if bundlePath == "" {
		return mcp.NewToolResultError("'bundle_path' is required"), nil
	}

	result, err := t.parser.Parse(ctx, bundlePath)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Result bundle at %q could not be introspected.", bundlePath)), nil
	}

	report, runErr := renderBundle(ctx, result)
	journal(t.store, t.logger, "bundle", reportText(report, runErr), result)
	return runOutcome(report, runErr), nil
}

// renderBundle picks the test-style report when the bundle carries any
// test evidence, the build-style report otherwise.
func renderBundle(ctx context.Context, result *diag.BuildResult) (string, error) {
	if result.ExecutedTestCount() > 0 || result.Coverage != nil {
		return triage.Test(ctx, result, triage.Options{})
	}
	return triage.Build(result, "")
}
