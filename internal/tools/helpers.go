// Package tools implements the MCP tool handlers over the diagnostics
// engine.
//
// Each tool is a struct receiving its dependencies at construction
// and exposing a Definition for registration plus a Handle compatible
// with mcp-go's CallToolRequest signature. Handlers stay thin: they
// validate parameters, call one engine operation, and render the
// outcome. One file per tool.
package tools

import (
	"errors"

	"github.com/cameronhq/xcdiag/internal/diag"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/cameronhq/xcdiag/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// journal records a run in the history store. The store is optional
// (nil when history init failed at startup) and writes are
// best-effort: a failure is logged, never surfaced to the caller.
func journal(store *history.Store, logger *zap.Logger, kind, report string, result *diag.BuildResult) {
	if store == nil {
		return
	}
	run := history.Run{
		Kind:   kind,
		Status: string(diag.StatusSuccess),
		Report: report,
	}
	if result != nil {
		run.Status = string(result.Status)
		run.ErrorCount = result.Summary.ErrorCount
		run.WarningCount = result.Summary.WarningCount
		run.FailedTestCount = result.Summary.FailedTestCount
		run.PassedTestCount = result.Summary.PassedTestCount
	}
	if _, err := store.Record(run); err != nil {
		logger.Warn("journal write failed", zap.String("kind", kind), zap.Error(err))
	}
}

// runOutcome renders a triage outcome as a tool result. Semantic
// failures carry their full report as the error text; anything else
// is an internal error.
func runOutcome(report string, err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultText(report)
	}
	var runErr *triage.RunError
	if errors.As(err, &runErr) {
		return mcp.NewToolResultError(runErr.Report)
	}
	return mcp.NewToolResultError(err.Error())
}

// reportText extracts the journaled report text from a triage outcome.
func reportText(report string, err error) string {
	if err == nil {
		return report
	}
	return err.Error()
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are
// float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// stringsArg extracts a string-array argument from a tool request.
// Non-string elements are skipped; a missing or mistyped key yields nil.
func stringsArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
