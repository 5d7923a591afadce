package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/cameronhq/xcdiag/internal/crashlog"
	"github.com/mark3labs/mcp-go/mcp"
)

// ReadCrashReportTool handles the read_crash_report MCP tool.
// It parses a macOS .ips crash report and renders its summary.
type ReadCrashReportTool struct{}

// NewReadCrashReportTool creates a ReadCrashReportTool.
func NewReadCrashReportTool() *ReadCrashReportTool {
	return &ReadCrashReportTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ReadCrashReportTool) Definition() mcp.Tool {
	return mcp.NewTool("read_crash_report",
		mcp.WithDescription(
			"Read a macOS crash report (.ips, JSON format) and summarize "+
				"it: process, exception type, signal, termination reason, "+
				"and whether the crash was a fatal dyld error.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Filesystem path to the .ips crash report."),
		),
	)
}

// Handle processes the read_crash_report tool call.
func (t *ReadCrashReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot read crash report %q: %v", path, err)), nil
	}

	summary, err := crashlog.ParseReport(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot parse crash report %q: %v", path, err)), nil
	}

	formatted := summary.Formatted()
	if formatted == "" {
		return mcp.NewToolResultError(fmt.Sprintf("Crash report %q contains no recognizable crash fields.", path)), nil
	}
	return mcp.NewToolResultText(formatted), nil
}
