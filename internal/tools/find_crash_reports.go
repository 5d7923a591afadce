package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cameronhq/xcdiag/internal/crashlog"
	"github.com/mark3labs/mcp-go/mcp"
)

// FindCrashReportsTool handles the find_crash_reports MCP tool.
// It scans the diagnostic-reports directory for recent crash reports
// matching a process name.
type FindCrashReportsTool struct {
	// dir overrides the reports directory; empty means the platform
	// default (~/Library/Logs/DiagnosticReports).
	dir string
}

// NewFindCrashReportsTool creates a FindCrashReportsTool scanning the
// given directory, or the platform default when dir is empty.
func NewFindCrashReportsTool(dir string) *FindCrashReportsTool {
	return &FindCrashReportsTool{dir: dir}
}

// Definition returns the MCP tool definition for registration.
func (t *FindCrashReportsTool) Definition() mcp.Tool {
	return mcp.NewTool("find_crash_reports",
		mcp.WithDescription(
			"Find recent crash reports for a process in the macOS "+
				"diagnostic-reports directory. Matching is a case-insensitive "+
				"substring on the file name.",
		),
		mcp.WithString("process_name",
			mcp.Required(),
			mcp.Description("Process name (or fragment) to match against report file names."),
		),
		mcp.WithNumber("minutes",
			mcp.Description("Recency window in minutes. Defaults to 10."),
		),
	)
}

// Handle processes the find_crash_reports tool call.
func (t *FindCrashReportsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	process := req.GetString("process_name", "")
	if process == "" {
		return mcp.NewToolResultError("'process_name' is required"), nil
	}
	minutes := intArg(req, "minutes", 10)
	if minutes <= 0 {
		return mcp.NewToolResultError("'minutes' must be positive"), nil
	}

	dir := t.dir
	if dir == "" {
		dir = crashlog.DefaultReportDir()
	}

	reports := crashlog.FindRecent(dir, process, time.Duration(minutes)*time.Minute)
	if len(reports) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No crash reports matching %q in the last %d minute(s).", process, minutes)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d crash report(s) matching %q:\n", len(reports), process)
	for _, r := range reports {
		fmt.Fprintf(&b, "  %s (modified %s)\n", r.Path, r.ModifiedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
