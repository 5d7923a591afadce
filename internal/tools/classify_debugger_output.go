package tools

import (
	"context"

	"github.com/cameronhq/xcdiag/internal/lldb"
	"github.com/mark3labs/mcp-go/mcp"
)

// ClassifyDebuggerOutputTool handles the classify_debugger_output MCP
// tool: a heuristic crash/no-crash verdict on an lldb transcript.
type ClassifyDebuggerOutputTool struct{}

// NewClassifyDebuggerOutputTool creates a ClassifyDebuggerOutputTool.
func NewClassifyDebuggerOutputTool() *ClassifyDebuggerOutputTool {
	return &ClassifyDebuggerOutputTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ClassifyDebuggerOutputTool) Definition() mcp.Tool {
	return mcp.NewTool("classify_debugger_output",
		mcp.WithDescription(
			"Classify an lldb console transcript as crashed or not. "+
				"Breakpoint and watchpoint stops are not crashes; fatal "+
				"signals, crash exceptions, and nonzero exits are.",
		),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("The captured lldb console transcript."),
		),
	)
}

// Handle processes the classify_debugger_output tool call.
func (t *ClassifyDebuggerOutputTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript := req.GetString("transcript", "")
	if transcript == "" {
		return mcp.NewToolResultError("'transcript' is required"), nil
	}

	if lldb.IndicatesCrash(transcript) {
		return mcp.NewToolResultText("Crash detected in debugger output."), nil
	}
	return mcp.NewToolResultText("No crash detected in debugger output."), nil
}
