// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools that depend on abstractions. No
// diagnostic logic lives here — only wiring.
package server

import (
	"time"

	"github.com/cameronhq/xcdiag/internal/command"
	"github.com/cameronhq/xcdiag/internal/config"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/cameronhq/xcdiag/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all diagnostic tools
// registered.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New(cfg config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	s := server.NewMCPServer(
		"xcdiag",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	runner := &command.SystemRunner{Timeout: time.Duration(cfg.ToolTimeout)}

	// History is an independent subsystem: if it fails to initialize,
	// the diagnostic tools continue working and simply stop journaling.
	cleanup := noop
	store, histErr := history.New(history.Config{
		DataDir: cfg.DataDir,
		MaxRuns: cfg.HistoryLimit,
	})
	if histErr != nil {
		logger.Warn("history subsystem disabled", zap.Error(histErr))
		store = nil
	} else {
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("history store close", zap.Error(err))
			}
		}
	}

	buildTool := tools.NewDiagnoseBuildLogTool(store, logger)
	s.AddTool(buildTool.Definition(), buildTool.Handle)

	testTool := tools.NewDiagnoseTestLogTool(store, logger)
	s.AddTool(testTool.Definition(), testTool.Handle)

	bundleTool := tools.NewParseResultBundleTool(runner, store, logger)
	s.AddTool(bundleTool.Definition(), bundleTool.Handle)

	readCrashTool := tools.NewReadCrashReportTool()
	s.AddTool(readCrashTool.Definition(), readCrashTool.Handle)

	findCrashTool := tools.NewFindCrashReportsTool(cfg.CrashReportDir)
	s.AddTool(findCrashTool.Definition(), findCrashTool.Handle)

	classifyTool := tools.NewClassifyDebuggerOutputTool()
	s.AddTool(classifyTool.Definition(), classifyTool.Handle)

	previewsTool := tools.NewExtractPreviewsTool()
	s.AddTool(previewsTool.Definition(), previewsTool.Handle)

	schemesTool := tools.NewSuggestSchemesTool()
	s.AddTool(schemesTool.Definition(), schemesTool.Handle)

	historyTool := tools.NewHistoryTool(store)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when history
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions describing how
// the diagnostic tools fit together.
func serverInstructions() string {
	return `xcdiag analyzes Xcode build and test output. It never runs builds
itself: you run xcodebuild (or xcrun), capture stdout/stderr, and feed
the text to these tools.

Typical flow:
1. After a build, call diagnose_build_log with the captured stdout
   (and stderr, so infrastructure-daemon crashes are detected).
2. After a test run, call diagnose_test_log instead; pass the
   -only-testing selectors you used so a run that silently matched
   zero tests is surfaced as a failure with scheme suggestions.
3. When an .xcresult bundle is available, parse_result_bundle gives
   the same report with exact issue locations and code coverage.
4. If a process crashed, find_crash_reports locates recent .ips
   reports and read_crash_report summarizes one. For lldb sessions,
   classify_debugger_output gives a crash/no-crash verdict.
5. suggest_schemes and extract_previews are standalone lookups over
   project sources.

diagnostics_history lists recent analyses recorded by this server.

All tools are read-only: nothing modifies the project.`
}
