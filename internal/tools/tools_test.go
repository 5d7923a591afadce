package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cameronhq/xcdiag/internal/command"
	"github.com/cameronhq/xcdiag/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// --- Test helpers ---

// request builds a CallToolRequest with the given arguments.
func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// newTestStore opens a history store in a temp dir.
func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.New(history.Config{DataDir: t.TempDir(), MaxRuns: 50})
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fakeRunner returns a canned result for every process invocation.
type fakeRunner struct {
	result command.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ ...string) (command.Result, error) {
	return f.result, f.err
}

const cleanBuildLog = `Build settings from command line:
CompileSwift normal arm64 /Users/dev/App/main.swift
** BUILD SUCCEEDED ** [4.2 sec]
`

const failingBuildLog = `CompileSwift normal arm64
/Users/dev/App/main.swift:10:5: error: cannot find 'foo' in scope
** BUILD FAILED **
`

const passingTestLog = `Test Case '-[AppTests.LoginTests testLogin]' passed (0.012 seconds)
Executed 1 test, with 0 failures (0 unexpected) in 0.012 (0.020) seconds
** TEST SUCCEEDED **
`

const emptyTestLog = `Test session started.
Executed 0 tests, with 0 failures (0 unexpected) in 0.000 (0.001) seconds
** TEST SUCCEEDED **
`

// --- DiagnoseBuildLogTool ---

func TestDiagnoseBuildLogTool_Handle_Success(t *testing.T) {
	tool := NewDiagnoseBuildLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": cleanBuildLog,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, "Build succeeded") {
		t.Errorf("report should contain 'Build succeeded', got: %s", text)
	}
}

func TestDiagnoseBuildLogTool_Handle_MissingOutput(t *testing.T) {
	tool := NewDiagnoseBuildLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("should return error when output is missing")
	}
}

func TestDiagnoseBuildLogTool_Handle_FailureCarriesReport(t *testing.T) {
	tool := NewDiagnoseBuildLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": failingBuildLog,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("failing build should produce an error result")
	}
	text := getResultText(result)
	if !strings.Contains(text, "Build failed") {
		t.Errorf("error should contain the headline: %s", text)
	}
	if !strings.Contains(text, "cannot find 'foo' in scope") {
		t.Errorf("error should carry the diagnostic line: %s", text)
	}
}

func TestDiagnoseBuildLogTool_Handle_InfraWarningAppended(t *testing.T) {
	tool := NewDiagnoseBuildLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": cleanBuildLog,
		"stderr": "2026-08-30 Lost connection to testmanagerd",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if text := getResultText(result); !strings.Contains(text, "Warning: testmanagerd terminated unexpectedly") {
		t.Errorf("infra warning missing from report: %s", text)
	}
}

func TestDiagnoseBuildLogTool_Handle_Journals(t *testing.T) {
	store := newTestStore(t)
	tool := NewDiagnoseBuildLogTool(store, zap.NewNop())

	if _, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": failingBuildLog,
	})); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	runs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("journaled runs = %d, want 1", len(runs))
	}
	if runs[0].Kind != "build" || runs[0].Status != "failed" || runs[0].ErrorCount != 1 {
		t.Errorf("journaled run = %+v", runs[0])
	}
}

// --- DiagnoseTestLogTool ---

func TestDiagnoseTestLogTool_Handle_Success(t *testing.T) {
	tool := NewDiagnoseTestLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": passingTestLog,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, "Tests passed") {
		t.Errorf("report should contain 'Tests passed', got: %s", text)
	}
}

func TestDiagnoseTestLogTool_Handle_ZeroTestsUnderFilter(t *testing.T) {
	tool := NewDiagnoseTestLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output":       emptyTestLog,
		"only_testing": []interface{}{"AppTests/WrongSuite"},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("zero tests under a filter should be an error result")
	}
	text := getResultText(result)
	if !strings.Contains(text, "No tests matched the only_testing filter") {
		t.Errorf("error should name the zero-test condition: %s", text)
	}
	if !strings.Contains(text, "'AppTests/WrongSuite'") {
		t.Errorf("error should name each requested selector: %s", text)
	}
}

func TestDiagnoseTestLogTool_Handle_ZeroTestsWithSchemeSuggestion(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "App.xcodeproj", "xcshareddata", "xcschemes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	xml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Scheme version="1.7">
   <TestAction buildConfiguration="Debug">
      <Testables>
         <TestableReference skipped="NO">
            <BuildableReference BlueprintName=%q BuildableName="x.xctest"/>
         </TestableReference>
      </Testables>
   </TestAction>
</Scheme>`, "WrongSuite")
	if err := os.WriteFile(filepath.Join(dir, "TestApp.xcscheme"), []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}

	tool := NewDiagnoseTestLogTool(nil, zap.NewNop())
	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output":       emptyTestLog,
		"only_testing": []interface{}{"AppTests/WrongSuite"},
		"project_root": root,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Did you mean a different scheme?") {
		t.Errorf("error should carry the scheme suggestion: %s", text)
	}
	if !strings.Contains(text, "'TestApp'") {
		t.Errorf("suggestion should name the declaring scheme: %s", text)
	}
}

func TestDiagnoseTestLogTool_Handle_ZeroTestsNoFilterIsFine(t *testing.T) {
	tool := NewDiagnoseTestLogTool(nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"output": emptyTestLog,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Errorf("zero tests without a filter should not be an error: %s", getResultText(result))
	}
}

// --- ParseResultBundleTool ---

const bundleRecord = `{
  "actions": {
    "_values": [
      {
        "actionResult": {
          "metrics": {
            "testsCount": {"_value": "3"},
            "testsFailedCount": {"_value": "0"}
          }
        }
      }
    ]
  }
}`

func TestParseResultBundleTool_Handle_Success(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Run.xcresult")
	if err := os.MkdirAll(bundle, 0o755); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{result: command.Result{Stdout: bundleRecord}}
	tool := NewParseResultBundleTool(runner, nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"bundle_path": bundle,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, "Tests passed (3 passed") {
		t.Errorf("report should use the test headline with counts: %s", text)
	}
}

func TestParseResultBundleTool_Handle_MissingBundle(t *testing.T) {
	tool := NewParseResultBundleTool(&fakeRunner{}, nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"bundle_path": filepath.Join(t.TempDir(), "nope.xcresult"),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("missing bundle should be an error result")
	}
	if text := getResultText(result); !strings.Contains(text, "could not be introspected") {
		t.Errorf("error should say the bundle could not be introspected: %s", text)
	}
}

func TestParseResultBundleTool_Handle_ToolFailure(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Run.xcresult")
	if err := os.MkdirAll(bundle, 0o755); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{result: command.Result{Stderr: "unsupported version", ExitCode: 1}}
	tool := NewParseResultBundleTool(runner, nil, zap.NewNop())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"bundle_path": bundle,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("xcresulttool failure should be an error result")
	}
}

// --- ReadCrashReportTool ---

const crashReportJSON = `{"app_name":"MyApp","timestamp":"2026-08-29"}
{"procName":"MyApp","exception":{"type":"EXC_CRASH","signal":"SIGABRT"},"termination":{"namespace":"SIGNAL","indicator":"Abort trap: 6"}}`

func TestReadCrashReportTool_Handle_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MyApp-2026-08-29.ips")
	if err := os.WriteFile(path, []byte(crashReportJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewReadCrashReportTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"path": path,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "Process: MyApp") {
		t.Errorf("summary should name the process: %s", text)
	}
	if !strings.Contains(text, "Signal: SIGABRT") {
		t.Errorf("summary should name the signal: %s", text)
	}
}

func TestReadCrashReportTool_Handle_MissingFile(t *testing.T) {
	tool := NewReadCrashReportTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "nope.ips"),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("unreadable report should be an error result")
	}
}

func TestReadCrashReportTool_Handle_NoCrashFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ips")
	if err := os.WriteFile(path, []byte(`{"unrelated": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewReadCrashReportTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"path": path,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("report without crash fields should be an error result")
	}
}

// --- FindCrashReportsTool ---

func TestFindCrashReportsTool_Handle_Matches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MyApp-2026-08-30-101500.ips")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewFindCrashReportsTool(dir)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"process_name": "myapp",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Found 1 crash report(s)") {
		t.Errorf("should report one match: %s", text)
	}
	if !strings.Contains(text, path) {
		t.Errorf("should list the report path: %s", text)
	}
}

func TestFindCrashReportsTool_Handle_NoMatches(t *testing.T) {
	tool := NewFindCrashReportsTool(t.TempDir())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"process_name": "Ghost",
		"minutes":      float64(5),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("no matches is not an error: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, "No crash reports matching \"Ghost\" in the last 5 minute(s).") {
		t.Errorf("unexpected no-match message: %s", text)
	}
}

func TestFindCrashReportsTool_Handle_InvalidMinutes(t *testing.T) {
	tool := NewFindCrashReportsTool(t.TempDir())

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"process_name": "MyApp",
		"minutes":      float64(-1),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("negative minutes should be rejected")
	}
}

// --- ClassifyDebuggerOutputTool ---

func TestClassifyDebuggerOutputTool_Handle(t *testing.T) {
	tool := NewClassifyDebuggerOutputTool()

	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{
			name:       "segfault",
			transcript: "* thread #1, queue = 'com.apple.main-thread', stop reason = signal SIGSEGV",
			want:       "Crash detected",
		},
		{
			name:       "breakpoint",
			transcript: "* thread #1, stop reason = breakpoint 1.1",
			want:       "No crash detected",
		},
		{
			name:       "clean exit",
			transcript: "Process 4012 exited with status = 0 (0x00000000)",
			want:       "No crash detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), request(map[string]interface{}{
				"transcript": tt.transcript,
			}))
			if err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
			if text := getResultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("verdict = %q, want to contain %q", text, tt.want)
			}
		})
	}
}

// --- ExtractPreviewsTool ---

func TestExtractPreviewsTool_Handle(t *testing.T) {
	tool := NewExtractPreviewsTool()

	source := `import SwiftUI

#Preview("Login") {
    LoginView()
}
`
	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": source,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Found 1 #Preview block(s)") {
		t.Errorf("should report one block: %s", text)
	}
	if !strings.Contains(text, "Login") || !strings.Contains(text, "LoginView()") {
		t.Errorf("should include name and body: %s", text)
	}
}

func TestExtractPreviewsTool_Handle_NoBlocks(t *testing.T) {
	tool := NewExtractPreviewsTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": "struct ContentView: View {}",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if text := getResultText(result); !strings.Contains(text, "No #Preview blocks found.") {
		t.Errorf("unexpected no-block message: %s", text)
	}
}

// --- SuggestSchemesTool ---

func TestSuggestSchemesTool_Handle_NoMatch(t *testing.T) {
	tool := NewSuggestSchemesTool()

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"project_root": t.TempDir(),
		"target":       "AppTests/testLogin",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("no declaring schemes is not an error: %s", getResultText(result))
	}
	if text := getResultText(result); !strings.Contains(text, `No schemes declare target "AppTests".`) {
		t.Errorf("unexpected no-match message: %s", text)
	}
}

// --- HistoryTool ---

func TestHistoryTool_Handle_NilStore(t *testing.T) {
	tool := NewHistoryTool(nil)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("nil store should disable the tool with an error result")
	}
}

func TestHistoryTool_Handle_ListsRuns(t *testing.T) {
	store := newTestStore(t)
	build := NewDiagnoseBuildLogTool(store, zap.NewNop())
	if _, err := build.Handle(context.Background(), request(map[string]interface{}{
		"output": cleanBuildLog,
	})); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	tool := NewHistoryTool(store)
	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"limit": float64(5),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Last 1 diagnostic run(s)") {
		t.Errorf("should list one run: %s", text)
	}
	if !strings.Contains(text, "build") || !strings.Contains(text, "success") {
		t.Errorf("listing should carry kind and status: %s", text)
	}
}

func TestHistoryTool_Handle_EmptyJournal(t *testing.T) {
	tool := NewHistoryTool(newTestStore(t))

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if text := getResultText(result); !strings.Contains(text, "No diagnostic runs recorded yet.") {
		t.Errorf("unexpected empty-journal message: %s", text)
	}
}
