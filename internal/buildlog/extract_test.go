package buildlog_test

import (
	"strings"
	"testing"

	"github.com/cameronhq/xcdiag/internal/buildlog"
	"github.com/cameronhq/xcdiag/internal/diag"
)

func TestParse_SingleCompilerError(t *testing.T) {
	out := strings.Join([]string{
		"Build settings from command line:",
		"main.swift:10:5: error: cannot find 'x' in scope",
		"** BUILD FAILED **",
	}, "\n")

	r := buildlog.Parse(out)
	if r.Status != diag.StatusFailed {
		t.Errorf("Status = %q, want failed", r.Status)
	}
	if len(r.Errors) != 1 || r.Summary.ErrorCount != 1 {
		t.Fatalf("errors = %d (summary %d), want 1", len(r.Errors), r.Summary.ErrorCount)
	}
	e := r.Errors[0]
	if e.File != "main.swift" || e.Line != 10 || e.Column != 5 || e.Message != "cannot find 'x' in scope" {
		t.Errorf("error = %+v", e)
	}
	if got := diag.FormatBuild(*r); !strings.Contains(got, "1 error") {
		t.Errorf("formatted text missing count: %q", got)
	}
}

func TestParse_WarningWithoutColumn(t *testing.T) {
	r := buildlog.Parse("Foo.swift:3: warning: initialization of 'y' was never used\n** BUILD SUCCEEDED **\n")
	if r.Status != diag.StatusSuccess {
		t.Errorf("Status = %q, warnings alone must not fail a build", r.Status)
	}
	if len(r.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(r.Warnings))
	}
	if w := r.Warnings[0]; w.Line != 3 || w.Column != 0 {
		t.Errorf("warning = %+v, want line 3 and absent column", w)
	}
}

func TestParse_DuplicateDiagnosticsCollapsed(t *testing.T) {
	line := "main.swift:10:5: error: cannot find 'x' in scope\n"
	r := buildlog.Parse(line + line + line)
	if len(r.Errors) != 1 {
		t.Errorf("duplicate diagnostics not collapsed: %d", len(r.Errors))
	}
}

func TestParse_BareToolError(t *testing.T) {
	r := buildlog.Parse("xcodebuild: error: Scheme NoSuch is not currently configured for the build action.\n")
	if len(r.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(r.Errors))
	}
	if r.Errors[0].File != "" {
		t.Errorf("bare diagnostic must carry no location: %+v", r.Errors[0])
	}
	if r.Status != diag.StatusFailed {
		t.Errorf("Status = %q, want failed", r.Status)
	}
}

func TestParse_LinkerBlock(t *testing.T) {
	out := strings.Join([]string{
		"Undefined symbols for architecture arm64:",
		`  "_missing_helper", referenced from:`,
		"      _main in main.o",
		"      _other in other.o",
		"ld: symbol(s) not found for architecture arm64",
		"** BUILD FAILED **",
	}, "\n")

	r := buildlog.Parse(out)
	if len(r.LinkerErrors) != 1 {
		t.Fatalf("linker errors = %d, want 1", len(r.LinkerErrors))
	}
	le := r.LinkerErrors[0]
	if le.UndefinedSymbol != "_missing_helper" || le.Architecture != "arm64" || le.ReferencedFrom != "main.o" {
		t.Errorf("linker error = %+v", le)
	}
	if r.Status != diag.StatusFailed {
		t.Errorf("Status = %q, want failed", r.Status)
	}
}

func TestParse_TestRun(t *testing.T) {
	out := strings.Join([]string{
		"Test Suite 'SuiteTests' started at 2026-01-05 10:00:00.000",
		"Test Case '-[SuiteTests testPasses]' started.",
		"Test Case '-[SuiteTests testPasses]' passed (0.001 seconds).",
		"Test Case '-[SuiteTests testFails]' started.",
		`/Users/dev/App/File.swift:25: error: -[SuiteTests testFails] : XCTAssertEqual failed: ("1") is not equal to ("2")`,
		"Test Case '-[SuiteTests testFails]' failed (0.002 seconds).",
		"Executed 2 tests, with 1 failure (0 unexpected) in 0.003 (0.456) seconds",
		"** TEST FAILED **",
	}, "\n")

	r := buildlog.Parse(out)
	if r.Status != diag.StatusFailed {
		t.Errorf("Status = %q, want failed", r.Status)
	}
	if r.Summary.PassedTestCount != 1 || r.Summary.FailedTestCount != 1 {
		t.Errorf("counts = %d passed / %d failed", r.Summary.PassedTestCount, r.Summary.FailedTestCount)
	}
	if r.Summary.TestTime != "0.456 seconds" {
		t.Errorf("TestTime = %q", r.Summary.TestTime)
	}
	if len(r.FailedTests) != 1 {
		t.Fatalf("failed tests = %d, want 1", len(r.FailedTests))
	}
	ft := r.FailedTests[0]
	if ft.TestIdentifier != "SuiteTests.testFails" {
		t.Errorf("identifier = %q", ft.TestIdentifier)
	}
	if ft.File != "/Users/dev/App/File.swift" || ft.Line != 25 {
		t.Errorf("location = %s:%d", ft.File, ft.Line)
	}
	if !strings.Contains(ft.Message, "XCTAssertEqual failed") {
		t.Errorf("message = %q", ft.Message)
	}

	// The assertion-location line must not leak into compiler errors.
	if len(r.Errors) != 0 {
		t.Errorf("test failure counted as compiler error: %+v", r.Errors)
	}
}

func TestParse_LocationLineAfterFailLine(t *testing.T) {
	out := strings.Join([]string{
		"Test Case '-[SuiteTests testFails]' failed (0.002 seconds).",
		`File.swift:9: error: -[SuiteTests testFails] : XCTAssertTrue failed`,
	}, "\n")

	r := buildlog.Parse(out)
	if len(r.FailedTests) != 1 {
		t.Fatalf("failed tests = %d, want 1", len(r.FailedTests))
	}
	ft := r.FailedTests[0]
	if ft.File != "File.swift" || ft.Line != 9 || ft.Message != "XCTAssertTrue failed" {
		t.Errorf("detail not attached after the fact: %+v", ft)
	}
}

func TestParse_SummaryLineSupersedesMissingCaseLines(t *testing.T) {
	// No individual test case lines at all, only the summary.
	r := buildlog.Parse("Executed 5 tests, with 2 failures (0 unexpected) in 0.1 (0.2) seconds\n")
	if r.Summary.PassedTestCount != 3 || r.Summary.FailedTestCount != 2 {
		t.Errorf("counts = %d passed / %d failed, want 3/2", r.Summary.PassedTestCount, r.Summary.FailedTestCount)
	}
	if r.Status != diag.StatusFailed {
		t.Errorf("Status = %q, want failed", r.Status)
	}
}

func TestParse_CleanSuccess(t *testing.T) {
	r := buildlog.Parse("note: Using new build system\n** BUILD SUCCEEDED ** [4.211 sec]\n")
	if r.Status != diag.StatusSuccess {
		t.Errorf("Status = %q", r.Status)
	}
	if r.Summary.ErrorCount != 0 || r.Summary.WarningCount != 0 {
		t.Errorf("counts not zero: %+v", r.Summary)
	}
	if r.Summary.BuildTime != "4.211 sec" {
		t.Errorf("BuildTime = %q", r.Summary.BuildTime)
	}
}

func TestParse_FailedTerminalLineOverCleanBody(t *testing.T) {
	// Status is a strict function of the counts; the terminal line's
	// wording does not override a clean body.
	r := buildlog.Parse("** BUILD FAILED **\n")
	if r.Status != diag.StatusSuccess {
		t.Errorf("Status = %q, want success for a diagnostic-free body", r.Status)
	}
}

func TestParse_EmptyAndGarbageInput(t *testing.T) {
	for _, in := range []string{"", "\n\n\n", "completely unrelated noise\nmore noise"} {
		r := buildlog.Parse(in)
		if r.Status != diag.StatusSuccess {
			t.Errorf("Parse(%q).Status = %q", in, r.Status)
		}
		if len(r.Errors)+len(r.Warnings)+len(r.FailedTests)+len(r.LinkerErrors) != 0 {
			t.Errorf("Parse(%q) produced diagnostics", in)
		}
	}
}
