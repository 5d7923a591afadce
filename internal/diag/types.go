// Package diag defines the shared diagnostic model produced by the
// build-log extractor and the result-bundle parser, plus the fixed
// text renderers consumed by tool handlers.
//
// All types are plain values: constructed once by a parser, never
// mutated afterwards, safe to pass across goroutines.
package diag

import "time"

// Status is the overall outcome of a build or test invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// BuildSummary holds the headline counts of a run. The list-derived
// counts (errors, warnings, failed tests, linker errors) always equal
// the lengths of the corresponding slices on BuildResult; parsers call
// SyncCounts after populating the slices to keep that true.
type BuildSummary struct {
	ErrorCount       int
	WarningCount     int
	FailedTestCount  int
	LinkerErrorCount int

	// PassedTestCount is only meaningful for test runs. Zero means
	// either "no tests passed" or "not a test run"; the caller knows
	// which renderer it asked for.
	PassedTestCount int

	// BuildTime and TestTime are the tool's own duration strings
	// (for example "4.211 sec" or "2.345"); empty when the output
	// carried none.
	BuildTime string
	TestTime  string
}

// BuildError is a single compiler diagnostic at error severity.
// File may be empty for diagnostics that carry no location; Line and
// Column are 1-based, zero meaning unknown.
type BuildError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// BuildWarning mirrors BuildError at warning severity.
type BuildWarning struct {
	File    string
	Line    int
	Column  int
	Message string
}

// FailedTest is one failing test case. TestIdentifier is in
// "Suite.test" form. File and Line point at the failing assertion
// when the output carried a location.
type FailedTest struct {
	TestIdentifier string
	Message        string
	File           string
	Line           int
}

// LinkerError is one undefined-symbol diagnostic from the linker.
type LinkerError struct {
	UndefinedSymbol string
	Architecture    string
	ReferencedFrom  string
}

// FileCoverage is the line coverage of a single source file.
type FileCoverage struct {
	Path    string
	Percent float64
}

// CodeCoverage is the line-coverage section of a test run.
type CodeCoverage struct {
	LineCoveragePercent float64
	Files               []FileCoverage
}

// TestAttachment describes one artifact exported from a result bundle.
type TestAttachment struct {
	TestIdentifier        string
	ExportedFileName      string
	DisplayName           string
	AssociatedWithFailure bool
	Timestamp             time.Time
}

// BuildResult is the aggregate outcome of one build or test
// invocation, regardless of whether it was extracted from console
// text or a result bundle.
type BuildResult struct {
	Status       Status
	Summary      BuildSummary
	Errors       []BuildError
	Warnings     []BuildWarning
	FailedTests  []FailedTest
	LinkerErrors []LinkerError
	Coverage     *CodeCoverage
	Attachments  []TestAttachment
}

// SyncCounts aligns the summary's list-derived counts with the lists
// themselves. FailedTestCount is only raised, never lowered: a summary
// line may report failures the extractor could not attribute to an
// individual test case.
func (r *BuildResult) SyncCounts() {
	r.Summary.ErrorCount = len(r.Errors)
	r.Summary.WarningCount = len(r.Warnings)
	r.Summary.LinkerErrorCount = len(r.LinkerErrors)
	if len(r.FailedTests) > r.Summary.FailedTestCount {
		r.Summary.FailedTestCount = len(r.FailedTests)
	}
}

// ExecutedTestCount is the number of tests that actually ran.
func (r *BuildResult) ExecutedTestCount() int {
	return r.Summary.PassedTestCount + r.Summary.FailedTestCount
}

// ResolveStatus applies the status rule: a run is failed exactly when
// it produced errors, failed tests, or linker errors. A terminal line
// saying "failed" over a clean body does not make the run failed, and
// a missing terminal line over a dirty body does not make it succeed.
func (r *BuildResult) ResolveStatus() {
	if r.Summary.ErrorCount > 0 || r.Summary.FailedTestCount > 0 || r.Summary.LinkerErrorCount > 0 {
		r.Status = StatusFailed
		return
	}
	r.Status = StatusSuccess
}
