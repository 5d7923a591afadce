// Package triage post-processes extraction output: it detects known
// test-infrastructure daemon failures in stderr, promotes
// zero-tests-under-an-explicit-filter to a hard failure, and enriches
// failures with scheme suggestions.
//
// A run that failed for ordinary reasons (errors, failed tests)
// passes through unchanged except for the infrastructure-warning
// append.
package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronhq/xcdiag/internal/diag"
)

// Byte-fixed phrases other systems pattern-match against.
const (
	warnTestmanagerdCrashed    = "Warning: testmanagerd crashed"
	warnTestmanagerdTerminated = "Warning: testmanagerd terminated unexpectedly"
	warnTestRunnerCrashed      = "Warning: The test runner daemon crashed"

	zeroTestPhrase   = "No tests matched the only_testing filter"
	suggestionPhrase = "Did you mean a different scheme?"
)

// infraSignatures maps known stderr substrings to their warning line.
// Checked in order; the first match wins and exactly one warning is
// appended per run.
var infraSignatures = []struct {
	needle  string
	warning string
}{
	{"Lost connection to testmanagerd", warnTestmanagerdTerminated},
	{"Connection with testmanagerd was invalidated", warnTestmanagerdTerminated},
	{"testmanagerd exited with signal", warnTestmanagerdCrashed},
	{"testmanagerd crashed", warnTestmanagerdCrashed},
	{"Test runner exited before starting test execution", warnTestRunnerCrashed},
	{"Early unexpected exit, operation never finished bootstrapping", warnTestRunnerCrashed},
}

// InfraWarning returns the warning line for the first known
// infrastructure-crash signature found in stderr, or "".
func InfraWarning(stderr string) string {
	for _, sig := range infraSignatures {
		if strings.Contains(stderr, sig.needle) {
			return sig.warning
		}
	}
	return ""
}

// SchemeFinder looks up which schemes declare the target named by a
// test selector. It returns the target name that matched alongside
// the scheme names. Scans happen fresh per call; implementations must
// not cache.
type SchemeFinder interface {
	SchemesDeclaring(ctx context.Context, identifier string) (target string, schemes []string)
}

// RunError is the semantic-failure error: the build or test run is
// judged failed and Report carries the full formatted diagnostic
// text, including any infrastructure warning and scheme suggestion.
type RunError struct {
	Report string
}

func (e *RunError) Error() string { return e.Report }

// Options carries the invocation context for test-run triage.
type Options struct {
	// Stderr is the raw captured stderr of the invocation, scanned
	// for infrastructure-daemon crash signatures.
	Stderr string

	// OnlyTesting lists the explicitly requested test selectors. When
	// non-empty and zero tests executed, the run is a hard failure
	// even if the tool reported success.
	OnlyTesting []string

	// Schemes, when non-nil, enriches zero-test failures with a
	// suggestion naming the schemes that declare the requested target.
	Schemes SchemeFinder
}

// Build renders a build run. Failure surfaces as a *RunError carrying
// the report text.
func Build(result *diag.BuildResult, stderr string) (string, error) {
	report := diag.FormatBuild(*result)
	if w := InfraWarning(stderr); w != "" {
		report += "\n\n" + w
	}
	if result.Status == diag.StatusFailed {
		return "", &RunError{Report: report}
	}
	return report, nil
}

// Test renders a test run, applying zero-test detection before the
// ordinary pass/fail decision.
func Test(ctx context.Context, result *diag.BuildResult, opts Options) (string, error) {
	report := diag.FormatTest(*result)
	if w := InfraWarning(opts.Stderr); w != "" {
		report += "\n\n" + w
	}

	// A run that failed for a concrete reason keeps that diagnosis;
	// zero-test enrichment only explains an otherwise clean run where
	// the filter silently matched nothing.
	if len(opts.OnlyTesting) > 0 && result.ExecutedTestCount() == 0 &&
		result.Summary.ErrorCount == 0 && result.Summary.LinkerErrorCount == 0 {
		msg := fmt.Sprintf("%s: %s.", zeroTestPhrase, quoteJoin(opts.OnlyTesting))
		if s := suggestion(ctx, opts); s != "" {
			msg += " " + s
		}
		return "", &RunError{Report: msg + "\n\n" + report}
	}

	if result.Status == diag.StatusFailed {
		return "", &RunError{Report: report}
	}
	return report, nil
}

// suggestion builds the scheme-suggestion clause for the first
// requested selector, or "" when nothing matches.
func suggestion(ctx context.Context, opts Options) string {
	if opts.Schemes == nil || len(opts.OnlyTesting) == 0 {
		return ""
	}
	target, names := opts.Schemes.SchemesDeclaring(ctx, opts.OnlyTesting[0])
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("%s Target '%s' is declared by scheme(s): %s.",
		suggestionPhrase, target, quoteJoin(names))
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
