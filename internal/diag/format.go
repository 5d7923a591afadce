package diag

import (
	"fmt"
	"strings"
)

// FormatBuild renders a build-oriented report. The headline and
// per-diagnostic line shapes are fixed; downstream consumers
// pattern-match them.
func FormatBuild(r BuildResult) string {
	var b strings.Builder

	if r.Status == StatusSuccess {
		if r.Summary.BuildTime != "" {
			fmt.Fprintf(&b, "Build succeeded (%s)", r.Summary.BuildTime)
		} else {
			b.WriteString("Build succeeded")
		}
	} else {
		b.WriteString("Build failed")
	}

	writeDiagnosticSections(&b, r)
	return b.String()
}

// FormatTest renders a test-oriented report over the same model.
func FormatTest(r BuildResult) string {
	var b strings.Builder

	passed := r.Summary.PassedTestCount
	failed := r.Summary.FailedTestCount
	if r.Status == StatusSuccess {
		if r.Summary.TestTime != "" {
			fmt.Fprintf(&b, "Tests passed (%d passed, %s)", passed, r.Summary.TestTime)
		} else {
			fmt.Fprintf(&b, "Tests passed (%d passed)", passed)
		}
	} else {
		if r.Summary.TestTime != "" {
			fmt.Fprintf(&b, "Tests failed (%d failed, %d passed, %s)", failed, passed, r.Summary.TestTime)
		} else {
			fmt.Fprintf(&b, "Tests failed (%d failed, %d passed)", failed, passed)
		}
	}

	if len(r.FailedTests) > 0 {
		b.WriteString("\n\nFailed tests:")
		for _, t := range r.FailedTests {
			b.WriteString("\n  " + formatFailedTest(t))
		}
	}

	writeDiagnosticSections(&b, r)

	if r.Coverage != nil {
		fmt.Fprintf(&b, "\n\nCoverage: %s", formatPercent(r.Coverage.LineCoveragePercent))
		for _, f := range r.Coverage.Files {
			fmt.Fprintf(&b, "\n  %s: %s", f.Path, formatPercent(f.Percent))
		}
	}

	return b.String()
}

// writeDiagnosticSections appends the error, linker-error, and warning
// sections shared by both report shapes.
func writeDiagnosticSections(b *strings.Builder, r BuildResult) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(b, "\n\n%s:", Pluralize(len(r.Errors), "error"))
		for _, e := range r.Errors {
			b.WriteString("\n  " + FormatLocation(e.File, e.Line, e.Column, e.Message))
		}
	}

	if len(r.LinkerErrors) > 0 {
		fmt.Fprintf(b, "\n\n%s:", Pluralize(len(r.LinkerErrors), "linker error"))
		for _, le := range r.LinkerErrors {
			fmt.Fprintf(b, "\n  Undefined symbol %q for architecture %s, referenced from %s",
				le.UndefinedSymbol, le.Architecture, le.ReferencedFrom)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(b, "\n\n%s:", Pluralize(len(r.Warnings), "warning"))
		for _, w := range r.Warnings {
			b.WriteString("\n  " + FormatLocation(w.File, w.Line, w.Column, w.Message))
		}
	}
}

func formatFailedTest(t FailedTest) string {
	s := t.TestIdentifier + " — " + t.Message
	if t.File != "" && t.Line > 0 {
		s += fmt.Sprintf(" (%s:%d)", t.File, t.Line)
	}
	return s
}

// FormatLocation renders "path:line:column message", dropping the
// column when unknown and the whole prefix when the path is unknown.
func FormatLocation(file string, line, column int, message string) string {
	if file == "" {
		return message
	}
	if column > 0 {
		return fmt.Sprintf("%s:%d:%d %s", file, line, column, message)
	}
	if line > 0 {
		return fmt.Sprintf("%s:%d %s", file, line, message)
	}
	return fmt.Sprintf("%s %s", file, message)
}

// Pluralize renders a count with its noun: "1 error", "2 errors".
func Pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
