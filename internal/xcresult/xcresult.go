// Package xcresult maps an Xcode result bundle into the shared
// diagnostic model by shelling out to xcresulttool and walking its
// JSON object encoding.
//
// Absence is not failure here: a missing bundle, a non-zero
// xcresulttool exit, or unparseable JSON all yield a nil result so
// callers can fall back to console-text extraction.
package xcresult

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cameronhq/xcdiag/internal/command"
	"github.com/cameronhq/xcdiag/internal/diag"
)

// Parser introspects result bundles through an injected Runner.
type Parser struct {
	runner command.Runner
}

func New(runner command.Runner) *Parser {
	return &Parser{runner: runner}
}

// Parse reads the bundle at bundlePath and returns its diagnostics.
// A nil, nil return means the bundle could not be introspected.
func (p *Parser) Parse(ctx context.Context, bundlePath string) (*diag.BuildResult, error) {
	if _, err := os.Stat(bundlePath); err != nil {
		return nil, nil
	}

	res, err := p.runner.Run(ctx, "xcrun",
		"xcresulttool", "get", "--legacy", "--format", "json", "--path", bundlePath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if res.ExitCode != 0 {
		return nil, nil
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return nil, nil
	}

	return fromRecord(doc), nil
}

// fromRecord walks an ActionsInvocationRecord document. Every key is
// optional; unknown keys are ignored.
func fromRecord(doc map[string]any) *diag.BuildResult {
	r := &diag.BuildResult{}

	for _, action := range arrayField(doc, "actions") {
		result := mapField(action, "actionResult")
		if result == nil {
			continue
		}

		issues := mapField(result, "issues")
		for _, s := range arrayField(issues, "errorSummaries") {
			e := diag.BuildError{Message: stringField(s, "message")}
			e.File, e.Line, e.Column = location(s)
			r.Errors = append(r.Errors, e)
		}
		for _, s := range arrayField(issues, "warningSummaries") {
			w := diag.BuildWarning{Message: stringField(s, "message")}
			w.File, w.Line, w.Column = location(s)
			r.Warnings = append(r.Warnings, w)
		}
		for _, s := range arrayField(issues, "testFailureSummaries") {
			ft := diag.FailedTest{
				TestIdentifier: testIdentifier(stringField(s, "testCaseName")),
				Message:        stringField(s, "message"),
			}
			ft.File, ft.Line, _ = location(s)
			r.FailedTests = append(r.FailedTests, ft)
			r.Attachments = append(r.Attachments, attachments(s, ft.TestIdentifier)...)
		}

		metrics := mapField(result, "metrics")
		if metrics != nil {
			tests := intField(metrics, "testsCount")
			failed := intField(metrics, "testsFailedCount")
			if failed > r.Summary.FailedTestCount {
				r.Summary.FailedTestCount = failed
			}
			if tests > 0 {
				r.Summary.PassedTestCount += tests - failed
			}
		}

		if cov := mapField(result, "coverage"); cov != nil {
			if pct, ok := coveragePercent(cov); ok {
				c := &diag.CodeCoverage{LineCoveragePercent: pct}
				for _, f := range arrayField(cov, "files") {
					filePct, _ := floatField(f, "lineCoverage")
					c.Files = append(c.Files, diag.FileCoverage{
						Path:    stringField(f, "path"),
						Percent: filePct * 100,
					})
				}
				r.Coverage = c
			}
		}
	}

	r.SyncCounts()
	r.ResolveStatus()
	return r
}

func coveragePercent(cov map[string]any) (float64, bool) {
	if v, ok := floatField(cov, "lineCoverage"); ok {
		return v * 100, true
	}
	return 0, false
}

// testIdentifier normalizes xcresulttool's test case names
// ("SuiteTests.testExample()" or "-[SuiteTests testExample]") to
// "SuiteTests.testExample".
func testIdentifier(name string) string {
	name = strings.TrimSuffix(name, "()")
	if strings.HasPrefix(name, "-[") && strings.HasSuffix(name, "]") {
		name = strings.TrimSuffix(strings.TrimPrefix(name, "-["), "]")
		name = strings.Replace(name, " ", ".", 1)
	}
	return name
}

// location extracts file/line/column from a summary's
// documentLocationInCreatingWorkspace URL. Line and column numbers in
// the URL fragment are zero-based.
func location(summary map[string]any) (string, int, int) {
	loc := mapField(summary, "documentLocationInCreatingWorkspace")
	raw := stringField(loc, "url")
	if raw == "" {
		return "", 0, 0
	}

	path, fragment, _ := strings.Cut(raw, "#")
	path = strings.TrimPrefix(path, "file://")

	vals, err := url.ParseQuery(fragment)
	if err != nil {
		return path, 0, 0
	}
	line := fragmentInt(vals, "StartingLineNumber")
	col := fragmentInt(vals, "StartingColumnNumber")
	return path, line, col
}

func fragmentInt(vals url.Values, key string) int {
	s := vals.Get(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n + 1
}

func attachments(summary map[string]any, testID string) []diag.TestAttachment {
	var out []diag.TestAttachment
	for _, a := range arrayField(summary, "attachments") {
		att := diag.TestAttachment{
			TestIdentifier:        testID,
			ExportedFileName:      stringField(a, "filename"),
			DisplayName:           stringField(a, "name"),
			AssociatedWithFailure: true,
		}
		if ts, ok := floatField(a, "timestamp"); ok {
			sec := int64(ts)
			att.Timestamp = time.Unix(sec, int64((ts-float64(sec))*1e9)).UTC()
		}
		out = append(out, att)
	}
	return out
}

// ─── Object-encoding helpers ─────────────────────────────────────────────────
//
// xcresulttool wraps every scalar as {"_type": ..., "_value": "..."}
// and every array as {"_values": [...]}. These helpers project that
// encoding as plain optionals: a missing or differently-shaped key
// simply yields the zero value.

func unwrap(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["_value"]; ok {
			return inner
		}
	}
	return v
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	inner, _ := m[key].(map[string]any)
	return inner
}

func arrayField(m map[string]any, key string) []map[string]any {
	wrapper := mapField(m, key)
	if wrapper == nil {
		return nil
	}
	raw, _ := wrapper["_values"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if mv, ok := v.(map[string]any); ok {
			out = append(out, mv)
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := unwrap(m[key]).(string)
	return s
}

// intField tolerates both string-wrapped ("_value": "3") and raw
// numeric encodings.
func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := unwrap(m[key]).(type) {
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case float64:
		return int(v)
	}
	return 0
}

func floatField(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := unwrap(m[key]).(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case float64:
		return v, true
	}
	return 0, false
}
