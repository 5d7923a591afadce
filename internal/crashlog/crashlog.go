// Package crashlog projects macOS crash-report JSON (.ips) documents
// into a compact summary and locates recent reports on disk.
//
// Every field in a crash report is optional; absence is never an
// error, it just leaves the corresponding summary field empty.
package crashlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Summary is the distilled view of one crash report.
type Summary struct {
	ProcessName          string
	BundleID             string
	ExceptionType        string
	Signal               string
	TerminationNamespace string
	TerminationIndicator string
	TerminationReasons   []string
	TerminationDetails   []string
	FatalDyldError       bool
}

// Parse projects an already-decoded crash-report document. Missing or
// differently-typed keys are skipped.
func Parse(doc map[string]any) Summary {
	s := Summary{
		ProcessName:    getString(doc, "procName"),
		FatalDyldError: truthy(doc["fatalDyldError"]),
	}

	if bundle := getMap(doc, "bundleInfo"); bundle != nil {
		s.BundleID = getString(bundle, "CFBundleIdentifier")
	}
	if exc := getMap(doc, "exception"); exc != nil {
		s.ExceptionType = getString(exc, "type")
		s.Signal = getString(exc, "signal")
	}
	if term := getMap(doc, "termination"); term != nil {
		s.TerminationNamespace = getString(term, "namespace")
		s.TerminationIndicator = getString(term, "indicator")
		s.TerminationReasons = getStrings(term, "reasons")
		s.TerminationDetails = getStrings(term, "details")
	}
	return s
}

// ParseReport decodes raw .ips file contents. These files carry a
// one-line JSON header followed by the report body; the body is what
// gets projected.
func ParseReport(data []byte) (Summary, error) {
	body := data
	if i := strings.IndexByte(string(data), '\n'); i >= 0 {
		// Header and body are both JSON objects; prefer the body when
		// it decodes, otherwise fall back to the whole document.
		rest := data[i+1:]
		var probe map[string]any
		if err := json.Unmarshal(rest, &probe); err == nil {
			body = rest
		}
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Summary{}, fmt.Errorf("crashlog: decode report: %w", err)
	}
	return Parse(doc), nil
}

// Formatted renders the summary one line per present field, in fixed
// order. An entirely empty summary yields the empty string.
func (s Summary) Formatted() string {
	var lines []string

	if s.ProcessName != "" {
		lines = append(lines, "Process: "+s.ProcessName)
	}
	if s.BundleID != "" {
		lines = append(lines, "Bundle ID: "+s.BundleID)
	}
	if s.ExceptionType != "" {
		lines = append(lines, "Exception Type: "+s.ExceptionType)
	}
	if s.Signal != "" {
		lines = append(lines, "Signal: "+s.Signal)
	}
	switch {
	case s.TerminationNamespace != "" && s.TerminationIndicator != "":
		lines = append(lines, "Termination: "+s.TerminationNamespace+" — "+s.TerminationIndicator)
	case s.TerminationNamespace != "":
		lines = append(lines, "Termination: "+s.TerminationNamespace)
	case s.TerminationIndicator != "":
		lines = append(lines, "Termination: "+s.TerminationIndicator)
	}
	for _, r := range s.TerminationReasons {
		lines = append(lines, "Reason: "+r)
	}
	for _, d := range s.TerminationDetails {
		lines = append(lines, "Detail: "+d)
	}

	// The DYLD namespace already signals a dynamic-linker failure; the
	// hint line is only for reports where the flag is the sole signal.
	if s.FatalDyldError && s.TerminationNamespace != "DYLD" {
		lines = append(lines, "Fatal dyld error: the process failed to launch because a linked library or framework could not be loaded")
	}

	return strings.Join(lines, "\n")
}

// Report is one located crash report file.
type Report struct {
	Path       string
	ModifiedAt time.Time
}

// DefaultReportDir is the per-user macOS diagnostic-reports location.
func DefaultReportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Logs", "DiagnosticReports")
}

// FindRecent scans dir for .ips reports whose file name contains
// processName (case-insensitive) and whose modification time falls
// within the window, newest first. An unreadable directory or zero
// matches both yield an empty slice.
func FindRecent(dir, processName string, window time.Duration) []Report {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	needle := strings.ToLower(processName)
	cutoff := time.Now().Add(-window)

	var out []Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ips") {
			continue
		}
		if !strings.Contains(strings.ToLower(entry.Name()), needle) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		out = append(out, Report{
			Path:       filepath.Join(dir, entry.Name()),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ModifiedAt.After(out[j].ModifiedAt)
	})
	return out
}

// ─── Optional-field projection ───────────────────────────────────────────────

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getMap(m map[string]any, key string) map[string]any {
	inner, _ := m[key].(map[string]any)
	return inner
}

func getStrings(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// truthy reports whether a loosely-typed flag is set: true booleans,
// non-zero numbers, and the usual affirmative strings count.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(t) {
		case "", "0", "false", "no":
			return false
		}
		return true
	}
	return false
}
