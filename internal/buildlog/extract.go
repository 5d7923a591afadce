// Package buildlog extracts a structured diagnostic model from raw
// xcodebuild console output.
//
// The grammar is recognized line by line and is deliberately tolerant:
// lines that match nothing are ignored, and no input ever makes Parse
// fail. Status is a strict function of the extracted counts — a run is
// failed exactly when it produced errors, failed tests, or linker
// errors, regardless of what the terminal status line claimed.
package buildlog

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/cameronhq/xcdiag/internal/diag"
)

var (
	// /path/File.swift:25: error: -[SuiteTests testExample] : XCTAssertEqual failed: ...
	testFailLocRe = regexp.MustCompile(`^(.+?):(\d+): error: -\[(\S+) (\w+)\] : (.*)$`)

	// /path/File.swift:10:5: error: cannot find 'x' in scope
	// The column is optional; some tool outputs omit it.
	compilerDiagRe = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?: (error|warning): (.*)$`)

	// xcodebuild: error: Unknown build action 'frobnicate'.
	bareDiagRe = regexp.MustCompile(`^(?:xcodebuild: )?(error|warning): (.*)$`)

	// Test Case '-[SuiteTests testExample]' passed (0.001 seconds).
	testCaseRe = regexp.MustCompile(`^Test Case '-\[(\S+) (\w+)\]' (passed|failed) \(([0-9.]+) seconds\)`)

	// Executed 5 tests, with 1 failure (0 unexpected) in 0.123 (0.456) seconds
	executedRe = regexp.MustCompile(`Executed (\d+) tests?, with (\d+) failures? \(\d+ unexpected\) in [0-9.]+ \(([0-9.]+)\) seconds`)

	// ** BUILD SUCCEEDED ** [4.211 sec]
	terminalRe = regexp.MustCompile(`^\*\* (?:BUILD|TEST|CLEAN) (SUCCEEDED|FAILED) \*\*(?:\s+\[([0-9.]+) sec\])?`)

	// Undefined symbols for architecture arm64:
	//   "_missing", referenced from:
	//       _main in main.o
	undefinedSymsRe = regexp.MustCompile(`^Undefined symbols for architecture (\S+):`)
	linkSymbolRe    = regexp.MustCompile(`^\s+"(.+)", referenced from:`)
	linkRefRe       = regexp.MustCompile(`^\s+\S.* in (\S+)`)
)

// Parse extracts a BuildResult from a build or test console blob.
func Parse(output string) *diag.BuildResult {
	p := &parser{
		result:     &diag.BuildResult{},
		testIndex:  map[string]int{},
		pending:    map[string]diag.FailedTest{},
		seenErrors: map[string]bool{},
		seenWarns:  map[string]bool{},
	}

	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.line(sc.Text())
	}
	p.finish()
	return p.result
}

type parser struct {
	result *diag.BuildResult

	// Linker block state: set while inside an
	// "Undefined symbols for architecture" block.
	linkerArch   string
	linkerSymbol string
	inLinker     bool

	passCount    int
	executedSeen bool
	executedN    int
	executedF    int
	testTime     string

	// testIndex maps a test identifier to its slot in FailedTests so a
	// location line after the fail line can still be attached. pending
	// holds details whose fail line has not been seen yet.
	testIndex map[string]int
	pending   map[string]diag.FailedTest

	seenErrors map[string]bool
	seenWarns  map[string]bool
}

func (p *parser) line(s string) {
	if p.inLinker && p.linkerLine(s) {
		return
	}

	if m := undefinedSymsRe.FindStringSubmatch(s); m != nil {
		p.inLinker = true
		p.linkerArch = m[1]
		p.linkerSymbol = ""
		return
	}

	if m := testFailLocRe.FindStringSubmatch(s); m != nil {
		line, _ := strconv.Atoi(m[2])
		p.testFailure(m[3]+"."+m[4], m[5], m[1], line)
		return
	}

	if m := compilerDiagRe.FindStringSubmatch(s); m != nil {
		line, _ := strconv.Atoi(m[2])
		col := 0
		if m[3] != "" {
			col, _ = strconv.Atoi(m[3])
		}
		p.diagnostic(m[4], m[1], line, col, m[5])
		return
	}

	if m := bareDiagRe.FindStringSubmatch(s); m != nil {
		p.diagnostic(m[1], "", 0, 0, m[2])
		return
	}

	if m := testCaseRe.FindStringSubmatch(s); m != nil {
		id := m[1] + "." + m[2]
		if m[3] == "passed" {
			p.passCount++
		} else {
			p.testFailed(id)
		}
		return
	}

	if m := executedRe.FindStringSubmatch(s); m != nil {
		// Suites emit intermediate summaries; the last one is the
		// cumulative total, so later matches overwrite earlier ones.
		p.executedSeen = true
		p.executedN, _ = strconv.Atoi(m[1])
		p.executedF, _ = strconv.Atoi(m[2])
		p.testTime = m[3] + " seconds"
		return
	}

	if m := terminalRe.FindStringSubmatch(s); m != nil {
		if m[2] != "" {
			p.result.Summary.BuildTime = m[2] + " sec"
		}
		return
	}
}

// linkerLine consumes one line of an undefined-symbols block. Returns
// false when the block has ended and the line needs normal handling.
func (p *parser) linkerLine(s string) bool {
	if m := linkSymbolRe.FindStringSubmatch(s); m != nil {
		p.linkerSymbol = m[1]
		return true
	}
	if m := linkRefRe.FindStringSubmatch(s); m != nil {
		if p.linkerSymbol != "" {
			p.result.LinkerErrors = append(p.result.LinkerErrors, diag.LinkerError{
				UndefinedSymbol: p.linkerSymbol,
				Architecture:    p.linkerArch,
				ReferencedFrom:  m[1],
			})
			// Only the first referencing object is kept per symbol.
			p.linkerSymbol = ""
		}
		return true
	}
	if strings.HasPrefix(s, " ") || s == "" {
		return true
	}
	p.inLinker = false
	return false
}

// diagnostic records one compiler diagnostic, suppressing exact
// duplicates (xcodebuild repeats diagnostics once per architecture)
// while preserving first-seen order.
func (p *parser) diagnostic(severity, file string, line, col int, message string) {
	key := file + "\x00" + strconv.Itoa(line) + "\x00" + strconv.Itoa(col) + "\x00" + message
	switch severity {
	case "error":
		if p.seenErrors[key] {
			return
		}
		p.seenErrors[key] = true
		p.result.Errors = append(p.result.Errors, diag.BuildError{
			File: file, Line: line, Column: col, Message: message,
		})
	case "warning":
		if p.seenWarns[key] {
			return
		}
		p.seenWarns[key] = true
		p.result.Warnings = append(p.result.Warnings, diag.BuildWarning{
			File: file, Line: line, Column: col, Message: message,
		})
	}
}

// testFailure records an assertion-location line. The matching
// "Test Case ... failed" line may appear before or after it.
func (p *parser) testFailure(id, message, file string, line int) {
	if idx, ok := p.testIndex[id]; ok {
		ft := &p.result.FailedTests[idx]
		if ft.File == "" {
			ft.File = file
			ft.Line = line
		}
		if ft.Message == "failed" {
			ft.Message = message
		}
		return
	}
	p.pending[id] = diag.FailedTest{
		TestIdentifier: id,
		Message:        message,
		File:           file,
		Line:           line,
	}
}

func (p *parser) testFailed(id string) {
	if _, ok := p.testIndex[id]; ok {
		return
	}
	ft, ok := p.pending[id]
	if !ok {
		ft = diag.FailedTest{TestIdentifier: id, Message: "failed"}
	}
	delete(p.pending, id)
	p.result.FailedTests = append(p.result.FailedTests, ft)
	p.testIndex[id] = len(p.result.FailedTests) - 1
}

func (p *parser) finish() {
	r := p.result
	r.SyncCounts()

	if p.executedSeen {
		if p.executedF > r.Summary.FailedTestCount {
			r.Summary.FailedTestCount = p.executedF
		}
		r.Summary.PassedTestCount = p.executedN - r.Summary.FailedTestCount
		if r.Summary.PassedTestCount < 0 {
			r.Summary.PassedTestCount = 0
		}
		r.Summary.TestTime = p.testTime
	} else {
		r.Summary.PassedTestCount = p.passCount
	}

	r.ResolveStatus()
}
