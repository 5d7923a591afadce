// Package lldb classifies debugger console transcripts: did the
// debuggee crash, or is the output benign session noise?
package lldb

import (
	"regexp"
	"strings"
)

// crashSignals are stop-reason signals that indicate a crash.
// SIGSTOP, SIGINT, and friends are deliberately absent: stopping or
// interrupting a process is not a crash.
var crashSignals = []string{
	"SIGABRT",
	"SIGSEGV",
	"SIGBUS",
	"SIGILL",
	"SIGFPE",
	"SIGTRAP",
	"SIGSYS",
}

// crashExceptions are Mach exception stop reasons that indicate a
// crash; EXC_BREAKPOINT is excluded along with ordinary breakpoints.
var crashExceptions = []string{
	"EXC_CRASH",
	"EXC_BAD_ACCESS",
	"EXC_BAD_INSTRUCTION",
}

// Process 1234 exited with status = 11 (0x0000000b)
var exitStatusRe = regexp.MustCompile(`exited with status = (-?\d+)`)

// IndicatesCrash reports whether a debugger transcript shows the
// debuggee crashing. It is a pure substring/pattern test over the
// whole transcript; breakpoint hits, module loads, resume/attach
// chatter, and empty input all classify as no-crash.
func IndicatesCrash(transcript string) bool {
	if transcript == "" {
		return false
	}

	for _, line := range strings.Split(transcript, "\n") {
		if !strings.Contains(line, "stop reason = ") {
			if crashExit(line) {
				return true
			}
			continue
		}
		_, reason, _ := strings.Cut(line, "stop reason = ")
		if reasonIsCrash(reason) {
			return true
		}
	}
	return false
}

func reasonIsCrash(reason string) bool {
	if strings.HasPrefix(reason, "breakpoint") || strings.HasPrefix(reason, "watchpoint") {
		return false
	}
	if strings.HasPrefix(reason, "signal ") {
		for _, sig := range crashSignals {
			if strings.Contains(reason, sig) {
				return true
			}
		}
		return false
	}
	for _, exc := range crashExceptions {
		if strings.Contains(reason, exc) {
			return true
		}
	}
	return false
}

// crashExit matches process-exit lines reporting a non-zero status or
// a terminating signal.
func crashExit(line string) bool {
	if m := exitStatusRe.FindStringSubmatch(line); m != nil {
		return m[1] != "0"
	}
	if strings.Contains(line, "terminated due to signal") {
		return true
	}
	return false
}
