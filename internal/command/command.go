// Package command provides the process-execution seam used by parsers
// that shell out to system tools. Callers depend on the Runner
// interface so tests can substitute canned results.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs an external command to completion and captures its
// output. A non-zero exit is reported through Result.ExitCode, not as
// an error; the error return is reserved for failures to run at all
// (binary missing, context canceled).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// SystemRunner executes commands on the host via os/exec.
type SystemRunner struct {
	// Timeout bounds each invocation when positive. Zero means the
	// caller's context is the only bound.
	Timeout time.Duration
}

func (r SystemRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("command: run %s: %w", name, ctxErr)
		}
		return res, fmt.Errorf("command: run %s: %w", name, err)
	}
	return res, nil
}
