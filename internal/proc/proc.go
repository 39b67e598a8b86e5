// Package proc runs external tools with a bounded wait and makes sure every
// process it starts is reaped, together with anything the process spawned.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultKillGrace is how long a terminated process group gets before SIGKILL.
const DefaultKillGrace = 3 * time.Second

// ErrNotFound is returned when the executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// TimeoutError reports an external process that exceeded its time bound.
type TimeoutError struct {
	Name  string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not respond within %s", e.Name, e.After)
}

// Timeout lets callers treat the error like net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// ExitError reports a process that exited with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, e.Stderr)
}

// Result is the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec, each in its own process group.
// A zero Timeout means the caller's context is the only bound.
type ExecRunner struct {
	Timeout   time.Duration
	KillGrace time.Duration
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = ExecRunner{}

// Run executes name with args and waits for it to exit.
//
// Errors: ErrNotFound (wrapped) when the executable is missing, *TimeoutError
// when the bound elapses, *ExitError for a non-zero exit status, or the
// context's error when the caller cancels.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	Setup(cmd)
	cmd.WaitDelay = r.grace()

	err = cmd.Run()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, &TimeoutError{Name: name, After: r.bound(ctx)}
		}
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Name:   name,
			Code:   exitErr.ExitCode(),
			Stderr: LastLine(string(res.Stderr)),
		}
	}
	return res, err
}

func (r ExecRunner) grace() time.Duration {
	if r.KillGrace > 0 {
		return r.KillGrace
	}
	return DefaultKillGrace
}

// bound reports the effective timeout for error messages.
func (r ExecRunner) bound(ctx context.Context) time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline).Round(time.Second)
	}
	return 0
}

// Shutdown terminates the process group of p and waits for exited to close.
// If the group is still alive after grace, it is killed.
func Shutdown(p *os.Process, exited <-chan struct{}, grace time.Duration) {
	if p == nil {
		return
	}
	select {
	case <-exited:
		return
	default:
	}

	_ = TerminateGroup(p)
	select {
	case <-exited:
		return
	case <-time.After(grace):
	}

	_ = KillGroup(p)
	<-exited
}

// LastLine returns the last non-empty line of s, trimmed.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
