//go:build windows

package proc

import (
	"os"
	"os/exec"
)

// Setup makes context cancellation kill the process.
// Windows has no process groups in the POSIX sense.
func Setup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return KillGroup(cmd.Process)
	}
}

// TerminateGroup kills p; there is no graceful signal on Windows.
func TerminateGroup(p *os.Process) error {
	return KillGroup(p)
}

// KillGroup kills p.
func KillGroup(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}
