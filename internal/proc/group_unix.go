//go:build !windows

package proc

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Setup places cmd in its own process group and makes context cancellation
// kill the whole group instead of only the direct child.
func Setup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return KillGroup(cmd.Process)
	}
}

// TerminateGroup sends SIGTERM to the process group led by p.
func TerminateGroup(p *os.Process) error {
	return signalGroup(p, syscall.SIGTERM)
}

// KillGroup sends SIGKILL to the process group led by p.
func KillGroup(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return os.ErrProcessDone
	}
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
