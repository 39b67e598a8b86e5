package session

import (
	"context"
	"errors"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/proc"
	"github.com/llehouerou/ytm/internal/resolver"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitCode maps the outcome of a run to a process exit code. Only fatal
// errors reach here: in interactive mode errors are reported and the loop
// continues.
func ExitCode(err error, interrupted bool) int {
	switch {
	case interrupted:
		return ExitInterrupted
	case err == nil, errors.Is(err, player.ErrStopped):
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// IsReportable reports whether err belongs to the taxonomy that the
// interactive loop reports and survives.
func IsReportable(err error) bool {
	var (
		resErr     *resolver.Error
		timeoutErr *proc.TimeoutError
		playErr    *player.PlaybackError
		inputErr   *InputError
	)
	return errors.As(err, &resErr) ||
		errors.As(err, &timeoutErr) ||
		errors.As(err, &playErr) ||
		errors.As(err, &inputErr)
}
