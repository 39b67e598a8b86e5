// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/proc"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Resolver operations
	OpSearch  Op = "search"
	OpResolve Op = "resolve URL"

	// Playback operations
	OpPlayback       Op = "play track"
	OpPlaybackStart  Op = "start playback"
	OpPlaybackStop   Op = "stop playback"
	OpPlaybackPause  Op = "pause"
	OpPlaybackResume Op = "resume"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackVolume Op = "change volume"
	OpPlaybackNext   Op = "play next track"

	// Queue operations
	OpQueueAdd Op = "add to queue"

	// History operations
	OpHistoryLoad   Op = "load history"
	OpHistoryRecord Op = "record play"

	// Desktop integration
	OpNotify Op = "show notification"
	OpMPRIS  Op = "start MPRIS server"

	// Initialization
	OpInitialize Op = "initialize application"
	OpConfigLoad Op = "load config"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, Describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, Describe(err))
}

// Describe renders err for the status line. Known error types get a short
// message without the input that the caller already shows; anything else is
// err.Error().
func Describe(err error) string {
	var (
		resErr     *resolver.Error
		timeoutErr *proc.TimeoutError
		playErr    *player.PlaybackError
		inputErr   *session.InputError
	)
	switch {
	case errors.As(err, &resErr):
		if resErr.Kind == resolver.KindToolMissing {
			return "yt-dlp is not installed or not in PATH"
		}
		if resErr.Reason == "" {
			return resErr.Kind.String()
		}
		return resErr.Kind.String() + ": " + resErr.Reason
	case errors.As(err, &playErr):
		if errors.Is(playErr, proc.ErrNotFound) {
			return "mpv is not installed or not in PATH"
		}
		if errors.As(playErr, &timeoutErr) {
			return "mpv did not start playing within " + timeoutErr.After.String()
		}
		msg := "playback failed"
		if playErr.Err != nil {
			msg += ": " + playErr.Err.Error()
		}
		if playErr.Diagnostic != "" && !containsDiagnostic(playErr) {
			msg += " (" + playErr.Diagnostic + ")"
		}
		return msg
	case errors.As(err, &timeoutErr):
		return "timed out after " + timeoutErr.After.String()
	case errors.As(err, &inputErr):
		return inputErr.Error()
	default:
		return err.Error()
	}
}

// containsDiagnostic reports whether the wrapped error already carries the
// diagnostic line, as proc.ExitError does.
func containsDiagnostic(e *player.PlaybackError) bool {
	var exitErr *proc.ExitError
	return errors.As(e.Err, &exitErr) && exitErr.Stderr == e.Diagnostic
}
