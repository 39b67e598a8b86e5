package player

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/playlist"
)

var (
	// ErrStopped is returned by Play when Stop or Close interrupts loading.
	ErrStopped = errors.New("playback stopped while loading")
	// ErrClosed is returned by Play after Close.
	ErrClosed = errors.New("player closed")
	// ErrNotPlaying is returned by WaitForCompletion when there is no session.
	ErrNotPlaying = errors.New("nothing is playing")

	errExitedEarly = errors.New("exited before playback started")
)

// PlaybackError reports a playback process that could not start or that died
// during playback.
type PlaybackError struct {
	Track      playlist.Track
	SessionID  uuid.UUID
	ExitCode   int    // -1 when the process never ran or was killed
	Diagnostic string // last line of the process's error output
	Err        error
}

func (e *PlaybackError) Error() string {
	msg := fmt.Sprintf("playback of %q failed", e.Track.DisplayTitle())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += " (" + e.Diagnostic + ")"
	}
	return msg
}

func (e *PlaybackError) Unwrap() error { return e.Err }
