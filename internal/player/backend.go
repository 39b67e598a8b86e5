package player

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/playlist"
)

// StartRequest describes one playback process to launch.
type StartRequest struct {
	SessionID uuid.UUID
	Track     playlist.Track
	Volume    int
}

// Backend launches playback processes.
type Backend interface {
	Start(ctx context.Context, req StartRequest) (Process, error)
}

// Process is a live playback process owned by exactly one session.
//
// Implementations must close Ready at most once, close Done exactly once
// after the process has been reaped, and tolerate Terminate being called
// any number of times from any goroutine.
type Process interface {
	// Ready is closed once audio output has actually started.
	Ready() <-chan struct{}
	// Done is closed after the process has exited and been reaped.
	Done() <-chan struct{}
	// ExitStatus reports how the process exited. Valid after Done.
	ExitStatus() (code int, err error)
	// Diagnostics returns the process's last error output line.
	Diagnostics() string
	// Terminate signals the process group and waits for Done. The group
	// is killed if it is still alive after grace.
	Terminate(grace time.Duration)

	SetPause(paused bool) error
	Seek(delta time.Duration) error
	SetVolume(volume int) error
	Position() (time.Duration, error)
	Duration() (time.Duration, error)
}
