package player

import (
	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/playlist"
)

// EventKind tells how a playback session ended.
type EventKind int

const (
	// EventEnded means the track played to its end.
	EventEnded EventKind = iota + 1
	// EventStopped means the session was stopped by Stop, Play or Close.
	EventStopped
	// EventFailed means the playback process exited with an error.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventEnded:
		return "ended"
	case EventStopped:
		return "stopped"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is the terminal event of a session that reached Playing.
// Exactly one is published per such session.
type Event struct {
	SessionID uuid.UUID
	Track     playlist.Track
	Kind      EventKind
	Err       error // *PlaybackError when Kind is EventFailed
}
