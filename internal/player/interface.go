package player

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/playlist"
)

// Interface defines the player contract for dependency injection and testing.
type Interface interface {
	Play(ctx context.Context, track playlist.Track) (uuid.UUID, error)
	Stop()
	Pause() error
	Resume() error
	Toggle() error
	Seek(delta time.Duration) error
	AdjustVolume(delta int) (int, error)
	Volume() int
	State() State
	Current() (playlist.Track, bool)
	SessionID() uuid.UUID
	Position() time.Duration
	Duration() time.Duration
	Events() <-chan Event
	StateChanges() <-chan StateChange
	WaitForCompletion(ctx context.Context) (Event, error)
	Close()
}
