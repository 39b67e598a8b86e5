// Package app is the interactive session loop and the non-interactive
// player, both built on bubbletea.
package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
)

// TickMsg is sent periodically to refresh the player bar.
type TickMsg time.Time

// BarMsg carries a fresh player bar snapshot taken off the event loop.
type BarMsg playerbar.State

// SearchDoneMsg is the outcome of a search started by the loop.
type SearchDoneMsg struct {
	Seq    int
	Query  string
	Result resolver.SearchResult
	Err    error
}

// HistoryLoadedMsg carries recent plays for :history.
type HistoryLoadedMsg struct {
	Plays []state.Play
	Err   error
}

// PlayStartedMsg reports the end of a resolve-and-play request. Stale is
// set when a newer request superseded this one before it reached the
// player.
type PlayStartedMsg struct {
	Seq       uint64
	Track     playlist.Track
	SessionID uuid.UUID
	Stale     bool
	Err       error
}

// PlayerEventMsg wraps a terminal event of a playback session.
type PlayerEventMsg struct {
	Event player.Event
	Open  bool
}

// StateChangeMsg wraps a controller state transition.
type StateChangeMsg struct {
	Change player.StateChange
	Open   bool
}

// PlayerOpMsg reports the outcome of a transport command.
type PlayerOpMsg struct {
	Op     errmsg.Op
	Volume int // set for volume changes
	Err    error
}

// StoppedMsg is sent once an explicit stop has completed.
type StoppedMsg struct{}

// BackgroundErrMsg reports a failure of a side task (history, notification)
// that is logged but never interrupts playback.
type BackgroundErrMsg struct {
	Op  errmsg.Op
	Err error
}

// StderrMsg carries a line written to fd 2 while the UI was running.
type StderrMsg struct {
	Line string
	Open bool
}

// QueryMsg submits a search as if typed at the prompt.
type QueryMsg struct {
	Query string
}

// NextMsg asks the loop to skip to the next queued track. It is sent from
// outside the program, e.g. by the MPRIS Next method.
type NextMsg struct{}

// CompletionMsg reports the end of the session awaited by the
// non-interactive player.
type CompletionMsg struct {
	SessionID uuid.UUID
	Event     player.Event
	Err       error
}
