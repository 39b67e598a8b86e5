package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
)

// tickInterval is how often the player bar polls position and duration.
const tickInterval = 500 * time.Millisecond

// TickCmd returns a command that sends TickMsg after tickInterval.
func TickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForChannel creates a command that waits for a value from a channel and converts it to a message.
// onResult receives the value and a boolean indicating if the channel is still open (false means channel closed).
func waitForChannel[T any](ch <-chan T, onResult func(T, bool) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-ch
		return onResult(result, ok)
	}
}

// watchEvents waits for the next terminal event of a playback session.
func watchEvents(p player.Interface) tea.Cmd {
	return waitForChannel(p.Events(), func(ev player.Event, ok bool) tea.Msg {
		return PlayerEventMsg{Event: ev, Open: ok}
	})
}

// watchStateChanges waits for the next controller state transition.
func watchStateChanges(p player.Interface) tea.Cmd {
	return waitForChannel(p.StateChanges(), func(c player.StateChange, ok bool) tea.Msg {
		return StateChangeMsg{Change: c, Open: ok}
	})
}

// watchStderr waits for the next captured stderr line.
func watchStderr(ch <-chan string) tea.Cmd {
	return waitForChannel(ch, func(line string, ok bool) tea.Msg {
		return StderrMsg{Line: line, Open: ok}
	})
}

// snapshotCmd reads the player state in the background; Position and
// Duration may wait on the IPC socket.
func snapshotCmd(p player.Interface, queued int) tea.Cmd {
	return func() tea.Msg {
		return BarMsg(playerbar.NewState(p, queued))
	}
}

func searchCmd(ctx context.Context, r Resolver, seq int, query string, limit int) tea.Cmd {
	return func() tea.Msg {
		result, err := r.Search(ctx, query, limit)
		return SearchDoneMsg{Seq: seq, Query: query, Result: result, Err: err}
	}
}

func historyCmd(s state.Interface, limit int) tea.Cmd {
	return func() tea.Msg {
		plays, err := s.RecentPlays(limit)
		return HistoryLoadedMsg{Plays: plays, Err: err}
	}
}

func recordPlayCmd(s state.Interface, track playlist.Track) tea.Cmd {
	return func() tea.Msg {
		if err := s.RecordPlay(track); err != nil {
			return BackgroundErrMsg{Op: errmsg.OpHistoryRecord, Err: err}
		}
		return nil
	}
}

func saveVolumeCmd(s state.Interface, volume int) tea.Cmd {
	return func() tea.Msg {
		if err := s.SaveVolume(volume); err != nil {
			return BackgroundErrMsg{Op: errmsg.OpPlaybackVolume, Err: err}
		}
		return nil
	}
}

func announceCmd(a Announcer, track playlist.Track) tea.Cmd {
	return func() tea.Msg {
		if err := a.Announce(track); err != nil {
			return BackgroundErrMsg{Op: errmsg.OpNotify, Err: err}
		}
		return nil
	}
}

// playerOpCmd runs a transport command off the event loop.
func playerOpCmd(op errmsg.Op, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return PlayerOpMsg{Op: op, Err: fn()}
	}
}

func volumeCmd(p player.Interface, delta int) tea.Cmd {
	return func() tea.Msg {
		v, err := p.AdjustVolume(delta)
		return PlayerOpMsg{Op: errmsg.OpPlaybackVolume, Volume: v, Err: err}
	}
}

func stopCmd(p player.Interface) tea.Cmd {
	return func() tea.Msg {
		p.Stop()
		return StoppedMsg{}
	}
}

// quitCmd stops playback before quitting so no mpv outlives the UI.
func quitCmd(p player.Interface) tea.Cmd {
	return func() tea.Msg {
		p.Stop()
		return tea.Quit()
	}
}

// launcher orders resolve-and-play requests. Only the newest request may
// reach the player; an older one still resolving is dropped.
type launcher struct {
	mu  sync.Mutex // held while a request is inside Play
	seq atomic.Uint64
}

// next invalidates every pending request and returns a new ticket.
func (l *launcher) next() uint64 {
	return l.seq.Add(1)
}

func (l *launcher) current() uint64 {
	return l.seq.Load()
}

// playCmd resolves track (if needed) and starts it.
func playCmd(ctx context.Context, r Resolver, p player.Interface, l *launcher, seq uint64, track playlist.Track) tea.Cmd {
	return func() tea.Msg {
		// A load in progress would hold the launcher until it times out.
		if p.State() == player.Loading {
			p.Stop()
		}

		resolved, err := r.ResolveTrack(ctx, track)
		if err != nil {
			return PlayStartedMsg{Seq: seq, Track: track, Err: err}
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.current() != seq {
			return PlayStartedMsg{Seq: seq, Track: resolved, Stale: true}
		}
		id, err := p.Play(ctx, resolved)
		if err != nil {
			return PlayStartedMsg{Seq: seq, Track: resolved, Err: err}
		}
		return PlayStartedMsg{Seq: seq, Track: resolved, SessionID: id}
	}
}

// completionCmd blocks until the current session ends.
func completionCmd(ctx context.Context, p player.Interface, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ev, err := p.WaitForCompletion(ctx)
		if err != nil {
			return CompletionMsg{SessionID: id, Err: err}
		}
		return CompletionMsg{SessionID: id, Event: ev}
	}
}
