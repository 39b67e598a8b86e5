package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	humanize "github.com/dustin/go-humanize/english"

	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/results"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

var now = time.Now

// dispatch runs one parsed command.
func (m Model) dispatch(cmd session.Command) (tea.Model, tea.Cmd) {
	p := m.deps.Player

	switch cmd.Kind {
	case session.CmdNone:
		return m, nil

	case session.CmdSearch:
		return m.startSearch(cmd.Query)

	case session.CmdSelect:
		track, err := m.session.Select(cmd.Index)
		if err != nil {
			m.report("", err)
			return m, nil
		}
		return m.startPlay(track)

	case session.CmdAdd:
		track, err := m.session.Enqueue(cmd.Index)
		if err != nil {
			m.report("", err)
			return m, nil
		}
		m.println(styles.T().S().Muted.Render(fmt.Sprintf("queued %s (%d waiting)", track.DisplayTitle(), len(m.session.Queued()))))
		if !p.State().IsActive() && p.State() != player.Loading {
			return m.playNext()
		}
		return m, nil

	case session.CmdQueue:
		m.println(results.Queue(m.session.Queued(), m.width)...)
		return m, nil

	case session.CmdRemove:
		track, err := m.session.Unqueue(cmd.Index)
		if err != nil {
			m.report("", err)
			return m, nil
		}
		m.println(styles.T().S().Muted.Render(fmt.Sprintf("removed %s (%d waiting)", track.DisplayTitle(), len(m.session.Queued()))))
		m.bar.Queued = len(m.session.Queued())
		return m, nil

	case session.CmdClear:
		n := m.session.ClearQueue()
		if n == 0 {
			m.println(styles.T().S().Muted.Render("queue is empty"))
			return m, nil
		}
		m.println(styles.T().S().Muted.Render(fmt.Sprintf("cleared %s", humanize.Plural(n, "queued track", "queued tracks"))))
		m.bar.Queued = 0
		return m, nil

	case session.CmdNext:
		return m.playNext()

	case session.CmdPause:
		return m, m.transport(errmsg.OpPlaybackPause, p.Pause)

	case session.CmdResume:
		return m, m.transport(errmsg.OpPlaybackResume, p.Resume)

	case session.CmdToggle:
		return m, m.transport(errmsg.OpPlaybackPause, p.Toggle)

	case session.CmdStop:
		m.launch.next()
		m.busy = ""
		return m, stopCmd(p)

	case session.CmdSeek:
		d := cmd.Seek
		return m, m.transport(errmsg.OpPlaybackSeek, func() error { return p.Seek(d) })

	case session.CmdVolume:
		return m, volumeCmd(p, cmd.Delta)

	case session.CmdHistory:
		if m.deps.State == nil {
			m.println(styles.T().S().Muted.Render("history is disabled"))
			return m, nil
		}
		return m, historyCmd(m.deps.State, m.opts.HistoryLimit)

	case session.CmdHelp:
		st := styles.T().S()
		for _, h := range session.Help {
			m.println(fmt.Sprintf("  %s  %s", st.Index.Render(fmt.Sprintf("%-14s", h.Keys)), st.Muted.Render(h.Desc)))
		}
		return m, nil

	case session.CmdQuit:
		m.launch.next()
		return m, quitCmd(p)
	}
	return m, nil
}

// transport runs a pause/resume/seek style command, or explains that
// nothing is playing.
func (m *Model) transport(op errmsg.Op, fn func() error) tea.Cmd {
	if !m.deps.Player.State().IsActive() {
		m.println(styles.T().S().Muted.Render("nothing is playing"))
		return nil
	}
	return playerOpCmd(op, fn)
}

func (m Model) startSearch(query string) (tea.Model, tea.Cmd) {
	if m.cancelSearch != nil {
		m.cancelSearch()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSearch = cancel
	m.searchSeq++
	m.busy = fmt.Sprintf("searching %q", query)

	search := searchCmd(ctx, m.deps.Resolver, m.searchSeq, query, m.opts.SearchLimit)
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		return search()
	})
}

// startPlay resolves and plays track, superseding any pending request.
func (m Model) startPlay(track playlist.Track, extra ...tea.Cmd) (tea.Model, tea.Cmd) {
	seq := m.launch.next()
	m.busy = "loading " + track.DisplayTitle()
	m.bar.Track = track

	cmds := append([]tea.Cmd{
		m.spinner.Tick,
		playCmd(m.ctx, m.deps.Resolver, m.deps.Player, m.launch, seq, track),
	}, extra...)
	return m, tea.Batch(cmds...)
}

// playNext plays the next queued track, or stops when the queue is empty.
func (m Model) playNext() (tea.Model, tea.Cmd) {
	if next, ok := m.session.NextQueued(); ok {
		return m.startPlay(next)
	}
	if m.deps.Player.State() == player.Idle {
		m.println(styles.T().S().Muted.Render("queue is empty"))
		return m, nil
	}
	m.println(styles.T().S().Muted.Render("queue is empty, stopping"))
	m.launch.next()
	m.busy = ""
	return m, stopCmd(m.deps.Player)
}

// historyResult turns recent plays into a selectable result list.
func historyResult(plays []state.Play) resolver.SearchResult {
	r := resolver.SearchResult{Query: ":history", Tracks: make([]playlist.Track, len(plays))}
	for i, p := range plays {
		r.Tracks[i] = p.Track
	}
	return r
}
