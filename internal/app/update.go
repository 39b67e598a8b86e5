package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
	"github.com/llehouerou/ytm/internal/ui/results"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, snapshotCmd(m.deps.Player, len(m.session.Queued()))

	case BarMsg:
		m.bar = playerbar.State(msg)
		return m, TickCmd()

	case SearchDoneMsg:
		return m.handleSearchDone(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case PlayStartedMsg:
		return m.handlePlayStarted(msg)

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg)

	case StateChangeMsg:
		if !msg.Open {
			return m, nil
		}
		m.bar.Status = msg.Change.Current
		return m, watchStateChanges(m.deps.Player)

	case PlayerOpMsg:
		return m.handlePlayerOp(msg)

	case StoppedMsg:
		m.bar = playerbar.State{Status: player.Idle, Volume: m.bar.Volume}
		return m, nil

	case NextMsg:
		return m.playNext()

	case QueryMsg:
		m.println(styles.T().S().Muted.Render("› " + msg.Query))
		return m.startSearch(msg.Query)

	case BackgroundErrMsg:
		m.log.Warn("background task failed", zap.String("op", string(msg.Op)), zap.Error(msg.Err))
		return m, nil

	case StderrMsg:
		if !msg.Open {
			return m, nil
		}
		m.log.Info("stderr", zap.String("line", msg.Line))
		m.println(styles.T().S().Subtle.Render(msg.Line))
		return m, watchStderr(m.deps.Stderr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, quitCmd(m.deps.Player)
	case tea.KeyEsc:
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		line := m.input.Value()
		m.input.Reset()
		return m.submit(line)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit parses and runs one input line.
func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	if line != "" {
		m.println(styles.T().S().Muted.Render("› " + line))
	}
	cmd, err := m.opts.Parser.Parse(line)
	if err != nil {
		m.report("", err)
		return m, nil
	}
	return m.dispatch(cmd)
}

func (m Model) handleSearchDone(msg SearchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.searchSeq {
		return m, nil
	}
	m.busy = ""
	m.cancelSearch = nil

	if msg.Err != nil {
		if !errors.Is(msg.Err, context.Canceled) {
			m.report(errmsg.FormatWith(errmsg.OpSearch, msg.Query, msg.Err), msg.Err)
		}
		return m, nil
	}
	if msg.Result.Len() == 0 {
		m.println(styles.T().S().Muted.Render(fmt.Sprintf("no results for %q", msg.Query)))
		return m, nil
	}

	m.session.SetResults(msg.Result, session.SourceSearch)
	m.println(results.Tracks(msg.Result.Tracks, m.width)...)
	return m, nil
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.report(errmsg.Format(errmsg.OpHistoryLoad, msg.Err), msg.Err)
		return m, nil
	}
	if len(msg.Plays) == 0 {
		m.println(styles.T().S().Muted.Render("nothing played yet"))
		return m, nil
	}

	r := historyResult(msg.Plays)
	m.session.SetResults(r, session.SourceHistory)
	m.println(results.History(msg.Plays, now(), m.width)...)
	return m, nil
}

func (m Model) handlePlayStarted(msg PlayStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.launch.current() || msg.Stale {
		return m, nil
	}
	m.busy = ""

	if msg.Err != nil {
		if !errors.Is(msg.Err, player.ErrStopped) && !errors.Is(msg.Err, context.Canceled) {
			m.report(errmsg.FormatWith(errmsg.OpPlaybackStart, msg.Track.DisplayTitle(), msg.Err), msg.Err)
		}
		m.bar.Status = m.deps.Player.State()
		return m, nil
	}

	m.sessionID = msg.SessionID
	m.bar = playerbar.State{Status: player.Playing, Track: msg.Track, Duration: msg.Track.Duration, Volume: m.bar.Volume}
	m.println(styles.T().S().Playing.Render("▶ ") + styles.T().S().Title.Render(msg.Track.DisplayTitle()))
	m.log.Info("playing",
		zap.String("id", msg.Track.ID),
		zap.String("title", msg.Track.Title),
		zap.Stringer("session", msg.SessionID),
	)

	var cmds []tea.Cmd
	if m.deps.State != nil {
		cmds = append(cmds, recordPlayCmd(m.deps.State, msg.Track))
	}
	if m.deps.Notifier != nil {
		cmds = append(cmds, announceCmd(m.deps.Notifier, msg.Track))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handlePlayerEvent(msg PlayerEventMsg) (tea.Model, tea.Cmd) {
	if !msg.Open {
		return m, nil
	}
	rearm := watchEvents(m.deps.Player)

	ev := msg.Event
	if ev.SessionID != m.sessionID {
		m.log.Debug("ignoring event of a previous session", zap.Stringer("session", ev.SessionID))
		return m, rearm
	}

	switch ev.Kind {
	case player.EventEnded:
		m.println(styles.T().S().Muted.Render("finished " + ev.Track.DisplayTitle()))
		if next, ok := m.session.NextQueued(); ok {
			return m.startPlay(next, rearm)
		}
	case player.EventFailed:
		m.report(errmsg.FormatWith(errmsg.OpPlayback, ev.Track.DisplayTitle(), ev.Err), ev.Err)
	case player.EventStopped:
	}
	m.bar = playerbar.State{Status: player.Idle, Volume: m.bar.Volume}
	return m, rearm
}

func (m Model) handlePlayerOp(msg PlayerOpMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.report(errmsg.Format(msg.Op, msg.Err), msg.Err)
		return m, nil
	}
	if msg.Op != errmsg.OpPlaybackVolume {
		return m, snapshotCmd(m.deps.Player, len(m.session.Queued()))
	}

	m.bar.Volume = msg.Volume
	m.println(styles.T().S().Muted.Render(fmt.Sprintf("volume %d%%", msg.Volume)))
	if m.deps.State == nil {
		return m, nil
	}
	return m, saveVolumeCmd(m.deps.State, msg.Volume)
}

// report prints a user-facing error and logs it. text defaults to the
// error's description.
func (m *Model) report(text string, err error) {
	if text == "" {
		text = errmsg.Describe(err)
	}
	if session.IsReportable(err) {
		m.log.Info("reported error", zap.Error(err))
	} else {
		m.log.Error("unexpected error", zap.Error(err))
	}
	m.println(styles.T().S().Error.Render(text))
}
