package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/app/handler"
	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
	"github.com/llehouerou/ytm/internal/ui/render"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

// ErrNoMatches is returned when a non-interactive search finds nothing.
var ErrNoMatches = errors.New("no matches")

// Target is what the non-interactive player plays: a URL, or the top hit
// of a query.
type Target struct {
	URL   string
	Query string
}

func (t Target) String() string {
	if t.URL != "" {
		return t.URL
	}
	return fmt.Sprintf("%q", t.Query)
}

// ResolvedMsg carries the track picked for a Target.
type ResolvedMsg struct {
	Track playlist.Track
	Err   error
}

// OneShot plays a single target without a prompt and quits when it ends.
// Every error is fatal and available from Err once the program exits.
type OneShot struct {
	ctx    context.Context
	deps   Deps
	target Target
	step   time.Duration
	log    *zap.Logger

	keys    handler.Keys
	spinner spinner.Model
	launch  *launcher

	bar       playerbar.State
	sessionID uuid.UUID
	err       error
	quitting  bool
	width     int
}

// NewOneShot creates the non-interactive player. seekStep is the arrow
// key seek distance.
func NewOneShot(ctx context.Context, deps Deps, target Target, seekStep time.Duration) *OneShot {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if seekStep <= 0 {
		seekStep = session.DefaultSeekStep
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.T().S().Playing

	o := &OneShot{
		ctx:     ctx,
		deps:    deps,
		target:  target,
		step:    seekStep,
		log:     deps.Log.Named("oneshot"),
		spinner: sp,
		launch:  &launcher{},
		bar:     playerbar.State{Status: player.Idle, Volume: deps.Player.Volume()},
		width:   80,
	}
	o.keys = handler.Keys{}.
		Bind(o.transport(errmsg.OpPlaybackPause, deps.Player.Toggle), " ").
		Bind(o.transport(errmsg.OpPlaybackSeek, func() error { return deps.Player.Seek(-o.step) }), "left").
		Bind(o.transport(errmsg.OpPlaybackSeek, func() error { return deps.Player.Seek(o.step) }), "right").
		Bind(o.quit, "q", "ctrl+c")
	return o
}

// Err returns the fatal error that ended the run, if any.
func (o *OneShot) Err() error {
	return o.err
}

// Init implements tea.Model.
func (o *OneShot) Init() tea.Cmd {
	return tea.Batch(o.spinner.Tick, o.resolveCmd(), watchStderr(o.deps.Stderr))
}

func (o *OneShot) resolveCmd() tea.Cmd {
	r, t, ctx := o.deps.Resolver, o.target, o.ctx
	return func() tea.Msg {
		if t.URL != "" {
			track, err := r.Resolve(ctx, t.URL)
			return ResolvedMsg{Track: track, Err: err}
		}
		res, err := r.Search(ctx, t.Query, 1)
		if err != nil {
			return ResolvedMsg{Err: err}
		}
		first, ok := res.At(0)
		if !ok {
			return ResolvedMsg{Err: fmt.Errorf("%w for %q", ErrNoMatches, t.Query)}
		}
		track, err := r.ResolveTrack(ctx, first)
		return ResolvedMsg{Track: track, Err: err}
	}
}

// Update implements tea.Model.
func (o *OneShot) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		return o, nil

	case tea.KeyMsg:
		_, cmd := o.keys.Handle(msg)
		return o, cmd

	case spinner.TickMsg:
		if o.bar.Status.IsActive() || o.quitting {
			return o, nil
		}
		var cmd tea.Cmd
		o.spinner, cmd = o.spinner.Update(msg)
		return o, cmd

	case ResolvedMsg:
		if msg.Err != nil {
			return o.fail(msg.Err)
		}
		o.bar.Status = player.Loading
		o.bar.Track = msg.Track
		seq := o.launch.next()
		return o, playCmd(o.ctx, o.deps.Resolver, o.deps.Player, o.launch, seq, msg.Track)

	case PlayStartedMsg:
		if msg.Err != nil {
			if o.quitting && errors.Is(msg.Err, player.ErrStopped) {
				return o, nil
			}
			return o.fail(msg.Err)
		}
		o.sessionID = msg.SessionID
		o.bar = playerbar.State{Status: player.Playing, Track: msg.Track, Duration: msg.Track.Duration, Volume: o.bar.Volume}
		o.log.Info("playing", zap.String("id", msg.Track.ID), zap.Stringer("session", msg.SessionID))

		cmds := []tea.Cmd{completionCmd(o.ctx, o.deps.Player, msg.SessionID), TickCmd()}
		if o.deps.State != nil {
			cmds = append(cmds, recordPlayCmd(o.deps.State, msg.Track))
		}
		if o.deps.Notifier != nil {
			cmds = append(cmds, announceCmd(o.deps.Notifier, msg.Track))
		}
		return o, tea.Batch(cmds...)

	case CompletionMsg:
		if msg.SessionID != o.sessionID {
			return o, nil
		}
		if msg.Err != nil {
			return o.fail(msg.Err)
		}
		if msg.Event.Kind == player.EventFailed {
			return o.fail(msg.Event.Err)
		}
		o.quitting = true
		return o, tea.Quit

	case TickMsg:
		if o.quitting {
			return o, nil
		}
		return o, snapshotCmd(o.deps.Player, 0)

	case BarMsg:
		o.bar = playerbar.State(msg)
		return o, TickCmd()

	case PlayerOpMsg:
		if msg.Err != nil {
			o.log.Warn("transport command failed", zap.String("op", string(msg.Op)), zap.Error(msg.Err))
			return o, nil
		}
		return o, snapshotCmd(o.deps.Player, 0)

	case BackgroundErrMsg:
		o.log.Warn("background task failed", zap.String("op", string(msg.Op)), zap.Error(msg.Err))
		return o, nil

	case StderrMsg:
		if !msg.Open {
			return o, nil
		}
		o.log.Info("stderr", zap.String("line", msg.Line))
		return o, watchStderr(o.deps.Stderr)
	}
	return o, nil
}

func (o *OneShot) transport(op errmsg.Op, fn func() error) handler.Handler {
	return func() handler.Result {
		if !o.deps.Player.State().IsActive() {
			return handler.HandledNoCmd
		}
		return handler.Handled(playerOpCmd(op, fn))
	}
}

func (o *OneShot) quit() handler.Result {
	o.quitting = true
	o.launch.next()
	return handler.Handled(quitCmd(o.deps.Player))
}

func (o *OneShot) fail(err error) (tea.Model, tea.Cmd) {
	o.err = err
	o.quitting = true
	o.log.Error("playback aborted", zap.Stringer("target", o.target), zap.Error(err))
	return o, quitCmd(o.deps.Player)
}

// View implements tea.Model.
func (o *OneShot) View() string {
	if o.quitting {
		return ""
	}
	st := styles.T().S()
	switch o.bar.Status {
	case player.Playing, player.Paused:
		return playerbar.Render(o.bar, o.width) + "\n" +
			st.Subtle.Render("space pause · ←/→ seek · q quit") + "\n"
	case player.Loading:
		return o.spinner.View() + " " + st.Muted.Render(render.Truncate("loading "+o.bar.Track.DisplayTitle(), max(o.width-2, 1))) + "\n"
	case player.Idle, player.Failed:
	}
	return o.spinner.View() + " " + st.Muted.Render(render.Truncate("resolving "+o.target.String(), max(o.width-2, 1))) + "\n"
}
