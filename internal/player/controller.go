// Package player supervises the external playback process.
//
// A Controller owns at most one playback session at a time. Starting a new
// session fully terminates and reaps the previous one first.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/proc"
)

// Defaults used when the corresponding Options field is zero.
const (
	DefaultLoadTimeout = 10 * time.Second
	DefaultStopGrace   = proc.DefaultKillGrace
	DefaultVolume      = 100
	MaxVolume          = 150
)

const eventBufferSize = 16

// Options configures a Controller.
type Options struct {
	LoadTimeout time.Duration
	StopGrace   time.Duration
	Volume      int // initial volume, 0..MaxVolume; zero selects DefaultVolume
}

// Controller drives one playback process at a time.
type Controller struct {
	backend     Backend
	log         *zap.Logger
	loadTimeout time.Duration
	stopGrace   time.Duration

	// playMu serialises Play calls.
	playMu sync.Mutex

	mu     sync.Mutex
	state  State
	active *session
	last   *session // most recently launched, kept after it ends
	volume int
	closed bool

	events  chan Event
	changes chan StateChange
}

// session is one launched playback process.
type session struct {
	id    uuid.UUID
	track playlist.Track
	proc  Process // nil until the backend has started it

	// Guarded by Controller.mu.
	stopping bool
	abortErr error
	playing  bool
	event    Event

	cancel chan struct{} // closed when Stop interrupts loading
	done   chan struct{} // closed once supervise has finished
}

// Verify Controller implements Interface at compile time.
var _ Interface = (*Controller)(nil)

// New creates a Controller. A nil logger discards logs.
func New(backend Backend, opts Options, log *zap.Logger) *Controller {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	if opts.Volume == 0 {
		opts.Volume = DefaultVolume
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		backend:     backend,
		log:         log.Named("player"),
		loadTimeout: opts.LoadTimeout,
		stopGrace:   opts.StopGrace,
		state:       Idle,
		volume:      clampVolume(opts.Volume),
		events:      make(chan Event, eventBufferSize),
		changes:     make(chan StateChange, eventBufferSize),
	}
}

// Play stops any active session, launches a new one for track and waits
// until audio has started, the process fails, or the load bound elapses.
// It returns the id of the launched session, which also identifies its
// terminal event even when the track ends before Play returns.
//
// Errors: *PlaybackError when the process cannot start, exits first, or times
// out (wrapping *proc.TimeoutError); ErrStopped when Stop interrupts loading;
// ctx's error when ctx is cancelled; ErrClosed after Close.
func (c *Controller) Play(ctx context.Context, track playlist.Track) (uuid.UUID, error) {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.Stop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return uuid.Nil, ErrClosed
	}
	s := &session{
		id:     uuid.New(),
		track:  track,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	// Active before the process exists, so Stop and Close can reach it.
	c.active = s
	volume := c.volume
	c.setStateLocked(Loading)
	c.mu.Unlock()

	log := c.log.With(zap.String("session", s.id.String()), zap.String("title", track.DisplayTitle()))
	log.Info("loading track", zap.String("url", track.URL))

	p, err := c.backend.Start(ctx, StartRequest{SessionID: s.id, Track: track, Volume: volume})

	c.mu.Lock()
	switch {
	case s.stopping:
		closed := c.closed
		c.active = nil
		c.setStateLocked(Idle)
		c.mu.Unlock()
		if err == nil {
			p.Terminate(c.stopGrace)
		}
		log.Info("launch interrupted", zap.Bool("closed", closed))
		close(s.done)
		if closed {
			return uuid.Nil, ErrClosed
		}
		return uuid.Nil, ErrStopped
	case err != nil:
		c.active = nil
		c.setStateLocked(Failed)
		c.setStateLocked(Idle)
		c.mu.Unlock()
		log.Error("playback process failed to start", zap.Error(err))
		close(s.done)
		return uuid.Nil, &PlaybackError{Track: track, SessionID: s.id, ExitCode: -1, Err: err}
	}
	s.proc = p
	c.last = s
	c.mu.Unlock()
	go c.supervise(s, log)

	timer := time.NewTimer(c.loadTimeout)
	defer timer.Stop()

	select {
	case <-p.Ready():
		return c.started(s, log)
	case <-s.done:
		if isClosed(p.Ready()) {
			return s.id, nil
		}
		return uuid.Nil, c.loadOutcome(s)
	case <-s.cancel:
		<-s.done
		return uuid.Nil, ErrStopped
	case <-timer.C:
		terr := &proc.TimeoutError{Name: "mpv", After: c.loadTimeout}
		c.abort(s, &PlaybackError{Track: track, SessionID: s.id, ExitCode: -1, Err: terr})
		return uuid.Nil, c.loadOutcome(s)
	case <-ctx.Done():
		c.Stop()
		return uuid.Nil, ctx.Err()
	}
}

// started moves a loading session to Playing.
func (c *Controller) started(s *session, log *zap.Logger) (uuid.UUID, error) {
	c.mu.Lock()
	stopping := s.stopping
	if !stopping && c.active == s {
		s.playing = true
		c.setStateLocked(Playing)
	}
	c.mu.Unlock()

	if stopping {
		<-s.done
		return uuid.Nil, ErrStopped
	}
	log.Info("playback started")
	return s.id, nil
}

// loadOutcome returns the error of a session that ended while loading.
func (c *Controller) loadOutcome(s *session) error {
	<-s.done
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.stopping && s.abortErr == nil {
		return ErrStopped
	}
	return s.event.Err
}

// abort kills a loading session and records why.
func (c *Controller) abort(s *session, reason error) {
	c.mu.Lock()
	if s.abortErr == nil && !s.stopping {
		s.abortErr = reason
	}
	c.mu.Unlock()
	s.proc.Terminate(0)
	<-s.done
}

// supervise waits for the process to be reaped, then settles the session.
func (c *Controller) supervise(s *session, log *zap.Logger) {
	<-s.proc.Done()
	code, exitErr := s.proc.ExitStatus()

	c.mu.Lock()
	reached := s.playing || isClosed(s.proc.Ready())
	ev := Event{SessionID: s.id, Track: s.track}
	switch {
	case s.abortErr != nil:
		ev.Kind = EventFailed
		ev.Err = s.abortErr
	case s.stopping:
		ev.Kind = EventStopped
	case exitErr == nil && reached:
		ev.Kind = EventEnded
	default:
		if exitErr == nil {
			exitErr = errExitedEarly
		}
		ev.Kind = EventFailed
		ev.Err = &PlaybackError{
			Track:      s.track,
			SessionID:  s.id,
			ExitCode:   code,
			Diagnostic: s.proc.Diagnostics(),
			Err:        exitErr,
		}
	}
	s.event = ev

	if c.active == s {
		c.active = nil
		if ev.Kind == EventFailed {
			c.setStateLocked(Failed)
		}
		c.setStateLocked(Idle)
	}
	c.mu.Unlock()

	switch ev.Kind {
	case EventFailed:
		log.Error("playback failed", zap.Int("status", code), zap.Error(ev.Err))
	default:
		log.Info("playback finished", zap.Stringer("reason", ev.Kind))
	}

	if reached {
		c.publish(ev)
	}
	close(s.done)
}

// Stop terminates the active session and waits until its process has been
// reaped. It is a no-op when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.active
	if s == nil {
		c.mu.Unlock()
		return
	}
	if !s.stopping {
		s.stopping = true
		close(s.cancel)
	}
	p := s.proc
	c.mu.Unlock()

	// A launch still in Start is reaped by Play once Start returns.
	if p != nil {
		p.Terminate(c.stopGrace)
	}
	<-s.done
}

// Pause pauses playback. No-op unless Playing.
func (c *Controller) Pause() error {
	return c.setPause(true)
}

// Resume resumes paused playback. No-op unless Paused.
func (c *Controller) Resume() error {
	return c.setPause(false)
}

// Toggle toggles between Playing and Paused.
func (c *Controller) Toggle() error {
	switch c.State() {
	case Playing:
		return c.Pause()
	case Paused:
		return c.Resume()
	default:
		return nil
	}
}

func (c *Controller) setPause(paused bool) error {
	from, to := Paused, Playing
	if paused {
		from, to = Playing, Paused
	}

	c.mu.Lock()
	s := c.active
	if s == nil || c.state != from {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := s.proc.SetPause(paused); err != nil {
		return err
	}

	c.mu.Lock()
	if c.active == s && c.state == from {
		c.setStateLocked(to)
	}
	c.mu.Unlock()
	return nil
}

// Seek moves the playback position by delta. No-op when nothing is playing.
func (c *Controller) Seek(delta time.Duration) error {
	s := c.playingSession()
	if s == nil {
		return nil
	}
	return s.proc.Seek(delta)
}

// AdjustVolume changes the volume by delta, clamped to 0..MaxVolume, and
// returns the new value. The volume carries over to later sessions.
func (c *Controller) AdjustVolume(delta int) (int, error) {
	c.mu.Lock()
	c.volume = clampVolume(c.volume + delta)
	volume := c.volume
	var s *session
	if c.state.IsActive() {
		s = c.active
	}
	c.mu.Unlock()

	if s == nil {
		return volume, nil
	}
	return volume, s.proc.SetVolume(volume)
}

// Volume returns the current volume.
func (c *Controller) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Position returns the playback position, or zero when idle or unknown.
func (c *Controller) Position() time.Duration {
	s := c.playingSession()
	if s == nil {
		return 0
	}
	pos, err := s.proc.Position()
	if err != nil {
		return 0
	}
	return pos
}

// Duration returns the track duration as reported by mpv, falling back to
// the duration known from the resolver.
func (c *Controller) Duration() time.Duration {
	s := c.playingSession()
	if s == nil {
		return 0
	}
	d, err := s.proc.Duration()
	if err != nil || d <= 0 {
		return s.track.Duration
	}
	return d
}

func (c *Controller) playingSession() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsActive() {
		return nil
	}
	return c.active
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the track of the active session.
func (c *Controller) Current() (playlist.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return playlist.Track{}, false
	}
	return c.active.track, true
}

// SessionID returns the id of the active session, or uuid.Nil.
func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return uuid.Nil
	}
	return c.active.id
}

// Events returns the channel of terminal session events.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// StateChanges returns the channel of state transitions.
func (c *Controller) StateChanges() <-chan StateChange {
	return c.changes
}

// WaitForCompletion blocks until the most recently launched session ends
// and returns its terminal event. A session that has already ended returns
// at once, so a caller racing a short track still sees how it finished.
func (c *Controller) WaitForCompletion(ctx context.Context) (Event, error) {
	c.mu.Lock()
	s := c.last
	c.mu.Unlock()
	if s == nil {
		return Event{}, ErrNotPlaying
	}

	select {
	case <-s.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return s.event, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close stops playback and rejects further Play calls.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Stop()
}

// setStateLocked records a transition. c.mu must be held.
func (c *Controller) setStateLocked(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	c.log.Debug("state changed", zap.Stringer("from", prev), zap.Stringer("to", next))

	// Non-blocking send - drop if buffer full
	select {
	case c.changes <- StateChange{Previous: prev, Current: next}:
	default:
	}
}

func (c *Controller) publish(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event dropped, buffer full", zap.Stringer("kind", ev.Kind))
	}
}

func clampVolume(v int) int {
	return max(0, min(v, MaxVolume))
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// IsStopped reports whether err means loading was interrupted on purpose.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled)
}
