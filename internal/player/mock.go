package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/ytm/internal/playlist"
)

// Mock is a test double for Controller. It never launches a process.
type Mock struct {
	mu        sync.Mutex
	state     State
	current   *playlist.Track
	session   uuid.UUID
	volume    int
	position  time.Duration
	duration  time.Duration
	playErr   error
	endOnPlay bool
	playCalls []playlist.Track
	seekCalls []time.Duration
	stopCalls int
	closed    bool
	events    chan Event
	changes   chan StateChange
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{
		state:   Idle,
		volume:  DefaultVolume,
		events:  make(chan Event, eventBufferSize),
		changes: make(chan StateChange, eventBufferSize),
	}
}

func (m *Mock) Play(_ context.Context, track playlist.Track) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls = append(m.playCalls, track)
	if m.playErr != nil {
		m.current = nil
		m.state = Idle
		return uuid.Nil, m.playErr
	}
	m.session = uuid.New()
	if m.endOnPlay {
		m.current = nil
		m.state = Idle
		m.events <- Event{SessionID: m.session, Track: track, Kind: EventEnded}
		return m.session, nil
	}
	m.current = &track
	m.state = Playing
	return m.session, nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.current = nil
	m.state = Idle
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
	return nil
}

func (m *Mock) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
	return nil
}

func (m *Mock) Toggle() error {
	switch m.State() {
	case Playing:
		return m.Pause()
	case Paused:
		return m.Resume()
	default:
		// Nothing to toggle
		return nil
	}
}

func (m *Mock) Seek(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, d)
	return nil
}

func (m *Mock) AdjustVolume(delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(m.volume + delta)
	return m.volume, nil
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Current() (playlist.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return playlist.Track{}, false
	}
	return *m.current, true
}

func (m *Mock) SessionID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return uuid.Nil
	}
	return m.session
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) StateChanges() <-chan StateChange { return m.changes }

func (m *Mock) WaitForCompletion(ctx context.Context) (Event, error) {
	select {
	case ev := <-m.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (m *Mock) Close() {
	m.Stop()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Test helpers

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetEndOnPlay makes Play end each session before it returns, as a track
// shorter than the load handshake does.
func (m *Mock) SetEndOnPlay(end bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endOnPlay = end
}

func (m *Mock) PlayCalls() []playlist.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]playlist.Track(nil), m.playCalls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// SimulateFinished ends the current session with the given kind and
// publishes its event.
func (m *Mock) SimulateFinished(kind EventKind) Event {
	m.mu.Lock()
	ev := Event{SessionID: m.session, Kind: kind}
	if m.current != nil {
		ev.Track = *m.current
	}
	m.current = nil
	m.state = Idle
	m.mu.Unlock()

	m.events <- ev
	return ev
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
