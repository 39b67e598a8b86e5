// internal/state/mock.go
package state

import (
	"sync"
	"time"

	"github.com/llehouerou/ytm/internal/playlist"
)

// Mock is a test double for Manager.
type Mock struct {
	mu     sync.Mutex
	plays  []Play
	volume int
	hasVol bool
	closed bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) RecordPlay(track playlist.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = append([]Play{{Track: track, PlayedAt: time.Now(), Count: 1}}, m.plays...)
	return nil
}

func (m *Mock) RecentPlays(limit int) ([]Play, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = max(0, min(limit, len(m.plays)))
	return append([]Play(nil), m.plays[:limit]...), nil
}

func (m *Mock) GetVolume() (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume, m.hasVol, nil
}

func (m *Mock) SaveVolume(volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume, m.hasVol = volume, true
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Plays returns the recorded plays, most recent first.
func (m *Mock) Plays() []Play {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Play(nil), m.plays...)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
