// Package notify announces the playing track with desktop notifications.
package notify

import (
	"sync"

	"github.com/llehouerou/ytm/internal/playlist"
)

// Notifier shows track notifications.
type Notifier interface {
	// Track shows a notification for track, replacing notification
	// replaces when it is non-zero, and returns the notification's ID.
	// Returns 0 and nil error if notifications are unavailable.
	Track(track playlist.Track, replaces uint32) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// NowPlaying announces track changes, replacing its previous notification
// so that skipping through tracks does not stack popups.
type NowPlaying struct {
	notifier Notifier

	mu     sync.Mutex
	lastID uint32
}

// NewNowPlaying wraps a Notifier.
func NewNowPlaying(n Notifier) *NowPlaying {
	return &NowPlaying{notifier: n}
}

// Announce shows a notification for track.
func (p *NowPlaying) Announce(track playlist.Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, err := p.notifier.Track(track, p.lastID)
	if err != nil {
		return err
	}
	p.lastID = id
	return nil
}

// Dismiss closes the last notification, if any.
func (p *NowPlaying) Dismiss() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastID == 0 {
		return nil
	}
	id := p.lastID
	p.lastID = 0
	return p.notifier.Close(id)
}
