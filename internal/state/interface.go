// internal/state/interface.go
package state

import "github.com/llehouerou/ytm/internal/playlist"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	RecordPlay(track playlist.Track) error
	RecentPlays(limit int) ([]Play, error)
	GetVolume() (volume int, ok bool, err error)
	SaveVolume(volume int) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
