//go:build linux

package mpris

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/ytm/internal/player"
)

// Adapter exposes the player controller over the MPRIS D-Bus interface.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter. next is invoked for the
// Next method; it may be nil when there is nothing to advance to.
func New(p player.Interface, next func() error) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("ytm", &rootAdapter{}, &playerAdapter{player: p, next: next}),
	}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "ytm", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/webm", "audio/mp4", "audio/mpeg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	player player.Interface
	next   func() error
}

func (p *playerAdapter) Next() error {
	if p.next == nil {
		return nil
	}
	return p.next()
}

func (p *playerAdapter) Previous() error {
	return nil
}

func (p *playerAdapter) Pause() error {
	return p.player.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.player.Toggle()
}

func (p *playerAdapter) Stop() error {
	p.player.Stop()
	return nil
}

// Play resumes a paused session. Starting a new track needs a resolved
// stream, which only the session loop can provide.
func (p *playerAdapter) Play() error {
	return p.player.Resume()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.player.Seek(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	delta := time.Duration(position)*time.Microsecond - p.player.Position()
	return p.player.Seek(delta)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.player.State()), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track, ok := p.player.Current()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(p.player.Duration().Microseconds()),
		Title:   track.DisplayTitle(),
		Url:     track.URL,
	}
	if track.Uploader != "" {
		meta.Artist = []string{track.Uploader}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return float64(p.player.Volume()) / 100, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	target := int(v*100 + 0.5)
	_, err := p.player.AdjustVolume(target - p.player.Volume())
	return err
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.next != nil, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.State().CanResume(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.player.State().CanPause(), nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.State().IsActive(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func playbackStatus(s player.State) types.PlaybackStatus {
	switch s {
	case player.Playing:
		return types.PlaybackStatusPlaying
	case player.Paused:
		return types.PlaybackStatusPaused
	case player.Idle, player.Loading, player.Failed:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func formatTrackID(id string) string {
	safe := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			safe = append(safe, c)
		default:
			safe = append(safe, '_')
		}
	}
	if len(safe) == 0 {
		return "/org/mpris/MediaPlayer2/TrackList/NoTrack"
	}
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%s", safe)
}
