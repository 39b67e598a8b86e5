package playlist

import (
	"fmt"
	"time"
)

// Track is one playable audio item as reported by the extraction tool.
// Tracks are values: once resolved they are never mutated in place.
type Track struct {
	ID        string        // opaque identifier from the extraction tool
	Title     string        // display title
	Uploader  string        // channel or uploader name, may be empty
	Duration  time.Duration // 0 if unknown
	URL       string        // source page URL
	StreamURL string        // direct media URL, set only once resolved
}

// IsResolved returns true if the track carries a direct stream URL.
func (t Track) IsResolved() bool {
	return t.StreamURL != ""
}

// PlaybackURL returns the URL handed to the playback tool.
// The stream URL wins when known; otherwise the source URL is used.
func (t Track) PlaybackURL() string {
	if t.StreamURL != "" {
		return t.StreamURL
	}
	return t.URL
}

// DisplayTitle returns the title, falling back to the URL or ID.
func (t Track) DisplayTitle() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.URL != "":
		return t.URL
	default:
		return t.ID
	}
}

// FormatDuration renders a duration as m:ss or h:mm:ss, "--:--" when unknown.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	t := p.tracks[index]
	return &t
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}
