// Package playerbar renders the one-line now-playing status shown under
// the prompt.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/ui/render"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"

	separator   = "  "
	minBarWidth = 10
)

// State holds everything needed to render the player bar.
type State struct {
	Status   player.State
	Track    playlist.Track
	Position time.Duration
	Duration time.Duration
	Volume   int
	Queued   int
	Spinner  string // shown while loading
}

// NewState snapshots the player. queued is the number of tracks waiting
// after the current one.
func NewState(p player.Interface, queued int) State {
	s := State{
		Status: p.State(),
		Volume: p.Volume(),
		Queued: queued,
	}
	if track, ok := p.Current(); ok {
		s.Track = track
		s.Position = p.Position()
		s.Duration = p.Duration()
	}
	return s
}

// Render returns the player bar for the given width, or an empty string
// when there is nothing to show.
func Render(s State, width int) string {
	switch s.Status {
	case player.Loading:
		return renderLoading(s, width)
	case player.Playing, player.Paused:
		return renderActive(s, width)
	case player.Idle, player.Failed:
	}
	return ""
}

func renderLoading(s State, width int) string {
	line := "loading " + s.Track.DisplayTitle()
	if s.Spinner != "" {
		line = s.Spinner + " " + line
	}
	return styles.T().S().Muted.Render(render.Truncate(line, width))
}

func renderActive(s State, width int) string {
	st := styles.T().S()

	status := playSymbol
	if s.Status == player.Paused {
		status = pauseSymbol
	}

	right := fmt.Sprintf("%s / %s", formatPosition(s.Position), playlist.FormatDuration(s.Duration))
	right += separator + fmt.Sprintf("vol %d%%", s.Volume)
	if s.Queued > 0 {
		right += separator + fmt.Sprintf("+%d queued", s.Queued)
	}
	rightWidth := lipgloss.Width(right)

	title := s.Track.DisplayTitle()
	if s.Track.Uploader != "" {
		title += " · " + s.Track.Uploader
	}

	// status, title, bar and right block, separated
	available := width - lipgloss.Width(status) - rightWidth - len(separator)*3
	titleWidth := min(lipgloss.Width(title), max(available-minBarWidth, 0))
	barWidth := available - titleWidth

	var b strings.Builder
	b.WriteString(st.Playing.Render(status))
	b.WriteString(separator)
	if titleWidth > 0 {
		b.WriteString(st.Title.Render(render.TruncateEllipsis(render.Sanitize(title), titleWidth)))
		b.WriteString(separator)
	}
	if barWidth > 0 {
		b.WriteString(RenderProgressBar(s.Position, s.Duration, barWidth))
		b.WriteString(separator)
	}
	b.WriteString(st.Muted.Render(right))
	return b.String()
}

func formatPosition(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	return playlist.FormatDuration(d)
}
