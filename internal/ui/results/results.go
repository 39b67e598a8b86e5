// Package results renders numbered track listings: search results,
// play history and the upcoming queue.
package results

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/render"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

// minTitleWidth keeps titles readable on very narrow terminals.
const minTitleWidth = 12

// Tracks renders one line per track, numbered from 1, in the given order.
func Tracks(tracks []playlist.Track, width int) []string {
	lines := make([]string, len(tracks))
	numWidth := len(strconv.Itoa(len(tracks)))
	for i, t := range tracks {
		lines[i] = line(i+1, numWidth, t, playlist.FormatDuration(t.Duration), width)
	}
	return lines
}

// History renders recent plays, numbered from 1, with a relative
// timestamp in place of the duration.
func History(plays []state.Play, now time.Time, width int) []string {
	lines := make([]string, len(plays))
	numWidth := len(strconv.Itoa(len(plays)))
	for i, p := range plays {
		when := humanize.RelTime(p.PlayedAt, now, "ago", "from now")
		if p.Count > 1 {
			when = fmt.Sprintf("%s, %s plays", when, humanize.Comma(int64(p.Count)))
		}
		lines[i] = line(i+1, numWidth, p.Track, when, width)
	}
	return lines
}

// Queue renders the tracks waiting to play, or a single hint line when
// there are none.
func Queue(tracks []playlist.Track, width int) []string {
	if len(tracks) == 0 {
		return []string{styles.T().S().Muted.Render("queue is empty")}
	}
	return Tracks(tracks, width)
}

// line renders "  3. Title · Uploader      4:05" padded to width.
func line(n, numWidth int, t playlist.Track, right string, width int) string {
	st := styles.T().S()

	num := fmt.Sprintf("%*d.", numWidth+2, n)
	title := render.Sanitize(t.DisplayTitle())
	if t.Uploader != "" {
		title += st.Muted.Render(" · " + render.Sanitize(t.Uploader))
	}

	// number, space, title, gap, right
	available := max(width-lipgloss.Width(num)-1-lipgloss.Width(right)-2, minTitleWidth)
	title = render.TruncateEllipsis(title, available)

	return render.Row(st.Index.Render(num)+" "+st.Base.Render(title), st.Subtle.Render(right), width)
}
