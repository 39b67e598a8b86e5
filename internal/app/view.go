package app

import (
	"strings"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
	"github.com/llehouerou/ytm/internal/ui/render"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

// View renders the transcript tail, the player bar and the prompt.
func (m Model) View() string {
	bar := m.barView()
	status := ""
	if m.busy != "" {
		status = m.spinner.View() + " " + styles.T().S().Muted.Render(render.Truncate(m.busy, max(m.width-2, 1)))
	}

	// transcript fills what the bottom block leaves
	bottom := []string{bar, status, m.input.View()}
	rows := max(m.height-len(bottom), 0)

	lines := m.transcript
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}

	var b strings.Builder
	for range rows - len(lines) {
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(bottom, "\n"))
	return b.String()
}

func (m Model) barView() string {
	s := m.bar
	if s.Status == player.Loading {
		s.Spinner = m.spinner.View()
	}
	s.Queued = len(m.session.Queued())
	return playerbar.Render(s, m.width)
}
