package playerbar

import (
	"strings"
	"time"

	"github.com/llehouerou/ytm/internal/ui/styles"
)

const (
	filledBlock = "━"
	emptyBlock  = "─"
)

// RenderProgressBar renders a line-style progress bar of exactly width
// cells. An unknown duration renders an empty bar.
func RenderProgressBar(position, duration time.Duration, width int) string {
	if width <= 0 {
		return ""
	}

	var ratio float64
	if duration > 0 {
		ratio = min(float64(position)/float64(duration), 1)
	}
	filled := max(min(int(float64(width)*ratio), width), 0)

	st := styles.T().S()
	return st.BarFull.Render(strings.Repeat(filledBlock, filled)) +
		st.BarEmpty.Render(strings.Repeat(emptyBlock, width-filled))
}
