package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Banner renders text in bold, shading each grapheme from Primary to
// Secondary.
func (t *Theme) Banner(text string) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var b strings.Builder
	for i, c := range bannerColors(len(clusters), t.Primary, t.Secondary) {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(c).Render(clusters[i]))
	}
	return b.String()
}

// bannerColors spreads n colours from one end to the other, blended in HCL
// space. Ends that are not #rrggbb count as mid grey.
func bannerColors(n int, from, to lipgloss.Color) []lipgloss.Color {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []lipgloss.Color{from}
	}
	start, end := hexOrGray(from), hexOrGray(to)
	out := make([]lipgloss.Color, n)
	for i := range out {
		c := start.BlendHcl(end, float64(i)/float64(n-1)).Clamped()
		out[i] = lipgloss.Color(c.Hex())
	}
	return out
}

func hexOrGray(c lipgloss.Color) colorful.Color {
	if col, err := colorful.Hex(string(c)); err == nil {
		return col
	}
	return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
}
