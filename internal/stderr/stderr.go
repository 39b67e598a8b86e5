// Package stderr captures output written directly to file descriptor 2
// while the terminal UI owns the screen. Captured lines are handed to a
// sink (normally the log file) instead of corrupting the layout.
package stderr

import (
	"bufio"
	"io"
	"strings"
)

// Sink receives captured stderr lines, trimmed and non-empty.
type Sink func(line string)

// forward scans r line by line and hands non-blank lines to sink until r
// is exhausted.
func forward(r io.Reader, sink Sink) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && sink != nil {
			sink(line)
		}
	}
}
