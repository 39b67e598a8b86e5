//go:build windows

package stderr

import "os"

// Capture is a no-op on Windows.
type Capture struct{}

// Start is a no-op on Windows.
func Start(_ Sink) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op on Windows.
func (c *Capture) Stop() {}
