//go:build unix

package stderr

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Capture redirects fd 2 into a pipe for its lifetime.
type Capture struct {
	orig int
	r    *os.File
	w    *os.File
	done chan struct{}
	once sync.Once
}

// Start begins capturing stderr output. Call it before the terminal UI
// takes over. On error the program can continue; output simply keeps
// going to the original stderr.
func Start(sink Sink) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{orig: orig, r: r, w: w, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		forward(r, sink)
	}()
	return c, nil
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = unix.Write(c.orig, []byte(msg))
}

// Stop restores the original stderr and waits for buffered lines to reach
// the sink. Safe to call more than once.
func (c *Capture) Stop() {
	c.once.Do(func() {
		_ = unix.Dup2(c.orig, int(os.Stderr.Fd()))
		_ = unix.Close(c.orig)
		c.w.Close()
		<-c.done
		c.r.Close()
	})
}
