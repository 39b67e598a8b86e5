package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/DexterLB/mpvipc"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/proc"
)

const (
	// DefaultMPV is the playback executable used when none is configured.
	DefaultMPV = "mpv"

	socketPollInterval = 25 * time.Millisecond
	diagnosticsLimit   = 8 << 10
)

// MPVConfig configures the mpv backend.
type MPVConfig struct {
	Path      string   // executable name or path
	ExtraArgs []string // appended before the media URL
	SocketDir string   // directory for IPC sockets; os.TempDir() when empty
}

// MPVBackend launches one mpv process per session, controlled over its
// JSON IPC socket.
type MPVBackend struct {
	cfg MPVConfig
	log *zap.Logger
}

// NewMPVBackend creates a backend. A nil logger discards logs.
func NewMPVBackend(cfg MPVConfig, log *zap.Logger) *MPVBackend {
	if cfg.Path == "" {
		cfg.Path = DefaultMPV
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MPVBackend{cfg: cfg, log: log.Named("mpv")}
}

// Path returns the configured executable.
func (b *MPVBackend) Path() string { return b.cfg.Path }

// Available reports whether mpv can be found.
func (b *MPVBackend) Available() bool {
	_, err := exec.LookPath(b.cfg.Path)
	return err == nil
}

// SocketPath returns the IPC socket path for a session.
func (b *MPVBackend) SocketPath(req StartRequest) string {
	return filepath.Join(b.cfg.SocketDir, "ytm-mpv-"+req.SessionID.String()+".sock")
}

// Args returns the command line for a session, without the executable.
func (b *MPVBackend) Args(req StartRequest) []string {
	args := []string{
		"--no-video",
		"--no-input-terminal",
		"--quiet",
		"--msg-level=all=error",
		"--idle=no",
		"--input-ipc-server=" + b.SocketPath(req),
		"--title=" + req.Track.DisplayTitle(),
		"--volume=" + strconv.Itoa(req.Volume),
	}
	args = append(args, b.cfg.ExtraArgs...)
	return append(args, "--", req.Track.PlaybackURL())
}

// Start launches mpv. It returns once the process is running; readiness is
// signalled through the returned Process.
func (b *MPVBackend) Start(ctx context.Context, req StartRequest) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Track.PlaybackURL() == "" {
		return nil, errors.New("track has no URL")
	}
	path, err := exec.LookPath(b.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.cfg.Path, proc.ErrNotFound)
	}

	socket := b.SocketPath(req)
	_ = os.Remove(socket)

	diag := &tailBuffer{limit: diagnosticsLimit}
	// Bound to the session, not to ctx.
	cmd := exec.Command(path, b.Args(req)...)
	cmd.Stderr = diag
	proc.Setup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := newMPVProcess(cmd, socket, diag, b.log.With(
		zap.String("session", req.SessionID.String()),
		zap.Int("pid", cmd.Process.Pid),
	))
	p.log.Debug("mpv started", zap.String("socket", socket))
	p.supervise()
	return p, nil
}

// ipcTimeout bounds a single IPC round trip.
const ipcTimeout = 2 * time.Second

var errNotConnected = errors.New("mpv IPC not connected")

// mpvProcess is one supervised mpv instance.
type mpvProcess struct {
	cmd    *exec.Cmd
	socket string
	diag   *tailBuffer
	log    *zap.Logger

	readyOnce sync.Once
	ready     chan struct{}
	done      chan struct{}

	mu         sync.Mutex
	conn       *mpvipc.Connection
	stopEvents chan struct{}
	exitErr    error
	code       int
}

func newMPVProcess(cmd *exec.Cmd, socket string, diag *tailBuffer, log *zap.Logger) *mpvProcess {
	return &mpvProcess{
		cmd:    cmd,
		socket: socket,
		diag:   diag,
		log:    log,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// supervise starts the reaper and the IPC connector for a started command.
func (p *mpvProcess) supervise() {
	go p.wait()
	go p.connect()
}

// wait is the only goroutine that calls cmd.Wait.
func (p *mpvProcess) wait() {
	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	if err != nil {
		err = &proc.ExitError{Name: "mpv", Code: code, Stderr: p.Diagnostics()}
	}

	p.mu.Lock()
	p.code = code
	p.exitErr = err
	conn, stop := p.conn, p.stopEvents
	p.conn, p.stopEvents = nil, nil
	p.mu.Unlock()

	if conn != nil {
		close(stop)
		_ = conn.Close()
	}
	_ = os.Remove(p.socket)
	p.log.Debug("mpv exited", zap.Int("status", code))
	close(p.done)
}

// connect opens the IPC socket as soon as mpv creates it.
func (p *mpvProcess) connect() {
	ticker := time.NewTicker(socketPollInterval)
	defer ticker.Stop()
	for {
		conn := mpvipc.NewConnection(p.socket)
		if err := conn.Open(); err == nil {
			p.attach(conn)
			return
		}
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}
	}
}

func (p *mpvProcess) attach(conn *mpvipc.Connection) {
	events, stop := conn.NewEventListener()

	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		close(stop)
		_ = conn.Close()
		return
	default:
	}
	p.conn, p.stopEvents = conn, stop
	p.mu.Unlock()

	go p.watch(events)

	// playback-restart may have fired before the listener existed;
	// playback-time is only available once playback has begun.
	if _, err := p.seconds("playback-time"); err == nil {
		p.markReady()
	}
}

// watch drains mpv events until the listener is stopped.
func (p *mpvProcess) watch(events <-chan *mpvipc.Event) {
	for ev := range events {
		if ev.Name == "playback-restart" {
			p.markReady()
		}
	}
}

func (p *mpvProcess) markReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

func (p *mpvProcess) Ready() <-chan struct{} { return p.ready }

func (p *mpvProcess) Done() <-chan struct{} { return p.done }

func (p *mpvProcess) ExitStatus() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.exitErr
}

func (p *mpvProcess) Diagnostics() string {
	return proc.LastLine(p.diag.String())
}

func (p *mpvProcess) Terminate(grace time.Duration) {
	proc.Shutdown(p.cmd.Process, p.done, grace)
}

// call runs fn against the connection. mpvipc waits for a reply without a
// deadline, so the call is abandoned after ipcTimeout or when mpv exits.
func (p *mpvProcess) call(name string, fn func(*mpvipc.Connection) (any, error)) (any, error) {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return nil, errNotConnected
	}

	type reply struct {
		v   any
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		v, err := fn(conn)
		replies <- reply{v, err}
	}()

	timer := time.NewTimer(ipcTimeout)
	defer timer.Stop()
	select {
	case r := <-replies:
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", name, r.err)
		}
		return r.v, nil
	case <-p.done:
		return nil, errNotConnected
	case <-timer.C:
		return nil, fmt.Errorf("%s: no reply within %s", name, ipcTimeout)
	}
}

func (p *mpvProcess) set(property string, value any) error {
	_, err := p.call("set "+property, func(c *mpvipc.Connection) (any, error) {
		return nil, c.Set(property, value)
	})
	return err
}

func (p *mpvProcess) SetPause(paused bool) error {
	return p.set("pause", paused)
}

func (p *mpvProcess) Seek(delta time.Duration) error {
	_, err := p.call("seek", func(c *mpvipc.Connection) (any, error) {
		return c.Call("seek", delta.Seconds(), "relative")
	})
	return err
}

func (p *mpvProcess) SetVolume(volume int) error {
	return p.set("volume", volume)
}

func (p *mpvProcess) Position() (time.Duration, error) {
	return p.seconds("playback-time")
}

func (p *mpvProcess) Duration() (time.Duration, error) {
	return p.seconds("duration")
}

func (p *mpvProcess) seconds(property string) (time.Duration, error) {
	v, err := p.call("get "+property, func(c *mpvipc.Connection) (any, error) {
		return c.Get(property)
	})
	if err != nil {
		return 0, err
	}
	secs, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("get %s: unexpected value %v", property, v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
