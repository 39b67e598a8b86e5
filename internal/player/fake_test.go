package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeProcess is a scripted playback process.
type fakeProcess struct {
	req   StartRequest
	ready chan struct{}
	done  chan struct{}

	readyOnce sync.Once
	exitOnce  sync.Once
	onExit    func()

	mu         sync.Mutex
	code       int
	err        error
	diag       string
	pauses     []bool
	seeks      []time.Duration
	volumes    []int
	terminated int
	position   time.Duration
	duration   time.Duration
}

func (p *fakeProcess) start() { p.readyOnce.Do(func() { close(p.ready) }) }

// exit simulates the process exiting and being reaped.
func (p *fakeProcess) exit(code int, err error) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		p.code, p.err = code, err
		p.mu.Unlock()
		if p.onExit != nil {
			p.onExit()
		}
		close(p.done)
	})
}

func (p *fakeProcess) Ready() <-chan struct{} { return p.ready }
func (p *fakeProcess) Done() <-chan struct{}  { return p.done }

func (p *fakeProcess) ExitStatus() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.err
}

func (p *fakeProcess) Diagnostics() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.diag
}

func (p *fakeProcess) Terminate(time.Duration) {
	p.mu.Lock()
	p.terminated++
	p.mu.Unlock()
	p.exit(-1, errors.New("signal: terminated"))
	<-p.done
}

func (p *fakeProcess) SetPause(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses = append(p.pauses, paused)
	return nil
}

func (p *fakeProcess) Seek(delta time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, delta)
	return nil
}

func (p *fakeProcess) SetVolume(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, v)
	return nil
}

func (p *fakeProcess) Position() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, nil
}

func (p *fakeProcess) Duration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.duration == 0 {
		return 0, errors.New("property unavailable")
	}
	return p.duration, nil
}

func (p *fakeProcess) terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *fakeProcess) pauseCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.pauses...)
}

// fakeBackend hands out fakeProcesses and tracks how many are alive.
type fakeBackend struct {
	autoReady bool
	startErr  error
	// configure runs on each new process before Start returns.
	configure func(*fakeProcess)
	// gate, when set, holds Start after the process exists until it is
	// closed; entered receives once Start is held.
	gate    chan struct{}
	entered chan struct{}

	mu      sync.Mutex
	procs   []*fakeProcess
	live    int
	maxLive int
}

func (b *fakeBackend) Start(_ context.Context, req StartRequest) (Process, error) {
	if b.startErr != nil {
		return nil, b.startErr
	}
	p := &fakeProcess{
		req:   req,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	p.onExit = func() {
		b.mu.Lock()
		b.live--
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.procs = append(b.procs, p)
	b.live++
	b.maxLive = max(b.maxLive, b.live)
	b.mu.Unlock()

	if b.configure != nil {
		b.configure(p)
	}
	if b.autoReady {
		p.start()
	}
	if b.gate != nil {
		b.entered <- struct{}{}
		<-b.gate
	}
	return p, nil
}

func (b *fakeBackend) started() []*fakeProcess {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeProcess(nil), b.procs...)
}

func (b *fakeBackend) last() *fakeProcess {
	procs := b.started()
	if len(procs) == 0 {
		return nil
	}
	return procs[len(procs)-1]
}

func (b *fakeBackend) maxAlive() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxLive
}
