package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/app"
	"github.com/llehouerou/ytm/internal/config"
	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/logger"
	"github.com/llehouerou/ytm/internal/mpris"
	"github.com/llehouerou/ytm/internal/notify"
	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/proc"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/stderr"
)

// stderrBuffer bounds the captured lines waiting for the UI.
const stderrBuffer = 64

// runtime holds the collaborators built from the config for one run.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error

	resolver *resolver.Resolver
	backend  *player.MPVBackend
	player   *player.Controller
	state    state.Interface // nil when history is off or unavailable
	notifier *notify.NowPlaying

	warnings []string
}

// start loads the config, builds the runtime and runs req.
func start(ctx context.Context, c *command, req request) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return &fatalError{op: errmsg.OpConfigLoad, context: c.configPath, err: err}
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return &fatalError{op: errmsg.OpInitialize, err: err}
	}
	defer rt.Close()

	if req.Limit <= 0 {
		req.Limit = cfg.Resolver.SearchLimit
	}
	rt.log.Info("starting",
		zap.String("version", version),
		zap.String("query", req.Query),
		zap.String("url", req.URL),
		zap.Bool("one_shot", req.oneShot()),
	)

	if req.oneShot() {
		return rt.playOnce(ctx, req)
	}
	return rt.interactive(ctx, req)
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	log, closeLog, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		OutputPath: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log, closeLog: closeLog}

	if cfg.HistoryEnabled() {
		st, err := state.Open()
		if err != nil {
			log.Warn("history unavailable", zap.Error(err))
			rt.warnings = append(rt.warnings, errmsg.Format(errmsg.OpHistoryLoad, err)+", history is off")
		} else {
			rt.state = st
		}
	}

	rt.resolver = resolver.New(resolver.Config{
		Tool:      cfg.Resolver.YtDlpPath,
		Timeout:   cfg.Resolver.Timeout,
		Format:    cfg.Resolver.Format,
		ExtraArgs: cfg.Resolver.ExtraArgs,
	}, proc.ExecRunner{Timeout: cfg.Resolver.Timeout}, log)

	rt.backend = player.NewMPVBackend(player.MPVConfig{
		Path:      cfg.Player.MPVPath,
		ExtraArgs: cfg.Player.ExtraArgs,
	}, log)
	rt.player = player.New(rt.backend, player.Options{
		LoadTimeout: cfg.Player.LoadTimeout,
		StopGrace:   cfg.Player.StopGrace,
		Volume:      rt.initialVolume(),
	}, log)

	if cfg.NotificationsEnabled() {
		n, err := notify.New("ytm")
		if err != nil {
			log.Warn("notifications unavailable", zap.Error(err))
		} else {
			rt.notifier = notify.NewNowPlaying(n)
		}
	}

	return rt, nil
}

// initialVolume prefers the volume saved by the last session.
func (rt *runtime) initialVolume() int {
	if rt.state != nil {
		v, ok, err := rt.state.GetVolume()
		if err != nil {
			rt.log.Warn("failed to read saved volume", zap.Error(err))
		} else if ok && v > 0 {
			return v
		}
	}
	return rt.cfg.Player.Volume
}

// missingTools reports the external executables that cannot be found.
func (rt *runtime) missingTools() []string {
	var missing []string
	if !rt.resolver.Available() {
		missing = append(missing, fmt.Sprintf("%s not found, searches will fail", rt.resolver.Tool()))
	}
	if !rt.backend.Available() {
		missing = append(missing, fmt.Sprintf("%s not found, playback will fail", rt.backend.Path()))
	}
	return missing
}

func (rt *runtime) deps(lines <-chan string) app.Deps {
	deps := app.Deps{
		Resolver: rt.resolver,
		Player:   rt.player,
		Stderr:   lines,
		Log:      rt.log,
	}
	if rt.state != nil {
		deps.State = rt.state
	}
	if rt.notifier != nil {
		deps.Notifier = rt.notifier
	}
	return deps
}

// interactive runs the session loop until the user quits or ctx is done.
func (rt *runtime) interactive(ctx context.Context, req request) error {
	lines, stopCapture := rt.captureStderr()
	defer stopCapture()

	missing := rt.missingTools()
	for _, w := range missing {
		rt.log.Warn("missing tool", zap.String("warning", w))
	}

	m := app.New(ctx, rt.deps(lines), app.Options{
		SearchLimit:  req.Limit,
		HistoryLimit: rt.cfg.History.Limit,
		Parser: session.Parser{
			SeekStep:   rt.cfg.Player.SeekStep,
			VolumeStep: rt.cfg.Player.VolumeStep,
		},
		Warnings: append(missing, rt.warnings...),
		Query:    req.Query,
	})
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())

	defer rt.startMPRIS(func() error {
		p.Send(app.NextMsg{})
		return nil
	})()

	_, err := p.Run()
	return err
}

// playOnce resolves and plays one track, then returns.
func (rt *runtime) playOnce(ctx context.Context, req request) error {
	lines, stopCapture := rt.captureStderr()
	defer stopCapture()

	o := app.NewOneShot(ctx, rt.deps(lines), req.target(), rt.cfg.Player.SeekStep)
	p := tea.NewProgram(o, tea.WithContext(ctx))

	defer rt.startMPRIS(nil)()

	if _, err := p.Run(); err != nil {
		return err
	}
	if err := o.Err(); err != nil {
		return &fatalError{op: oneShotOp(err, req.target()), context: req.subject(), err: err}
	}
	return nil
}

// startMPRIS exposes the player on the session bus when enabled. The
// returned function stops it.
func (rt *runtime) startMPRIS(next func() error) func() {
	if !rt.cfg.MPRISEnabled() {
		return func() {}
	}
	adapter, err := mpris.New(rt.player, next)
	if err != nil {
		rt.log.Warn(errmsg.Format(errmsg.OpMPRIS, err))
		return func() {}
	}
	return func() {
		if err := adapter.Close(); err != nil {
			rt.log.Debug("failed to stop MPRIS", zap.Error(err))
		}
	}
}

// captureStderr redirects fd 2 into a channel the UI prints from, so stray
// writes do not corrupt the screen. The returned function restores fd 2.
func (rt *runtime) captureStderr() (<-chan string, func()) {
	lines := make(chan string, stderrBuffer)
	capture, err := stderr.Start(func(line string) {
		select {
		case lines <- line:
		default:
			rt.log.Warn("stderr line dropped", zap.String("line", line))
		}
	})
	if err != nil {
		rt.log.Warn("stderr capture unavailable", zap.Error(err))
		return nil, func() {}
	}
	return lines, func() {
		capture.Stop()
		close(lines)
	}
}

// Close reaps the playback process and releases the stores.
func (rt *runtime) Close() {
	rt.player.Close()
	if rt.notifier != nil {
		if err := rt.notifier.Dismiss(); err != nil {
			rt.log.Debug("failed to dismiss notification", zap.Error(err))
		}
	}
	if rt.state != nil {
		if err := rt.state.Close(); err != nil {
			rt.log.Warn("failed to close state", zap.Error(err))
		}
	}
	_ = rt.closeLog()
}
