package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that override the config files.
const (
	EnvYtDlp    = "YTM_YTDLP"
	EnvMPV      = "YTM_MPV"
	EnvLogLevel = "YTM_LOG_LEVEL"
)

type Config struct {
	// Extraction tool settings
	Resolver ResolverConfig `koanf:"resolver"`

	// Playback process settings
	Player PlayerConfig `koanf:"player"`

	// Log file settings (the terminal belongs to the UI)
	Log LogConfig `koanf:"log"`

	// Play history (enabled by default)
	History HistoryConfig `koanf:"history"`

	// Desktop notifications and MPRIS (Linux only)
	Desktop DesktopConfig `koanf:"desktop"`
}

// ResolverConfig holds yt-dlp settings.
type ResolverConfig struct {
	YtDlpPath   string        `koanf:"ytdlp_path"`   // default: "yt-dlp" from PATH
	SearchLimit int           `koanf:"search_limit"` // results per search (default: 10)
	Timeout     time.Duration `koanf:"timeout"`      // per invocation (default: 30s)
	Format      string        `koanf:"format"`       // format selector (default: "bestaudio/best")
	ExtraArgs   []string      `koanf:"extra_args"`
}

// PlayerConfig holds mpv settings.
type PlayerConfig struct {
	MPVPath     string        `koanf:"mpv_path"`     // default: "mpv" from PATH
	LoadTimeout time.Duration `koanf:"load_timeout"` // until audio starts (default: 10s)
	StopGrace   time.Duration `koanf:"stop_grace"`   // SIGTERM to SIGKILL (default: 3s)
	SeekStep    time.Duration `koanf:"seek_step"`    // :f / :b without argument (default: 10s)
	Volume      int           `koanf:"volume"`       // initial volume 0-150 (default: 100)
	VolumeStep  int           `koanf:"volume_step"`  // :+ / :- without argument (default: 5)
	ExtraArgs   []string      `koanf:"extra_args"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level      string `koanf:"level"`        // debug, info, warn, error (default: info)
	File       string `koanf:"file"`         // default: $XDG_STATE_HOME/ytm/ytm.log
	MaxSizeMB  int    `koanf:"max_size_mb"`  // default: 10
	MaxBackups int    `koanf:"max_backups"`  // default: 3
	MaxAgeDays int    `koanf:"max_age_days"` // default: 28
}

// HistoryConfig holds play history settings.
type HistoryConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
	Limit   int   `koanf:"limit"`   // entries shown by :history (default: 20)
}

// DesktopConfig holds desktop integration settings.
type DesktopConfig struct {
	Notifications *bool `koanf:"notifications"` // default: true
	MPRIS         *bool `koanf:"mpris"`         // default: true
}

// Load reads the config files, the .env file of the working directory and
// the YTM_* environment variables. explicit, when set, is loaded last and
// must exist.
func Load(explicit string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	paths := getConfigPaths()
	if explicit != "" {
		explicit = expandPath(explicit)
		if _, err := os.Stat(explicit); err != nil {
			return nil, err
		}
		paths = append(paths, explicit)
	}
	return loadFrom(paths, os.Getenv)
}

func loadFrom(paths []string, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if v := getenv(EnvYtDlp); v != "" {
		cfg.Resolver.YtDlpPath = v
	}
	if v := getenv(EnvMPV); v != "" {
		cfg.Player.MPVPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	cfg.normalize()
	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/ytm/config.toml
		filepath.Join(xdg.ConfigHome, "ytm", "config.toml"),
		// 2. ./config.toml (pwd, higher priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// normalize applies defaults and clamps out-of-range values.
func (c *Config) normalize() {
	r := &c.Resolver
	r.YtDlpPath = expandPath(r.YtDlpPath)
	if r.YtDlpPath == "" {
		r.YtDlpPath = "yt-dlp"
	}
	if r.SearchLimit <= 0 || r.SearchLimit > 50 {
		r.SearchLimit = 10
	}
	if r.Timeout <= 0 {
		r.Timeout = 30 * time.Second
	}
	if r.Format == "" {
		r.Format = "bestaudio/best"
	}

	p := &c.Player
	p.MPVPath = expandPath(p.MPVPath)
	if p.MPVPath == "" {
		p.MPVPath = "mpv"
	}
	if p.LoadTimeout <= 0 {
		p.LoadTimeout = 10 * time.Second
	}
	if p.StopGrace <= 0 {
		p.StopGrace = 3 * time.Second
	}
	if p.SeekStep <= 0 {
		p.SeekStep = 10 * time.Second
	}
	if p.Volume <= 0 || p.Volume > 150 {
		p.Volume = 100
	}
	if p.VolumeStep <= 0 {
		p.VolumeStep = 5
	}

	l := &c.Log
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		l.File = filepath.Join(xdg.StateHome, "ytm", "ytm.log")
	}
	l.File = expandPath(l.File)
	if l.MaxSizeMB <= 0 {
		l.MaxSizeMB = 10
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = 3
	}
	if l.MaxAgeDays <= 0 {
		l.MaxAgeDays = 28
	}

	if c.History.Limit <= 0 {
		c.History.Limit = 20
	}
}

// HistoryEnabled returns true unless history is explicitly disabled.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// NotificationsEnabled returns true unless notifications are explicitly disabled.
func (c *Config) NotificationsEnabled() bool {
	return c.Desktop.Notifications == nil || *c.Desktop.Notifications
}

// MPRISEnabled returns true unless MPRIS is explicitly disabled.
func (c *Config) MPRISEnabled() bool {
	return c.Desktop.MPRIS == nil || *c.Desktop.MPRIS
}
