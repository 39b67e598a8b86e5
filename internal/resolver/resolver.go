// Package resolver turns search queries and media URLs into tracks by
// running an external extraction tool (yt-dlp).
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/proc"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultTool    = "yt-dlp"
	DefaultTimeout = 30 * time.Second
	DefaultFormat  = "bestaudio/best"
)

// SearchResult is the ordered outcome of one search. Order is the tool's
// relevance order.
type SearchResult struct {
	Query  string
	Tracks []playlist.Track
}

// Len returns the number of tracks.
func (r SearchResult) Len() int { return len(r.Tracks) }

// At returns the track at index i.
func (r SearchResult) At(i int) (playlist.Track, bool) {
	if i < 0 || i >= len(r.Tracks) {
		return playlist.Track{}, false
	}
	return r.Tracks[i], true
}

// Config controls how the extraction tool is invoked.
type Config struct {
	Tool      string        // executable name or path
	Timeout   time.Duration // bound for each invocation
	Format    string        // yt-dlp format selector for Resolve
	ExtraArgs []string      // appended before the query/URL
}

func (c Config) withDefaults() Config {
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	return c
}

// Resolver runs the extraction tool. It holds no per-request state and is
// safe for concurrent use.
type Resolver struct {
	cfg    Config
	runner proc.Runner
	log    *zap.Logger
}

// New creates a Resolver. A nil runner uses proc.ExecRunner bounded by
// cfg.Timeout; a nil logger discards logs.
func New(cfg Config, runner proc.Runner, log *zap.Logger) *Resolver {
	cfg = cfg.withDefaults()
	if runner == nil {
		runner = proc.ExecRunner{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cfg: cfg, runner: runner, log: log.Named("resolver")}
}

// Tool returns the configured extraction tool.
func (r *Resolver) Tool() string { return r.cfg.Tool }

// Available reports whether the extraction tool can be found.
func (r *Resolver) Available() bool {
	_, err := exec.LookPath(r.cfg.Tool)
	return err == nil
}

// Search returns at most limit candidates for query, in the tool's order.
// A limit of zero yields an empty result without running the tool.
// An empty result with a nil error means "no matches".
func (r *Resolver) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, &Error{Op: OpSearch, Kind: KindInvalidRequest, Reason: "empty query"}
	}
	if limit < 0 {
		return SearchResult{}, &Error{
			Op:     OpSearch,
			Input:  query,
			Kind:   KindInvalidRequest,
			Reason: fmt.Sprintf("negative limit %d", limit),
		}
	}
	result := SearchResult{Query: query, Tracks: []playlist.Track{}}
	if limit == 0 {
		return result, nil
	}

	args := []string{"--dump-json", "--flat-playlist", "--no-warnings", "--quiet"}
	args = append(args, r.cfg.ExtraArgs...)
	args = append(args, "--", fmt.Sprintf("ytsearch%d:%s", limit, query))

	out, err := r.run(ctx, OpSearch, query, args)
	if err != nil {
		return SearchResult{}, err
	}

	entries, err := parseEntries(out)
	if err != nil {
		return SearchResult{}, &Error{Op: OpSearch, Input: query, Kind: KindMalformedOutput, Reason: err.Error(), Err: err}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		result.Tracks = append(result.Tracks, e.searchTrack())
	}

	r.log.Debug("search complete", zap.String("query", query), zap.Int("results", len(result.Tracks)))
	return result, nil
}

// Resolve extracts exactly one playable track from rawURL. It never picks
// among several candidates: a URL that yields more than one item is an error.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (playlist.Track, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return playlist.Track{}, &Error{Op: OpResolve, Input: rawURL, Kind: KindBadURL, Reason: err.Error(), Err: err}
	}

	args := []string{"--dump-json", "--no-playlist", "--no-warnings", "--quiet", "-f", r.cfg.Format}
	args = append(args, r.cfg.ExtraArgs...)
	args = append(args, "--", rawURL)

	out, err := r.run(ctx, OpResolve, rawURL, args)
	if err != nil {
		return playlist.Track{}, err
	}

	entries, err := parseEntries(out)
	if err != nil {
		return playlist.Track{}, &Error{Op: OpResolve, Input: rawURL, Kind: KindMalformedOutput, Reason: err.Error(), Err: err}
	}
	switch {
	case len(entries) == 0:
		return playlist.Track{}, &Error{Op: OpResolve, Input: rawURL, Kind: KindMalformedOutput, Reason: "no item in output"}
	case len(entries) > 1:
		return playlist.Track{}, &Error{
			Op:     OpResolve,
			Input:  rawURL,
			Kind:   KindAmbiguous,
			Reason: fmt.Sprintf("%d items match", len(entries)),
		}
	}

	track := entries[0].resolvedTrack(rawURL)
	if track.StreamURL == "" {
		return playlist.Track{}, &Error{Op: OpResolve, Input: rawURL, Kind: KindMalformedOutput, Reason: "no stream URL in output"}
	}

	r.log.Debug("resolved", zap.String("url", rawURL), zap.String("id", track.ID))
	return track, nil
}

// ResolveTrack fills in the stream URL of a search result.
func (r *Resolver) ResolveTrack(ctx context.Context, t playlist.Track) (playlist.Track, error) {
	if t.IsResolved() {
		return t, nil
	}
	return r.Resolve(ctx, t.URL)
}

// run invokes the tool and maps process failures onto the error taxonomy.
// Timeouts and caller cancellation pass through unchanged.
func (r *Resolver) run(ctx context.Context, op, input string, args []string) ([]byte, error) {
	r.log.Debug("running extraction tool", zap.String("op", op), zap.Strings("args", args))

	res, err := r.runner.Run(ctx, r.cfg.Tool, args...)
	if err == nil {
		return res.Stdout, nil
	}

	var timeoutErr *proc.TimeoutError
	var exitErr *proc.ExitError
	switch {
	case errors.As(err, &timeoutErr):
		r.log.Warn("extraction tool timed out", zap.String("op", op), zap.Duration("after", timeoutErr.After))
		return nil, err
	case errors.Is(err, context.Canceled):
		return nil, err
	case errors.Is(err, proc.ErrNotFound):
		return nil, &Error{Op: op, Input: input, Kind: KindToolMissing, Reason: r.cfg.Tool + " not found in PATH", Err: err}
	case errors.As(err, &exitErr):
		stderr := string(res.Stderr)
		kind := classify(stderr)
		reason := errorLine(stderr)
		if reason == "" {
			reason = exitErr.Error()
		}
		r.log.Warn("extraction tool failed",
			zap.String("op", op),
			zap.Int("status", exitErr.Code),
			zap.Stringer("kind", kind),
			zap.String("reason", reason),
		)
		return nil, &Error{Op: op, Input: input, Kind: kind, Reason: reason, Err: err}
	default:
		return nil, &Error{Op: op, Input: input, Kind: KindToolFailed, Reason: err.Error(), Err: err}
	}
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
