package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/proc"
)

// fakeRunner records invocations and returns canned output.
type fakeRunner struct {
	stdout string
	stderr string
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (proc.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return proc.Result{Stdout: []byte(f.stdout), Stderr: []byte(f.stderr)}, f.err
}

func flatLine(id, title string, dur int) string {
	return fmt.Sprintf(`{"id":%q,"title":%q,"duration":%d,"url":"https://www.youtube.com/watch?v=%s","channel":"chan-%s"}`,
		id, title, dur, id, id)
}

func newTestResolver(r *fakeRunner) *Resolver {
	return New(Config{}, r, nil)
}

func TestSearch_PreservesToolOrder(t *testing.T) {
	runner := &fakeRunner{stdout: strings.Join([]string{
		flatLine("c", "Third-ranked title", 60),
		flatLine("a", "First-ranked title", 120),
		flatLine("b", "Second-ranked title", 180),
	}, "\n") + "\n"}
	r := newTestResolver(runner)

	res, err := r.Search(context.Background(), "lofi beats", 5)

	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "lofi beats", res.Query)
	assert.Equal(t, []string{"c", "a", "b"}, ids(res))
	assert.Equal(t, "chan-a", res.Tracks[1].Uploader)
	assert.Equal(t, 2*time.Minute, res.Tracks[1].Duration)
	assert.Equal(t, "https://www.youtube.com/watch?v=a", res.Tracks[1].URL)
	assert.False(t, res.Tracks[1].IsResolved())
}

func TestSearch_NeverExceedsLimit(t *testing.T) {
	var lines []string
	for i := range 8 {
		lines = append(lines, flatLine(fmt.Sprintf("id%d", i), "t", 10))
	}
	for _, limit := range []int{0, 1, 3, 8, 20} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			runner := &fakeRunner{stdout: strings.Join(lines, "\n")}
			r := newTestResolver(runner)

			res, err := r.Search(context.Background(), "q", limit)

			require.NoError(t, err)
			assert.LessOrEqual(t, res.Len(), limit)
			for i, tr := range res.Tracks {
				assert.Equal(t, fmt.Sprintf("id%d", i), tr.ID, "order must be preserved")
			}
		})
	}
}

func TestSearch_ZeroLimitDoesNotRunTool(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestResolver(runner)

	res, err := r.Search(context.Background(), "anything", 0)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Empty(t, runner.calls)
}

func TestSearch_BuildsArguments(t *testing.T) {
	runner := &fakeRunner{}
	r := New(Config{Tool: "/opt/yt-dlp", ExtraArgs: []string{"--proxy", "socks5://x"}}, runner, nil)

	_, err := r.Search(context.Background(), "  -o evil  ", 7)

	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/opt/yt-dlp", call[0])
	assert.Contains(t, call, "--flat-playlist")
	assert.Contains(t, call, "--proxy")
	// The query follows "--" so it is never parsed as an option.
	assert.Equal(t, []string{"--", "ytsearch7:-o evil"}, call[len(call)-2:])
}

func TestSearch_EmptyOutputIsNoMatches(t *testing.T) {
	r := newTestResolver(&fakeRunner{stdout: "\n"})

	res, err := r.Search(context.Background(), "zzzz", 5)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.NotNil(t, res.Tracks)
}

func TestSearch_InvalidRequests(t *testing.T) {
	r := newTestResolver(&fakeRunner{})

	_, err := r.Search(context.Background(), "   ", 5)
	assert.True(t, IsKind(err, KindInvalidRequest), "blank query: %v", err)

	_, err = r.Search(context.Background(), "q", -1)
	assert.True(t, IsKind(err, KindInvalidRequest), "negative limit: %v", err)
}

func TestSearch_MalformedOutput(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{"not json", "WARNING: something\n"},
		{"one bad line among good", flatLine("a", "t", 1) + "\n{broken\n"},
		{"missing id", `{"title":"no id"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(&fakeRunner{stdout: tt.stdout})

			res, err := r.Search(context.Background(), "q", 5)

			assert.True(t, IsKind(err, KindMalformedOutput), "err = %v", err)
			assert.Equal(t, 0, res.Len())
		})
	}
}

func TestSearch_ToolMissing(t *testing.T) {
	r := newTestResolver(&fakeRunner{err: fmt.Errorf("yt-dlp: %w", proc.ErrNotFound)})

	_, err := r.Search(context.Background(), "q", 5)

	assert.True(t, IsKind(err, KindToolMissing), "err = %v", err)
	assert.ErrorIs(t, err, proc.ErrNotFound)
}

func TestSearch_ToolFailure(t *testing.T) {
	r := newTestResolver(&fakeRunner{
		stderr: "ERROR: Unable to download API page: HTTP Error 503\n",
		err:    &proc.ExitError{Name: "yt-dlp", Code: 1},
	})

	_, err := r.Search(context.Background(), "q", 5)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindToolFailed, rerr.Kind)
	assert.Equal(t, "Unable to download API page: HTTP Error 503", rerr.Reason)
}

func TestSearch_TimeoutIsNotResolutionError(t *testing.T) {
	r := newTestResolver(&fakeRunner{err: &proc.TimeoutError{Name: "yt-dlp", After: 30 * time.Second}})

	_, err := r.Search(context.Background(), "q", 5)

	var timeoutErr *proc.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	var rerr *Error
	assert.False(t, errors.As(err, &rerr))
}

func TestResolve_SingleItem(t *testing.T) {
	runner := &fakeRunner{stdout: `{"id":"xyz","title":"Song","duration":212.5,` +
		`"url":"https://media.example/audio.webm","webpage_url":"https://www.youtube.com/watch?v=xyz","uploader":"Someone"}`}
	r := newTestResolver(runner)

	track, err := r.Resolve(context.Background(), "https://youtu.be/xyz")

	require.NoError(t, err)
	assert.Equal(t, "xyz", track.ID)
	assert.Equal(t, "Song", track.Title)
	assert.Equal(t, "Someone", track.Uploader)
	assert.Equal(t, "https://www.youtube.com/watch?v=xyz", track.URL)
	assert.Equal(t, "https://media.example/audio.webm", track.StreamURL)
	assert.Equal(t, 212500*time.Millisecond, track.Duration)

	call := runner.calls[0]
	assert.Contains(t, call, "--no-playlist")
	assert.Equal(t, []string{"-f", DefaultFormat}, call[5:7])
	assert.Equal(t, "https://youtu.be/xyz", call[len(call)-1])
}

func TestResolve_RequestedFormatsFallback(t *testing.T) {
	r := newTestResolver(&fakeRunner{stdout: `{"id":"v","requested_formats":[` +
		`{"url":"https://media/video","acodec":"none"},{"url":"https://media/audio","acodec":"opus"}]}`})

	track, err := r.Resolve(context.Background(), "https://example.com/v")

	require.NoError(t, err)
	assert.Equal(t, "https://media/audio", track.StreamURL)
	assert.Equal(t, "https://example.com/v", track.URL)
}

func TestResolve_BadURLNeverRunsTool(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://example.com/x", "https://", "/relative/path"} {
		runner := &fakeRunner{}
		r := newTestResolver(runner)

		_, err := r.Resolve(context.Background(), raw)

		assert.True(t, IsKind(err, KindBadURL), "%q: err = %v", raw, err)
		assert.Empty(t, runner.calls, "%q: tool must not run", raw)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	r := newTestResolver(&fakeRunner{stdout: `{"id":"a","url":"https://m/a"}` + "\n" + `{"id":"b","url":"https://m/b"}`})

	_, err := r.Resolve(context.Background(), "https://example.com/list")

	assert.True(t, IsKind(err, KindAmbiguous), "err = %v", err)
}

func TestResolve_NoStreamURL(t *testing.T) {
	r := newTestResolver(&fakeRunner{stdout: `{"id":"a","title":"t"}`})

	_, err := r.Resolve(context.Background(), "https://example.com/a")

	assert.True(t, IsKind(err, KindMalformedOutput), "err = %v", err)
}

func TestResolve_EmptyOutput(t *testing.T) {
	r := newTestResolver(&fakeRunner{})

	_, err := r.Resolve(context.Background(), "https://example.com/a")

	assert.True(t, IsKind(err, KindMalformedOutput), "err = %v", err)
}

func TestResolve_ToolReportedFailures(t *testing.T) {
	tests := []struct {
		stderr string
		want   Kind
	}{
		{"ERROR: [youtube] deleted: Video unavailable. This video has been removed by the uploader", KindUnavailable},
		{"ERROR: [youtube] abc: Private video. Sign in if you've been granted access", KindUnavailable},
		{"WARNING: x\nERROR: Unsupported URL: https://example.com/page", KindUnsupported},
		{"ERROR: something else went wrong", KindToolFailed},
	}
	for _, tt := range tests {
		r := newTestResolver(&fakeRunner{stderr: tt.stderr, err: &proc.ExitError{Name: "yt-dlp", Code: 1}})

		_, err := r.Resolve(context.Background(), "https://example.com/video/deleted")

		assert.True(t, IsKind(err, tt.want), "stderr %q: err = %v, want kind %v", tt.stderr, err, tt.want)
	}
}

func TestResolveTrack_SkipsResolvedTracks(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestResolver(runner)
	in := searchTrackFixture()
	in.StreamURL = "https://media/already"

	out, err := r.ResolveTrack(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Empty(t, runner.calls)
}

func TestResolveTrack_ResolvesPageURL(t *testing.T) {
	runner := &fakeRunner{stdout: `{"id":"a","title":"t","url":"https://media/a"}`}
	r := newTestResolver(runner)

	out, err := r.ResolveTrack(context.Background(), searchTrackFixture())

	require.NoError(t, err)
	assert.Equal(t, "https://media/a", out.StreamURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=a", runner.calls[0][len(runner.calls[0])-1])
}

func TestSearchResult_At(t *testing.T) {
	res := SearchResult{Tracks: []playlist.Track{{ID: "a"}}}

	tr, ok := res.At(0)
	assert.True(t, ok)
	assert.Equal(t, "a", tr.ID)

	_, ok = res.At(1)
	assert.False(t, ok)
	_, ok = res.At(-1)
	assert.False(t, ok)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "unavailable", KindUnavailable.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func searchTrackFixture() playlist.Track {
	return playlist.Track{ID: "a", Title: "t", URL: "https://www.youtube.com/watch?v=a"}
}

func ids(res SearchResult) []string {
	out := make([]string, len(res.Tracks))
	for i, t := range res.Tracks {
		out[i] = t.ID
	}
	return out
}
