package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/proc"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/testutil"
)

// cmdTimeout bounds how long a command may block before it is treated as
// a watcher or timer and dropped.
const cmdTimeout = 200 * time.Millisecond

// scriptedRunner answers yt-dlp invocations: searches with searchOut,
// single-URL resolves from resolveOut keyed by URL.
type scriptedRunner struct {
	mu         sync.Mutex
	searchOut  string
	searchErr  error
	resolveOut map[string]string
	resolveErr map[string]string // URL -> stderr of a failed run
	calls      [][]string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (proc.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))

	target := args[len(args)-1]
	for _, a := range args {
		if a == "--flat-playlist" {
			return proc.Result{Stdout: []byte(r.searchOut)}, r.searchErr
		}
	}
	if stderr, ok := r.resolveErr[target]; ok {
		return proc.Result{Stderr: []byte(stderr), ExitCode: 1}, &proc.ExitError{Name: name, Code: 1, Stderr: stderr}
	}
	return proc.Result{Stdout: []byte(r.resolveOut[target])}, nil
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func flatLine(id, title, channel string, secs int) string {
	return fmt.Sprintf(`{"id":%q,"title":%q,"duration":%d,"url":"https://www.youtube.com/watch?v=%s","channel":%q}`,
		id, title, secs, id, channel)
}

func resolvedLine(id, title string, secs int) string {
	return fmt.Sprintf(`{"id":%q,"title":%q,"duration":%d,"webpage_url":"https://www.youtube.com/watch?v=%s","url":"https://rr.example/%s.webm"}`,
		id, title, secs, id, id)
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func lofiRunner() *scriptedRunner {
	return &scriptedRunner{
		searchOut: strings.Join([]string{
			flatLine("aaa", "lofi beats to relax", "Lofi Girl", 3600),
			flatLine("bbb", "lofi beats to study", "Chillhop", 245),
			flatLine("ccc", "late night lofi beats", "Dreamy", 180),
		}, "\n"),
		resolveOut: map[string]string{
			watchURL("aaa"): resolvedLine("aaa", "lofi beats to relax", 3600),
			watchURL("bbb"): resolvedLine("bbb", "lofi beats to study", 245),
			watchURL("ccc"): resolvedLine("ccc", "late night lofi beats", 180),
		},
	}
}

type fixture struct {
	model  Model
	player *player.Mock
	state  *state.Mock
	runner *scriptedRunner
}

func newFixture(t *testing.T, runner *scriptedRunner) *fixture {
	t.Helper()
	f := &fixture{
		player: player.NewMock(),
		state:  state.NewMock(),
		runner: runner,
	}
	f.model = New(context.Background(), Deps{
		Resolver: resolver.New(resolver.Config{}, runner, nil),
		Player:   f.player,
		State:    f.state,
	}, Options{Parser: session.Parser{}})
	return f
}

// submit types line and presses enter, then drives resulting commands.
func (f *fixture) submit(t *testing.T, line string) bool {
	t.Helper()
	f.model.input.SetValue(line)
	next, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, quit := drive(t, next, cmd)
	f.model = m.(Model)
	return quit
}

// send delivers msg and drives the resulting commands.
func (f *fixture) send(t *testing.T, msg tea.Msg) bool {
	t.Helper()
	next, cmd := f.model.Update(msg)
	m, quit := drive(t, next, cmd)
	f.model = m.(Model)
	return quit
}

// finish ends the mock session and takes its event off the channel, so
// only the returned copy reaches the model.
func (f *fixture) finish(kind player.EventKind) player.Event {
	ev := f.player.SimulateFinished(kind)
	<-f.player.Events()
	return ev
}

func (f *fixture) output() string {
	return testutil.StripANSI(strings.Join(f.model.Transcript(), "\n"))
}

// drive runs cmd and feeds the messages it produces back into m until no
// command is left. It reports whether the program asked to quit.
func drive(t *testing.T, m tea.Model, cmd tea.Cmd) (tea.Model, bool) {
	t.Helper()
	pending := []tea.Cmd{cmd}
	quit := false
	for round := 0; len(pending) > 0; round++ {
		if round > 50 {
			t.Fatal("command loop did not settle")
		}
		var next []tea.Cmd
		for _, c := range pending {
			for _, msg := range collect(c) {
				switch msg.(type) {
				case tea.QuitMsg:
					quit = true
					continue
				case spinner.TickMsg, TickMsg:
					continue
				}
				var out tea.Cmd
				m, out = m.Update(msg)
				next = append(next, out)
			}
		}
		pending = next
	}
	return m, quit
}

// collect runs cmd, expanding batches, and returns the messages produced
// within cmdTimeout.
func collect(cmd tea.Cmd) []tea.Msg {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out []tea.Msg
		run func(tea.Cmd)
	)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := make(chan tea.Msg, 1)
			go func() { ch <- c() }()
			select {
			case msg := <-ch:
				if batch, ok := msg.(tea.BatchMsg); ok {
					for _, bc := range batch {
						run(bc)
					}
					return
				}
				if msg != nil {
					mu.Lock()
					out = append(out, msg)
					mu.Unlock()
				}
			case <-time.After(cmdTimeout):
			}
		}()
	}
	run(cmd)
	wg.Wait()
	return out
}

func watchTrack(id string) playlist.Track {
	return playlist.Track{ID: id, Title: id, URL: watchURL(id), StreamURL: "https://rr.example/" + id + ".webm"}
}
