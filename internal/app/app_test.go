package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/proc"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
)

func TestSession_LofiBeatsScenario(t *testing.T) {
	f := newFixture(t, lofiRunner())

	f.submit(t, "lofi beats")
	out := f.output()
	assert.Contains(t, out, "1. lofi beats to relax · Lofi Girl")
	assert.Contains(t, out, "2. lofi beats to study · Chillhop")
	assert.Contains(t, out, "3. late night lofi beats · Dreamy")
	assert.Empty(t, f.player.PlayCalls(), "searching must not start playback")

	f.submit(t, "2")
	calls := f.player.PlayCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bbb", calls[0].ID)
	assert.Equal(t, "https://rr.example/bbb.webm", calls[0].StreamURL)
	assert.Equal(t, player.Playing, f.player.State())
	assert.Contains(t, f.output(), "▶ lofi beats to study")

	id := f.player.SessionID()
	assert.Equal(t, id, f.model.sessionID)

	f.submit(t, ":p")
	assert.Equal(t, player.Paused, f.player.State())

	f.submit(t, ":r")
	assert.Equal(t, player.Playing, f.player.State())
	assert.Equal(t, id, f.player.SessionID(), "resume must keep the same session")
	assert.Len(t, f.player.PlayCalls(), 1, "resume must not relaunch")

	plays := f.state.Plays()
	require.Len(t, plays, 1)
	assert.Equal(t, "bbb", plays[0].Track.ID)

	quit := f.submit(t, ":q")
	assert.True(t, quit)
	assert.Equal(t, player.Idle, f.player.State())
}

func TestSession_OutOfRangeSelectionNeverPlays(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")

	f.submit(t, "7")

	assert.Contains(t, f.output(), "choose a result between 1 and 3")
	assert.Empty(t, f.player.PlayCalls())
	assert.Equal(t, player.Idle, f.player.State())
}

func TestSession_SelectBeforeSearch(t *testing.T) {
	f := newFixture(t, lofiRunner())

	f.submit(t, "1")

	assert.Contains(t, f.output(), "no results to choose from")
	assert.Empty(t, f.player.PlayCalls())
	assert.Zero(t, f.runner.callCount())
}

func TestSession_UnknownCommand(t *testing.T) {
	f := newFixture(t, lofiRunner())

	quit := f.submit(t, ":bogus")

	assert.False(t, quit)
	assert.Contains(t, f.output(), ":bogus: unknown command")
	assert.Zero(t, f.runner.callCount())
}

func TestSession_SearchFailureIsReported(t *testing.T) {
	runner := &scriptedRunner{
		searchErr: &proc.ExitError{Name: "yt-dlp", Code: 1, Stderr: "ERROR: Unable to download webpage"},
	}
	f := newFixture(t, runner)

	f.submit(t, "anything")

	assert.Contains(t, f.output(), "Failed to search 'anything'")
	assert.Empty(t, f.model.session.Results().Tracks)
}

func TestSession_NoResults(t *testing.T) {
	f := newFixture(t, &scriptedRunner{})

	f.submit(t, "nothing matches this")

	assert.Contains(t, f.output(), `no results for "nothing matches this"`)
}

func TestSession_StaleSearchIsIgnored(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.model.searchSeq = 5

	f.send(t, SearchDoneMsg{Seq: 4, Query: "old", Result: resolver.SearchResult{
		Query:  "old",
		Tracks: []playlist.Track{{ID: "old", Title: "old result"}},
	}})

	assert.NotContains(t, f.output(), "old result")
	assert.Zero(t, f.model.session.Results().Len())
}

func TestSession_PlaybackFailureAtStart(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.player.SetPlayError(&player.PlaybackError{
		Track:    playlist.Track{ID: "aaa"},
		ExitCode: 2,
		Err:      errors.New("exited before playback started"),
	})
	f.submit(t, "lofi beats")

	f.submit(t, "1")

	assert.Contains(t, f.output(), "Failed to start playback 'lofi beats to relax'")
	assert.Equal(t, player.Idle, f.player.State())
	assert.Empty(t, f.state.Plays())

	f.player.SetPlayError(nil)
	f.submit(t, "2")
	assert.Equal(t, player.Playing, f.player.State(), "the loop keeps accepting commands")
}

func TestSession_UnavailableSelectionIsReported(t *testing.T) {
	runner := lofiRunner()
	runner.resolveErr = map[string]string{
		watchURL("ccc"): "ERROR: [youtube] ccc: Video unavailable. This video has been removed by the uploader",
	}
	f := newFixture(t, runner)
	f.submit(t, "lofi beats")

	f.submit(t, "3")

	assert.Contains(t, f.output(), "unavailable: [youtube] ccc: Video unavailable")
	assert.Empty(t, f.player.PlayCalls())
}

func TestSession_QueueAndAutoAdvance(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")

	f.submit(t, ":a 1")
	require.Len(t, f.player.PlayCalls(), 1, "adding to an idle player starts it")
	assert.Equal(t, "aaa", f.player.PlayCalls()[0].ID)

	f.submit(t, ":a 3")
	assert.Len(t, f.player.PlayCalls(), 1)
	assert.Contains(t, f.output(), "queued late night lofi beats (1 waiting)")

	f.submit(t, ":queue")
	assert.Contains(t, f.output(), "1. late night lofi beats")

	ev := f.finish(player.EventEnded)
	f.send(t, PlayerEventMsg{Event: ev, Open: true})

	calls := f.player.PlayCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ccc", calls[1].ID)
	assert.Contains(t, f.output(), "finished lofi beats to relax")
	assert.Empty(t, f.model.session.Queued())
}

func TestSession_RemoveAndClearQueue(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")
	f.submit(t, ":a 2")
	f.submit(t, ":a 3")

	f.submit(t, ":rm 1")
	assert.Contains(t, f.output(), "removed lofi beats to study (1 waiting)")
	queued := f.model.session.Queued()
	require.Len(t, queued, 1)
	assert.Equal(t, "ccc", queued[0].ID)

	f.submit(t, ":rm 5")
	assert.Contains(t, f.output(), "choose a queued track between 1 and 1")

	f.submit(t, ":clear")
	assert.Contains(t, f.output(), "cleared 1 queued track")
	assert.Empty(t, f.model.session.Queued())
	assert.Zero(t, f.model.bar.Queued)

	f.submit(t, ":rm 1")
	assert.Contains(t, f.output(), "the queue is empty")
	assert.Len(t, f.player.PlayCalls(), 1, "queue edits never touch playback")
	assert.Equal(t, player.Playing, f.player.State())
}

func TestSession_TrackEndingWhileLoadingStillAdvances(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	_, err := f.model.session.Enqueue(1)
	require.NoError(t, err)

	f.player.SetEndOnPlay(true)
	f.submit(t, "1")
	f.player.SetEndOnPlay(false)

	ev := <-f.player.Events()
	require.Equal(t, player.EventEnded, ev.Kind)
	assert.Equal(t, ev.SessionID, f.model.sessionID, "the ended session must still be the current one")

	f.send(t, PlayerEventMsg{Event: ev, Open: true})

	calls := f.player.PlayCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "bbb", calls[1].ID)
	assert.Contains(t, f.output(), "finished lofi beats to relax")
}

func TestSession_NextWithEmptyQueueStops(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")

	f.submit(t, ":n")

	assert.Equal(t, player.Idle, f.player.State())
	assert.Contains(t, f.output(), "queue is empty, stopping")
}

func TestSession_NextMsgFromOutside(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")
	f.submit(t, ":a 2")

	f.send(t, NextMsg{})

	calls := f.player.PlayCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "bbb", calls[1].ID)
}

func TestSession_EventsOfOldSessionsAreIgnored(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")
	f.submit(t, ":a 2")

	f.send(t, PlayerEventMsg{Event: player.Event{SessionID: uuid.New(), Kind: player.EventEnded}, Open: true})

	assert.Len(t, f.player.PlayCalls(), 1)
	assert.Len(t, f.model.session.Queued(), 1)
}

func TestSession_FailureDuringPlaybackIsReported(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")

	ev := f.finish(player.EventFailed)
	ev.Err = &player.PlaybackError{Track: ev.Track, ExitCode: 2, Err: errors.New("stream dropped")}
	f.send(t, PlayerEventMsg{Event: ev, Open: true})

	assert.Contains(t, f.output(), "Failed to play track 'lofi beats to relax': playback failed: stream dropped")
	assert.Equal(t, player.Idle, f.model.bar.Status)
}

func TestSession_TransportWhenIdle(t *testing.T) {
	f := newFixture(t, lofiRunner())

	f.submit(t, ":p")
	f.submit(t, ":f")

	assert.Equal(t, 2, strings.Count(f.output(), "nothing is playing"))
	assert.Empty(t, f.player.SeekCalls())
}

func TestSession_SeekAndStop(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")

	f.submit(t, ":f 30")
	f.submit(t, ":b")
	assert.Equal(t, []time.Duration{30 * time.Second, -10 * time.Second}, f.player.SeekCalls())

	f.submit(t, ":s")
	assert.Equal(t, player.Idle, f.player.State())
	assert.Equal(t, player.Idle, f.model.bar.Status)
}

func TestSession_VolumeIsPersisted(t *testing.T) {
	f := newFixture(t, lofiRunner())

	f.submit(t, ":- 30")

	assert.Equal(t, 70, f.player.Volume())
	assert.Contains(t, f.output(), "volume 70%")
	v, ok, err := f.state.GetVolume()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 70, v)
}

func TestSession_HistoryIsSelectable(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "3")
	f.submit(t, "lofi beats")

	f.submit(t, ":history")
	assert.Equal(t, session.SourceHistory, f.model.session.Source())
	assert.Contains(t, f.output(), "1. late night lofi beats")

	f.submit(t, "1")
	calls := f.player.PlayCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ccc", calls[1].ID)
}

func TestSession_HistoryDisabled(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.model.deps.State = nil

	f.submit(t, ":history")

	assert.Contains(t, f.output(), "history is disabled")
}

func TestSession_Help(t *testing.T) {
	f := newFixture(t, lofiRunner())

	f.submit(t, ":help")

	out := f.output()
	for _, h := range session.Help {
		assert.Contains(t, out, h.Desc)
	}
}

func TestSession_CtrlCQuits(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.submit(t, "lofi beats")
	f.submit(t, "1")

	quit := f.send(t, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, quit)
	assert.Equal(t, player.Idle, f.player.State())
}

func TestSession_StderrLinesAreShown(t *testing.T) {
	f := newFixture(t, lofiRunner())

	next, _ := f.model.Update(StderrMsg{Line: "ALSA lib pcm.c: underrun", Open: true})
	f.model = next.(Model)

	assert.Contains(t, f.output(), "ALSA lib pcm.c: underrun")
}

func TestSession_WarningsShownAtStartup(t *testing.T) {
	m := New(t.Context(), Deps{Player: player.NewMock()}, Options{Warnings: []string{"mpv not found in PATH"}})

	out := strings.Join(m.Transcript(), "\n")
	assert.Contains(t, out, "warning: mpv not found in PATH")
}

func TestSession_QueryMsgSearches(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.send(t, QueryMsg{Query: "lofi beats"})

	out := f.output()
	assert.Contains(t, out, "› lofi beats")
	assert.Contains(t, out, "lofi beats to study")
	assert.Equal(t, 3, f.model.session.Results().Len())
}

func TestView_ShowsPromptAndBar(t *testing.T) {
	f := newFixture(t, lofiRunner())
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 10})
	f.submit(t, "lofi beats")
	f.submit(t, "2")

	lines := strings.Split(f.model.View(), "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, lines[7], "lofi beats to study")
	assert.Contains(t, lines[9], "ytm›")
}

func TestTranscript_IsBounded(t *testing.T) {
	m := New(t.Context(), Deps{Player: player.NewMock()}, Options{})
	for range maxTranscript + 50 {
		m.println("line")
	}
	assert.Len(t, m.Transcript(), maxTranscript)
}
