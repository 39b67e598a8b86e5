package state

import (
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/ytm/internal/playlist"
)

// setupTestManager creates a Manager on an in-memory SQLite database with a
// controllable clock.
func setupTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()

	m, err := open(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func track(id string) playlist.Track {
	return playlist.Track{
		ID:        id,
		Title:     "Title " + id,
		Uploader:  "Channel " + id,
		Duration:  3*time.Minute + 5*time.Second,
		URL:       "https://www.youtube.com/watch?v=" + id,
		StreamURL: "https://media.example/" + id,
	}
}

// TestRecentPlays_Empty tests reading history from an empty database.
func TestRecentPlays_Empty(t *testing.T) {
	m, _ := setupTestManager(t)

	plays, err := m.RecentPlays(10)
	if err != nil {
		t.Fatalf("RecentPlays failed: %v", err)
	}
	if len(plays) != 0 {
		t.Errorf("expected no plays, got %d", len(plays))
	}
}

// TestRecordPlay_RoundTrip tests that a recorded play comes back without its stream URL.
func TestRecordPlay_RoundTrip(t *testing.T) {
	m, clock := setupTestManager(t)

	if err := m.RecordPlay(track("a")); err != nil {
		t.Fatalf("RecordPlay failed: %v", err)
	}

	plays, err := m.RecentPlays(10)
	if err != nil {
		t.Fatalf("RecentPlays failed: %v", err)
	}
	if len(plays) != 1 {
		t.Fatalf("expected 1 play, got %d", len(plays))
	}

	got := plays[0]
	want := track("a")
	want.StreamURL = ""
	if got.Track != want {
		t.Errorf("track = %+v, want %+v", got.Track, want)
	}
	if !got.PlayedAt.Equal(*clock) {
		t.Errorf("PlayedAt = %v, want %v", got.PlayedAt, *clock)
	}
	if got.Count != 1 {
		t.Errorf("Count = %d, want 1", got.Count)
	}
}

// TestRecentPlays_OrderAndDistinct tests most-recent-first ordering with repeated tracks collapsed.
func TestRecentPlays_OrderAndDistinct(t *testing.T) {
	m, clock := setupTestManager(t)

	for _, id := range []string{"a", "b", "a", "c"} {
		*clock = clock.Add(time.Minute)
		if err := m.RecordPlay(track(id)); err != nil {
			t.Fatalf("RecordPlay(%s) failed: %v", id, err)
		}
	}

	plays, err := m.RecentPlays(10)
	if err != nil {
		t.Fatalf("RecentPlays failed: %v", err)
	}

	var ids []string
	for _, p := range plays {
		ids = append(ids, p.Track.ID)
	}
	want := []string{"c", "a", "b"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
	if plays[1].Count != 2 {
		t.Errorf("Count for a = %d, want 2", plays[1].Count)
	}
}

// TestRecentPlays_Limit tests that the limit is honoured.
func TestRecentPlays_Limit(t *testing.T) {
	m, clock := setupTestManager(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		*clock = clock.Add(time.Second)
		if err := m.RecordPlay(track(id)); err != nil {
			t.Fatalf("RecordPlay failed: %v", err)
		}
	}

	plays, err := m.RecentPlays(2)
	if err != nil {
		t.Fatalf("RecentPlays failed: %v", err)
	}
	if len(plays) != 2 || plays[0].Track.ID != "d" || plays[1].Track.ID != "c" {
		t.Errorf("unexpected plays: %+v", plays)
	}

	plays, err = m.RecentPlays(0)
	if err != nil || plays != nil {
		t.Errorf("RecentPlays(0) = %v, %v; want nil, nil", plays, err)
	}
}

// TestVolume tests saving and restoring the volume.
// TestRecordPlay_PrunesOldest tests that the history keeps only the newest rows.
func TestRecordPlay_PrunesOldest(t *testing.T) {
	m, clock := setupTestManager(t)
	m.historyCap = 3

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		*clock = clock.Add(time.Minute)
		if err := m.RecordPlay(track(id)); err != nil {
			t.Fatalf("RecordPlay(%s) failed: %v", id, err)
		}
	}

	var rows int
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM play_history`).Scan(&rows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 3 {
		t.Errorf("rows = %d, want 3", rows)
	}

	plays, err := m.RecentPlays(10)
	if err != nil {
		t.Fatalf("RecentPlays failed: %v", err)
	}
	var ids []string
	for _, p := range plays {
		ids = append(ids, p.Track.ID)
	}
	if got, want := strings.Join(ids, ","), "e,d,c"; got != want {
		t.Errorf("ids = %s, want %s", got, want)
	}
}

func TestVolume(t *testing.T) {
	m, _ := setupTestManager(t)

	_, ok, err := m.GetVolume()
	if err != nil {
		t.Fatalf("GetVolume failed: %v", err)
	}
	if ok {
		t.Error("expected no saved volume on empty db")
	}

	for _, v := range []int{80, 35} {
		if err := m.SaveVolume(v); err != nil {
			t.Fatalf("SaveVolume(%d) failed: %v", v, err)
		}
	}

	v, ok, err := m.GetVolume()
	if err != nil {
		t.Fatalf("GetVolume failed: %v", err)
	}
	if !ok || v != 35 {
		t.Errorf("GetVolume = %d, %v; want 35, true", v, ok)
	}
}

// TestInitSchema_Idempotent tests that the schema can be applied twice.
func TestInitSchema_Idempotent(t *testing.T) {
	m, _ := setupTestManager(t)

	if err := initSchema(m.db); err != nil {
		t.Fatalf("second initSchema failed: %v", err)
	}
}

func TestMock_RecentPlays(t *testing.T) {
	m := NewMock()
	_ = m.RecordPlay(track("a"))
	_ = m.RecordPlay(track("b"))

	plays, _ := m.RecentPlays(5)
	if len(plays) != 2 || plays[0].Track.ID != "b" {
		t.Errorf("unexpected plays: %+v", plays)
	}
	if plays, _ := m.RecentPlays(-1); len(plays) != 0 {
		t.Errorf("RecentPlays(-1) returned %d plays", len(plays))
	}
}
