package playlist

// PlayingQueue is the list of tracks lined up with :add, plus the position of
// the one most recently taken from it. It lives only as long as the session.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int // -1 if nothing taken yet
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
	}
}

// Next advances to the next track and returns it.
// Returns nil if there is no next track.
func (q *PlayingQueue) Next() *Track {
	if !q.HasNext() {
		return nil
	}
	q.currentIndex++
	return q.playlist.Track(q.currentIndex)
}

// HasNext returns true if there's a track after the current one.
func (q *PlayingQueue) HasNext() bool {
	return q.currentIndex < q.playlist.Len()-1
}

// Add appends tracks to the queue without changing the position.
func (q *PlayingQueue) Add(tracks ...Track) {
	q.playlist.Add(tracks...)
}

// Upcoming returns a copy of the tracks after the current position.
func (q *PlayingQueue) Upcoming() []Track {
	all := q.playlist.Tracks()
	return all[q.currentIndex+1:]
}

// RemoveAt removes the i-th upcoming track (0-based) and returns it.
// Tracks already taken are out of reach.
func (q *PlayingQueue) RemoveAt(i int) (Track, bool) {
	if i < 0 {
		return Track{}, false
	}
	index := q.currentIndex + 1 + i
	t := q.playlist.Track(index)
	if t == nil || !q.playlist.Remove(index) {
		return Track{}, false
	}
	return *t, true
}

// Clear drops every track and resets the position. It returns how many
// tracks were still waiting.
func (q *PlayingQueue) Clear() int {
	n := len(q.Upcoming())
	q.playlist.Clear()
	q.currentIndex = -1
	return n
}
