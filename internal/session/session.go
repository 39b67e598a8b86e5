package session

import (
	"fmt"

	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/resolver"
)

// Source tells where the current result list came from.
type Source int

const (
	SourceNone Source = iota
	SourceSearch
	SourceHistory
)

// Session is the selection and queue state of one interactive run. It is
// not safe for concurrent use; the event loop owns it.
type Session struct {
	results resolver.SearchResult
	source  Source
	queue   *playlist.PlayingQueue
}

// New creates an empty session.
func New() *Session {
	return &Session{queue: playlist.NewQueue()}
}

// SetResults replaces the result list wholesale.
func (s *Session) SetResults(r resolver.SearchResult, src Source) {
	s.results = r
	s.source = src
}

// Results returns the current result list.
func (s *Session) Results() resolver.SearchResult { return s.results }

// Source returns where the current result list came from.
func (s *Session) Source() Source { return s.source }

// Select returns result i (0-based). It validates against the last result
// list only and has no side effects.
func (s *Session) Select(i int) (playlist.Track, error) {
	if s.results.Len() == 0 {
		return playlist.Track{}, &InputError{
			Input:  fmt.Sprint(i + 1),
			Reason: "no results to choose from, search first",
		}
	}
	t, ok := s.results.At(i)
	if !ok {
		return playlist.Track{}, &InputError{
			Input:  fmt.Sprint(i + 1),
			Reason: fmt.Sprintf("choose a result between 1 and %d", s.results.Len()),
		}
	}
	return t, nil
}

// Enqueue appends result i to the queue.
func (s *Session) Enqueue(i int) (playlist.Track, error) {
	t, err := s.Select(i)
	if err != nil {
		return playlist.Track{}, err
	}
	s.queue.Add(t)
	return t, nil
}

// NextQueued takes the next track from the queue.
func (s *Session) NextQueued() (playlist.Track, bool) {
	t := s.queue.Next()
	if t == nil {
		return playlist.Track{}, false
	}
	return *t, true
}

// Unqueue removes waiting track i (0-based, as listed by :queue).
func (s *Session) Unqueue(i int) (playlist.Track, error) {
	waiting := len(s.queue.Upcoming())
	if waiting == 0 {
		return playlist.Track{}, &InputError{Input: fmt.Sprint(i + 1), Reason: "the queue is empty"}
	}
	t, ok := s.queue.RemoveAt(i)
	if !ok {
		return playlist.Track{}, &InputError{
			Input:  fmt.Sprint(i + 1),
			Reason: fmt.Sprintf("choose a queued track between 1 and %d", waiting),
		}
	}
	return t, nil
}

// ClearQueue drops every waiting track and returns how many there were.
func (s *Session) ClearQueue() int {
	return s.queue.Clear()
}

// Queued returns the tracks still waiting in the queue.
func (s *Session) Queued() []playlist.Track {
	return s.queue.Upcoming()
}
