package resolver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/llehouerou/ytm/internal/playlist"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// maxLineSize bounds one JSON line; full extractions can be large.
const maxLineSize = 16 << 20

// entry is the subset of yt-dlp's info dict that ytm reads.
type entry struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Duration         *float64       `json:"duration"`
	URL              string         `json:"url"`
	WebpageURL       string         `json:"webpage_url"`
	Channel          string         `json:"channel"`
	Uploader         string         `json:"uploader"`
	RequestedFormats []requestedFmt `json:"requested_formats"`
}

type requestedFmt struct {
	URL    string `json:"url"`
	ACodec string `json:"acodec"`
}

// parseEntries decodes line-delimited JSON. Every non-empty line must be an
// object with an id: a single bad line fails the whole batch so that a change
// in the tool's output never turns into a silently short result.
func parseEntries(out []byte) ([]entry, error) {
	var entries []entry
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if e.ID == "" {
			return nil, fmt.Errorf("line %d: entry has no id", lineNo)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (e entry) uploader() string {
	if e.Channel != "" {
		return e.Channel
	}
	return e.Uploader
}

func (e entry) duration() time.Duration {
	if e.Duration == nil || *e.Duration <= 0 {
		return 0
	}
	return time.Duration(*e.Duration * float64(time.Second))
}

// searchTrack converts a flat search entry. Flat entries carry the page URL
// in "url"; there is no stream URL yet.
func (e entry) searchTrack() playlist.Track {
	pageURL := e.WebpageURL
	if pageURL == "" && isHTTP(e.URL) {
		pageURL = e.URL
	}
	if pageURL == "" {
		pageURL = fmt.Sprintf(watchURLTemplate, e.ID)
	}
	return playlist.Track{
		ID:       e.ID,
		Title:    e.Title,
		Uploader: e.uploader(),
		Duration: e.duration(),
		URL:      pageURL,
	}
}

// resolvedTrack converts a full extraction. "url" is the selected format's
// media URL; split selections list theirs under requested_formats.
func (e entry) resolvedTrack(input string) playlist.Track {
	pageURL := e.WebpageURL
	if pageURL == "" {
		pageURL = input
	}
	stream := e.URL
	if stream == "" {
		for _, f := range e.RequestedFormats {
			if f.URL != "" && f.ACodec != "none" {
				stream = f.URL
				break
			}
		}
	}
	return playlist.Track{
		ID:        e.ID,
		Title:     e.Title,
		Uploader:  e.uploader(),
		Duration:  e.duration(),
		URL:       pageURL,
		StreamURL: stream,
	}
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
