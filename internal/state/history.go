package state

import (
	"database/sql"
	"time"

	"github.com/llehouerou/ytm/internal/db"
	"github.com/llehouerou/ytm/internal/playlist"
)

// Play is one entry of the play history.
type Play struct {
	Track    playlist.Track
	PlayedAt time.Time
	Count    int // times played
}

// RecordPlay appends track to the play history and drops the oldest rows
// beyond the history cap. The stream URL is not stored: it expires, and the
// source URL resolves again.
func (m *Manager) RecordPlay(track playlist.Track) error {
	return db.WithTx(m.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO play_history (track_id, title, uploader, duration_ms, url, played_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, track.ID, track.Title, track.Uploader, track.Duration.Milliseconds(), track.URL, m.now().UnixMilli())
		if err != nil {
			return err
		}

		// No row at the offset means nothing to drop.
		_, err = tx.Exec(`
			DELETE FROM play_history
			WHERE id <= (SELECT id FROM play_history ORDER BY id DESC LIMIT 1 OFFSET ?)
		`, m.historyCap)
		return err
	})
}

// RecentPlays returns up to limit distinct tracks, most recently played first.
func (m *Manager) RecentPlays(limit int) ([]Play, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := m.db.Query(`
		SELECT h.track_id, h.title, h.uploader, h.duration_ms, h.url, h.played_at, g.plays
		FROM play_history h
		JOIN (
			SELECT track_id, MAX(id) AS last_id, COUNT(*) AS plays
			FROM play_history
			GROUP BY track_id
		) g ON h.id = g.last_id
		ORDER BY h.played_at DESC, h.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var (
			p          Play
			durationMS int64
			playedAt   int64
		)
		if err := rows.Scan(&p.Track.ID, &p.Track.Title, &p.Track.Uploader,
			&durationMS, &p.Track.URL, &playedAt, &p.Count); err != nil {
			return nil, err
		}
		p.Track.Duration = time.Duration(durationMS) * time.Millisecond
		p.PlayedAt = time.UnixMilli(playedAt)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
