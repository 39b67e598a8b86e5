package state

import (
	"database/sql"

	"github.com/llehouerou/ytm/internal/db"
)

const currentSchemaVersion = 1

func initSchema(conn *sql.DB) error {
	return db.WithTx(conn, func(tx *sql.Tx) error {
		return createSchema(tx)
	})
}

func createSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL,
			title TEXT NOT NULL,
			uploader TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at DESC);
		CREATE INDEX IF NOT EXISTS idx_play_history_track ON play_history(track_id);

		CREATE TABLE IF NOT EXISTS player_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			volume INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = tx.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
