// Package db holds helpers shared by the SQLite stores.
package db

import (
	"database/sql"
	"fmt"
)

// WithTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise.
func WithTx(conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
