package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "ytm"
	dbFileName = "ytm.db"
)

// maxHistory bounds the rows kept in the play history.
const maxHistory = 1000

type Manager struct {
	db         *sql.DB
	now        func() time.Time
	historyCap int
}

// Open opens the database under $XDG_DATA_HOME/ytm.
func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	return open(dbPath)
}

func open(dsn string) (*Manager, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database exists per connection.
	conn.SetMaxOpenConns(1)

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Manager{db: conn, now: time.Now, historyCap: maxHistory}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
