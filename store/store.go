package store

import (
	"database/sql"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mrermin/ermin/internal/file"
	"github.com/mrermin/ermin/internal/types"
)

const (
	tokenKey = "mrermin_auth_token"
	userKey  = "mrermin_user"
)

// ErrAbsent is returned when no usable session is stored.
var ErrAbsent = errors.New("no stored session")

// Session is what the store persists across runs.
type Session struct {
	Token string
	User  *types.User
}

// Store implements durable key-value storage on SQLite, scoped to a backend origin.
type Store struct {
	db     *sql.DB
	origin string
}

// New store.
func New(dbPath, origin string) (*Store, error) {
	if err := file.CreateDirectoryIfNotExist(filepath.Dir(dbPath)); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			origin TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (origin, key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating local_storage table")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS input_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT NOT NULL,
			entry TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating input_history table")
	}

	return &Store{
		db:     db,
		origin: origin,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
