package store

import (
	"database/sql"

	"github.com/pkg/errors"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func setItem(db execer, origin, key, value string) error {
	_, err := db.Exec(`
		REPLACE INTO local_storage (origin, key, value)
		VALUES (?, ?, ?)
	`, origin, key, value)
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func getItem(db queryer, origin, key string) (string, bool, error) {
	var value string
	err := db.QueryRow(`
		SELECT value
		FROM local_storage
		WHERE origin = ? AND key = ?
	`, origin, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return value, true, nil
}
