package store

import (
	"github.com/pkg/errors"
)

// History returns the newest limit inputs sent from the chat input, oldest first.
func (s *Store) History(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT entry FROM (
			SELECT id, entry
			FROM input_history
			WHERE origin = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, s.origin, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying input history")
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, errors.Wrap(err, "scanning input history")
		}
		entries = append(entries, entry)
	}
	return entries, errors.Wrap(rows.Err(), "iterating input history")
}

// AppendHistory records an input and drops all but the newest limit entries.
func (s *Store) AppendHistory(entry string, limit int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO input_history (origin, entry) VALUES (?, ?)`, s.origin, entry); err != nil {
		return errors.Wrap(err, "inserting input history")
	}
	_, err = tx.Exec(`
		DELETE FROM input_history
		WHERE origin = ? AND id NOT IN (
			SELECT id FROM input_history WHERE origin = ? ORDER BY id DESC LIMIT ?
		)
	`, s.origin, s.origin, limit)
	if err != nil {
		return errors.Wrap(err, "trimming input history")
	}
	return errors.Wrap(tx.Commit(), "committing input history")
}
