package store

import (
	"github.com/pkg/errors"
)

// Clear removes the token and the user profile.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`
		DELETE FROM local_storage
		WHERE origin = ? AND key IN (?, ?)
	`, s.origin, tokenKey, userKey)
	if err != nil {
		return errors.Wrap(err, "clearing session")
	}
	return nil
}
