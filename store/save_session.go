package store

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/types"
)

// Save the bearer token and the user profile.
func (s *Store) Save(token string, user *types.User) error {
	if token == "" || user == nil {
		return errors.New("token and user are required")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "marshaling user")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if err := setItem(tx, s.origin, tokenKey, token); err != nil {
		return err
	}
	if err := setItem(tx, s.origin, userKey, string(userJSON)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}
