package store

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/types"
)

// Load the stored session. Returns ErrAbsent if nothing usable is stored.
// Entries that fail to deserialize are cleared and reported as absent.
func (s *Store) Load() (*Session, error) {
	token, ok, err := getItem(s.db, s.origin, tokenKey)
	if err != nil {
		return nil, err
	}
	userJSON, userOK, err := getItem(s.db, s.origin, userKey)
	if err != nil {
		return nil, err
	}
	if !ok || !userOK || token == "" {
		return nil, ErrAbsent
	}

	user := &types.User{}
	if err := json.Unmarshal([]byte(userJSON), user); err != nil {
		if err := s.Clear(); err != nil {
			return nil, errors.Wrap(err, "clearing corrupt session")
		}
		return nil, ErrAbsent
	}

	return &Session{Token: token, User: user}, nil
}
