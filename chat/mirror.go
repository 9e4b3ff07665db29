package chat

import (
	"context"

	"github.com/mrermin/ermin/internal/debug"
)

// mirror runs a best-effort backend write for an already applied local change.
func (m *Manager) mirror(ctx context.Context, op, chatID string, write func(ctx context.Context) error) {
	if err := write(ctx); err != nil {
		debug.GetLogger().Warn("mirror write failed", "op", op, "chat_id", chatID, "err", err)
	}
}

// session returns the bearer token if the session is authenticated. Requires the lock.
func (m *Manager) session() (string, bool) {
	return m.token, m.state == StateAuthenticated && m.token != ""
}
