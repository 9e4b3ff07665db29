package chat

import (
	"context"

	"github.com/mrermin/ermin/internal/debug"
)

// RequestDelete asks for confirmation before deleting the chat.
func (m *Manager) RequestDelete(id string) error {
	m.mutex.Lock()
	if _, ok := m.chats[id]; !ok {
		m.mutex.Unlock()
		return ErrUnknownChat
	}
	m.pendingDeleteID = id
	m.mutex.Unlock()
	m.changed()
	return nil
}

// CancelDelete drops the pending deletion.
func (m *Manager) CancelDelete() {
	m.update(func() { m.pendingDeleteID = "" })
}

// ConfirmDelete deletes the chat pending confirmation.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mutex.Lock()
	id := m.pendingDeleteID
	m.pendingDeleteID = ""
	m.mutex.Unlock()
	if id == "" {
		return ErrUnknownChat
	}
	return m.deleteChat(ctx, id)
}

// deleteChat removes the chat locally, then mirrors the deletion for server-synced chats.
// If the active chat was deleted, the most recently active remaining chat becomes active;
// if none remain, a new chat is created.
func (m *Manager) deleteChat(ctx context.Context, id string) error {
	m.mutex.Lock()
	chat, ok := m.chats[id]
	if !ok {
		m.mutex.Unlock()
		return ErrUnknownChat
	}
	delete(m.chats, id)
	if m.activeID == id {
		m.activeID = m.mostRecentID()
	}
	empty := len(m.chats) == 0
	token, authenticated := m.session()
	synced := chat.ServerSynced && authenticated
	m.mutex.Unlock()
	m.changed()

	if empty {
		if _, err := m.NewChat(ctx); err != nil {
			debug.GetLogger().Error("replacing deleted chat", "chat_id", id, "err", err)
		}
	}
	if synced {
		m.mirror(ctx, "deleteChat", id, func(ctx context.Context) error {
			return m.backend.DeleteChat(ctx, token, id)
		})
	}
	return nil
}
