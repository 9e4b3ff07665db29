package chat

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/types"
)

// NewChat creates a chat holding the greeting and makes it active.
// Guest chats get a local id. Authenticated chats are created server-side first;
// if that fails the chat is not added.
func (m *Manager) NewChat(ctx context.Context) (*types.Chat, error) {
	m.mutex.Lock()
	state := m.state
	token, authenticated := m.session()
	if state == StateGuest {
		chat := &types.Chat{
			ID:       guestPrefix + strconv.Itoa(m.guestCounter),
			Title:    InitialTitle,
			Messages: []*types.Message{types.NewAssistantMessage(Greeting, m.now())},
		}
		m.guestCounter++
		m.chats[chat.ID] = chat
		m.activeID = chat.ID
		clone := chat.Clone()
		m.mutex.Unlock()
		m.changed()
		return clone, nil
	}
	m.mutex.Unlock()
	if !authenticated {
		return nil, ErrNotAuthenticated
	}

	created, err := m.backend.CreateChat(ctx, token, InitialTitle)
	if err != nil {
		return nil, errors.Wrap(err, "creating chat")
	}
	greeting := types.NewAssistantMessage(Greeting, m.now())
	m.mirror(ctx, "appendMessage", created.ID, func(ctx context.Context) error {
		return m.backend.AppendMessage(ctx, token, created.ID, greeting)
	})

	chat := &types.Chat{
		ID:           created.ID,
		Title:        created.Title,
		Messages:     []*types.Message{greeting},
		ServerSynced: true,
	}
	if chat.Title == "" {
		chat.Title = InitialTitle
	}

	m.mutex.Lock()
	if m.token != token {
		// The session changed while the chat was being created.
		m.mutex.Unlock()
		return nil, ErrNotAuthenticated
	}
	m.chats[chat.ID] = chat
	m.activeID = chat.ID
	clone := chat.Clone()
	m.mutex.Unlock()
	m.changed()
	return clone, nil
}
