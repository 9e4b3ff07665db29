package chat

import (
	"sort"

	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/types"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	State           State
	User            *types.User
	Chats           []*types.Chat
	ActiveChatID    string
	PendingDeleteID string
	Generating      bool
	Typing          bool
	Endpoint        string
	Models          []*types.Model
	SelectedModel   string
	SignInHint      *identity.Claims
	Consent         bool
}

// ActiveChat returns the active chat, or nil.
func (s *Snapshot) ActiveChat() *types.Chat {
	return s.Chat(s.ActiveChatID)
}

// Chat returns the chat with the given id, or nil.
func (s *Snapshot) Chat(id string) *types.Chat {
	if id == "" {
		return nil
	}
	for _, chat := range s.Chats {
		if chat.ID == id {
			return chat
		}
	}
	return nil
}

// CanLogin returns true once sign-in completed and consent was given.
func (s *Snapshot) CanLogin() bool {
	return s.SignInHint != nil && s.Consent
}

// Snapshot returns a copy of the current state. Chats are sorted by latest activity, most recent first.
func (m *Manager) Snapshot() *Snapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snapshot := &Snapshot{
		State:           m.state,
		ActiveChatID:    m.activeID,
		PendingDeleteID: m.pendingDeleteID,
		Generating:      m.generating,
		Typing:          m.typing,
		Endpoint:        m.endpoint,
		Models:          append([]*types.Model(nil), m.models...),
		SelectedModel:   m.selectedModel,
		Consent:         m.consent,
	}
	if m.user != nil {
		user := *m.user
		snapshot.User = &user
	}
	if m.assertion != nil {
		claims := *m.assertion.Claims
		snapshot.SignInHint = &claims
	}
	snapshot.Chats = make([]*types.Chat, 0, len(m.chats))
	for _, chat := range m.sortedChats() {
		snapshot.Chats = append(snapshot.Chats, chat.Clone())
	}
	return snapshot
}

// sortedChats returns the chats by latest activity, most recent first, ties by id. Requires the lock.
func (m *Manager) sortedChats() []*types.Chat {
	chats := make([]*types.Chat, 0, len(m.chats))
	for _, chat := range m.chats {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		a, b := chats[i].LastActivity(), chats[j].LastActivity()
		if !a.Equal(b) {
			return a.After(b)
		}
		return chats[i].ID < chats[j].ID
	})
	return chats
}

// mostRecentID returns the id of the most recently active chat, or "". Requires the lock.
func (m *Manager) mostRecentID() string {
	if chats := m.sortedChats(); len(chats) > 0 {
		return chats[0].ID
	}
	return ""
}
