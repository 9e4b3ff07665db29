package chat

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

// Startup loads the inference models and restores the stored session, if any.
// It ends in the authenticated or the login-required state.
func (m *Manager) Startup(ctx context.Context) {
	m.update(func() { m.state = StateLoading })
	m.LoadModels(ctx)

	session, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrAbsent) {
			debug.GetLogger().Error("loading session", "err", err)
		}
		m.update(func() { m.state = StateLoginRequired })
		return
	}

	user, err := m.backend.WhoAmI(ctx, session.Token)
	if err != nil {
		if backend.IsUnauthorized(err) {
			debug.GetLogger().Info("stored session rejected", "err", err)
		} else {
			debug.GetLogger().Warn("validating stored session", "err", err)
		}
		if err := m.store.Clear(); err != nil {
			debug.GetLogger().Error("clearing session", "err", err)
		}
		m.update(func() { m.state = StateLoginRequired })
		return
	}

	user.AccessToken = session.Token
	if user.GoogleID == "" && session.User != nil {
		user.GoogleID = session.User.GoogleID
	}
	chats := m.listChats(ctx, session.Token)
	m.update(func() {
		m.state = StateAuthenticated
		m.user = user
		m.token = session.Token
		m.setChats(chats)
	})
}

// LoadModels fetches the endpoint and its models. Failures leave the model list empty.
func (m *Manager) LoadModels(ctx context.Context) {
	endpoint, err := m.inference.LoadEndpoint(ctx)
	if err != nil {
		debug.GetLogger().Warn("loading inference endpoint", "err", err)
		return
	}
	m.update(func() { m.endpoint = endpoint })

	models, err := m.inference.ListModels(ctx)
	if err != nil {
		debug.GetLogger().Warn("listing models", "endpoint", endpoint, "err", err)
		return
	}
	m.update(func() {
		m.models = models
		if len(models) > 0 {
			m.selectedModel = models[0].ID
		}
	})
}

// listChats returns the server chats, or none if listing fails.
func (m *Manager) listChats(ctx context.Context, token string) []*types.Chat {
	chats, err := m.backend.ListChats(ctx, token)
	if err != nil {
		debug.GetLogger().Error("listing chats", "op", "listChats", "err", err)
		return nil
	}
	return chats
}

// setChats replaces the collection and activates the most recent chat. Requires the lock.
func (m *Manager) setChats(chats []*types.Chat) {
	m.chats = make(map[string]*types.Chat, len(chats))
	for _, chat := range chats {
		chat.ServerSynced = true
		m.chats[chat.ID] = chat
	}
	m.activeID = m.mostRecentID()
	m.pendingDeleteID = ""
}
