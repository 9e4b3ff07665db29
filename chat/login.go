package chat

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/types"
)

// SetAssertion records a completed sign-in. Its claims are display hints only.
// Missing claims are decoded from the credential, or left empty.
func (m *Manager) SetAssertion(assertion *identity.Assertion) {
	if assertion != nil && assertion.Claims == nil {
		claims, err := identity.Decode(assertion.Credential)
		if err != nil {
			debug.GetLogger().Warn("decoding sign-in credential", "err", err)
			claims = &identity.Claims{}
		}
		assertion = &identity.Assertion{Credential: assertion.Credential, Claims: claims}
	}
	m.update(func() { m.assertion = assertion })
}

// SetConsent records whether the user accepted the privacy policy.
func (m *Manager) SetConsent(consent bool) {
	m.update(func() { m.consent = consent })
}

// Login exchanges the sign-in assertion for a backend session. On failure the
// session stays in the login-required state and the error is returned for display.
func (m *Manager) Login(ctx context.Context) error {
	m.mutex.Lock()
	assertion, consent := m.assertion, m.consent
	m.mutex.Unlock()
	if assertion == nil || !consent {
		return ErrLoginNotReady
	}

	claims := assertion.Claims
	user, err := m.backend.Login(ctx, &backend.LoginRequest{
		Email:       claims.Email,
		Name:        claims.Name,
		Picture:     claims.Picture,
		GoogleID:    claims.Subject,
		GoogleToken: assertion.Credential,
	})
	if err != nil {
		debug.GetLogger().Error("login", "email", claims.Email, "err", err)
		return errors.Wrap(err, "logging in")
	}

	if err := m.store.Save(user.AccessToken, user); err != nil {
		debug.GetLogger().Error("saving session", "err", err)
	}
	chats := m.listChats(ctx, user.AccessToken)
	m.update(func() {
		m.state = StateAuthenticated
		m.user = user
		m.token = user.AccessToken
		m.assertion = nil
		m.setChats(chats)
	})

	if len(chats) == 0 {
		if _, err := m.NewChat(ctx); err != nil {
			debug.GetLogger().Error("creating first chat", "err", err)
		}
	}
	return nil
}

// EnterGuest starts a session that never talks to the backend, with one local chat.
func (m *Manager) EnterGuest() {
	m.update(func() {
		m.state = StateGuest
		m.user = nil
		m.token = ""
		m.chats = map[string]*types.Chat{}
		m.activeID = ""
		m.pendingDeleteID = ""
	})
	if _, err := m.NewChat(context.Background()); err != nil {
		debug.GetLogger().Error("creating guest chat", "err", err)
	}
}

// Logout forgets the session and returns to the login-required state.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		debug.GetLogger().Error("clearing session", "err", err)
	}
	m.update(func() {
		m.state = StateLoginRequired
		m.user = nil
		m.token = ""
		m.chats = map[string]*types.Chat{}
		m.activeID = ""
		m.pendingDeleteID = ""
		m.assertion = nil
		m.consent = false
	})
}
