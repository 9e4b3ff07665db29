package webserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

type fakeBackend struct {
	chats   map[string]*types.Chat
	tokens  []string
	deleted []string
}

func (f *fakeBackend) ListChats(ctx context.Context, token string) ([]*types.Chat, error) {
	f.tokens = append(f.tokens, token)
	chats := make([]*types.Chat, 0, len(f.chats))
	for _, chat := range f.chats {
		chats = append(chats, chat)
	}
	return chats, nil
}

func (f *fakeBackend) GetChat(ctx context.Context, token, chatID string) (*types.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, &backend.StatusError{Method: "GET", Path: "/chats/" + chatID, StatusCode: http.StatusNotFound}
	}
	return chat, nil
}

func (f *fakeBackend) DeleteChat(ctx context.Context, token, chatID string) error {
	f.deleted = append(f.deleted, chatID)
	delete(f.chats, chatID)
	return nil
}

type fakeSessions struct {
	session *store.Session
}

func (f *fakeSessions) Load() (*store.Session, error) {
	if f.session == nil {
		return nil, store.ErrAbsent
	}
	return f.session, nil
}

func newChat(id, title, content string, at time.Time) *types.Chat {
	return &types.Chat{
		ID:           id,
		Title:        title,
		Messages:     []*types.Message{types.NewUserMessage(content, at)},
		ServerSynced: true,
	}
}

func newTestServer(t *testing.T, loggedIn bool) (*Server, *fakeBackend) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeBackend{chats: map[string]*types.Chat{
		"old":    newChat("old", "Rezepte", "Wie koche ich Spätzle?", now.Add(-time.Hour)),
		"recent": newChat("recent", "Go Fragen", "<script>alert(1)</script> see https://example.com", now),
	}}
	sessions := &fakeSessions{}
	if loggedIn {
		sessions.session = &store.Session{Token: "token", User: &types.User{Name: "Ada", Email: "ada@example.com", Verified: true}}
	}
	server, err := NewServer(&Opts{PayPalScriptURL: "https://paypal.test/sdk/js?client-id=test"}, fake, sessions)
	require.NoError(t, err)
	return server, fake
}

func serve(server *Server, method, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func TestInbox(t *testing.T) {
	server, fake := newTestServer(t, true)

	response := serve(server, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, response.Code)
	body := response.Body.String()
	assert.Equal(t, []string{"token"}, fake.tokens)
	assert.Contains(t, body, "ada@example.com")

	// Most recent first.
	recent := strings.Index(body, "Go Fragen")
	old := strings.Index(body, "Rezepte")
	require.Positive(t, recent)
	require.Positive(t, old)
	assert.Less(t, recent, old)
}

func TestInboxSearch(t *testing.T) {
	server, _ := newTestServer(t, true)

	body := serve(server, http.MethodGet, "/?q=sp%C3%A4tzle").Body.String()
	assert.Contains(t, body, "Rezepte")
	assert.NotContains(t, body, "Go Fragen")
}

func TestInboxPagination(t *testing.T) {
	server, _ := newTestServer(t, true)
	server.opts.PageSize = 1

	body := serve(server, http.MethodGet, "/?page=2").Body.String()
	assert.Contains(t, body, "Seite 2 von 2")
	assert.Contains(t, body, "Rezepte")
	assert.NotContains(t, body, "Go Fragen")
}

func TestInboxRequiresSession(t *testing.T) {
	server, fake := newTestServer(t, false)

	response := serve(server, http.MethodGet, "/")
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "ermin login --accept-privacy")
	assert.Empty(t, fake.tokens)
}

func TestChatEscapesContent(t *testing.T) {
	server, _ := newTestServer(t, true)

	response := serve(server, http.MethodGet, "/chat/recent")
	require.Equal(t, http.StatusOK, response.Code)
	body := response.Body.String()
	assert.NotContains(t, body, "<script>alert")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `<a href="https://example.com"`)

	assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/chat/missing").Code)
}

func TestDeleteChat(t *testing.T) {
	server, fake := newTestServer(t, true)

	response := serve(server, http.MethodPost, "/chat/old/delete")
	assert.Equal(t, http.StatusSeeOther, response.Code)
	assert.Equal(t, "/", response.Header().Get("Location"))
	assert.Equal(t, []string{"old"}, fake.deleted)

	request := httptest.NewRequest(http.MethodDelete, "/chat/recent", nil)
	request.Header.Set("X-Requested-With", "XMLHttpRequest")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"old", "recent"}, fake.deleted)
}

func TestDeleteChatRejectsCrossOrigin(t *testing.T) {
	server, fake := newTestServer(t, true)

	request := httptest.NewRequest(http.MethodPost, "http://192.168.1.20:3030/chat/old/delete", nil)
	request.Header.Set("Origin", "https://evil.example")
	request.Header.Set("Sec-Fetch-Site", "cross-site")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	request = httptest.NewRequest(http.MethodPost, "http://localhost:3030/chat/old/delete", nil)
	request.Header.Set("Origin", "https://evil.example")
	recorder = httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Empty(t, fake.deleted)

	request = httptest.NewRequest(http.MethodPost, "http://localhost:3030/chat/old/delete", nil)
	request.Header.Set("Origin", "http://localhost:3030")
	request.Header.Set("Sec-Fetch-Site", "same-origin")
	recorder = httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, []string{"old"}, fake.deleted)
}

func TestPremium(t *testing.T) {
	server, _ := newTestServer(t, false)

	body := serve(server, http.MethodGet, "/premium").Body.String()
	assert.Contains(t, body, "Premium für €29.99/Monat aktivieren")
	assert.Contains(t, body, `data-pp-amount="29.99"`)
	assert.Contains(t, body, "Flexible Zahlung mit PayPal Pay Later.")
	assert.Contains(t, body, "https://paypal.test/sdk/js?client-id=test")

	body = serve(server, http.MethodGet, "/premium?plan=yearly").Body.String()
	assert.Contains(t, body, "Premium für €299.99/Jahr aktivieren")
	assert.Contains(t, body, `data-pp-amount="299.99"`)
	assert.Contains(t, body, "60€ sparen")
}

func TestPayLaterAttributes(t *testing.T) {
	attributes := string(payLaterAttributes(decimal.RequireFromString("29.99")))
	assert.True(t, strings.HasPrefix(attributes, `data-pp-amount="29.99" data-pp-message=""`))
}
