package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/inference"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

// requireConsistent checks that every chat has messages and the active id is a member or empty.
func requireConsistent(t *testing.T, snapshot *Snapshot) {
	t.Helper()
	for _, chat := range snapshot.Chats {
		require.NotEmpty(t, chat.Messages, "chat %s has no messages", chat.ID)
	}
	if snapshot.ActiveChatID != "" {
		require.NotNil(t, snapshot.ActiveChat(), "active chat %s is not in the collection", snapshot.ActiveChatID)
	}
}

func newInferenceServer(t *testing.T, handler http.HandlerFunc) *inference.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	resource := filepath.Join(t.TempDir(), "apiurl.txt")
	require.NoError(t, os.WriteFile(resource, []byte(server.URL), 0644))
	return inference.New(resource, "")
}

func TestGuestEndToEnd(t *testing.T) {
	client := newInferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/models" {
			w.Write([]byte(`{"data":[{"id":"llama-3"}]}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`))
	})
	fakeBackend := newFakeBackend(&recorder{})
	manager := New(fakeBackend, client, &fakeStore{})
	ctx := context.Background()

	manager.Startup(ctx)
	require.Equal(t, StateLoginRequired, manager.Snapshot().State)
	assert.Equal(t, "llama-3", manager.Snapshot().SelectedModel)

	manager.EnterGuest()
	snapshot := manager.Snapshot()
	require.Equal(t, StateGuest, snapshot.State)
	require.Len(t, snapshot.Chats, 1)
	assert.Equal(t, "guest-chat-1", snapshot.ActiveChatID)
	assert.False(t, snapshot.ActiveChat().ServerSynced)

	require.NoError(t, manager.Send(ctx, "Hi"))

	snapshot = manager.Snapshot()
	chat := snapshot.ActiveChat()
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, types.RoleAssistant, chat.Messages[0].Role)
	assert.Equal(t, Greeting, chat.Messages[0].Content)
	assert.Equal(t, types.RoleUser, chat.Messages[1].Role)
	assert.Equal(t, "Hi", chat.Messages[1].Content)
	assert.Equal(t, types.RoleAssistant, chat.Messages[2].Role)
	assert.Equal(t, "Hello!", chat.Messages[2].Content)
	assert.Equal(t, "Hi", chat.Title)
	assert.False(t, snapshot.Generating)
	assert.False(t, snapshot.Typing)
	assert.Zero(t, fakeBackend.count())
	requireConsistent(t, snapshot)
}

func TestInferenceServerErrorBecomesMessage(t *testing.T) {
	client := newInferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/models" {
			w.Write([]byte(`{"data":[{"id":"llama-3"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"model crashed","type":"server_error"}}`))
	})
	manager := New(newFakeBackend(&recorder{}), client, &fakeStore{})
	ctx := context.Background()
	manager.Startup(ctx)
	manager.EnterGuest()

	require.NoError(t, manager.Send(ctx, "Hi"))

	snapshot := manager.Snapshot()
	chat := snapshot.ActiveChat()
	require.Len(t, chat.Messages, 3)
	reply := chat.Messages[2]
	assert.Equal(t, types.RoleAssistant, reply.Role)
	assert.True(t, strings.HasPrefix(reply.Content, "🚫 Fehler: "))
	assert.Contains(t, reply.Content, "model crashed")
	assert.False(t, snapshot.Generating)
	assert.Equal(t, InitialTitle, chat.Title)
}

func TestSendWhileGeneratingIsNoop(t *testing.T) {
	h := newHarness()
	h.manager.EnterGuest()
	started, release := make(chan struct{}), make(chan struct{})
	h.inference.started, h.inference.release = started, release
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- h.manager.Send(ctx, "first") }()
	<-started

	before := h.manager.Snapshot()
	require.True(t, before.Generating)
	backendCalls, inferenceCalls := h.backend.count(), h.inference.count()

	assert.ErrorIs(t, h.manager.Send(ctx, "second"), ErrGenerating)
	_, err := h.manager.NewChat(ctx)
	require.NoError(t, err)
	require.NoError(t, h.manager.SelectChat(before.ActiveChatID))
	assert.ErrorIs(t, h.manager.Send(ctx, "third"), ErrGenerating)

	assert.Equal(t, before.ActiveChat().Messages, h.manager.Snapshot().Chat(before.ActiveChatID).Messages)
	assert.Equal(t, backendCalls, h.backend.count())
	assert.Equal(t, inferenceCalls, h.inference.count())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.manager.Snapshot().Generating)
	require.NoError(t, h.manager.Send(ctx, "fourth"))
}

func TestSendRejectsEmptyInput(t *testing.T) {
	h := newHarness()
	h.manager.EnterGuest()

	assert.ErrorIs(t, h.manager.Send(context.Background(), "  \n\t "), ErrEmptyMessage)
	assert.Zero(t, h.inference.count())
	assert.Len(t, h.manager.Snapshot().ActiveChat().Messages, 1)
}

func TestSendWithoutActiveChat(t *testing.T) {
	h := newHarness()
	assert.ErrorIs(t, h.manager.Send(context.Background(), "Hi"), ErrNoActiveChat)
}

func TestSendPassesFullHistoryAndModel(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.Startup(ctx)
	h.manager.EnterGuest()
	assert.Equal(t, "mistral", h.manager.CycleModel())

	require.NoError(t, h.manager.Send(ctx, "one"))
	require.NoError(t, h.manager.Send(ctx, "two"))

	require.Len(t, h.inference.histories, 2)
	history := h.inference.histories[1]
	require.Len(t, history, 4)
	assert.Equal(t, Greeting, history[0].Content)
	assert.Equal(t, "one", history[1].Content)
	assert.Equal(t, "Hello!", history[2].Content)
	assert.Equal(t, "two", history[3].Content)
	assert.Equal(t, []string{"mistral", "mistral"}, h.inference.completedModels)
	assert.Equal(t, "one", h.manager.Snapshot().ActiveChat().Title, "title is only derived from the first user message")
}

func TestGuestOperationsNeverCallBackend(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.EnterGuest()

	_, err := h.manager.NewChat(ctx)
	require.NoError(t, err)
	require.NoError(t, h.manager.Send(ctx, "Hi"))
	require.NoError(t, h.manager.RequestDelete(h.manager.Snapshot().ActiveChatID))
	require.NoError(t, h.manager.ConfirmDelete(ctx))

	assert.Zero(t, h.backend.count())
	snapshot := h.manager.Snapshot()
	assert.Len(t, snapshot.Chats, 1)
	assert.Equal(t, "guest-chat-1", snapshot.ActiveChatID)
	requireConsistent(t, snapshot)
}

func TestGuestChatIDsIncrease(t *testing.T) {
	h := newHarness()
	h.manager.EnterGuest()
	second, err := h.manager.NewChat(context.Background())
	require.NoError(t, err)
	third, err := h.manager.NewChat(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "guest-chat-2", second.ID)
	assert.Equal(t, "guest-chat-3", third.ID)
	assert.Equal(t, "guest-chat-3", h.manager.Snapshot().ActiveChatID)
}

func TestDeleteActiveChatActivatesMostRecent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.EnterGuest()           // guest-chat-1
	_, err := h.manager.NewChat(ctx) // guest-chat-2
	require.NoError(t, err)
	_, err = h.manager.NewChat(ctx) // guest-chat-3
	require.NoError(t, err)

	// guest-chat-1 becomes the most recent chat.
	require.NoError(t, h.manager.SelectChat("guest-chat-1"))
	require.NoError(t, h.manager.Send(ctx, "Hi"))
	require.NoError(t, h.manager.SelectChat("guest-chat-3"))

	snapshot := h.manager.Snapshot()
	assert.Equal(t, []string{"guest-chat-1", "guest-chat-3", "guest-chat-2"}, chatIDs(snapshot))

	require.NoError(t, h.manager.RequestDelete("guest-chat-3"))
	require.NoError(t, h.manager.ConfirmDelete(ctx))

	snapshot = h.manager.Snapshot()
	assert.Equal(t, "guest-chat-1", snapshot.ActiveChatID)
	assert.Equal(t, []string{"guest-chat-1", "guest-chat-2"}, chatIDs(snapshot))
	requireConsistent(t, snapshot)
}

func TestDeleteInactiveChatKeepsActive(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.EnterGuest()
	_, err := h.manager.NewChat(ctx)
	require.NoError(t, err)

	require.NoError(t, h.manager.RequestDelete("guest-chat-1"))
	require.NoError(t, h.manager.ConfirmDelete(ctx))
	assert.Equal(t, "guest-chat-2", h.manager.Snapshot().ActiveChatID)
}

func TestDeleteLastChatCreatesOne(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.EnterGuest()

	require.NoError(t, h.manager.RequestDelete("guest-chat-1"))
	require.NoError(t, h.manager.ConfirmDelete(ctx))

	snapshot := h.manager.Snapshot()
	require.Len(t, snapshot.Chats, 1)
	assert.Equal(t, "guest-chat-2", snapshot.ActiveChatID)
	assert.Equal(t, Greeting, snapshot.ActiveChat().Messages[0].Content)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness()
	h.manager.EnterGuest()

	assert.ErrorIs(t, h.manager.RequestDelete("missing"), ErrUnknownChat)
	require.NoError(t, h.manager.RequestDelete("guest-chat-1"))
	assert.Equal(t, "guest-chat-1", h.manager.Snapshot().PendingDeleteID)

	h.manager.CancelDelete()
	snapshot := h.manager.Snapshot()
	assert.Empty(t, snapshot.PendingDeleteID)
	assert.Len(t, snapshot.Chats, 1)
	assert.ErrorIs(t, h.manager.ConfirmDelete(context.Background()), ErrUnknownChat)
}

func TestStartupRestoresSession(t *testing.T) {
	h := newHarness()
	older := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	h.backend.chats = []*types.Chat{
		{ID: "a", Title: "Alt", Messages: []*types.Message{types.NewAssistantMessage(Greeting, older)}},
		{ID: "b", Title: "Neu", Messages: []*types.Message{types.NewAssistantMessage(Greeting, newer)}},
	}
	h.store.session = &store.Session{Token: "saved", User: &types.User{Email: "ada@example.com", GoogleID: "sub-1"}}

	h.manager.Startup(context.Background())

	snapshot := h.manager.Snapshot()
	require.Equal(t, StateAuthenticated, snapshot.State)
	assert.Equal(t, "saved", snapshot.User.AccessToken)
	assert.Equal(t, "sub-1", snapshot.User.GoogleID)
	assert.Equal(t, "b", snapshot.ActiveChatID)
	assert.Equal(t, []string{"b", "a"}, chatIDs(snapshot))
	for _, chat := range snapshot.Chats {
		assert.True(t, chat.ServerSynced)
	}
	assert.Equal(t, "http://inference.test", snapshot.Endpoint)
	assert.Equal(t, "llama-3", snapshot.SelectedModel)
}

func TestStartupWithRejectedSessionClearsStore(t *testing.T) {
	h := newHarness()
	h.store.session = &store.Session{Token: "stale", User: &types.User{Email: "ada@example.com"}}
	h.backend.whoAmIErr = &backend.StatusError{StatusCode: http.StatusUnauthorized}

	h.manager.Startup(context.Background())

	assert.Equal(t, StateLoginRequired, h.manager.Snapshot().State)
	assert.Equal(t, 1, h.store.clears)
	assert.Nil(t, h.store.session)
}

func TestStartupWithUnreachableBackendClearsStore(t *testing.T) {
	h := newHarness()
	h.store.session = &store.Session{Token: "tok", User: &types.User{Email: "ada@example.com"}}
	h.backend.whoAmIErr = errors.New("connection refused")

	h.manager.Startup(context.Background())

	assert.Equal(t, StateLoginRequired, h.manager.Snapshot().State)
	assert.Equal(t, 1, h.store.clears)
}

func TestStartupToleratesFailingListings(t *testing.T) {
	h := newHarness()
	h.store.session = &store.Session{Token: "saved", User: &types.User{Email: "ada@example.com"}}
	h.backend.listErr = errors.New("backend down")
	h.inference.modelsErr = errors.New("inference down")

	h.manager.Startup(context.Background())

	snapshot := h.manager.Snapshot()
	assert.Equal(t, StateAuthenticated, snapshot.State)
	assert.Empty(t, snapshot.Chats)
	assert.Empty(t, snapshot.ActiveChatID)
	assert.Empty(t, snapshot.Models)
	assert.Empty(t, snapshot.SelectedModel)
}

func newAssertion() *identity.Assertion {
	claims := &identity.Claims{Email: "ada@example.com", Name: "Ada"}
	claims.Subject = "sub-1"
	return &identity.Assertion{Credential: "header.payload.signature", Claims: claims}
}

func TestLoginRequiresAssertionAndConsent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.Startup(ctx)

	assert.ErrorIs(t, h.manager.Login(ctx), ErrLoginNotReady)
	h.manager.SetAssertion(newAssertion())
	assert.False(t, h.manager.Snapshot().CanLogin())
	assert.ErrorIs(t, h.manager.Login(ctx), ErrLoginNotReady)
	assert.Zero(t, h.backend.count())

	h.manager.SetConsent(true)
	require.True(t, h.manager.Snapshot().CanLogin())
	require.NoError(t, h.manager.Login(ctx))

	snapshot := h.manager.Snapshot()
	assert.Equal(t, StateAuthenticated, snapshot.State)
	assert.Equal(t, "token-1", snapshot.User.AccessToken)
	assert.Equal(t, 1, h.store.saves)
	assert.Equal(t, "token-1", h.store.session.Token)
	assert.Equal(t, "sub-1", h.backend.lastLogin.GoogleID)
	assert.Equal(t, "header.payload.signature", h.backend.lastLogin.GoogleToken)

	// No server chats: one is created with its greeting mirrored.
	require.Len(t, snapshot.Chats, 1)
	assert.Equal(t, "server-1", snapshot.ActiveChatID)
	assert.True(t, snapshot.ActiveChat().ServerSynced)
	require.Len(t, h.backend.appended["server-1"], 1)
	assert.Equal(t, Greeting, h.backend.appended["server-1"][0].Content)
}

func TestSetAssertionWithoutClaims(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.Startup(ctx)

	claims := &identity.Claims{Email: "ada@example.com", Name: "Ada"}
	claims.Subject = "sub-1"
	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("key"))
	require.NoError(t, err)
	h.manager.SetAssertion(&identity.Assertion{Credential: credential})
	require.NotNil(t, h.manager.Snapshot().SignInHint)
	assert.Equal(t, "ada@example.com", h.manager.Snapshot().SignInHint.Email)

	h.manager.SetAssertion(&identity.Assertion{Credential: "opaque"})
	assert.Empty(t, h.manager.Snapshot().SignInHint.Email)
	h.manager.SetConsent(true)
	require.NoError(t, h.manager.Login(ctx))
	assert.Equal(t, "opaque", h.backend.lastLogin.GoogleToken)
	assert.Empty(t, h.backend.lastLogin.GoogleID)
}

func TestLoginFailureKeepsOverlay(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.manager.Startup(ctx)
	h.backend.loginErr = &backend.StatusError{StatusCode: http.StatusInternalServerError}
	h.manager.SetAssertion(newAssertion())
	h.manager.SetConsent(true)

	require.Error(t, h.manager.Login(ctx))
	assert.Equal(t, StateLoginRequired, h.manager.Snapshot().State)
	assert.Zero(t, h.store.saves)
}

func loggedIn(t *testing.T, h *harness) {
	t.Helper()
	h.manager.Startup(context.Background())
	h.manager.SetAssertion(newAssertion())
	h.manager.SetConsent(true)
	require.NoError(t, h.manager.Login(context.Background()))
}

func TestAuthenticatedSendMirrorsInOrder(t *testing.T) {
	h := newHarness()
	loggedIn(t, h)
	start := len(h.recorder.get())

	require.NoError(t, h.manager.Send(context.Background(), "Hello. World"))

	assert.Equal(t, []string{
		"appendMessage server-1 user Hello. World",
		"complete Hello. World",
		"appendMessage server-1 assistant Hello!",
		"updateChatTitle server-1 Hello",
	}, h.recorder.get()[start:])
	assert.Equal(t, "Hello", h.manager.Snapshot().ActiveChat().Title)
}

func TestMirrorFailureKeepsLocalState(t *testing.T) {
	h := newHarness()
	loggedIn(t, h)
	h.backend.appendErr = errors.New("backend down")

	require.NoError(t, h.manager.Send(context.Background(), "Hi"))

	chat := h.manager.Snapshot().ActiveChat()
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, "Hi", chat.Messages[1].Content)
	assert.Equal(t, "Hello!", chat.Messages[2].Content)
}

func TestAuthenticatedNewChatFailureIsNotAdded(t *testing.T) {
	h := newHarness()
	loggedIn(t, h)
	h.backend.createErr = errors.New("backend down")

	_, err := h.manager.NewChat(context.Background())
	require.Error(t, err)
	assert.Len(t, h.manager.Snapshot().Chats, 1)
}

func TestAuthenticatedDeleteMirrors(t *testing.T) {
	h := newHarness()
	loggedIn(t, h)
	ctx := context.Background()

	require.NoError(t, h.manager.RequestDelete("server-1"))
	require.NoError(t, h.manager.ConfirmDelete(ctx))

	assert.Equal(t, []string{"server-1"}, h.backend.deletedIDs)
	snapshot := h.manager.Snapshot()
	require.Len(t, snapshot.Chats, 1)
	assert.Equal(t, "server-2", snapshot.ActiveChatID)
}

func TestNewChatWithoutSession(t *testing.T) {
	h := newHarness()
	_, err := h.manager.NewChat(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogout(t *testing.T) {
	h := newHarness()
	loggedIn(t, h)

	h.manager.Logout()

	snapshot := h.manager.Snapshot()
	assert.Equal(t, StateLoginRequired, snapshot.State)
	assert.Nil(t, snapshot.User)
	assert.Empty(t, snapshot.Chats)
	assert.Empty(t, snapshot.ActiveChatID)
	assert.False(t, snapshot.Consent)
	assert.Nil(t, h.store.session)
	assert.NotEmpty(t, snapshot.Models, "models survive a logout")
}

func TestNotifyOnChange(t *testing.T) {
	h := newHarness()
	notified := 0
	h.manager.SetNotify(func() { notified++ })

	h.manager.EnterGuest()
	assert.Positive(t, notified)
}

func TestSelectModel(t *testing.T) {
	h := newHarness()
	h.manager.Startup(context.Background())

	assert.True(t, h.manager.SelectModel("mistral"))
	assert.False(t, h.manager.SelectModel("gpt-9"))
	assert.Equal(t, "mistral", h.manager.Snapshot().SelectedModel)
	assert.Equal(t, "llama-3", h.manager.CycleModel())
}

func chatIDs(snapshot *Snapshot) []string {
	ids := make([]string, 0, len(snapshot.Chats))
	for _, chat := range snapshot.Chats {
		ids = append(ids, chat.ID)
	}
	return ids
}

func TestSelectUnknownChat(t *testing.T) {
	h := newHarness()
	h.manager.EnterGuest()
	active := h.manager.Snapshot().ActiveChatID

	assert.ErrorIs(t, h.manager.SelectChat("missing"), ErrUnknownChat)
	assert.Equal(t, active, h.manager.Snapshot().ActiveChatID)
}
