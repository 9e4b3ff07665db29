// Package chat holds the state of a Mr Ermin session: the signed-in user or
// guest, the chat collection, the active chat and the in-flight send.
//
// Local state is the source of truth. Mutations are applied locally first and
// then mirrored to the backend for server-synced chats. Mirror failures are
// logged and never roll back local state.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

const (
	// Greeting is the first message of every chat.
	Greeting = "Hallo! Ich bin Mr Ermin. Worüber möchtest du sprechen?"
	// InitialTitle of a new chat.
	InitialTitle = "Neuer Chat"
	// LoginFailedText is shown when the backend rejects a login.
	LoginFailedText = "Anmeldung fehlgeschlagen. Versuchen Sie es erneut."
	// DeleteConfirmationText asks the user to confirm a deletion.
	DeleteConfirmationText = "Möchten Sie diesen Chat wirklich löschen?"
	// ErrorPrefix starts the assistant message that replaces a failed completion.
	ErrorPrefix = "🚫 Fehler: "

	guestPrefix = "guest-chat-"
)

var (
	ErrGenerating       = errors.New("a message is already being generated")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNoActiveChat     = errors.New("no active chat")
	ErrUnknownChat      = errors.New("unknown chat")
	ErrLoginNotReady    = errors.New("sign-in and consent are both required")
	ErrNotAuthenticated = errors.New("no session")
)

// State of the session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateLoginRequired
	StateAuthenticated
	StateGuest
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoginRequired:
		return "login-required"
	case StateAuthenticated:
		return "authenticated"
	case StateGuest:
		return "guest"
	default:
		return "uninitialized"
	}
}

// Backend mirrors authenticated chats.
type Backend interface {
	Login(ctx context.Context, request *backend.LoginRequest) (*types.User, error)
	WhoAmI(ctx context.Context, token string) (*types.User, error)
	ListChats(ctx context.Context, token string) ([]*types.Chat, error)
	CreateChat(ctx context.Context, token, title string) (*types.Chat, error)
	AppendMessage(ctx context.Context, token, chatID string, message *types.Message) error
	UpdateChatTitle(ctx context.Context, token, chatID, title string) error
	DeleteChat(ctx context.Context, token, chatID string) error
}

// Inference answers chats.
type Inference interface {
	LoadEndpoint(ctx context.Context) (string, error)
	ListModels(ctx context.Context) ([]*types.Model, error)
	Complete(ctx context.Context, model string, history []*types.Message) (string, error)
}

// SessionStore persists the session across runs.
type SessionStore interface {
	Save(token string, user *types.User) error
	Load() (*store.Session, error)
	Clear() error
}

// Manager is the session state container. Views read it through Snapshot and
// change it through its intent methods, which are safe for concurrent use.
// The mutex is never held across network calls.
type Manager struct {
	backend   Backend
	inference Inference
	store     SessionStore
	now       func() time.Time

	notifyMutex sync.Mutex
	notify      func()

	mutex           sync.Mutex
	state           State
	user            *types.User
	token           string
	chats           map[string]*types.Chat
	activeID        string
	pendingDeleteID string
	generating      bool
	typing          bool
	guestCounter    int
	endpoint        string
	models          []*types.Model
	selectedModel   string
	assertion       *identity.Assertion
	consent         bool
}

// New instantiates and returns a new manager.
func New(backend Backend, inference Inference, store SessionStore) *Manager {
	return &Manager{
		backend:      backend,
		inference:    inference,
		store:        store,
		now:          time.Now,
		chats:        map[string]*types.Chat{},
		guestCounter: 1,
	}
}

// SetNotify sets the function called after every state change.
func (m *Manager) SetNotify(notify func()) {
	m.notifyMutex.Lock()
	defer m.notifyMutex.Unlock()
	m.notify = notify
}

func (m *Manager) changed() {
	m.notifyMutex.Lock()
	notify := m.notify
	m.notifyMutex.Unlock()
	if notify != nil {
		notify()
	}
}

// update runs fn under the lock and notifies afterwards.
func (m *Manager) update(fn func()) {
	m.mutex.Lock()
	fn()
	m.mutex.Unlock()
	m.changed()
}
