package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrermin/ermin/internal/backend"
	"github.com/mrermin/ermin/internal/types"
	"github.com/mrermin/ermin/store"
)

// recorder logs calls across fakes so tests can assert their order.
type recorder struct {
	mutex sync.Mutex
	calls []string
}

func (r *recorder) record(format string, args ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) get() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeBackend struct {
	recorder *recorder

	mutex      sync.Mutex
	calls      int
	loginErr   error
	whoAmIErr  error
	listErr    error
	createErr  error
	appendErr  error
	chats      []*types.Chat
	nextID     int
	lastLogin  *backend.LoginRequest
	appended   map[string][]*types.Message
	titles     map[string]string
	deletedIDs []string
}

func newFakeBackend(r *recorder) *fakeBackend {
	return &fakeBackend{
		recorder: r,
		appended: map[string][]*types.Message{},
		titles:   map[string]string{},
	}
}

func (f *fakeBackend) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

func (f *fakeBackend) Login(ctx context.Context, request *backend.LoginRequest) (*types.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("login %s", request.Email)
	f.lastLogin = request
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &types.User{ID: "u1", Email: request.Email, Name: request.Name, GoogleID: request.GoogleID, AccessToken: "token-1"}, nil
}

func (f *fakeBackend) WhoAmI(ctx context.Context, token string) (*types.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("whoAmI %s", token)
	if f.whoAmIErr != nil {
		return nil, f.whoAmIErr
	}
	return &types.User{ID: "u1", Email: "ada@example.com", Name: "Ada"}, nil
}

func (f *fakeBackend) ListChats(ctx context.Context, token string) ([]*types.Chat, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("listChats")
	if f.listErr != nil {
		return nil, f.listErr
	}
	chats := make([]*types.Chat, 0, len(f.chats))
	for _, chat := range f.chats {
		chats = append(chats, chat.Clone())
	}
	return chats, nil
}

func (f *fakeBackend) CreateChat(ctx context.Context, token, title string) (*types.Chat, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("createChat %s", title)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	return &types.Chat{ID: fmt.Sprintf("server-%d", f.nextID), Title: title, ServerSynced: true}, nil
}

func (f *fakeBackend) AppendMessage(ctx context.Context, token, chatID string, message *types.Message) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("appendMessage %s %s %s", chatID, message.Role, message.Content)
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended[chatID] = append(f.appended[chatID], message)
	return nil
}

func (f *fakeBackend) UpdateChatTitle(ctx context.Context, token, chatID, title string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("updateChatTitle %s %s", chatID, title)
	f.titles[chatID] = title
	return nil
}

func (f *fakeBackend) DeleteChat(ctx context.Context, token, chatID string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	f.recorder.record("deleteChat %s", chatID)
	f.deletedIDs = append(f.deletedIDs, chatID)
	return nil
}

type fakeInference struct {
	recorder *recorder

	mutex     sync.Mutex
	calls     int
	models    []*types.Model
	modelsErr error
	reply     string
	err       error
	// When set, Complete signals started and waits for release.
	started         chan struct{}
	release         chan struct{}
	histories       [][]*types.Message
	completedModels []string
}

func (f *fakeInference) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

func (f *fakeInference) LoadEndpoint(ctx context.Context) (string, error) {
	return "http://inference.test", nil
}

func (f *fakeInference) ListModels(ctx context.Context) ([]*types.Model, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.models, f.modelsErr
}

func (f *fakeInference) Complete(ctx context.Context, model string, history []*types.Message) (string, error) {
	f.mutex.Lock()
	f.calls++
	f.histories = append(f.histories, history)
	f.completedModels = append(f.completedModels, model)
	started, release := f.started, f.release
	f.started, f.release = nil, nil
	reply, err := f.reply, f.err
	f.mutex.Unlock()
	if f.recorder != nil {
		f.recorder.record("complete %s", history[len(history)-1].Content)
	}

	if started != nil {
		close(started)
		<-release
	}
	return reply, err
}

type fakeStore struct {
	mutex   sync.Mutex
	session *store.Session
	saves   int
	clears  int
}

func (f *fakeStore) Save(token string, user *types.User) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.saves++
	f.session = &store.Session{Token: token, User: user}
	return nil
}

func (f *fakeStore) Load() (*store.Session, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.session == nil {
		return nil, store.ErrAbsent
	}
	return f.session, nil
}

func (f *fakeStore) Clear() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.clears++
	f.session = nil
	return nil
}

// clock returns increasing instants one second apart.
func clock() func() time.Time {
	var mutex sync.Mutex
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mutex.Lock()
		defer mutex.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type harness struct {
	recorder  *recorder
	backend   *fakeBackend
	inference *fakeInference
	store     *fakeStore
	manager   *Manager
}

func newHarness() *harness {
	r := &recorder{}
	h := &harness{
		recorder:  r,
		backend:   newFakeBackend(r),
		inference: &fakeInference{recorder: r, models: []*types.Model{{ID: "llama-3"}, {ID: "mistral"}}, reply: "Hello!"},
		store:     &fakeStore{},
	}
	h.manager = New(h.backend, h.inference, h.store)
	h.manager.now = clock()
	return h
}
