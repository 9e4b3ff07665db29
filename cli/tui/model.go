// Package tui is the terminal view of a Mr Ermin session.
package tui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/cli/tui/styles"
	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/history"
	"github.com/mrermin/ermin/internal/identity"
	"github.com/mrermin/ermin/internal/markdown"
	"github.com/mrermin/ermin/internal/premium"
	"github.com/mrermin/ermin/internal/types"
)

const (
	FocusTextarea FocusedComponent = iota
	FocusSidebar
)

const modelsPlaceholder = "Lade Modelle..."

var log *slog.Logger

type FocusedComponent int

// SignIn hosts the Google sign-in page.
type SignIn interface {
	Mount(ctx context.Context) (string, error)
	Ready(ctx context.Context) types.Capability
	Wait(ctx context.Context) (*identity.Assertion, error)
	Unmount(ctx context.Context) error
}

// PayLater probes the financing-message script.
type PayLater interface {
	Probe(ctx context.Context) types.Capability
}

// Opts for the TUI.
type Opts struct {
	// Skip the login overlay and start a guest session.
	Guest bool
	// Model to select once the models are loaded.
	Model string
	// Persists the input history. Nil keeps history in memory.
	History history.Backing
	// Whether the system clipboard could be initialized.
	Clipboard bool
}

// Model represents the Bubble Tea model for a chat session.
type Model struct {
	// Core dependencies
	ctx      context.Context
	opts     *Opts
	manager  *chat.Manager
	signIn   SignIn
	payLater PayLater

	// Latest manager state.
	snapshot *chat.Snapshot

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer

	// UI state
	width            int
	height           int
	ready            bool
	err              error
	quitting         bool
	windowFocused    bool
	focusedComponent FocusedComponent
	sidebarCursor    int
	renderedChatID   string
	renderedCount    int

	// Login overlay.
	signInURL        string
	signInMounting   bool
	signInUnmounting bool
	scriptCapability types.Capability
	loggingIn        bool
	loginFailed      bool

	// Premium modal.
	premiumOpen        bool
	planSelection      premium.Selection
	payLaterCapability types.Capability
	payLaterProbing    bool

	// Alert notifications.
	alert bubbleup.AlertModel

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates a new chat session model.
func New(ctx context.Context, opts *Opts, manager *chat.Manager, signIn SignIn, payLater PayLater) (*Model, error) {
	log = debug.GetLogger()

	ta := textarea.New()
	ta.Placeholder = "Nachricht eingeben... (Enter senden, Alt+Enter neue Zeile, Tab Verlauf, Ctrl+C beenden)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = inputKeyMap.Newline
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = styles.SpinnerStyle

	alert := bubbleup.NewAlertModel(40, true, 2)

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ctx:              ctx,
		opts:             opts,
		manager:          manager,
		signIn:           signIn,
		payLater:         payLater,
		snapshot:         manager.Snapshot(),
		textarea:         ta,
		spinner:          sp,
		renderer:         renderer,
		windowFocused:    true,
		focusedComponent: FocusTextarea,
		alert:            *alert,
		history:          history.New(opts.History),
	}

	manager.SetNotify(m.notify)
	return m, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// notify forwards manager changes to the program. Send blocks until Update
// receives the message, and manager methods are called from Update.
func (m *Model) notify() {
	if p := m.getProgram(); p != nil {
		go p.Send(stateChangedMsg{})
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
	}
	if m.opts.Guest {
		cmds = append(cmds, m.startGuest())
	} else {
		cmds = append(cmds, m.startup())
	}
	return tea.Batch(cmds...)
}

// modelLabel returns the selected model, or a placeholder while models load.
func (m *Model) modelLabel() string {
	if m.snapshot.SelectedModel == "" {
		return modelsPlaceholder
	}
	return m.snapshot.SelectedModel
}

// lastAssistantMessage returns the content of the latest assistant message of the active chat.
func (m *Model) lastAssistantMessage() (string, bool) {
	active := m.snapshot.ActiveChat()
	if active == nil {
		return "", false
	}
	for i := len(active.Messages) - 1; i >= 0; i-- {
		if message := active.Messages[i]; !message.IsUser() {
			return message.Content, true
		}
	}
	return "", false
}

// loginOverlayVisible is true while the session waits for a login or a guest choice.
func (m *Model) loginOverlayVisible() bool {
	return m.snapshot.State == chat.StateLoginRequired
}
