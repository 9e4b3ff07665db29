package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/internal/markdown"
	"github.com/mrermin/ermin/internal/premium"
	"github.com/mrermin/ermin/internal/types"
)

type KeyMapSession struct {
	Quit        key.Binding
	CycleFocus  key.Binding
	NewChat     key.Binding
	Premium     key.Binding
	CycleModel  key.Binding
	Logout      key.Binding
	CopyMessage key.Binding
	CopyCode    key.Binding
}

type InputKeyMap struct {
	Send                 key.Binding
	Newline              key.Binding
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
	ScrollUp             key.Binding
	ScrollDown           key.Binding
}

type KeyMapSidebar struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Delete key.Binding
}

type KeyMapConfirm struct {
	Yes key.Binding
	No  key.Binding
}

type KeyMapLogin struct {
	Login   key.Binding
	Consent key.Binding
	Guest   key.Binding
	Dismiss key.Binding
}

type KeyMapPremium struct {
	Monthly key.Binding
	Yearly  key.Binding
	Toggle  key.Binding
	Close   key.Binding
}

var keyMapSession = KeyMapSession{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
	CycleFocus: key.NewBinding(
		key.WithKeys("tab"),
	),
	NewChat: key.NewBinding(
		key.WithKeys("ctrl+n"),
	),
	Premium: key.NewBinding(
		key.WithKeys("ctrl+p"),
	),
	CycleModel: key.NewBinding(
		key.WithKeys("ctrl+t"),
	),
	Logout: key.NewBinding(
		key.WithKeys("alt+l"),
	),

	// Copy.
	CopyMessage: key.NewBinding(
		key.WithKeys("alt+w"),
	),
	CopyCode: key.NewBinding(
		key.WithKeys("alt+c"),
	),
}

var inputKeyMap = InputKeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter", "ctrl+j"),
	),

	// History.
	PreviousHistoryEntry: key.NewBinding(
		key.WithKeys("alt+p"),
	),
	NextHistoryEntry: key.NewBinding(
		key.WithKeys("alt+n"),
	),

	// Scrolling.
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
	),
}

var keyMapSidebar = KeyMapSidebar{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
	),
}

var keyMapConfirm = KeyMapConfirm{
	Yes: key.NewBinding(
		key.WithKeys("y", "Y", "j", "J"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
	),
}

var keyMapLogin = KeyMapLogin{
	Login: key.NewBinding(
		key.WithKeys("enter"),
	),
	Consent: key.NewBinding(
		key.WithKeys(" ", "c"),
	),
	Guest: key.NewBinding(
		key.WithKeys("g"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("enter", "esc"),
	),
}

var keyMapPremium = KeyMapPremium{
	Monthly: key.NewBinding(
		key.WithKeys("m"),
	),
	Yearly: key.NewBinding(
		key.WithKeys("y"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("tab", "left", "right"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "ctrl+p"),
	),
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
		default:
			log.Debug("update completed", "msg_type", fmt.Sprintf("%T", msg), "state", m.snapshot.State.String())
		}
	}()

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.windowFocused = true
		if m.focusedComponent == FocusTextarea {
			m.textarea.Focus()
		}
		cmds = append(cmds, textarea.Blink)
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case startupDoneMsg, stateChangedMsg:
		cmds = append(cmds, m.refresh()...)
		return m, tea.Batch(cmds...)

	case signInMountedMsg:
		m.signInMounting = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Batch(cmds...)
		}
		if !m.loginOverlayVisible() {
			// The user went on as a guest while the page was mounting.
			cmds = append(cmds, m.unmountSignIn())
			return m, tea.Batch(cmds...)
		}
		m.signInURL = msg.url
		m.scriptCapability = types.CapabilityPending
		cmds = append(cmds, m.awaitScript(msg.url), m.awaitAssertion(msg.url))
		return m, tea.Batch(cmds...)

	case signInUnmountedMsg:
		m.signInUnmounting = false
		// A logout may have happened while the previous page was shutting down.
		cmds = append(cmds, m.refresh()...)
		return m, tea.Batch(cmds...)

	case scriptCapabilityMsg:
		if msg.url == m.signInURL {
			m.scriptCapability = msg.capability
		}
		return m, tea.Batch(cmds...)

	case assertionMsg:
		if msg.err != nil || msg.url != m.signInURL {
			return m, tea.Batch(cmds...)
		}
		m.manager.SetAssertion(msg.assertion)
		// Keep listening: a later credential replaces this one.
		cmds = append(cmds, m.awaitAssertion(msg.url))
		return m, tea.Batch(cmds...)

	case loginDoneMsg:
		m.loggingIn = false
		if msg.err != nil {
			log.Warn("login failed", "err", msg.err)
			m.loginFailed = true
		}
		return m, tea.Batch(cmds...)

	case sendDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, chat.ErrEmptyMessage) {
			m.err = msg.err
		}
		// Rejected input goes back into an untouched textarea.
		rejected := errors.Is(msg.err, chat.ErrGenerating) || errors.Is(msg.err, chat.ErrNoActiveChat)
		if rejected && m.textarea.Value() == "" {
			m.textarea.SetValue(msg.input)
			m.adjustTextareaHeight()
		}
		return m, tea.Batch(cmds...)

	case opDoneMsg:
		if msg.err != nil {
			log.Warn("chat operation failed", "op", msg.op, "err", msg.err)
			m.err = fmt.Errorf("%s: %w", msg.op, msg.err)
		}
		return m, tea.Batch(cmds...)

	case payLaterMsg:
		m.payLaterProbing = false
		m.payLaterCapability = msg.capability
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.snapshot.Typing {
			m.viewport.SetContent(m.renderMessages())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if key.Matches(msg, keyMapSession.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}
	}

	if m.focusedComponent == FocusTextarea && !m.loginOverlayVisible() && !m.premiumOpen {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	// Keys belong to the textarea; the viewport only scrolls with the mouse and page keys.
	if _, ok := msg.(tea.KeyMsg); !ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh pulls the latest snapshot and reconciles the view with it.
func (m *Model) refresh() []tea.Cmd {
	var cmds []tea.Cmd
	previous := m.snapshot
	m.snapshot = m.manager.Snapshot()

	switch {
	case m.loginOverlayVisible() && m.signInURL == "" && !m.signInMounting && !m.signInUnmounting:
		cmds = append(cmds, m.mountSignIn())
	case !m.loginOverlayVisible() && m.signInURL != "":
		cmds = append(cmds, m.unmountSignIn())
	}
	if !m.loginOverlayVisible() {
		m.loginFailed = false
	}

	if m.snapshot.PendingDeleteID != "" && previous.PendingDeleteID == "" {
		m.textarea.Blur()
	}
	if m.sidebarCursor >= len(m.snapshot.Chats) {
		m.sidebarCursor = max(len(m.snapshot.Chats)-1, 0)
	}

	if m.ready {
		m.renderMessagesIfChanged()
		m.recalculateLayout()
	}
	return cmds
}

// handleKey routes a key to the component in front. Returns whether the key was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case m.loginFailed:
		if key.Matches(msg, keyMapLogin.Dismiss) {
			m.loginFailed = false
		}
		return nil, true

	case m.loginOverlayVisible():
		return m.handleLoginKey(msg), true

	case m.snapshot.PendingDeleteID != "":
		return m.handleConfirmKey(msg), true

	case m.premiumOpen:
		return m.handlePremiumKey(msg), true
	}

	switch {
	case key.Matches(msg, keyMapSession.CycleFocus):
		switch m.focusedComponent {
		case FocusTextarea:
			m.focusedComponent = FocusSidebar
			m.textarea.Blur()
			m.sidebarCursor = m.activeChatIndex()
			return nil, true
		case FocusSidebar:
			m.focusedComponent = FocusTextarea
			m.textarea.Focus()
			return textarea.Blink, true
		}

	case key.Matches(msg, keyMapSession.NewChat):
		return m.newChat(), true

	case key.Matches(msg, keyMapSession.Premium):
		m.premiumOpen = true
		m.textarea.Blur()
		if m.payLaterCapability == types.CapabilityPending && !m.payLaterProbing {
			return m.probePayLater(), true
		}
		return nil, true

	case key.Matches(msg, keyMapSession.CycleModel):
		m.manager.CycleModel()
		return nil, true

	case key.Matches(msg, keyMapSession.Logout):
		if m.snapshot.State == chat.StateAuthenticated || m.snapshot.State == chat.StateGuest {
			m.manager.Logout()
		}
		return nil, true

	case key.Matches(msg, keyMapSession.CopyMessage):
		content, ok := m.lastAssistantMessage()
		if !ok {
			return nil, true
		}
		return m.copyToClipboard(content, "Nachricht kopiert!"), true

	case key.Matches(msg, keyMapSession.CopyCode):
		content, ok := m.lastAssistantMessage()
		if !ok {
			return nil, true
		}
		block, ok := markdown.LastCodeBlock(content)
		if !ok {
			return m.alert.NewAlertCmd(bubbleup.WarnKey, "Kein Codeblock gefunden."), true
		}
		return m.copyToClipboard(block.Code, "Code kopiert!"), true
	}

	if m.focusedComponent == FocusSidebar {
		return m.handleSidebarKey(msg), true
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	km := keyMapLogin
	switch {
	case key.Matches(msg, km.Login):
		if m.snapshot.CanLogin() && !m.loggingIn {
			return m.login()
		}
	case key.Matches(msg, km.Consent):
		m.manager.SetConsent(!m.snapshot.Consent)
	case key.Matches(msg, km.Guest):
		if !m.loggingIn {
			return m.enterGuest()
		}
	}
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keyMapConfirm.Yes):
		return m.confirmDelete()
	case key.Matches(msg, keyMapConfirm.No):
		m.manager.CancelDelete()
	}
	return nil
}

func (m *Model) handlePremiumKey(msg tea.KeyMsg) tea.Cmd {
	km := keyMapPremium
	switch {
	case key.Matches(msg, km.Close):
		m.premiumOpen = false
		if m.focusedComponent == FocusTextarea {
			m.textarea.Focus()
			return textarea.Blink
		}
	case key.Matches(msg, km.Monthly):
		m.planSelection.Select(premium.Monthly)
	case key.Matches(msg, km.Yearly):
		m.planSelection.Select(premium.Yearly)
	case key.Matches(msg, km.Toggle):
		m.planSelection.Toggle()
	}
	return nil
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	km := keyMapSidebar
	chats := m.snapshot.Chats
	switch {
	case key.Matches(msg, km.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case key.Matches(msg, km.Down):
		if m.sidebarCursor < len(chats)-1 {
			m.sidebarCursor++
		}
	case key.Matches(msg, km.Select):
		if m.sidebarCursor < len(chats) {
			if err := m.manager.SelectChat(chats[m.sidebarCursor].ID); err != nil {
				m.err = err
			}
		}
	case key.Matches(msg, km.Delete):
		// Deleting never selects the item.
		if m.sidebarCursor < len(chats) {
			if err := m.manager.RequestDelete(chats[m.sidebarCursor].ID); err != nil {
				m.err = err
			}
		}
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := inputKeyMap
	switch {
	case key.Matches(msg, km.Send):
		if m.historyNavigating {
			m.history.Reset()
			m.historyNavigating = false
		}
		m.err = nil
		return m.sendMessage(), true

	case key.Matches(msg, km.PreviousHistoryEntry):
		if entry, ok := m.history.Previous(m.textarea.Value()); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true

	case key.Matches(msg, km.NextHistoryEntry):
		if entry, ok := m.history.Next(); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true

	case key.Matches(msg, km.ScrollUp):
		m.viewport.LineUp(max(m.viewport.Height/2, 1))
		return nil, true

	case key.Matches(msg, km.ScrollDown):
		m.viewport.LineDown(max(m.viewport.Height/2, 1))
		return nil, true
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
			m.history.Reset()
			m.historyNavigating = false
		}
	}
	return nil, false
}

func (m *Model) copyToClipboard(content, notice string) tea.Cmd {
	if !m.opts.Clipboard {
		return m.alert.NewAlertCmd(bubbleup.WarnKey, "Zwischenablage nicht verfügbar.")
	}
	clipboard.Write(clipboard.FmtText, []byte(content))
	return m.alert.NewAlertCmd(bubbleup.InfoKey, notice)
}

// activeChatIndex returns the sidebar position of the active chat.
func (m *Model) activeChatIndex() int {
	for i, c := range m.snapshot.Chats {
		if c.ID == m.snapshot.ActiveChatID {
			return i
		}
	}
	return 0
}
