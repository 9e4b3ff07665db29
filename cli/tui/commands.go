package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrermin/ermin/internal/types"
)

const unmountTimeout = 5 * time.Second

func (m *Model) startup() tea.Cmd {
	return func() tea.Msg {
		m.manager.Startup(m.ctx)
		m.selectRequestedModel()
		return startupDoneMsg{}
	}
}

// startGuest loads the models and starts a guest session without showing the login overlay.
func (m *Model) startGuest() tea.Cmd {
	return func() tea.Msg {
		m.manager.LoadModels(m.ctx)
		m.selectRequestedModel()
		m.manager.EnterGuest()
		return stateChangedMsg{}
	}
}

func (m *Model) enterGuest() tea.Cmd {
	return func() tea.Msg {
		m.manager.EnterGuest()
		return stateChangedMsg{}
	}
}

func (m *Model) selectRequestedModel() {
	if m.opts.Model != "" && !m.manager.SelectModel(m.opts.Model) {
		log.Warn("requested model is not offered", "model", m.opts.Model)
	}
}

// mountSignIn starts serving the sign-in page.
func (m *Model) mountSignIn() tea.Cmd {
	m.signInMounting = true
	return func() tea.Msg {
		url, err := m.signIn.Mount(m.ctx)
		return signInMountedMsg{url: url, err: err}
	}
}

func (m *Model) unmountSignIn() tea.Cmd {
	m.signInUnmounting = true
	m.signInURL = ""
	m.scriptCapability = types.CapabilityPending
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), unmountTimeout)
		defer cancel()
		if err := m.signIn.Unmount(ctx); err != nil {
			log.Warn("unmounting sign-in page", "err", err)
		}
		return signInUnmountedMsg{}
	}
}

func (m *Model) awaitScript(url string) tea.Cmd {
	return func() tea.Msg {
		return scriptCapabilityMsg{url: url, capability: m.signIn.Ready(m.ctx)}
	}
}

// awaitAssertion waits for the next credential posted by the sign-in page.
func (m *Model) awaitAssertion(url string) tea.Cmd {
	return func() tea.Msg {
		assertion, err := m.signIn.Wait(m.ctx)
		return assertionMsg{url: url, assertion: assertion, err: err}
	}
}

func (m *Model) login() tea.Cmd {
	m.loggingIn = true
	return func() tea.Msg {
		return loginDoneMsg{err: m.manager.Login(m.ctx)}
	}
}

func (m *Model) sendMessage() tea.Cmd {
	userInput := strings.TrimSpace(m.textarea.Value())
	if userInput == "" || m.snapshot.Generating {
		return nil
	}

	m.history.Add(userInput)
	m.historyNavigating = false
	m.textarea.Reset()
	m.adjustTextareaHeight()

	return func() tea.Msg {
		return sendDoneMsg{input: userInput, err: m.manager.Send(m.ctx, userInput)}
	}
}

func (m *Model) newChat() tea.Cmd {
	return func() tea.Msg {
		_, err := m.manager.NewChat(m.ctx)
		return opDoneMsg{op: "new chat", err: err}
	}
}

func (m *Model) confirmDelete() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "delete chat", err: m.manager.ConfirmDelete(m.ctx)}
	}
}

func (m *Model) probePayLater() tea.Cmd {
	m.payLaterProbing = true
	return func() tea.Msg {
		return payLaterMsg{capability: m.payLater.Probe(m.ctx)}
	}
}
