package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrermin/ermin/cli/tui/styles"
)

const minMainWidth = 20

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)

		heightDiff := newHeight - oldHeight

		m.recalculateLayout()

		if heightDiff != 0 && m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

// sidebarWidth returns the full width of the sidebar, frame included.
func (m *Model) sidebarWidth() int {
	return styles.SidebarWidth + styles.SidebarStyle.GetHorizontalBorderSize()
}

// mainWidth returns the width of the column right of the sidebar.
func (m *Model) mainWidth() int {
	return max(m.width-m.sidebarWidth(), minMainWidth)
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// Title bar, input and help line.
	viewportHeight := m.height - lipgloss.Height(m.renderTitle()) - 1
	viewportHeight -= m.textarea.Height() + styles.TextAreaStyle.GetVerticalFrameSize()
	if m.err != nil {
		viewportHeight--
	}
	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}

	viewportWidth := m.mainWidth()
	rendererWidth := viewportWidth - styles.MessageHorizontalFrameSize() - styles.AssistantMarginRight
	if rendererWidth != m.renderer.Width() {
		if err := m.renderer.SetWidth(rendererWidth); err != nil {
			log.Warn("resizing markdown renderer", "err", err)
		}
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
}

// renderMessagesIfChanged re-renders the messages when the active chat or its length changed,
// following the conversation if the viewport was at the bottom.
func (m *Model) renderMessagesIfChanged() {
	active := m.snapshot.ActiveChat()
	chatID, count := "", 0
	if active != nil {
		chatID, count = active.ID, len(active.Messages)
	}
	switched := chatID != m.renderedChatID
	if !switched && count == m.renderedCount && !m.snapshot.Typing {
		return
	}

	wasAtBottom := m.viewport.AtBottom()
	m.renderedChatID, m.renderedCount = chatID, count
	m.viewport.SetContent(m.renderMessages())
	if switched || wasAtBottom {
		m.viewport.GotoBottom()
	}
}
