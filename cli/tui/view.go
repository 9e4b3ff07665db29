package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/cli/tui/styles"
	"github.com/mrermin/ermin/internal/paylater"
	"github.com/mrermin/ermin/internal/premium"
	"github.com/mrermin/ermin/internal/types"
)

const (
	welcomeTitle = "Willkommen bei Mr Ermin"
	footerText   = "© Mr Ermin – Gute Ideen, gute Antworten"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initialisiere..."
	}

	var content string
	switch {
	case m.snapshot.State == chat.StateUninitialized || m.snapshot.State == chat.StateLoading:
		content = m.place(styles.DimTextStyle.Render(m.spinner.View() + " Verbinde mit Mr Ermin API..."))
	case m.loginFailed:
		content = m.place(m.renderLoginFailed())
	case m.loginOverlayVisible():
		content = m.place(m.renderLoginOverlay())
	case m.snapshot.PendingDeleteID != "":
		content = m.place(m.renderConfirmDialog())
	case m.premiumOpen:
		content = m.place(m.renderPremium())
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderMain())
	}
	return m.alert.Render(content)
}

// place centers a dialog on the screen.
func (m *Model) place(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

func (m *Model) renderTitle() string {
	title := welcomeTitle
	if active := m.snapshot.ActiveChat(); active != nil {
		title = active.Title
	}
	bar := fmt.Sprintf(" 🦦 %s │ 🤖 %s ", title, m.modelLabel())
	return styles.TitleStyle.Width(m.mainWidth()).Render(styles.Truncate(bar, m.mainWidth()))
}

func (m *Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	inputStyle := styles.TextAreaStyle
	if m.focusedComponent != FocusTextarea {
		inputStyle = styles.TextAreaBlurredStyle
	}
	b.WriteString(inputStyle.Render(m.textarea.View()))
	b.WriteString("\n")

	help := "Alt+Enter neue Zeile • Tab Verlauf • Ctrl+N neuer Chat • Ctrl+T Modell • Ctrl+P Premium"
	if m.focusedComponent == FocusSidebar {
		help = "↑/↓ auswählen • Enter öffnen • d löschen • Tab zurück"
	}
	b.WriteString(styles.HelpStyle.Render(styles.Truncate(help, m.mainWidth())))

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(styles.Truncate(fmt.Sprintf("Fehler: %v", m.err), m.mainWidth())))
	}

	return b.String()
}

func (m *Model) renderMessages() string {
	active := m.snapshot.ActiveChat()
	if active == nil {
		return ""
	}

	var b strings.Builder
	contentWidth := m.viewport.Width
	for i, message := range active.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		timestamp := styles.TimestampStyle.Render(message.Timestamp.Local().Format("15:04"))
		if message.IsUser() {
			label := styles.UserLabelStyle.Render("Du") + " " + timestamp
			b.WriteString(lipgloss.PlaceHorizontal(contentWidth, lipgloss.Right, label))
			b.WriteString("\n")
			body := styles.UserMessageStyle.
				MaxWidth(contentWidth).
				Width(contentWidth - styles.UserMessageMarginLeft - styles.MessageHorizontalFrameSize()).
				Render(message.Content)
			b.WriteString(body)
			continue
		}

		b.WriteString(styles.AILabelStyle.Render("Mr Ermin") + " " + timestamp)
		b.WriteString("\n")
		if strings.HasPrefix(message.Content, chat.ErrorPrefix) {
			b.WriteString(styles.ErrorMessageStyle.Render(message.Content))
			continue
		}
		b.WriteString(styles.AIMessageStyle.Render(m.renderer.Render(message.Content)))
	}

	if m.snapshot.Typing {
		b.WriteString("\n\n")
		b.WriteString(styles.TypingStyle.Render(m.spinner.View() + " Mr Ermin tippt"))
	}
	return b.String()
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render(" Mr Ermin AI"))
	b.WriteString("\n")
	b.WriteString(styles.DimTextStyle.Render(" Kreativmodus • Optimiert für Dialog"))
	b.WriteString("\n\n")

	itemWidth := styles.SidebarWidth - styles.ChatItemStyle.GetHorizontalFrameSize()
	for i, c := range m.snapshot.Chats {
		title := styles.Truncate(c.Title, itemWidth-2)
		style := styles.ChatItemStyle
		switch {
		case m.focusedComponent == FocusSidebar && i == m.sidebarCursor:
			style = styles.CursorChatItemStyle
			title = "› " + title
		case c.ID == m.snapshot.ActiveChatID:
			style = styles.ActiveChatItemStyle
			title = "• " + title
		default:
			title = "  " + title
		}
		b.WriteString(style.Width(styles.SidebarWidth).Render(title))
		b.WriteString("\n")
	}

	// Push the account block to the bottom.
	list := b.String()
	account := m.renderAccount()
	gap := m.height - lipgloss.Height(list) - lipgloss.Height(account)
	if gap > 0 {
		list += strings.Repeat("\n", gap)
	}

	style := styles.SidebarStyle
	if m.focusedComponent == FocusSidebar {
		style = styles.SidebarFocusedStyle
	}
	return style.Height(m.height).MaxHeight(m.height).Render(list + account)
}

func (m *Model) renderAccount() string {
	var lines []string
	lines = append(lines, styles.AccountStyle.Render("Modell: "+styles.Truncate(m.modelLabel(), styles.SidebarWidth-9)))

	user := m.snapshot.User
	switch {
	case m.snapshot.State == chat.StateAuthenticated && user != nil:
		lines = append(lines, styles.AccountStyle.Render("👤 Angemeldet als:"))
		name := user.Name
		if user.Verified {
			name += " " + styles.CheckStyle.Render("✓")
		}
		lines = append(lines, styles.AccountStyle.Render(name))
		lines = append(lines, styles.AccountStyle.Render(styles.Truncate(user.Email, styles.SidebarWidth-2)))
		lines = append(lines, styles.AccountStyle.Render("Alt+L Ausloggen"))
	case m.snapshot.State == chat.StateGuest:
		lines = append(lines, styles.AccountStyle.Render("👤 Gastmodus"))
		lines = append(lines, styles.AccountStyle.Render("Alt+L Anmelden"))
	}
	lines = append(lines, styles.AccountStyle.Render(styles.Truncate(footerText, styles.SidebarWidth-2)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderLoginOverlay() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Bitte einloggen"))
	b.WriteString("\n\n")
	b.WriteString("Melde dich an, um den Chat nutzen zu können. Wir verwenden Google Login zur sicheren Authentifizierung.")
	b.WriteString("\n\n")

	switch {
	case m.signInURL == "":
		b.WriteString(styles.DimTextStyle.Render(m.spinner.View() + " Starte Anmeldeseite..."))
	default:
		b.WriteString("Im Browser öffnen: " + styles.LinkStyle.Render(m.signInURL))
		b.WriteString("\n")
		switch m.scriptCapability {
		case types.CapabilityPresent:
			b.WriteString(styles.CheckStyle.Render("Google Login bereit."))
		case types.CapabilityUnavailable:
			b.WriteString(styles.ErrorStyle.Render("Google Login nicht verfügbar. Fahre als Gast fort."))
		default:
			b.WriteString(styles.DimTextStyle.Render(m.spinner.View() + " Warte auf Google Login..."))
		}
	}
	b.WriteString("\n")

	if hint := m.snapshot.SignInHint; hint != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("👤 %s <%s>", hint.Name, hint.Email))
		b.WriteString("\n")
	}

	checkbox := "[ ]"
	if m.snapshot.Consent {
		checkbox = styles.CheckStyle.Render("[x]")
	}
	b.WriteString("\n")
	b.WriteString(checkbox + " Ich stimme der Datenschutzerklärung und der Speicherung meiner E‑Mail zu. (Leertaste)")
	b.WriteString("\n\n")

	proceed := styles.ButtonStyle.Render("Enter: Fortfahren")
	if !m.snapshot.CanLogin() {
		proceed = styles.DimTextStyle.Render("Enter: Fortfahren")
	}
	if m.loggingIn {
		proceed = styles.DimTextStyle.Render(m.spinner.View() + " Anmeldung...")
	}
	b.WriteString(styles.DimTextStyle.Render("g: Als Gast fortfahren") + "   " + proceed)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Hinweis: Der API-Endpunkt ist verborgen, damit er nicht missbraucht werden kann. Ihre Anfragen werden datenschutzkonform verarbeitet."))

	return styles.ModalStyle.Render(b.String())
}

func (m *Model) renderLoginFailed() string {
	content := styles.ErrorStyle.Render(chat.LoginFailedText) + "\n\n" + styles.HelpStyle.Render("Enter: OK")
	return styles.AlertBoxStyle.Render(content)
}

func (m *Model) renderConfirmDialog() string {
	title := ""
	if pending := m.snapshot.Chat(m.snapshot.PendingDeleteID); pending != nil {
		title = pending.Title
	}
	var b strings.Builder
	b.WriteString(styles.ConfirmTitleStyle.Render(chat.DeleteConfirmationText))
	b.WriteString("\n\n")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("y: löschen • n/Esc: abbrechen"))
	return styles.ConfirmBoxStyle.Render(b.String())
}

func (m *Model) renderPremium() string {
	selected := m.planSelection.Plan()

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Mr Ermin Premium"))
	b.WriteString("\n\n")

	var cards []string
	for _, plan := range premium.Plans() {
		cards = append(cards, m.renderPlan(plan, plan.ID == selected.ID))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[0], "  ", cards[1]))
	b.WriteString("\n\n")

	for _, feature := range selected.Features {
		b.WriteString(styles.CheckStyle.Render("✓ ") + styles.FeatureStyle.Render(feature))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Installment message.
	b.WriteString(paylater.Message(selected.Price, m.payLaterCapability))
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(paylater.Disclaimer))
	b.WriteString("\n\n")

	b.WriteString(styles.ButtonStyle.Render(selected.CallToAction()))
	b.WriteString("\n\n")

	if user := m.snapshot.User; user != nil && m.snapshot.State == chat.StateAuthenticated {
		b.WriteString(styles.DimTextStyle.Render("Konto: " + user.Email))
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpStyle.Render("m/y oder Tab: Plan wählen • Esc: schließen"))
	return styles.ModalStyle.Render(b.String())
}

func (m *Model) renderPlan(plan *premium.Plan, selected bool) string {
	style := styles.PlanStyle
	if selected {
		style = styles.SelectedPlanStyle
	}

	var b strings.Builder
	b.WriteString(plan.Label)
	if label := plan.SavingsLabel(); label != "" {
		b.WriteString(" " + styles.BadgeStyle.Render(label))
	}
	b.WriteString("\n")
	b.WriteString(plan.PriceLabel())
	if plan.Months > 1 {
		b.WriteString("\n")
		b.WriteString(styles.DimTextStyle.Render(premium.FormatEuro(plan.PerMonth()) + "/Monat"))
	}
	return style.Render(b.String())
}
