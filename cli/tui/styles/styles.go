package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 2
	MaxTextareaHeight    = 10
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Viewport
	MinViewportHeight = 1

	// Sidebar
	SidebarWidth = 30

	// Modals
	ModalWidth               = 64
	ModalPaddingHorizontal   = 2
	ModalPaddingVertical     = 1
	MessagePaddingLeft       = 2
	TruncateSuffix           = "..."
	UserMessageMarginLeft    = 10
	AssistantMarginRight     = 10
	HelpMarginTop            = 0
	ConfirmMarginTop         = 1
	ConfirmPaddingVertical   = 1
	ConfirmPaddingHorizontal = 2
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#F97316") // Orange
	SecondaryColor = lipgloss.Color("#9CA3AF") // Gray
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	SuccessColor   = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	MutedColor     = lipgloss.Color("#6B7280") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light gray
	DimTextColor   = lipgloss.Color("#9CA3AF") // Dim gray
	LinkColor      = lipgloss.Color("#60A5FA") // Blue
	BorderColor    = lipgloss.Color("#4B5563")
	DividerColor   = lipgloss.Color("#374151")
	ActiveBgColor  = lipgloss.Color("#431407")
)

// Title bar
var (
	TitleStyle = lipgloss.NewStyle().
		Background(PrimaryColor).
		Foreground(TextColor).
		Bold(true)
)

// Messages.
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserMessageStyle = messageStyle.
				BorderForeground(PrimaryColor).
				MarginLeft(UserMessageMarginLeft)

	AIMessageStyle = messageStyle.
			BorderForeground(SecondaryColor).
			MarginRight(AssistantMarginRight)

	ErrorMessageStyle = AIMessageStyle.
				BorderForeground(ErrorColor).
				Foreground(ErrorColor)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	AILabelStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	TypingStyle = lipgloss.NewStyle().
			Foreground(DimTextColor).
			PaddingLeft(MessagePaddingLeft)
)

// Sidebar
var (
	SidebarStyle = lipgloss.NewStyle().
			Width(SidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(BorderColor).
			PaddingRight(1)

	SidebarFocusedStyle = SidebarStyle.
				BorderForeground(PrimaryColor)

	ChatItemStyle = lipgloss.NewStyle().
			Foreground(DimTextColor).
			PaddingLeft(1)

	ActiveChatItemStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(ActiveBgColor).
				Bold(true).
				PaddingLeft(1)

	CursorChatItemStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				PaddingLeft(1)

	AccountStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)
)

// Modals
var (
	ModalStyle = lipgloss.NewStyle().
			Width(ModalWidth).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(ModalPaddingVertical, ModalPaddingHorizontal)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	PlanStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1).
			Width((ModalWidth - 2*ModalPaddingHorizontal - 6) / 2)

	SelectedPlanStyle = PlanStyle.
				BorderForeground(PrimaryColor).
				Foreground(PrimaryColor)

	BadgeStyle = lipgloss.NewStyle().
			Background(SuccessColor).
			Foreground(TextColor).
			Padding(0, 1)

	FeatureStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	CheckStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ButtonStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(TextColor).
			Bold(true).
			Padding(0, 2)

	LinkStyle = lipgloss.NewStyle().
			Foreground(LinkColor).
			Underline(true)
)

// Confirmation dialog
var (
	ConfirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AccentColor).
			Padding(ConfirmPaddingVertical, ConfirmPaddingHorizontal).
			MarginTop(ConfirmMarginTop)

	ConfirmTitleStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true)

	AlertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ErrorColor).
			Padding(ConfirmPaddingVertical, ConfirmPaddingHorizontal)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			PaddingLeft(TextAreaPaddingLeft)

	TextAreaBlurredStyle = TextAreaStyle.
				BorderForeground(BorderColor)
)

// Spinner
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor)
)

// Help text
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			MarginTop(HelpMarginTop)

	DimTextStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// MessageHorizontalFrameSize returns the horizontal frame size of assistant messages.
func MessageHorizontalFrameSize() int {
	return AIMessageStyle.GetHorizontalFrameSize()
}

// Truncate truncates a string to the given display width, ending it with a suffix.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, TruncateSuffix)
}
