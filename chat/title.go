package chat

import (
	"strings"
)

const (
	// UntitledTitle replaces a derived title that is empty.
	UntitledTitle = "Ohne Titel"

	maxTitleLength = 50
)

// DeriveTitle returns the title of a chat given its first user message: the text
// before the first period, cut to 50 characters.
func DeriveTitle(content string) string {
	title, _, _ := strings.Cut(content, ".")
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength]) + "..."
	}
	title = strings.TrimSpace(title)
	if title == "" || title == "..." {
		return UntitledTitle
	}
	return title
}
