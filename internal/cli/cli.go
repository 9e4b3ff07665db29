// Package cli prints colored line-mode output and reads user input.
package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

const continuation = "\\"

var (
	// Colors for different types of output
	userInputColor = color.New(color.FgWhite)              // White for user input
	aiOutputColor  = color.New(color.FgHiYellow)           // Orange-ish for Mr Ermin
	errorColor     = color.New(color.FgRed, color.Bold)    // Bold red for errors
	infoColor      = color.New(color.FgHiBlack)            // Dark grey for hints
	titleColor     = color.New(color.FgYellow, color.Bold) // Bold yellow for titles
	separatorColor = color.New(color.FgHiBlack)            // Dark grey for separators
	linkColor      = color.New(color.FgBlue, color.Underline)
	promptColor    = color.New(color.FgHiYellow)

	width = goterm.Width()
)

// Width of the terminal.
func Width() int {
	if width <= 0 {
		return 80
	}
	return width
}

// Separator printed to cli.
func Separator() {
	separatorColor.Println(strings.Repeat("-", Width()))
}

// Title printed to cli.
func Title(text string, args ...any) {
	titleColor.Println(title(fmt.Sprintf(text, args...), Width()))
}

// title centers text between dashes.
func title(text string, width int) string {
	text = "      " + text + "      "
	textWidth := len([]rune(text))
	if textWidth >= width {
		return text
	}
	leftWidth := (width - textWidth) / 2
	return strings.Repeat("-", leftWidth) + text + strings.Repeat("-", width-textWidth-leftWidth)
}

// UserInput printed to cli.
func UserInput(text string, args ...any) {
	userInputColor.Printf(text, args...)
}

// AIOutput printed to cli.
func AIOutput(text string, args ...any) {
	text = strings.ReplaceAll(text, "%", "%%")
	aiOutputColor.Printf(text, args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Printf(text, args...)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Printf(text, args...)
}

// Link printed to cli.
func Link(url string) {
	linkColor.Println(url)
}

// PromptUser for input. A line ending in a backslash continues on the next line.
func PromptUser(historyFile string) (string, error) {
	config := &readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return "", err
	}
	defer rl.Close()
	var lines []string
	for {
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		line, more := strings.CutSuffix(line, continuation)
		lines = append(lines, line)
		if !more {
			break
		}
		rl.SetPrompt(promptColor.Sprint(". "))
	}
	return strings.Join(lines, "\n"), nil
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	return queryUser(question, false)
}

// QueryUserDefaultYes asks a yes/no question that defaults to yes.
func QueryUserDefaultYes(question string) bool {
	return queryUser(question, true)
}

func queryUser(question string, defaultValue bool) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
		Default: defaultValue,
	}
	confirm := false
	if err := survey.AskOne(surveyQuestion, &confirm); err != nil {
		return false
	}
	return confirm
}
