package markdown

import (
	"regexp"
	"strings"
)

var (
	// Group 1: language (optional). Group 2: code.
	codeBlockRegexp = regexp.MustCompile("(?sm)^```([a-zA-Z0-9_+-]*)\\n(.*?)^```")
)

// Block is a segment of a message.
type Block interface {
	Markdown() string
	Content() string
}

// TextBlock is prose.
type TextBlock struct {
	Text string
}

func (b *TextBlock) Markdown() string { return b.Text }
func (b *TextBlock) Content() string  { return b.Text }

// CodeBlock is a fenced code block.
type CodeBlock struct {
	Language string
	Code     string
}

func (b *CodeBlock) Markdown() string {
	return "```" + b.Language + "\n" + b.Code + "\n```"
}

func (b *CodeBlock) Content() string { return b.Code }

// ParseBlocks splits content into text and code blocks.
func ParseBlocks(content string) []Block {
	var result []Block
	lastEnd := 0
	for _, match := range codeBlockRegexp.FindAllStringSubmatchIndex(content, -1) {
		if text := content[lastEnd:match[0]]; strings.TrimSpace(text) != "" {
			result = append(result, &TextBlock{Text: text})
		}
		result = append(result, &CodeBlock{
			Language: content[match[2]:match[3]],
			Code:     strings.ReplaceAll(strings.Trim(content[match[4]:match[5]], "\n"), "\t", "  "), // tabs cause issues.
		})
		lastEnd = match[1]
	}
	if text := content[lastEnd:]; strings.TrimSpace(text) != "" {
		result = append(result, &TextBlock{Text: text})
	}
	return result
}

// LastCodeBlock returns the last fenced code block of the content.
func LastCodeBlock(content string) (*CodeBlock, bool) {
	blocks := ParseBlocks(content)
	for i := len(blocks) - 1; i >= 0; i-- {
		if code, ok := blocks[i].(*CodeBlock); ok {
			return code, true
		}
	}
	return nil, false
}
