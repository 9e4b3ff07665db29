package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Renderer renders assistant messages for the terminal.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[string]string
}

// NewRenderer creates a new markdown renderer.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		glamour: gr,
		width:   width,
		cache:   map[string]string{},
	}, nil
}

// Render renders markdown content. Messages never change once appended, so
// renders are cached by content.
func (r *Renderer) Render(content string) string {
	if md, ok := r.cache[content]; ok {
		return md
	}

	blocks := ParseBlocks(content)
	rendered := make([]string, 0, len(blocks))
	for _, block := range blocks {
		rendered = append(rendered, r.renderBlock(block.Markdown()))
	}
	md := strings.Join(rendered, "\n")
	r.cache[content] = md
	return md
}

// Width returns the wrapping width.
func (r *Renderer) Width() int { return r.width }

// SetWidth updates the renderer width, recreating internals if needed.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	newRenderer, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *newRenderer
	return nil
}

// renderBlock renders a single block of markdown content.
func (r *Renderer) renderBlock(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// customStyle returns a modified glamour style for cleaner output.
func customStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}
