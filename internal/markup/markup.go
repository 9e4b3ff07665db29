// Package markup turns untrusted message text into HTML.
package markup

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	urlRegex = regexp.MustCompile(`(?i)\b(?:https?|ftp)://[-A-Z0-9+&@#/%?=~_|!:,.;]*[-A-Z0-9+&@#/%=~_|]`)
	policy   = newPolicy()
)

// Only line breaks and links with a fixed attribute set survive.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
	p.AllowURLSchemes("http", "https", "ftp")
	p.RequireParseableURLs(true)
	return p
}

// Format escapes the content, turns newlines into <br> and bare URLs into links.
func Format(content string) template.HTML {
	var builder strings.Builder
	last := 0
	for _, match := range urlRegex.FindAllStringIndex(content, -1) {
		builder.WriteString(escapeText(content[last:match[0]]))
		link := html.EscapeString(content[match[0]:match[1]])
		builder.WriteString(`<a href="` + link + `" target="_blank" rel="noopener noreferrer">` + link + `</a>`)
		last = match[1]
	}
	builder.WriteString(escapeText(content[last:]))
	return template.HTML(policy.Sanitize(builder.String()))
}

func escapeText(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
