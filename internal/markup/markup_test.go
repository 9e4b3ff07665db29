package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "plain text",
			input:    "Hallo Welt",
			contains: []string{"Hallo Welt"},
		},
		{
			name:     "newlines become line breaks",
			input:    "one\ntwo",
			contains: []string{"one<br", "two"},
		},
		{
			name:        "markup stays textual",
			input:       "<script>alert(1)</script><b>bold</b>",
			contains:    []string{"&lt;script&gt;", "&lt;b&gt;"},
			notContains: []string{"<script", "<b>"},
		},
		{
			name:  "bare url is linked without trailing period",
			input: "siehe https://example.com/a?b=1&c=2.",
			contains: []string{
				`href="https://example.com/a?b=1&amp;c=2"`,
				`target="_blank"`,
				`rel="noopener noreferrer"`,
				"</a>.",
			},
		},
		{
			name:        "ftp is linked, javascript is not",
			input:       "ftp://files.example.com/x javascript:alert(1)",
			contains:    []string{`href="ftp://files.example.com/x"`, "javascript:alert(1)"},
			notContains: []string{`href="javascript`},
		},
		{
			name:        "quote cannot break out of the href",
			input:       `https://evil.example/"onmouseover="alert(1)`,
			contains:    []string{`href="https://evil.example/"`},
			notContains: []string{` onmouseover=`, `"onmouseover`},
		},
		{
			name:     "uppercase scheme",
			input:    "HTTPS://EXAMPLE.COM",
			contains: []string{"<a href=", ">HTTPS://EXAMPLE.COM</a>"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output := string(Format(test.input))
			for _, s := range test.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range test.notContains {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestFormatOnlyEmitsAllowedTags(t *testing.T) {
	output := string(Format("a\n<img src=x onerror=alert(1)> https://example.com <iframe>"))
	for _, tag := range []string{"<img", "<iframe"} {
		assert.NotContains(t, output, tag)
	}
	assert.Equal(t, 1, strings.Count(output, "<a "))
}
