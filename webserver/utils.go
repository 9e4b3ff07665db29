package webserver

import (
	"html"
	"html/template"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mrermin/ermin/internal/markup"
	"github.com/mrermin/ermin/internal/paylater"
	"github.com/mrermin/ermin/internal/types"
)

func formatMessage(content string) template.HTML {
	return markup.Format(content)
}

func messageRole(message *types.Message) string {
	if message.IsUser() {
		return "user"
	}
	return "assistant"
}

// payLaterAttributes renders the data-pp-* attributes of the message element.
// html/template rejects hyphenated attribute names built at execution time.
func payLaterAttributes(amount decimal.Decimal) template.HTMLAttr {
	attributes := paylater.Attributes(amount)
	parts := make([]string, 0, len(attributes))
	for _, name := range slices.Sorted(maps.Keys(attributes)) {
		parts = append(parts, name+`="`+html.EscapeString(attributes[name])+`"`)
	}
	return template.HTMLAttr(strings.Join(parts, " "))
}
