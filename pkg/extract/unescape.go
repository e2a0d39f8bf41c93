package extract

import (
	"regexp"
	"strings"
)

// markdownEscapes undoes the punctuation escaping of the markdown
// converter. "http\:" and "https\:" are left alone.
var markdownEscapes = strings.NewReplacer(
	`\-`, "-",
	`\;`, ";",
	`\!`, "!",
	`\?`, "?",
	`\(`, "(",
	`\)`, ")",
	`\[`, "[",
	`\]`, "]",
	`\.`, ".",
	`\,`, ",",
)

var (
	definitionColon = regexp.MustCompile(`par\s+\\:\s`)
	trailingColon   = regexp.MustCompile(`\\:$`)
)

// UnescapeMarkdown converts escaped punctuation such as `\-` or `\;` back
// to plain characters.
func UnescapeMarkdown(text string) string {
	if text == "" {
		return text
	}
	text = markdownEscapes.Replace(text)
	text = definitionColon.ReplaceAllString(text, "par : ")
	return trailingColon.ReplaceAllString(text, ":")
}
