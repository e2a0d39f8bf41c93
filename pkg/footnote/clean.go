package footnote

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/justel/pkg/types"
)

type replacement struct {
	expr *regexp.Regexp
	with string
}

// orphanCleanup runs last, in order, over the marker-free text.
var orphanCleanup = []replacement{
	{regexp.MustCompile(`\s{2,}`), " "},
	{regexp.MustCompile(`^\s*\]\s*`), ""},
	{regexp.MustCompile(`\s*\[\s*$`), ""},
	{regexp.MustCompile(`\[\s*\]`), ""},
	{regexp.MustCompile(`\s+([.,:;!?])`), "$1"},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// CleanMarkers removes every footnote marker from the main text and keeps
// the text the markers enclosed. Known references go first, longest
// pattern first, so that nested markers resolve from the outside in.
func (r *Resolver) CleanMarkers(text string, refs []types.FootnoteReference) string {
	text = r.matcher.FootnoteCitation().ReplaceAllString(text, "")
	text = cleanKnown(text, refs)
	text = r.cleanLeftovers(text)
	for _, rule := range orphanCleanup {
		text = rule.expr.ReplaceAllString(text, rule.with)
	}
	return strings.TrimSpace(text)
}

func cleanKnown(text string, refs []types.FootnoteReference) string {
	ordered := make([]types.FootnoteReference, len(refs))
	copy(ordered, refs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].BracketPattern) > len(ordered[j].BracketPattern)
	})

	for _, ref := range ordered {
		if ref.BracketPattern == "" {
			continue
		}
		i := strings.Index(text, ref.BracketPattern)
		if i < 0 {
			continue
		}
		text = text[:i] + spaced(text[:i], strings.TrimSpace(ref.ReferencedText)) + text[i+len(ref.BracketPattern):]
	}
	return text
}

// cleanLeftovers strips the marker shapes no reference accounted for.
// Patterns with a content group keep their content; the rest are deleted.
func (r *Resolver) cleanLeftovers(text string) string {
	for _, expr := range r.matcher.LeftoverMarkers() {
		if expr.NumSubexp() < 2 {
			text = expr.ReplaceAllString(text, "")
			continue
		}
		text = unwrapMarkers(expr, text)
	}
	return text
}

// unwrapMarkers replaces each match of expr by its content group. A match
// whose closing number differs from its opening one is left alone and the
// scan resumes one byte further, so the pair nested inside it still
// unwraps.
func unwrapMarkers(expr *regexp.Regexp, text string) string {
	var out strings.Builder
	pos := 0
	for pos < len(text) {
		loc := expr.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}

		if len(loc) > 7 && loc[6] >= 0 && text[loc[2]:loc[3]] != text[loc[6]:loc[7]] {
			out.WriteString(text[pos : loc[0]+1])
			pos = loc[0] + 1
			continue
		}
		out.WriteString(text[pos:loc[0]])
		out.WriteString(spaced(out.String(), strings.TrimSpace(text[loc[4]:loc[5]])))
		pos = loc[1]
	}
	out.WriteString(text[pos:])
	return out.String()
}

// spaced prefixes content with a space when it would otherwise be glued to
// a preceding letter or digit.
func spaced(before, content string) string {
	if before == "" || content == "" {
		return content
	}
	last, _ := utf8.DecodeLastRuneInString(before)
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		return " " + content
	}
	return content
}
