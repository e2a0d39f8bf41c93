package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/footnote"
	"github.com/coolbeans/justel/pkg/types"
)

const (
	// maxProvisionPairs bounds the number of "N°" pairs examined per article.
	maxProvisionPairs = 20
	// minProvisionLength is the rune count a provision must exceed.
	minProvisionLength = 5

	beforeContextRunes = 50
	afterContextRunes  = 20
)

// ProvisionExtractor finds the "1°", "2°" sub-clauses and "- item" lists
// of an article body and tells them apart from citation fragments such as
// "article 2, 1°".
type ProvisionExtractor struct {
	footnotes *footnote.Resolver
	warnings  *diag.Collector

	markerPattern   *regexp.Regexp
	leadingMarker   *regexp.Regexp
	referenceBefore []*regexp.Regexp
	provisionBefore []*regexp.Regexp
	quoteAfter      *regexp.Regexp

	datePattern      *regexp.Regexp
	paragraphRef     *regexp.Regexp
	sentenceBoundary *regexp.Regexp
	hyphenMarker     *regexp.Regexp

	tagPattern        *regexp.Regexp
	escapedTagPattern *regexp.Regexp
	whitespace        *regexp.Regexp
}

// NewProvisionExtractor creates a ProvisionExtractor. Provision text is
// cleaned of footnote markers with the given resolver.
func NewProvisionExtractor(footnotes *footnote.Resolver, warnings *diag.Collector) *ProvisionExtractor {
	if footnotes == nil {
		footnotes = footnote.NewResolver(nil, warnings)
	}
	return &ProvisionExtractor{
		footnotes: footnotes,
		warnings:  warnings,

		markerPattern: regexp.MustCompile(`(\d+°)`),
		leadingMarker: regexp.MustCompile(`^\d+°`),
		// A marker right after one of these is part of a citation.
		referenceBefore: []*regexp.Regexp{
			regexp.MustCompile(`(?i)article\s+\d+,\s*$`),
			regexp.MustCompile(`(?i)art\.\s+\d+,\s*$`),
			regexp.MustCompile(`(?i)§\s+\d+,\s*$`),
			regexp.MustCompile(`(?i),\s*$`),
		},
		provisionBefore: []*regexp.Regexp{
			regexp.MustCompile(`:\s*$`),
			regexp.MustCompile(`;\s*$`),
			regexp.MustCompile(`\.\s*$`),
			regexp.MustCompile(`^\s*$`),
		},
		quoteAfter: regexp.MustCompile(`^\s*["']`),

		datePattern:      regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		paragraphRef:     regexp.MustCompile(`au\s+§\s+\d+,\s*$`),
		sentenceBoundary: regexp.MustCompile(`\.\s+[A-Z]`),
		hyphenMarker:     regexp.MustCompile(`(?:\\)?-\s+`),

		tagPattern:        regexp.MustCompile(`<[^>]+>`),
		escapedTagPattern: regexp.MustCompile(`&lt;[^&]+&gt;`),
		whitespace:        regexp.MustCompile(`\s+`),
	}
}

// NumberedProvisions parses the "N°" provisions of an article body. Only
// bodies that introduce a list with a colon or a semicolon are examined.
func (e *ProvisionExtractor) NumberedProvisions(article, text string, refs []types.FootnoteReference) []types.NumberedProvision {
	provisions := make([]types.NumberedProvision, 0)
	if !strings.ContainsAny(text, ":;") {
		return provisions
	}

	parts := e.splitProvisions(article, text)
	if len(parts) < 2 {
		return provisions
	}

	// parts is [intro, n1, text1, n2, text2, ...] or the same without intro.
	hasIntro := !e.leadingMarker.MatchString(strings.TrimSpace(parts[0]))
	i := 0
	if hasIntro {
		i = 1
	}

	pairs := 0
	for i < len(parts)-1 {
		if pairs == maxProvisionPairs {
			e.warnings.Warn(diag.CodeProvisionIterationLimit, article,
				"stopped after %d numbered provisions", maxProvisionPairs)
			break
		}
		pairs++

		number := strings.TrimSpace(parts[i])
		body := strings.TrimSpace(parts[i+1])
		previous := ""
		if (hasIntro && i > 1) || (!hasIntro && i > 0) {
			previous = parts[i-1]
		}
		i += 2

		if e.looksLikeCitation(previous, body) {
			continue
		}
		body = e.clean(e.trimItem(strings.TrimLeft(body, ":; \t\n\r")), refs)
		if number != "" && utf8.RuneCountInString(body) > minProvisionLength {
			provisions = append(provisions, types.NumberedProvision{
				Number:   number,
				Text:     body,
				SubItems: make([]string, 0),
			})
		}
	}
	return provisions
}

// splitProvisions cuts text at every marker that opens a real provision.
func (e *ProvisionExtractor) splitProvisions(article, text string) []string {
	var splits [][]int
	for _, loc := range e.markerPattern.FindAllStringIndex(text, -1) {
		if e.isProvisionMarker(article, text, loc) {
			splits = append(splits, loc)
		}
	}
	if len(splits) == 0 {
		return []string{text}
	}

	var parts []string
	last := 0
	for _, loc := range splits {
		if loc[0] > last {
			parts = append(parts, text[last:loc[0]])
		}
		parts = append(parts, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, text[last:])
	}
	return parts
}

func (e *ProvisionExtractor) isProvisionMarker(article, text string, loc []int) bool {
	before := lastRunes(text[:loc[0]], beforeContextRunes)
	after := firstRunes(text[loc[1]:], afterContextRunes)

	for _, expr := range e.referenceBefore {
		if expr.MatchString(before) {
			return false
		}
	}
	if loc[0] == 0 {
		return true
	}
	for _, expr := range e.provisionBefore {
		if expr.MatchString(before) {
			return true
		}
	}
	if e.quoteAfter.MatchString(after) {
		return true
	}

	e.warnings.Warn(diag.CodeProvisionAmbiguous, article,
		"marker %s after %q not treated as a provision", text[loc[0]:loc[1]], before)
	return false
}

// looksLikeCitation reports whether a provision candidate is a citation or
// a cross reference rather than list content.
func (e *ProvisionExtractor) looksLikeCitation(previous, body string) bool {
	lower := strings.ToLower(previous)
	switch {
	case strings.Contains(body, "En vigueur"), e.datePattern.MatchString(body):
		return true
	case strings.HasSuffix(previous, ", ") && (strings.Contains(lower, "art.") || strings.Contains(lower, "article")):
		return true
	case strings.HasSuffix(previous, " et "):
		return true
	case strings.Contains(lower, ", art.") && utf8.RuneCountInString(previous) < 50:
		return true
	case e.paragraphRef.MatchString(previous):
		return true
	case strings.HasSuffix(previous, " au "), strings.HasSuffix(previous, " du "):
		return true
	}
	return false
}

// HyphenatedItems parses "- item" lists introduced by a colon.
func (e *ProvisionExtractor) HyphenatedItems(text string, refs []types.FootnoteReference) []types.HyphenatedItem {
	items := make([]types.HyphenatedItem, 0)
	if !strings.Contains(text, ":") {
		return items
	}

	parts := e.hyphenMarker.Split(text, -1)
	for _, part := range parts[1:] {
		item := e.clean(e.trimItem(strings.TrimSpace(part)), refs)
		if utf8.RuneCountInString(item) > minProvisionLength {
			items = append(items, types.HyphenatedItem{Text: item})
		}
	}
	return items
}

// trimItem stops an item at the first sentence that follows it and drops
// trailing separators.
func (e *ProvisionExtractor) trimItem(text string) string {
	if loc := e.sentenceBoundary.FindStringIndex(text); loc != nil {
		text = text[:loc[0]+1]
	}
	return strings.TrimRight(text, "; \t\n\r")
}

func (e *ProvisionExtractor) clean(text string, refs []types.FootnoteReference) string {
	text = e.footnotes.CleanMarkers(text, refs)
	text = e.tagPattern.ReplaceAllString(text, "")
	text = e.escapedTagPattern.ReplaceAllString(text, "")
	text = strings.TrimSuffix(strings.TrimSpace(text), "]")
	return strings.TrimSpace(e.whitespace.ReplaceAllString(text, " "))
}

func lastRunes(s string, n int) string {
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func firstRunes(s string, n int) string {
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
