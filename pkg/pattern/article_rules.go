package pattern

import (
	"regexp"
	"strings"
)

// Number suffixes used by Belgian article numbering.
const (
	latinSuffixes  = `bis|ter|quater|quinquies|sexies|septies|octies|novies|decies`
	ordinalSuffix  = `er|e|eme|ème|` + latinSuffixes
	decimalNumber  = `\d+(?:\.\d+)*`
	slashedNumber  = decimalNumber + `(?:/\d+)?`
	articleMarkers = `\*\*(?:ARTICLE|TITLE)\*\*`
)

// ArticleRule is one recognized article header format. Rules are tried in
// table order at every article marker and the first rule that matches wins.
type ArticleRule struct {
	// Name identifies the rule in logs and tests.
	Name string

	// Expression is matched right after the **ARTICLE** or **TITLE** marker.
	Expression string

	// LookaheadGroup, when non-zero, is a capture group that must match but
	// whose text stays outside the header (the following space or capital).
	LookaheadGroup int

	compiled *regexp.Regexp
}

// ArticleHeader is an article header found in the document text.
type ArticleHeader struct {
	Start  int
	End    int
	Number string
	Rule   string
	Text   string
}

// articleRuleTable lists the historical header formats. The second half
// repeats the first with lowercase "art." spellings.
func articleRuleTable() []ArticleRule {
	upper := []ArticleRule{
		{Name: "bracketed", Expression: `^\[Art\.\]\s*\[([^\]]+)\]\.`},
		{Name: "plain", Expression: `^\[Art\.\]\s*(` + slashedNumber + `(?:` + latinSuffixes + `)?)\.(\s|[A-Z])`, LookaheadGroup: 2},
		{Name: "placeholder", Expression: `^\[Art\.\]\s*([A-Z]+\d*)\.?`},
		{Name: "escaped", Expression: `^\[Art\.\]\s*(` + slashedNumber + `(?:` + ordinalSuffix + `)?)\\\.`},
		{Name: "unbracketed-art", Expression: `^Art\.\s*\[([^\]]+)\]\.?`},
		{Name: "article-bracketed", Expression: `^Article\s*\[([^\]]+)\]\.`},
		{Name: "article-escaped", Expression: `^Article\s*(` + decimalNumber + `(?:` + ordinalSuffix + `)?)\\\.`},
		{Name: "malformed-brace", Expression: `^\[}?Art\.\]\s*\[([^\]]+)\]`},
	}

	rules := make([]ArticleRule, 0, len(upper)*2)
	rules = append(rules, upper...)
	for _, rule := range upper {
		lower := rule
		lower.Name = "lower-" + rule.Name
		lower.Expression = strings.NewReplacer(`Art\.`, `art\.`, `Article`, `article`).Replace(rule.Expression)
		rules = append(rules, lower)
	}
	return rules
}

// compileArticleRules compiles the rule table once.
func compileArticleRules(rules []ArticleRule) []ArticleRule {
	compiled := make([]ArticleRule, len(rules))
	for i, rule := range rules {
		rule.compiled = regexp.MustCompile(rule.Expression)
		compiled[i] = rule
	}
	return compiled
}

// match applies the rule to text that starts right after an article marker.
// It returns the captured number and the length of the consumed header.
func (rule ArticleRule) match(text string) (number string, length int, ok bool) {
	loc := rule.compiled.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, false
	}
	length = loc[1]
	if rule.LookaheadGroup > 0 {
		length = loc[2*rule.LookaheadGroup]
	}
	if loc[2] < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(text[loc[2]:loc[3]]), length, true
}

// ArticleRules returns a copy of the ordered rule table.
func (m *Matcher) ArticleRules() []ArticleRule {
	rules := make([]ArticleRule, len(m.articleRules))
	copy(rules, m.articleRules)
	return rules
}

// MatchArticleHeader tries every rule on text that starts with an article
// marker. It fails when the text carries no marker or no rule matches.
func (m *Matcher) MatchArticleHeader(text string) (ArticleHeader, bool) {
	loc := m.articleMarker.FindStringIndex(text)
	if loc == nil || loc[0] != 0 {
		return ArticleHeader{}, false
	}
	return m.matchAt(text, 0, loc[1])
}

// FindArticleHeaders scans the whole document and returns every article
// header in document order. Headers never overlap.
func (m *Matcher) FindArticleHeaders(content string) []ArticleHeader {
	var headers []ArticleHeader
	lastEnd := 0
	for _, loc := range m.articleMarker.FindAllStringIndex(content, -1) {
		if loc[0] < lastEnd {
			continue
		}
		header, ok := m.matchAt(content, loc[0], loc[1])
		if !ok {
			continue
		}
		headers = append(headers, header)
		lastEnd = header.End
	}
	return headers
}

func (m *Matcher) matchAt(content string, markerStart, markerEnd int) (ArticleHeader, bool) {
	rest := content[markerEnd:]
	for _, rule := range m.articleRules {
		number, length, ok := rule.match(rest)
		if !ok {
			continue
		}
		end := markerEnd + length
		return ArticleHeader{
			Start:  markerStart,
			End:    end,
			Number: CleanUnmatchedBraces(number),
			Rule:   rule.Name,
			Text:   content[markerStart:end],
		}, true
	}
	return ArticleHeader{}, false
}

// CleanUnmatchedBraces strips stray "{" and "}" left by the upstream
// HTML conversion. Balanced braces are kept as they are.
func CleanUnmatchedBraces(text string) string {
	if text == "" {
		return text
	}
	opening := strings.Count(text, "{")
	closing := strings.Count(text, "}")
	if opening == closing && opening > 0 {
		return text
	}
	cleaned := strings.TrimLeft(text, "}")
	cleaned = strings.TrimRight(cleaned, "{")
	return strings.TrimSpace(cleaned)
}
