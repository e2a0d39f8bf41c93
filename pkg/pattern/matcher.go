// Package pattern holds the compiled recognizers for the Justel markdown
// dialect: article headers, structural headings, footnote markers, inline
// citations and region qualifiers. A Matcher is immutable once built and is
// safe for concurrent use.
package pattern

import (
	"regexp"
	"strings"
)

// Matcher bundles every compiled pattern used by the parsing pipeline.
type Matcher struct {
	vocabulary *Vocabulary
	regions    *RegionTable

	articleMarker *regexp.Regexp
	articleRules  []ArticleRule

	// structural headings
	titleMarker        *regexp.Regexp
	titleLine          *regexp.Regexp
	titleArticleLine   *regexp.Regexp
	titleArticleNumber *regexp.Regexp
	annexeMarker       *regexp.Regexp
	annexeLine         *regexp.Regexp
	sectionMarker      *regexp.Regexp
	tocHeadingLine     *regexp.Regexp
	tocArticleLine     *regexp.Regexp

	// footnotes
	footnoteSeparator  *regexp.Regexp
	footnoteReference  *regexp.Regexp
	footnoteDefinition *regexp.Regexp
	footnoteURL        *regexp.Regexp
	footnoteCitation   *regexp.Regexp
	leftoverMarkers    []*regexp.Regexp

	// citations
	headerCitation *regexp.Regexp
	parenthesized  *regexp.Regexp
	inlineCitation *regexp.Regexp
	dossier        *regexp.Regexp
	articleClean   *regexp.Regexp

	region *regexp.Regexp
}

// NewMatcher compiles the pattern set for a vocabulary. A nil vocabulary
// means the built-in defaults.
func NewMatcher(vocabulary *Vocabulary) *Matcher {
	if vocabulary == nil {
		vocabulary = DefaultVocabulary()
	}

	return &Matcher{
		vocabulary: vocabulary,
		regions:    NewRegionTable(vocabulary.Regions),

		articleMarker: regexp.MustCompile(articleMarkers),
		articleRules:  compileArticleRules(articleRuleTable()),

		titleMarker:        regexp.MustCompile(`\*\*TITLE\*\*\[([^\]]+)\]\s*(.*)`),
		titleLine:          regexp.MustCompile(`^\*\*TITLE\*\*\[([^\]]+)\]\s*(.*)`),
		titleArticleLine:   regexp.MustCompile(`^\*\*TITLE\*\*\[}?[Aa]rt\.\]\s*(.+)`),
		titleArticleNumber: regexp.MustCompile(`^\[([^\]]+)\]\.?\s*(?:\(([^)]+)\))?`),
		annexeMarker:       regexp.MustCompile(`\*\*ANNEXE\*\*\[([^\]]+)\]`),
		annexeLine:         regexp.MustCompile(`^\*\*ANNEXE\*\*\[([^\]]+)\]\s*(.*)`),
		sectionMarker:      regexp.MustCompile(`\[\d+[A-Z]\]\s*##\s*[^\[]+\[\d+[A-Z]\]`),
		tocHeadingLine:     regexp.MustCompile(`^\*\*TITLE\*\*\[([^\]]+)\]\s*(?:\\?-\s*(.+?)|\s*\[1\s*\\?-?\s*(.+?)\]1)$`),
		tocArticleLine:     regexp.MustCompile(`^Art\.\s*(.*)`),

		footnoteSeparator:  regexp.MustCompile(`\\-{5,}`),
		footnoteReference:  regexp.MustCompile(`\[(\d+)\]\s*([^\]]+)\]\[(\d+)\]|\[(\d+)\s+([^\]]+)\](\d+)`),
		footnoteDefinition: regexp.MustCompile(`\((\d+)\)<(?:Inséré par\s+)?([A-Z]+)\s+\[([^\]]+)\]\(([^)]+)\),\s*([^;]+);\s*En vigueur\s*:\s*([^>]+)>`),
		footnoteURL:        regexp.MustCompile(`\((https://www\.ejustice\.just\.fgov\.be/[^)]+)\)`),
		footnoteCitation:   regexp.MustCompile(`(?is)\(\d+\)<(?:Inséré par\s+)?[A-Z]+\s+\[[^\]]+\]\([^)]+\)[^>]*(?:\*\*En vigueur\s*:\*\*[^>]*)?>`),
		leftoverMarkers:    compileLeftoverMarkers(),

		headerCitation: regexp.MustCompile(`^<([^>]+)>\s*`),
		parenthesized:  regexp.MustCompile(`\(([^)]+)\)`),
		inlineCitation: regexp.MustCompile(`(?is)<(?:(Inséré(?:\s+pour\s+la\s+Région\s+\w+)?\s+par|intitulé modifié par|Modifié par|Abrogé par|Remplacé par|modifié par)\s+)?([A-Z]+)\s+(?:\[([^\]]+)\]|(\d{4}-\d{2}-\d{2}/\d+))(?:\(([^)]+)\))?(?:,\s*art\.\s*([^,;]+))?(?:,\s*([^;]+))?(?:;\s*(?:\*\*)?En vigueur\s*:?\s*(?:\*\*)?([^>]+))?>`),
		dossier:        regexp.MustCompile(`(\d{4}-\d{2}-\d{2})/(\d+)`),
		articleClean:   regexp.MustCompile(`^\s*(\d+(?:[a-z]+)?(?:/\d+)?)\s*`),

		region: regexp.MustCompile(`\((?i:r[ée]gion)\s+([\p{L}\-]+(?:\s+[\p{L}\-]+){0,3})\)`),
	}
}

// Default returns a matcher built from the built-in vocabulary.
func Default() *Matcher {
	return NewMatcher(nil)
}

// leftover footnote marker shapes, applied in order once the known
// references have been replaced. Two-group patterns keep their text.
var leftoverMarkerExpressions = []string{
	`\[(\d+)\s+([^\]]+)\](\d+)`,
	`\[(\d+)\]\s*([^\]]+)\]\[?(\d+)\]?`,
	`\[(\d+)\]>"\)\s*([^,\]]{1,50}),?\]\[?(\d+)?\]?>"\)`,
	`\[(\d+)\]>"\)\s*([^,\]]{1,30})`,
	`\]\[(\d+)\]>"\)`,
	`\[(\d+)\]`,
	`\](\d+)`,
	`\]\[(\d+)\]`,
	`>"\)`,
}

func compileLeftoverMarkers() []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(leftoverMarkerExpressions))
	for i, expr := range leftoverMarkerExpressions {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// Vocabulary returns the vocabulary the matcher was built from.
func (m *Matcher) Vocabulary() *Vocabulary {
	return m.vocabulary
}

// Regions returns the region spelling table.
func (m *Matcher) Regions() *RegionTable {
	return m.regions
}

// FootnoteSeparator matches the dash rule between an article body and its
// footnote block.
func (m *Matcher) FootnoteSeparator() *regexp.Regexp { return m.footnoteSeparator }

// FootnoteReference matches both bracket forms "[N] text][N]" and
// "[N text]N". The numbers on either side are captured separately.
func (m *Matcher) FootnoteReference() *regexp.Regexp { return m.footnoteReference }

// FootnoteDefinition matches one "(N)<TYPE [date](url), art; En vigueur : d>"
// definition.
func (m *Matcher) FootnoteDefinition() *regexp.Regexp { return m.footnoteDefinition }

// FootnoteURL matches a parenthesized ejustice URL.
func (m *Matcher) FootnoteURL() *regexp.Regexp { return m.footnoteURL }

// FootnoteCitation matches a whole footnote-style citation left in the body.
func (m *Matcher) FootnoteCitation() *regexp.Regexp { return m.footnoteCitation }

// LeftoverMarkers returns the ordered cleanup patterns for stray markers.
func (m *Matcher) LeftoverMarkers() []*regexp.Regexp { return m.leftoverMarkers }

// HeaderCitation matches a leading "<...>" modification citation.
func (m *Matcher) HeaderCitation() *regexp.Regexp { return m.headerCitation }

// Parenthesized matches "(...)" groups, used for citation URLs.
func (m *Matcher) Parenthesized() *regexp.Regexp { return m.parenthesized }

// InlineCitation matches "<Modifié par LOI [date](url), art. N; En vigueur : d>"
// and its variants.
func (m *Matcher) InlineCitation() *regexp.Regexp { return m.inlineCitation }

// Dossier matches a "YYYY-MM-DD/NN" dossier number.
func (m *Matcher) Dossier() *regexp.Regexp { return m.dossier }

// ArticleClean extracts the leading article number of a cited article.
func (m *Matcher) ArticleClean() *regexp.Regexp { return m.articleClean }

// TitleMarker matches a structural heading anywhere in the text.
func (m *Matcher) TitleMarker() *regexp.Regexp { return m.titleMarker }

// AnnexeMarker matches an annex heading anywhere in the text.
func (m *Matcher) AnnexeMarker() *regexp.Regexp { return m.annexeMarker }

// SectionMarker matches a "[NA] ## Name [NB]" section delimiter.
func (m *Matcher) SectionMarker() *regexp.Regexp { return m.sectionMarker }

// FindRegion returns the raw spelling of the first "(Région x)" qualifier
// in text, along with the offsets of the whole qualifier.
func (m *Matcher) FindRegion(text string) (spelling string, start, end int, ok bool) {
	loc := m.region.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, 0, false
	}
	return strings.TrimSpace(text[loc[2]:loc[3]]), loc[0], loc[1], true
}

// ContainsRegion returns the region named by a "(Région x)" qualifier in
// text, such as the article range "4. (REGION WALLONE)". Known spellings
// resolve to their canonical name; unknown ones come back upper-cased, the
// way the article extractor records them.
func (m *Matcher) ContainsRegion(text string) (string, bool) {
	spelling, _, _, ok := m.FindRegion(text)
	if !ok {
		return "", false
	}
	if name, known := m.regions.Canonical(spelling); known {
		return name, true
	}
	return strings.ToUpper(strings.Join(strings.Fields(spelling), " ")), true
}

// DocumentType maps an ELI path segment such as "loi" or "arrete" to its
// document type.
func (m *Matcher) DocumentType(segment string) (string, bool) {
	docType, ok := m.vocabulary.DocumentTypes[strings.ToLower(segment)]
	return docType, ok
}
