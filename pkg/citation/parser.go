package citation

import (
	"fmt"
	"strings"

	"github.com/coolbeans/justel/pkg/pattern"
)

// CitationParser parses legal citations from text.
// Implementations must be safe for concurrent use.
type CitationParser interface {
	// Name returns the human-readable parser name.
	Name() string

	// Parse extracts all citations from the given text in text order.
	// Returns an empty slice (not nil) if no citations are found.
	Parse(text string) ([]*Citation, error)

	// Normalize converts a citation to its canonical display form.
	Normalize(citation *Citation) string

	// ToURI generates a canonical URI for the citation.
	ToURI(citation *Citation) (string, error)
}

// ejusticeLawURL is the Justel page of a consolidated text, keyed by its
// ten digit "cn" number.
const ejusticeLawURL = "https://www.ejustice.just.fgov.be/cgi_loi/change_lg.pl?language=fr&la=F&table_name=loi&cn=%s"

// Parser recognizes Justel "<...>" citations.
type Parser struct {
	matcher *pattern.Matcher
}

// NewParser creates a parser using the given matcher. A nil matcher uses
// the built-in patterns.
func NewParser(matcher *pattern.Matcher) *Parser {
	if matcher == nil {
		matcher = pattern.Default()
	}
	return &Parser{matcher: matcher}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "Justel Citation Parser"
}

// Parse extracts every inline citation from the text.
func (p *Parser) Parse(text string) ([]*Citation, error) {
	citations := make([]*Citation, 0)
	for _, loc := range p.matcher.InlineCitation().FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, p.fromMatch(text, loc))
	}
	return citations, nil
}

// ParseOne parses text that holds a single citation, as found in an article
// header. It returns nil when the text is not a citation.
func (p *Parser) ParseOne(text string) *Citation {
	loc := p.matcher.InlineCitation().FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	return p.fromMatch(text, loc)
}

func (p *Parser) fromMatch(text string, loc []int) *Citation {
	group := func(n int) string {
		if loc[2*n] < 0 {
			return ""
		}
		return strings.TrimSpace(text[loc[2*n]:loc[2*n+1]])
	}

	prefix := group(1)
	rawDossier := group(3)
	if rawDossier == "" {
		rawDossier = group(4)
	}
	rawArticle := group(6)

	c := &Citation{
		Type:           TypeForPrefix(prefix),
		Prefix:         prefix,
		LawType:        strings.ToUpper(group(2)),
		URL:            group(5),
		SequenceNumber: group(7),
		EffectiveDate:  cleanEffectiveDate(group(8)),
		RawDossier:     rawDossier,
		RawArticle:     rawArticle,
		FullText:       text[loc[0]:loc[1]],
		Span:           Span{Start: loc[0], End: loc[1]},
	}

	c.DossierNumber = rawDossier
	if match := p.matcher.Dossier().FindStringSubmatch(rawDossier); match != nil {
		c.DossierNumber = match[1] + "/" + match[2]
	}

	c.ArticleNumber = rawArticle
	if match := p.matcher.ArticleClean().FindStringSubmatch(rawArticle); match != nil {
		c.ArticleNumber = match[1]
	}

	if c.URL == "" {
		if uri, err := p.ToURI(c); err == nil {
			c.URL = uri
		}
	}

	c.Display = p.Normalize(c)
	return c
}

func cleanEffectiveDate(date string) string {
	date = strings.ReplaceAll(date, "**", "")
	return strings.TrimRight(strings.TrimSpace(date), ".,;")
}

// Normalize returns the display form "<prefix TYPE dossier, art. N, seq;
// En vigueur : date>". Missing parts are left out.
func (p *Parser) Normalize(c *Citation) string {
	var parts []string
	if c.Prefix != "" {
		parts = append(parts, c.Prefix)
	}
	if c.LawType != "" || c.DossierNumber != "" {
		parts = append(parts, strings.TrimSpace(c.LawType+" "+c.DossierNumber))
	}
	if c.ArticleNumber != "" {
		parts = append(parts, "art. "+c.ArticleNumber)
	}
	if c.SequenceNumber != "" {
		parts = append(parts, c.SequenceNumber)
	}

	if c.EffectiveDate == "" {
		return "<" + strings.Join(parts, ", ") + ">"
	}
	if len(parts) == 0 {
		return "<En vigueur : " + c.EffectiveDate + ">"
	}
	return "<" + strings.Join(parts, ", ") + "; En vigueur : " + c.EffectiveDate + ">"
}

// ToURI returns the citation's own URL, or the Justel page built from its
// dossier number. Parsed citations carry it in URL.
func (p *Parser) ToURI(c *Citation) (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	match := p.matcher.Dossier().FindStringSubmatch(c.DossierNumber)
	if match == nil {
		return "", fmt.Errorf("citation %q has no url and no dossier number", c.FullText)
	}
	sequence := match[2]
	if len(sequence) < 2 {
		sequence = "0" + sequence
	}
	return fmt.Sprintf(ejusticeLawURL, strings.ReplaceAll(match[1], "-", "")+sequence), nil
}

// ParseHeader recognizes the "<...>" block opening an article. FullText is
// the block content without its angle brackets. Parsed is set when the
// block is also a well-formed citation.
func (p *Parser) ParseHeader(text string) *HeaderCitation {
	match := p.matcher.HeaderCitation().FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	header := &HeaderCitation{
		FullText: strings.TrimSpace(match[1]),
		URLs:     make([]string, 0),
	}
	for _, url := range p.matcher.Parenthesized().FindAllStringSubmatch(match[1], -1) {
		header.URLs = append(header.URLs, url[1])
	}
	header.Parsed = p.ParseOne("<" + header.FullText + ">")
	return header
}

// Verify Parser implements CitationParser.
var _ CitationParser = (*Parser)(nil)
