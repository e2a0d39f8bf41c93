// Package extract scans a document body for article headers and turns each
// article into an ArticleRecord: footnotes resolved, markers cleaned,
// provisions parsed, region and abrogation status detected.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/coolbeans/justel/pkg/citation"
	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/footnote"
	"github.com/coolbeans/justel/pkg/pattern"
	"github.com/coolbeans/justel/pkg/types"
)

// abrogationWindow is how many leading runes are searched for a repeal marker.
const abrogationWindow = 200

var (
	abrogationMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\[(?:abrogé|Abrogé)\]`),
		regexp.MustCompile(`\((?:abrogé|Abrogé)\)`),
		regexp.MustCompile(`<(?:abrogé|Abrogé)\s+par\s+[^>]+>`),
	}
	leadingQualifier = regexp.MustCompile(`^\([^)]+\)\s*`)
)

// Extractor turns the article sections of one document into records. It
// is not safe for concurrent use; build one per document.
type Extractor struct {
	matcher    *pattern.Matcher
	warnings   *diag.Collector
	footnotes  *footnote.Resolver
	citations  *citation.Parser
	provisions *ProvisionExtractor

	nextClaim types.ClaimID
}

// NewExtractor creates an extractor. A nil matcher uses the built-in
// patterns; a nil collector discards warnings.
func NewExtractor(matcher *pattern.Matcher, warnings *diag.Collector) *Extractor {
	if matcher == nil {
		matcher = pattern.Default()
	}
	footnotes := footnote.NewResolver(matcher, warnings)
	return &Extractor{
		matcher:    matcher,
		warnings:   warnings,
		footnotes:  footnotes,
		citations:  citation.NewParser(matcher),
		provisions: NewProvisionExtractor(footnotes, warnings),
	}
}

// Extract returns the articles of the document in document order. When the
// document has a text section only that section is scanned, so that table
// of contents entries never produce records. Positions stay relative to
// the whole content.
func (e *Extractor) Extract(content string) []*types.ArticleRecord {
	records, _ := e.ExtractContext(context.Background(), content)
	return records
}

// ExtractContext is Extract checking ctx before each article, so that a
// cancelled document stops between articles. It returns ctx's error and
// the records built so far.
func (e *Extractor) ExtractContext(ctx context.Context, content string) ([]*types.ArticleRecord, error) {
	offset := 0
	if i := strings.Index(content, pattern.TextSection); i >= 0 {
		offset = i + len(pattern.TextSection)
	}
	body := content[offset:]

	headers := e.matcher.FindArticleHeaders(body)
	records := make([]*types.ArticleRecord, 0, len(headers))
	for i, header := range headers {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		next := len(body)
		if i+1 < len(headers) {
			next = headers[i+1].Start
		}
		end := e.boundary(body, header.End, next)

		record := e.Article(header, strings.TrimSpace(body[header.End:end]))
		record.Position = offset + header.Start
		records = append(records, record)
	}
	return records, nil
}

// boundary returns where the article starting at start ends: the earliest
// heading, annexe or section marker before next, or next itself.
func (e *Extractor) boundary(body string, start, next int) int {
	window := body[start:next]
	end := next
	for _, marker := range []*regexp.Regexp{e.matcher.TitleMarker(), e.matcher.AnnexeMarker(), e.matcher.SectionMarker()} {
		if loc := marker.FindStringIndex(window); loc != nil && start+loc[0] < end {
			end = start + loc[0]
		}
	}
	return end
}

// Article builds the record of one article from its header and body.
func (e *Extractor) Article(header pattern.ArticleHeader, body string) *types.ArticleRecord {
	e.nextClaim++
	number := header.Number

	main, block := e.footnotes.Split(body)
	refs := e.footnotes.References(number, main)
	defs := e.footnotes.Definitions(block)
	provisions := e.provisions.NumberedProvisions(number, main, refs)
	items := e.provisions.HyphenatedItems(main, refs)

	raw := UnescapeMarkdown(e.footnotes.CleanMarkers(main, refs))

	record := &types.ArticleRecord{
		ClaimID:            e.nextClaim,
		ArticleNumber:      number,
		AnchorID:           "art_" + number,
		NumberedProvisions: provisions,
		HyphenatedItems:    items,
		Footnotes:          defs,
		FootnoteReferences: refs,
	}

	if region, ok := e.region(number, main, header.Text); ok {
		record.Region = region
		record.ArticleNumber = number + " " + region
		record.AnchorID = "art_" + number + "_" + strings.ReplaceAll(region, " ", "_")
		raw = stripRegionQualifier(raw, region)
	}

	record.RawText = strings.TrimSpace(raw)
	if isAbrogated(record.RawText) {
		record.AbrogationStatus = types.AbrogatedStatus
	}
	record.HeaderCitation = e.citations.ParseHeader(record.RawText)
	record.Citations, _ = e.citations.Parse(record.RawText)

	record.FootnotePlacements = e.footnotes.Place(record.ArticleNumber, record.RawText, unescapedRefs(refs), defs)
	record.DisplayText = footnote.Render(record.RawText, record.FootnotePlacements, defs)
	return record
}

// region finds the region qualifier of an article, looking at the body
// first and at the header second. Unknown spellings are kept upper-cased.
func (e *Extractor) region(number, main, header string) (string, bool) {
	spelling, _, _, ok := e.matcher.FindRegion(main)
	if !ok {
		spelling, _, _, ok = e.matcher.FindRegion(header)
	}
	if !ok {
		return "", false
	}

	if canonical, known := e.matcher.Regions().Canonical(spelling); known {
		return canonical, true
	}
	upper := strings.ToUpper(strings.Join(strings.Fields(spelling), " "))
	e.warnings.Warn(diag.CodeUnmappedRegion, number,
		"region %q is not in the vocabulary, keeping %q", spelling, upper)
	return upper, true
}

// stripRegionQualifier removes a leading "(REGION X)" that the article
// number already carries.
func stripRegionQualifier(text, region string) string {
	text = strings.TrimSpace(text)
	for _, qualifier := range []string{
		"(REGION " + region + ")",
		"(Région " + strings.ToLower(region) + ")",
		"(REGION " + strings.ToLower(region) + ")",
		"(Région " + region + ")",
	} {
		if strings.HasPrefix(text, qualifier) {
			return strings.TrimSpace(text[len(qualifier):])
		}
	}
	return text
}

// isAbrogated reports whether the article opens with a repeal marker.
func isAbrogated(text string) bool {
	if text == "" {
		return false
	}
	start := firstRunes(strings.TrimSpace(text), abrogationWindow)
	for _, marker := range abrogationMarkers {
		if marker.MatchString(start) {
			return true
		}
	}
	rest := strings.TrimSpace(leadingQualifier.ReplaceAllString(start, ""))
	return strings.ToLower(rest) == types.AbrogatedStatus
}

// unescapedRefs returns copies of refs whose text matches the unescaped
// article text.
func unescapedRefs(refs []types.FootnoteReference) []types.FootnoteReference {
	out := make([]types.FootnoteReference, len(refs))
	for i, ref := range refs {
		ref.ReferencedText = UnescapeMarkdown(ref.ReferencedText)
		out[i] = ref
	}
	return out
}
