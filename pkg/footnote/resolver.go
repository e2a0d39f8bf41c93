// Package footnote links the bracketed footnote markers of an article body
// to the definitions trailing it. It splits the body from its footnote
// block, extracts references and definitions, cleans the markers out of the
// displayable text and places each reference back as an annotated span.
package footnote

import (
	"strings"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/pattern"
	"github.com/coolbeans/justel/pkg/types"
)

// Resolver runs the footnote pipeline for the articles of one document.
type Resolver struct {
	matcher  *pattern.Matcher
	warnings *diag.Collector
}

// NewResolver creates a resolver. A nil matcher uses the built-in patterns;
// a nil collector discards warnings.
func NewResolver(matcher *pattern.Matcher, warnings *diag.Collector) *Resolver {
	if matcher == nil {
		matcher = pattern.Default()
	}
	return &Resolver{matcher: matcher, warnings: warnings}
}

// Split separates an article body from its footnote block at the first
// dash rule. Both parts are trimmed; the footnote part is empty when the
// body has no separator.
func (r *Resolver) Split(body string) (main, footnotes string) {
	loc := r.matcher.FootnoteSeparator().FindStringIndex(body)
	if loc == nil {
		return strings.TrimSpace(body), ""
	}
	return strings.TrimSpace(body[:loc[0]]), strings.TrimSpace(body[loc[1]:])
}

// References extracts the footnote references of the main text. A marker
// whose opening and closing numbers differ is reported, and the scan
// resumes just after its opening bracket so that a well-formed pair inside
// it is still found.
func (r *Resolver) References(article, main string) []types.FootnoteReference {
	refs := make([]types.FootnoteReference, 0)
	expr := r.matcher.FootnoteReference()
	for pos := 0; pos < len(main); {
		loc := expr.FindStringSubmatchIndex(main[pos:])
		if loc == nil {
			break
		}
		group := func(n int) string {
			if loc[2*n] < 0 {
				return ""
			}
			return main[pos+loc[2*n] : pos+loc[2*n+1]]
		}

		start, end := pos+loc[0], pos+loc[1]
		open, text, closing := group(1), group(2), group(3)
		if open == "" {
			open, text, closing = group(4), group(5), group(6)
		}
		marker := main[start:end]
		if open != closing {
			r.warnings.Warn(diag.CodeFootnoteMarkerMismatch, article,
				"marker %q opens with %s and closes with %s", marker, open, closing)
			pos = start + 1
			continue
		}

		refs = append(refs, types.FootnoteReference{
			ReferenceNumber: open,
			TextPosition:    start,
			ReferencedText:  strings.TrimSpace(text),
			BracketPattern:  marker,
		})
		pos = end
	}
	return refs
}

// Definitions parses the "(N)<TYPE [date](url), art; En vigueur : d>"
// entries of a footnote block.
func (r *Resolver) Definitions(block string) []types.FootnoteDefinition {
	defs := make([]types.FootnoteDefinition, 0)
	for _, match := range r.matcher.FootnoteDefinition().FindAllStringSubmatch(block, -1) {
		lawType := strings.TrimSpace(match[2])
		date := strings.TrimSpace(match[3])

		parts := strings.Split(strings.TrimSpace(match[5]), ",")
		article := strings.TrimSpace(parts[0])
		sequence := ""
		if len(parts) > 1 {
			sequence = strings.TrimSpace(parts[1])
		}

		directURL := strings.TrimSpace(match[4])
		if url := r.matcher.FootnoteURL().FindStringSubmatch(match[0]); url != nil {
			directURL = url[1]
		}
		directArticleURL := ""
		if cited := stripArticlePrefix(article); directURL != "" && cited != "" {
			directArticleURL = strings.TrimRight(directURL, "/") + "#Art." + cited
		}

		defs = append(defs, types.FootnoteDefinition{
			FootnoteNumber:   match[1],
			FullCitationText: match[0],
			LawReference: types.LawReference{
				LawType:        lawType,
				DateReference:  date,
				ArticleNumber:  article,
				SequenceNumber: sequence,
				FullReference:  lawType + " [" + date + "]",
			},
			EffectiveDate:    strings.TrimSpace(match[6]),
			ModificationType: "modification",
			DirectURL:        directURL,
			DirectArticleURL: directArticleURL,
		})
	}
	return defs
}

// stripArticlePrefix drops a leading "art." or "art " from a cited article.
func stripArticlePrefix(article string) string {
	lower := strings.ToLower(article)
	switch {
	case strings.HasPrefix(lower, "art."):
		article = article[len("art."):]
	case strings.HasPrefix(lower, "art "):
		article = article[len("art "):]
	}
	return strings.TrimSpace(article)
}
