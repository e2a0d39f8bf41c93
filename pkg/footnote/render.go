package footnote

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ResolveOverlaps keeps a set of non-overlapping placements. Placements
// are taken in text order; one that overlaps already kept placements
// replaces them only when it is strictly longer than each of them, so an
// equal-length tie keeps the earlier span. The result is sorted by start.
func ResolveOverlaps(placements []types.FootnotePlacement) []types.FootnotePlacement {
	ordered := make([]types.FootnotePlacement, len(placements))
	copy(ordered, placements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	resolved := make([]types.FootnotePlacement, 0, len(ordered))
	for _, current := range ordered {
		wins := true
		var kept []types.FootnotePlacement
		for _, existing := range resolved {
			if !current.Overlaps(existing) {
				kept = append(kept, existing)
				continue
			}
			if current.Len() <= existing.Len() {
				wins = false
				break
			}
		}
		if wins {
			resolved = append(kept, current)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Start < resolved[j].Start })
	return resolved
}

// Place locates every reference that carries text and has a matching
// definition. References that cannot be found are reported and dropped.
func (r *Resolver) Place(article, text string, refs []types.FootnoteReference, defs []types.FootnoteDefinition) []types.FootnotePlacement {
	defined := make(map[string]bool, len(defs))
	for _, def := range defs {
		defined[def.FootnoteNumber] = true
	}

	placements := make([]types.FootnotePlacement, 0, len(refs))
	for _, ref := range refs {
		if ref.ReferencedText == "" || !defined[ref.ReferenceNumber] {
			continue
		}
		match, ok := Locate(text, ref.ReferencedText)
		if !ok {
			r.warnings.Warn(diag.CodeFootnoteUnlocated, article,
				"footnote %s text %q not found in article body", ref.ReferenceNumber, ref.ReferencedText)
			continue
		}
		placements = append(placements, types.FootnotePlacement{
			ReferenceNumber: ref.ReferenceNumber,
			Start:           match.Start,
			End:             match.End,
			ReferencedText:  ref.ReferencedText,
			MatchedText:     text[match.Start:match.End],
			Technique:       match.Technique,
		})
	}
	return ResolveOverlaps(placements)
}

// textEscaper escapes the text nodes of a rendered article. Quotes are
// left alone; they only need escaping inside attribute values.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Render wraps each placement of text in a footnote span and flattens the
// result into a single line of prose. The result is an HTML fragment: the
// prose between spans is escaped like the span contents, so a citation such
// as "<Inséré par ...>" reads as text. Placement offsets refer to text;
// placements that overlap an earlier one or fall outside text are skipped.
func Render(text string, placements []types.FootnotePlacement, defs []types.FootnoteDefinition) string {
	byNumber := make(map[string]types.FootnoteDefinition, len(defs))
	for _, def := range defs {
		byNumber[def.FootnoteNumber] = def
	}

	ordered := make([]types.FootnotePlacement, len(placements))
	copy(ordered, placements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var out strings.Builder
	last := 0
	for _, p := range ordered {
		if p.Start < last || p.Start > p.End || p.End > len(text) {
			continue
		}
		def := byNumber[p.ReferenceNumber]
		out.WriteString(textEscaper.Replace(text[last:p.Start]))
		fmt.Fprintf(&out,
			`<span class="footnote-ref" data-footnote-id="%s" data-referenced-text="%s" data-direct-article-url="%s" data-article-dossier-number="%s">%s</span>`,
			html.EscapeString(p.ReferenceNumber),
			html.EscapeString(p.ReferencedText),
			html.EscapeString(def.DirectArticleURL),
			html.EscapeString(def.LawReference.DateReference),
			textEscaper.Replace(text[p.Start:p.End]),
		)
		last = p.End
	}
	out.WriteString(textEscaper.Replace(text[last:]))
	return flatten(out.String())
}

// flatten turns escaped and real line breaks into spaces and collapses
// whitespace.
func flatten(text string) string {
	text = strings.ReplaceAll(text, `\n`, " ")
	text = strings.ReplaceAll(text, `\\`, "")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
