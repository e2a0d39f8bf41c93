package footnote

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/coolbeans/justel/pkg/types"
)

// minIntersection is the length a partial match must exceed to count.
const minIntersection = 10

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
	phraseSplit   = regexp.MustCompile(`,\s+`)
)

// Match is the location of a referenced text inside a body.
type Match struct {
	Start     int
	End       int
	Technique types.LocateTechnique
}

// Locate finds referenced inside text. It tries an exact match, then a
// match on normalized text, then the first three words, and finally the
// longest sentence or phrase of referenced that appears verbatim.
func Locate(text, referenced string) (Match, bool) {
	if referenced == "" {
		return Match{}, false
	}
	if i := strings.Index(text, referenced); i >= 0 {
		return Match{Start: i, End: i + len(referenced), Technique: types.LocateExact}, true
	}

	target := normalize(text)
	needle := normalize(referenced)
	if needle.text != "" {
		if i := strings.Index(target.text, needle.text); i >= 0 {
			return Match{
				Start:     target.starts[i],
				End:       target.ends[i+len(needle.text)-1],
				Technique: types.LocateNormalized,
			}, true
		}
	}

	if words := strings.Fields(needle.text); len(words) >= 3 {
		anchor := strings.Join(words[:3], " ")
		if i := strings.Index(target.text, anchor); i >= 0 {
			start := target.starts[i]
			end := start + len(referenced)
			if end > len(text) {
				end = len(text)
			}
			for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
				end--
			}
			return Match{Start: start, End: end, Technique: types.LocateAnchor}, true
		}
	}

	if part := intersection(text, referenced); part != "" {
		i := strings.Index(text, part)
		return Match{Start: i, End: i + len(part), Technique: types.LocateIntersection}, true
	}
	return Match{}, false
}

// intersection returns the longest sentence of referenced found in text,
// falling back to comma separated phrases.
func intersection(text, referenced string) string {
	referenced = strings.TrimSpace(referenced)
	for _, split := range []*regexp.Regexp{sentenceSplit, phraseSplit} {
		best := ""
		for _, chunk := range split.Split(referenced, -1) {
			chunk = strings.TrimSpace(chunk)
			if len(chunk) > minIntersection && len(chunk) > len(best) && strings.Contains(text, chunk) {
				best = chunk
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

// normalizedText is an NFKC folded copy of a string with typographic
// quotes and dashes flattened and whitespace collapsed. starts and ends map
// every byte of text back to the source span that produced it.
type normalizedText struct {
	text   string
	starts []int
	ends   []int
}

// foldPunctuation flattens typographic quotes and dashes.
func foldPunctuation(r rune) rune {
	switch r {
	case '‘', '’':
		return '\''
	case '“', '”':
		return '"'
	case '–', '—':
		return '-'
	}
	return r
}

func normalize(s string) normalizedText {
	var out normalizedText
	var b strings.Builder
	pendingSpace := -1

	add := func(r rune, start, end int) {
		r = foldPunctuation(r)
		if unicode.IsSpace(r) {
			switch {
			case b.Len() == 0:
			case pendingSpace >= 0:
				out.ends[pendingSpace] = end
			default:
				pendingSpace = b.Len()
				b.WriteByte(' ')
				out.starts = append(out.starts, start)
				out.ends = append(out.ends, end)
			}
			return
		}
		pendingSpace = -1
		n, _ := b.WriteRune(r)
		for range n {
			out.starts = append(out.starts, start)
			out.ends = append(out.ends, end)
		}
	}

	var it norm.Iter
	it.InitString(norm.NFKC, s)
	for !it.Done() {
		start := it.Pos()
		segment := string(it.Next())
		end := it.Pos()

		// Unchanged segments map rune by rune; rewritten ones map as a whole.
		if segment == s[start:end] {
			for off := 0; off < len(segment); {
				r, size := utf8.DecodeRuneInString(segment[off:])
				add(r, start+off, start+off+size)
				off += size
			}
			continue
		}
		for _, r := range segment {
			add(r, start, end)
		}
	}

	out.text = b.String()
	if n := len(out.text); n > 0 && out.text[n-1] == ' ' {
		out.text = out.text[:n-1]
		out.starts = out.starts[:n-1]
		out.ends = out.ends[:n-1]
	}
	return out
}
