// Package populate fills the article leaves of a structural tree with the
// records found by the article extractor.
//
// Every record carries a single-use claim id. A leaf claims the first
// unused record that matches its declared range, in document order, so a
// record never lands in two leaves and repeated numbers such as regional
// variants are handed out one by one.
package populate

import (
	"strconv"
	"strings"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/pattern"
	"github.com/coolbeans/justel/pkg/types"
)

// ExtractAll is returned by ParseRange for an empty range: the leaf takes
// every record not claimed elsewhere.
const ExtractAll = "__EXTRACT_ALL_ARTICLES__"

// maxRangeSpan bounds the expansion of "a-b" ranges.
const maxRangeSpan = 1000

// ParseRange expands a table of contents range such as "1", "2-4" or
// "5, 7" into article numbers. Parts that are not integer ranges are kept
// as they are.
func ParseRange(articleRange string) []string {
	if strings.TrimSpace(articleRange) == "" {
		return []string{ExtractAll}
	}

	var numbers []string
	for _, part := range strings.Split(articleRange, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if expanded, ok := expandRange(part); ok {
			numbers = append(numbers, expanded...)
			continue
		}
		numbers = append(numbers, part)
	}
	return numbers
}

func expandRange(part string) ([]string, bool) {
	bounds := strings.Split(part, "-")
	if len(bounds) != 2 {
		return nil, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return nil, false
	}
	end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil || end < start || end-start > maxRangeSpan {
		return nil, false
	}

	numbers := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		numbers = append(numbers, strconv.Itoa(n))
	}
	return numbers, true
}

// BaseNumber reduces a leaf range entry such as "3. (REGION WALLONNE)" to
// its plain article number.
func BaseNumber(number string) string {
	base := strings.TrimRight(types.BaseArticleNumber(number), ".")
	if i := strings.Index(base, "("); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// Populator claims records for the article leaves of one document.
type Populator struct {
	matcher  *pattern.Matcher
	warnings *diag.Collector

	records []*types.ArticleRecord
	exact   map[string][]*types.ArticleRecord
	byBase  map[string][]*types.ArticleRecord
	bases   []string
	claimed map[types.ClaimID]bool
}

// New indexes the extracted records. A nil matcher uses the built-in
// region table.
func New(matcher *pattern.Matcher, records []*types.ArticleRecord, warnings *diag.Collector) *Populator {
	if matcher == nil {
		matcher = pattern.Default()
	}
	p := &Populator{
		matcher:  matcher,
		warnings: warnings,
		records:  records,
		exact:    make(map[string][]*types.ArticleRecord),
		byBase:   make(map[string][]*types.ArticleRecord),
		claimed:  make(map[types.ClaimID]bool),
	}
	for _, record := range records {
		p.exact[record.ArticleNumber] = append(p.exact[record.ArticleNumber], record)
		base := record.BaseNumber()
		if _, seen := p.byBase[base]; !seen {
			p.bases = append(p.bases, base)
		}
		p.byBase[base] = append(p.byBase[base], record)
	}
	return p
}

// Claimed returns how many records have been placed in the tree.
func (p *Populator) Claimed() int {
	return len(p.claimed)
}

// Unclaimed returns the records no leaf took, in document order.
func (p *Populator) Unclaimed() []*types.ArticleRecord {
	var out []*types.ArticleRecord
	for _, record := range p.records {
		if !p.claimed[record.ClaimID] {
			out = append(out, record)
		}
	}
	return out
}

// Populate walks the forest in tree order and fills its article leaves. A
// leaf whose range names several articles is replaced by one sibling leaf
// per claimed record. Leaves that find nothing stay empty.
func (p *Populator) Populate(forest types.Forest) types.Forest {
	return p.populateLevel(forest)
}

func (p *Populator) populateLevel(nodes []*types.StructuralNode) []*types.StructuralNode {
	out := make([]*types.StructuralNode, 0, len(nodes))
	for _, node := range nodes {
		if !node.IsArticle() {
			node.Children = p.populateLevel(node.Children)
			out = append(out, node)
			continue
		}
		out = append(out, p.populateLeaf(node)...)
	}
	return out
}

func (p *Populator) populateLeaf(leaf *types.StructuralNode) []*types.StructuralNode {
	numbers := ParseRange(leaf.Metadata.ArticleRange)

	if len(numbers) == 1 && numbers[0] == ExtractAll {
		p.warnings.Warn(diag.CodeExtractAll, leaf.Label,
			"article entry has no range, taking every unclaimed article")
		var leaves []*types.StructuralNode
		for _, record := range p.Unclaimed() {
			p.claimed[record.ClaimID] = true
			leaves = append(leaves, fill(types.NewArticleLeaf("", ""), record))
		}
		if len(leaves) == 0 {
			return []*types.StructuralNode{leaf}
		}
		return leaves
	}

	if len(numbers) == 1 {
		if record := p.claim(numbers[0]); record != nil {
			fill(leaf, record)
		}
		return []*types.StructuralNode{leaf}
	}

	var leaves []*types.StructuralNode
	for _, number := range numbers {
		if record := p.claim(number); record != nil {
			leaves = append(leaves, fill(types.NewArticleLeaf("", ""), record))
		}
	}
	if len(leaves) == 0 {
		return []*types.StructuralNode{leaf}
	}
	return leaves
}

// claim returns the first unused record for a range entry. Candidates are
// tried from the most to the least specific: the exact article number,
// the same base number in the region the entry names, a record whose
// number starts with the entry's digits, then the plain base number.
func (p *Populator) claim(number string) *types.ArticleRecord {
	base := BaseNumber(number)
	tiers := [][]*types.ArticleRecord{p.exact[number]}
	if region, ok := p.matcher.ContainsRegion(number); ok {
		tiers = append(tiers, p.inRegion(base, region))
	}
	tiers = append(tiers, p.byBase[number], p.withLeadingDigits(number), p.byBase[base])

	seen := false
	for _, candidates := range tiers {
		for _, record := range candidates {
			seen = true
			if !p.claimed[record.ClaimID] {
				p.claimed[record.ClaimID] = true
				return record
			}
		}
	}

	if seen {
		p.warnings.Warn(diag.CodeArticleExhausted, number, "every article %s is already placed", number)
	} else {
		p.warnings.Warn(diag.CodeArticleNotFound, number, "article %s not found in extracted articles", number)
	}
	return nil
}

func (p *Populator) inRegion(base, region string) []*types.ArticleRecord {
	var out []*types.ArticleRecord
	for _, record := range p.byBase[base] {
		if record.Region == region {
			out = append(out, record)
		}
	}
	return out
}

// withLeadingDigits finds records such as "1bis" for an entry "1".
func (p *Populator) withLeadingDigits(number string) []*types.ArticleRecord {
	if _, err := strconv.Atoi(number); err != nil {
		return nil
	}
	var out []*types.ArticleRecord
	for _, base := range p.bases {
		if leadingDigits(base) == number {
			out = append(out, p.byBase[base]...)
		}
	}
	return out
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// fill places a record in a leaf and relabels the leaf after the record.
func fill(leaf *types.StructuralNode, record *types.ArticleRecord) *types.StructuralNode {
	leaf.Label = "Article " + record.ArticleNumber
	leaf.Metadata.ArticleRange = record.ArticleNumber
	leaf.Article = record
	return leaf
}
