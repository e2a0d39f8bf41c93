package types

import (
	"strings"

	"github.com/coolbeans/justel/pkg/citation"
)

// AbrogatedStatus marks an article whose whole content has been repealed.
const AbrogatedStatus = "abrogé"

// ClaimID is the single-use token assigned to every extracted article. The
// populator records claimed ids so that no record lands in two leaves.
type ClaimID uint64

// ArticleRecord is one article extracted from the document body.
type ArticleRecord struct {
	ClaimID  ClaimID `json:"-"`
	Position int     `json:"-"`

	ArticleNumber string `json:"article_number"`
	AnchorID      string `json:"anchor_id"`
	Region        string `json:"region,omitempty"`

	RawText     string `json:"main_text_raw"`
	DisplayText string `json:"display_text"`

	NumberedProvisions []NumberedProvision `json:"numbered_provisions"`
	HyphenatedItems    []HyphenatedItem    `json:"hyphenated_items,omitempty"`

	Footnotes          []FootnoteDefinition `json:"footnotes"`
	FootnoteReferences []FootnoteReference  `json:"footnote_references"`
	FootnotePlacements []FootnotePlacement  `json:"footnote_placements,omitempty"`

	HeaderCitation   *citation.HeaderCitation `json:"header_citation,omitempty"`
	Citations        []*citation.Citation     `json:"citations,omitempty"`
	AbrogationStatus string                   `json:"abrogation_status,omitempty"`
}

// BaseNumber returns the article number without its regional suffix.
func (a *ArticleRecord) BaseNumber() string {
	return BaseArticleNumber(a.ArticleNumber)
}

// IsAbrogated reports whether the article is marked as repealed.
func (a *ArticleRecord) IsAbrogated() bool {
	return a.AbrogationStatus == AbrogatedStatus
}

// BaseArticleNumber keeps the part of a number before the first space, so
// "37 WALLONNE" becomes "37".
func BaseArticleNumber(number string) string {
	fields := strings.Fields(number)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FootnoteReference is a bracketed span of article text pointing at a
// footnote definition, such as "[1 texte inséré]1".
type FootnoteReference struct {
	ReferenceNumber string `json:"reference_number"`
	TextPosition    int    `json:"text_position"`
	ReferencedText  string `json:"referenced_text"`
	BracketPattern  string `json:"bracket_pattern"`
}

// LawReference is the cited law of a footnote definition.
type LawReference struct {
	LawType        string `json:"law_type"`
	DateReference  string `json:"date_reference"`
	ArticleNumber  string `json:"article_number"`
	SequenceNumber string `json:"sequence_number"`
	FullReference  string `json:"full_reference"`
}

// FootnoteDefinition is one entry of the footnote block trailing an article.
type FootnoteDefinition struct {
	FootnoteNumber   string       `json:"footnote_number"`
	FullCitationText string       `json:"footnote_content"`
	LawReference     LawReference `json:"law_reference"`
	EffectiveDate    string       `json:"effective_date"`
	ModificationType string       `json:"modification_type"`
	DirectURL        string       `json:"direct_url"`
	DirectArticleURL string       `json:"direct_article_url"`
}

// LocateTechnique names how a footnote's referenced text was found in the
// article body.
type LocateTechnique string

const (
	LocateExact        LocateTechnique = "exact"
	LocateNormalized   LocateTechnique = "normalized"
	LocateAnchor       LocateTechnique = "anchor"
	LocateIntersection LocateTechnique = "intersection"
)

// FootnotePlacement records where a linked reference landed in the
// displayable text.
type FootnotePlacement struct {
	ReferenceNumber string          `json:"reference_number"`
	Start           int             `json:"start"`
	End             int             `json:"end"`
	ReferencedText  string          `json:"referenced_text"`
	MatchedText     string          `json:"matched_text"`
	Technique       LocateTechnique `json:"technique"`
}

// Len returns the byte length of the placed span.
func (p FootnotePlacement) Len() int {
	return p.End - p.Start
}

// Overlaps reports whether two placements share at least one byte.
func (p FootnotePlacement) Overlaps(other FootnotePlacement) bool {
	return p.Start < other.End && p.End > other.Start
}

// NumberedProvision is a "N°" sub-clause of an article.
type NumberedProvision struct {
	Number   string   `json:"number"`
	Text     string   `json:"text"`
	SubItems []string `json:"sub_items"`
}

// HyphenatedItem is a "- text" list entry of an article.
type HyphenatedItem struct {
	Text string `json:"text"`
}
