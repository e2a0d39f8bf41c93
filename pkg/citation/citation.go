// Package citation parses the inline legal citations of Justel articles,
// such as "<Modifié par LOI [2004-07-08/37](url), art. 2; En vigueur : 2004-09-01>".
package citation

import "strings"

// CitationType classifies what a citation says happened to the text.
type CitationType string

const (
	CitationTypeStandard     CitationType = "standard"
	CitationTypeInsertion    CitationType = "insertion"
	CitationTypeModification CitationType = "modification"
	CitationTypeAbrogation   CitationType = "abrogation"
	CitationTypeReplacement  CitationType = "replacement"
)

// TypeForPrefix maps a citation prefix such as "Inséré par" to its type.
// An empty prefix yields CitationTypeStandard; unknown prefixes count as
// modifications.
func TypeForPrefix(prefix string) CitationType {
	lower := strings.ToLower(strings.TrimSpace(prefix))
	switch {
	case lower == "":
		return CitationTypeStandard
	case strings.Contains(lower, "inséré"):
		return CitationTypeInsertion
	case strings.Contains(lower, "modifié"):
		return CitationTypeModification
	case strings.Contains(lower, "abrogé"):
		return CitationTypeAbrogation
	case strings.Contains(lower, "remplacé"):
		return CitationTypeReplacement
	default:
		return CitationTypeModification
	}
}

// Span is a byte range in the text a citation was parsed from.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Citation is one parsed "<...>" citation.
type Citation struct {
	Type           CitationType `json:"citation_type"`
	Prefix         string       `json:"prefix,omitempty"`
	LawType        string       `json:"law_type"`
	DossierNumber  string       `json:"dossier_number,omitempty"`
	ArticleNumber  string       `json:"article_number,omitempty"`
	SequenceNumber string       `json:"sequence_number,omitempty"`
	EffectiveDate  string       `json:"effective_date,omitempty"`
	URL            string       `json:"url,omitempty"`

	// RawDossier and RawArticle keep the captured text before cleanup.
	RawDossier string `json:"raw_dossier,omitempty"`
	RawArticle string `json:"raw_article,omitempty"`

	FullText string `json:"full_text"`
	Display  string `json:"display_format"`
	Span     Span   `json:"span"`
}

// DossierDate returns the date part of a "YYYY-MM-DD/NN" dossier number.
func (c *Citation) DossierDate() string {
	date, _, _ := strings.Cut(c.DossierNumber, "/")
	return date
}

// HeaderCitation is the "<...>" block that can open an article's text. The
// text is kept in the article, the header is reported separately.
type HeaderCitation struct {
	FullText string    `json:"full_text"`
	URLs     []string  `json:"urls"`
	Parsed   *Citation `json:"parsed,omitempty"`
}
