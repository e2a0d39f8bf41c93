package document

import (
	"regexp"
	"strings"

	"github.com/coolbeans/justel/pkg/extract"
	"github.com/coolbeans/justel/pkg/pattern"
)

var preambleMarkers = []string{
	"[9A] ## Préambule [9B]",
	"[9A] ## PREAMBULE [9B]",
	"[9A] ## préambule [9B]",
	"[9A] ## Preambule [9B]",
}

// preambleEnd lists the markers that may follow the preamble.
var preambleEnd = []string{
	"[4A]", "[5A]", "[6A]", "[10A]", "[11A]", "[12A]",
	"## Lien", "## Fiche des modifications",
}

// Preamble returns the unescaped text of the preamble section, or "" when
// the document has none.
func Preamble(content string) string {
	for _, marker := range preambleMarkers {
		if text, ok := pattern.ExtractRegion(content, marker, preambleEnd...); ok {
			return strings.TrimSpace(extract.UnescapeMarkdown(strings.TrimSpace(text)))
		}
	}
	return ""
}

// AbrogationInfo describes a document whose whole text is a repeal notice.
// The zero value means the document is not abrogated.
type AbrogationInfo struct {
	IsFullyAbrogated  bool   `json:"is_fully_abrogated,omitempty"`
	AbrogationText    string `json:"abrogation_text,omitempty"`
	AbrogatingLaw     string `json:"abrogating_law,omitempty"`
	AbrogatingArticle string `json:"abrogating_article,omitempty"`
	AbrogationEntry   string `json:"abrogation_entry,omitempty"`
	AbrogationDate    string `json:"abrogation_date,omitempty"`
	RawAbrogationText string `json:"raw_abrogation_text,omitempty"`
}

var documentAbrogation = regexp.MustCompile(`\(abrogé\)\s*<([^,]+),\s*([^,]+),\s*([^;]+);\s*(?:\*\*)?En vigueur\s*:\s*(?:\*\*)?([^>]+)>`)

// AbrogationInfo looks for "(abrogé) <law, article, entry; En vigueur :
// date>" in the text section.
func (m *MetadataExtractor) AbrogationInfo(content string) AbrogationInfo {
	text, ok := pattern.ExtractRegion(content, pattern.TextSection, "[4A]", "[5A]")
	if !ok {
		return AbrogationInfo{}
	}
	match := documentAbrogation.FindStringSubmatch(text)
	if match == nil {
		return AbrogationInfo{}
	}
	return AbrogationInfo{
		IsFullyAbrogated:  true,
		AbrogationText:    "(abrogé)",
		AbrogatingLaw:     strings.TrimSpace(match[1]),
		AbrogatingArticle: strings.TrimSpace(match[2]),
		AbrogationEntry:   strings.TrimSpace(match[3]),
		AbrogationDate:    m.ParseDate(match[4]),
		RawAbrogationText: match[0],
	}
}

// ExternalLinks groups the links of the document that point outside the
// consolidated text.
type ExternalLinks struct {
	OfficialLinks     []Link `json:"official_links"`
	ParliamentaryWork []Link `json:"parliamentary_work"`
}

// Link is a labelled URL.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)

// ExternalLinks collects the official links and the parliamentary work
// links listed in the external links block.
func (m *MetadataExtractor) ExternalLinks(content string, official OfficialLinks) ExternalLinks {
	links := ExternalLinks{
		OfficialLinks:     make([]Link, 0, 3),
		ParliamentaryWork: make([]Link, 0),
	}
	for _, link := range []Link{
		{Label: "justel", URL: official.JustelURL},
		{Label: "publication_pdf", URL: official.PublicationPDFURL},
		{Label: "consolidated_pdf", URL: official.ConsolidatedPDFURL},
	} {
		if link.URL != "" {
			links.OfficialLinks = append(links.OfficialLinks, link)
		}
	}

	for _, match := range markdownLink.FindAllStringSubmatch(externalLinksBody(content), -1) {
		label := strings.TrimSpace(match[1])
		link := Link{Label: label, URL: match[2]}
		if strings.Contains(strings.ToLower(label), "parlement") {
			links.ParliamentaryWork = append(links.ParliamentaryWork, link)
			continue
		}
		links.OfficialLinks = append(links.OfficialLinks, link)
	}
	return links
}
