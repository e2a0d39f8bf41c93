package document

import (
	"regexp"
	"strings"
)

// ModificationsSection opens the modification history of a document.
const ModificationsSection = "[4A] ## Fiche des modifications [4B]"

// References lists the documents this one modifies and the texts that
// modified it.
type References struct {
	Modifies   []ModifiedText `json:"modifies"`
	ModifiedBy []Modification `json:"modified_by"`
}

// ModifiedText is a document modified by this one.
type ModifiedText struct {
	NUMAC string `json:"numac"`
	URL   string `json:"url"`
}

// Modification is one entry of the modification history.
type Modification struct {
	ModificationType string   `json:"modification_type"`
	ModificationDate string   `json:"modification_date"`
	PublicationDate  string   `json:"publication_date"`
	ModifiedArticles []string `json:"modified_articles"`
	SourceURL        string   `json:"source_url"`
	FullTitle        string   `json:"full_title"`
}

var (
	modifiesBlock    = regexp.MustCompile(`(?s)\*\*Ce texte modifie les textes suivants:\*\*\s*\n\s*(.+?)(?:\n\s*\n|\n\s*\*\*|$)`)
	modifiesLink     = regexp.MustCompile(`\[(\d{10}[A-Z]?\d*)\]\((https://www\.ejustice\.just\.fgov\.be/cgi_loi/article\.pl\?[^)]+)\)`)
	modificationItem = regexp.MustCompile(`\*\s*\[([^\]]+)\]\(([^)]+)\)\s*\n\s*Articles? modifiés?\s*:\s*([^\n]+)`)
	typeAndDate      = regexp.MustCompile(`^(.+?)\s+du\s+([0-9-]+)`)
)

// ExtractReferences reads the "modifies" list and the modification history.
func (m *MetadataExtractor) ExtractReferences(content string) References {
	refs := References{
		Modifies:   make([]ModifiedText, 0),
		ModifiedBy: make([]Modification, 0),
	}

	if match := modifiesBlock.FindStringSubmatch(content); match != nil {
		for _, link := range modifiesLink.FindAllStringSubmatch(match[1], -1) {
			refs.Modifies = append(refs.Modifies, ModifiedText{NUMAC: link[1], URL: link[2]})
		}
	}

	start := strings.Index(content, ModificationsSection)
	if start < 0 {
		return refs
	}
	history := content[start+len(ModificationsSection):]
	for _, marker := range []string{"[5A]", "[6A]"} {
		if i := strings.Index(history, marker); i >= 0 {
			history = history[:i]
		}
	}

	for _, item := range modificationItem.FindAllStringSubmatch(history, -1) {
		refs.ModifiedBy = append(refs.ModifiedBy, m.modification(item[1], item[2], item[3]))
	}
	return refs
}

// modification parses a history title such as "Loi du 26-04-2019 publié le
// 15-05-2019".
func (m *MetadataExtractor) modification(title, url, articles string) Modification {
	title = strings.TrimSpace(title)
	head, published, _ := strings.Cut(title, " publié le ")

	mod := Modification{
		PublicationDate:  m.ParseDate(published),
		ModifiedArticles: make([]string, 0),
		SourceURL:        strings.TrimSpace(url),
		FullTitle:        title,
	}
	if match := typeAndDate.FindStringSubmatch(head); match != nil {
		mod.ModificationType = strings.TrimSpace(match[1])
		mod.ModificationDate = m.ParseDate(match[2])
	}

	for _, article := range strings.Split(strings.ReplaceAll(articles, ";", ","), ",") {
		if article = strings.TrimSpace(article); article != "" {
			mod.ModifiedArticles = append(mod.ModifiedArticles, article)
		}
	}
	return mod
}
