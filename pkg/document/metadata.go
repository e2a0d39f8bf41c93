package document

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/justel/pkg/pattern"
)

// Section markers of the converted document header.
const (
	TitleSection   = "[1A] ## Titre [1B]"
	LinksSection   = "[5A] [6A] ## Lien [6B]s [5B]"
	externalSuffix = " externes"
)

// Document status values.
const (
	StatusActive    = "active"
	StatusAbrogated = "abrogated"
)

// UnknownType is the document type when neither the ELI link nor the title
// names one.
const UnknownType = "unknown"

// Metadata describes the document as a whole.
type Metadata struct {
	DocumentNumber            string      `json:"document_number"`
	Title                     string      `json:"title"`
	PublicationDate           string      `json:"publication_date"`
	Source                    string      `json:"source"`
	PageNumber                int         `json:"page_number"`
	DossierNumber             string      `json:"dossier_number"`
	EffectiveDate             string      `json:"effective_date"`
	EndValidityDate           string      `json:"end_validity_date"`
	Language                  string      `json:"language"`
	DocumentType              string      `json:"document_type"`
	Status                    string      `json:"status"`
	VersionInfo               VersionInfo `json:"version_info"`
	OfficialJustelURL         string      `json:"official_justel_url"`
	OfficialPublicationPDFURL string      `json:"official_publication_pdf_url"`
	ConsolidatedPDFURL        string      `json:"consolidated_pdf_url"`
}

// VersionInfo points at the archived versions and execution orders of a
// document.
type VersionInfo struct {
	ArchivedVersionsCount int    `json:"archived_versions_count"`
	ArchivedVersionsURL   string `json:"archived_versions_url"`
	ExecutionOrdersCount  int    `json:"execution_orders_count"`
	ExecutionOrdersURL    string `json:"execution_orders_url"`
}

// OfficialLinks are the links of the "Liens" block.
type OfficialLinks struct {
	JustelURL          string
	PublicationPDFURL  string
	ConsolidatedPDFURL string
}

// publication holds the raw header fields before normalization.
type publication struct {
	date            string
	page            string
	numac           string
	dossier         string
	effectiveDate   string
	endValidityDate string
	source          string
}

// MetadataExtractor reads the header fields of a document.
type MetadataExtractor struct {
	matcher *pattern.Matcher

	publicationDate *regexp.Regexp
	page            *regexp.Regexp
	dossier         *regexp.Regexp
	dossierMinimal  *regexp.Regexp
	effectiveDate   *regexp.Regexp
	endValidity     *regexp.Regexp
	source          *regexp.Regexp
	numac           *regexp.Regexp
	numacFilename   *regexp.Regexp
	numacLine       *regexp.Regexp

	archivedVersions    *regexp.Regexp
	archivedVersionsURL *regexp.Regexp
	executionOrders     *regexp.Regexp
	executionOrdersURL  *regexp.Regexp

	canonicalLink     *regexp.Regexp
	publicationLink   *regexp.Regexp
	consolidatedLink  *regexp.Regexp
	eliSegment        *regexp.Regexp
	titleDocumentType *regexp.Regexp
	firstInteger      *regexp.Regexp
	numericDate       *regexp.Regexp
}

// NewMetadataExtractor creates an extractor. A nil matcher uses the
// built-in vocabulary for document types.
func NewMetadataExtractor(matcher *pattern.Matcher) *MetadataExtractor {
	if matcher == nil {
		matcher = pattern.Default()
	}
	return &MetadataExtractor{
		matcher: matcher,

		publicationDate: headerField(`Publication:`),
		page:            headerField(`page:`),
		dossier:         headerField(`Dossier\s+num\s*(?:&eacute;|é|e)?\s*ro:`),
		dossierMinimal:  regexp.MustCompile(`(?:Dossier numéro|Dossiernummer)\s*:\s*(\d{10})`),
		effectiveDate:   headerField(`Entr\s*(?:&eacute;|é|e)?\s*e\s+en\s+vigueur\s*:`),
		endValidity:     headerField(`Fin\s+de\s+validit\s*(?:&eacute;|é|e)?\s*:`),
		source:          headerField(`Source:`),
		numac:           regexp.MustCompile(`(?i)(?:<strong>|\*\*)Num\s*(?:&eacute;|é|e)?\s*ro:\s*(?:</strong>|\*\*)\s*([A-Z0-9]{10})`),
		numacFilename:   regexp.MustCompile(`(?i)[A-Z0-9]{10}`),
		numacLine:       regexp.MustCompile(`(?i)^[A-Z0-9]{10}$`),

		archivedVersions:    regexp.MustCompile(`\*\*\[(\d+)\s+versions\s+archivees\]`),
		archivedVersionsURL: regexp.MustCompile(`\*\*\[\d+\s+versions\s+archivees\]\(([^)]+)\)`),
		executionOrders:     regexp.MustCompile(`\*\*\[(\d+)\s+arrêtes\s+d'execution\]`),
		executionOrdersURL:  regexp.MustCompile(`\*\*\[\d+\s+arrêtes\s+d'execution\]\(([^)]+)\)`),

		canonicalLink:     regexp.MustCompile(`<(https://www\.ejustice\.just\.fgov\.be/eli/[^>]+)>`),
		publicationLink:   regexp.MustCompile(`\[Image de la publication officielle\]\((https://www\.ejustice\.just\.fgov\.be/mopdf/[^)]+)\)`),
		consolidatedLink:  regexp.MustCompile(`\[PDF version consolidée\]\((https://www\.ejustice\.just\.fgov\.be/img_l/pdf/[^)]+)\)`),
		eliSegment:        regexp.MustCompile(`https://www\.ejustice\.just\.fgov\.be/eli/([^/]+)/`),
		titleDocumentType: regexp.MustCompile(`(?i)(Loi|Arrêté|Décret|Ordonnance|Code|Constitution)`),
		firstInteger:      regexp.MustCompile(`\d+`),
		numericDate:       regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`),
	}
}

// headerField compiles a "**Label:** value" or "<strong>Label:</strong>
// value" pattern capturing the value up to the end of the line or the next
// markup.
func headerField(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:<strong>|\*\*)` + label + `\s*(?:</strong>|\*\*)\s*([^<\n*]+)`)
}

// Extract returns the metadata of a document. The file name supplies the
// document number when the content has neither a NUMAC nor a usable
// dossier number.
func (m *MetadataExtractor) Extract(content, filename string) Metadata {
	pub := m.publication(content)
	title := m.Title(content)
	links := m.OfficialLinks(content)

	documentNumber := pub.numac
	if documentNumber == "" {
		if m.numacLine.MatchString(pub.dossier) {
			documentNumber = pub.dossier
		} else {
			documentNumber = m.numacFilename.FindString(filename)
		}
	}

	meta := Metadata{
		DocumentNumber:            documentNumber,
		Title:                     title,
		PublicationDate:           m.ParseDate(pub.date),
		Source:                    pub.source,
		PageNumber:                m.parsePage(pub.page),
		DossierNumber:             pub.dossier,
		EffectiveDate:             m.ParseDate(pub.effectiveDate),
		EndValidityDate:           m.ParseDate(pub.endValidityDate),
		Language:                  "fr",
		DocumentType:              m.DocumentType(links.JustelURL, title),
		Status:                    StatusActive,
		VersionInfo:               m.versionInfo(content),
		OfficialJustelURL:         links.JustelURL,
		OfficialPublicationPDFURL: links.PublicationPDFURL,
		ConsolidatedPDFURL:        links.ConsolidatedPDFURL,
	}
	if meta.EndValidityDate != "" {
		meta.Status = StatusAbrogated
	}
	return meta
}

func (m *MetadataExtractor) publication(content string) publication {
	pub := publication{
		date:            firstGroup(m.publicationDate, content),
		page:            firstGroup(m.page, content),
		numac:           firstGroup(m.numac, content),
		dossier:         firstGroup(m.dossier, content),
		effectiveDate:   firstGroup(m.effectiveDate, content),
		endValidityDate: firstGroup(m.endValidity, content),
		source:          firstGroup(m.source, content),
	}
	if pub.dossier == "" {
		pub.dossier = firstGroup(m.dossierMinimal, content)
	}
	return pub
}

// Title joins the lines of the title section, skipping the NUMAC line and
// stopping at the first metadata field.
func (m *MetadataExtractor) Title(content string) string {
	start := strings.Index(content, TitleSection)
	if start < 0 {
		return ""
	}
	closing := "**Source:**"
	if !strings.Contains(content[start:], closing) {
		closing = "[2A]"
	}
	section, _ := pattern.ExtractRegion(content[start:], TitleSection, closing)

	var lines []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || m.numacLine.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, "**") {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// OfficialLinks reads the ELI link and the two PDF links of the links
// block. The external links block that follows it is not part of it.
func (m *MetadataExtractor) OfficialLinks(content string) OfficialLinks {
	block := linksBlock(content)
	if block == "" {
		return OfficialLinks{}
	}
	return OfficialLinks{
		JustelURL:          firstGroup(m.canonicalLink, block),
		PublicationPDFURL:  firstGroup(m.publicationLink, block),
		ConsolidatedPDFURL: firstGroup(m.consolidatedLink, block),
	}
}

// linksBlock returns the body of the first links block that is not the
// external links block.
func linksBlock(content string) string {
	external := LinksSection + externalSuffix
	for offset := 0; offset < len(content); {
		i := strings.Index(content[offset:], LinksSection)
		if i < 0 {
			return ""
		}
		start := offset + i
		if strings.HasPrefix(content[start:], external) {
			offset = start + len(external)
			continue
		}
		body := content[start+len(LinksSection):]
		if end := strings.Index(body, external); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return ""
}

// externalLinksBody returns the body of the external links block.
func externalLinksBody(content string) string {
	body, ok := pattern.ExtractRegion(content, LinksSection+externalSuffix, "[7A]", "[8A]", "[9A]", "[10A]")
	if !ok {
		return ""
	}
	return strings.TrimSpace(body)
}

// DocumentType derives the type from the ELI path segment of the official
// link and falls back on the first type keyword of the title.
func (m *MetadataExtractor) DocumentType(justelURL, title string) string {
	if segment := firstGroup(m.eliSegment, justelURL); segment != "" {
		if docType, ok := m.matcher.DocumentType(segment); ok {
			return docType
		}
		return strings.ToUpper(segment)
	}

	keyword := strings.ToLower(firstGroup(m.titleDocumentType, title))
	if keyword == "" {
		return UnknownType
	}
	switch keyword {
	case "arrêté":
		return "ARRETE"
	case "décret":
		return "DECRET"
	default:
		return strings.ToUpper(keyword)
	}
}

func (m *MetadataExtractor) versionInfo(content string) VersionInfo {
	var info VersionInfo
	if count := firstGroup(m.archivedVersions, content); count != "" {
		info.ArchivedVersionsCount, _ = strconv.Atoi(count)
		info.ArchivedVersionsURL = firstGroup(m.archivedVersionsURL, content)
	}
	if count := firstGroup(m.executionOrders, content); count != "" {
		info.ExecutionOrdersCount, _ = strconv.Atoi(count)
		info.ExecutionOrdersURL = firstGroup(m.executionOrdersURL, content)
	}
	return info
}

var frenchMonths = []struct {
	name   string
	number string
}{
	{"janvier", "01"}, {"février", "02"}, {"mars", "03"}, {"avril", "04"},
	{"mai", "05"}, {"juin", "06"}, {"juillet", "07"}, {"août", "08"},
	{"septembre", "09"}, {"octobre", "10"}, {"novembre", "11"}, {"décembre", "12"},
}

// ParseDate converts "29 décembre 2016" and "05-07-2022" to ISO dates.
// Anything else is returned trimmed but otherwise unchanged.
func (m *MetadataExtractor) ParseDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}

	lower := strings.ToLower(date)
	for _, month := range frenchMonths {
		if !strings.Contains(lower, month.name) {
			continue
		}
		parts := strings.Fields(lower)
		if len(parts) >= 3 {
			day := strings.TrimSuffix(parts[0], "er")
			if len(day) == 1 {
				day = "0" + day
			}
			return parts[2] + "-" + month.number + "-" + day
		}
		break
	}

	if match := m.numericDate.FindStringSubmatch(date); match != nil {
		return match[3] + "-" + pad2(match[2]) + "-" + pad2(match[1])
	}
	return date
}

func (m *MetadataExtractor) parsePage(page string) int {
	n, err := strconv.Atoi(m.firstInteger.FindString(page))
	if err != nil {
		return 0
	}
	return n
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func firstGroup(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}
