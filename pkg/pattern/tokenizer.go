package pattern

import (
	"strings"
)

// TokenKind classifies one line of a structural region.
type TokenKind int

const (
	// TokenText is a line that carries no structure.
	TokenText TokenKind = iota
	// TokenHeading is a "**TITLE**[TYPE] content" division heading.
	TokenHeading
	// TokenAnnexe is an "**ANNEXE**[TYPE]" heading.
	TokenAnnexe
	// TokenTitleArticle is an article announced by a "**TITLE**[Art.]" line.
	TokenTitleArticle
	// TokenArticle is an "**ARTICLE**" header or a table of contents
	// "Art. N" entry.
	TokenArticle
)

func (k TokenKind) String() string {
	switch k {
	case TokenHeading:
		return "heading"
	case TokenAnnexe:
		return "annexe"
	case TokenTitleArticle:
		return "title-article"
	case TokenArticle:
		return "article"
	default:
		return "text"
	}
}

// Token is one classified line.
type Token struct {
	Kind       TokenKind
	LineNumber int
	Line       string

	TitleType    string
	TitleContent string

	// Number is the article number or article range.
	Number string
	// Region is the raw region qualifier of a title article, if any.
	Region string
}

// TokenizeBody classifies the lines of the article body. Lines are trimmed
// and blank lines are skipped.
func (m *Matcher) TokenizeBody(body string) []Token {
	var tokens []Token
	for i, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		token := m.classifyBodyLine(line)
		token.LineNumber = i + 1
		token.Line = line
		tokens = append(tokens, token)
	}
	return tokens
}

func (m *Matcher) classifyBodyLine(line string) Token {
	switch {
	case strings.HasPrefix(line, "**TITLE**["):
		if token, ok := m.titleArticle(line); ok {
			return token
		}
		if strings.HasPrefix(line, "**TITLE**[Art.]") || strings.HasPrefix(line, "**TITLE**[art.]") ||
			strings.HasPrefix(line, "**TITLE**[}Art.]") || strings.HasPrefix(line, "**TITLE**[}art.]") {
			return Token{Kind: TokenText}
		}
		if match := m.titleLine.FindStringSubmatch(line); match != nil {
			return Token{
				Kind:         TokenHeading,
				TitleType:    strings.TrimSpace(match[1]),
				TitleContent: stripDashSeparator(match[2]),
			}
		}

	case strings.HasPrefix(line, "**ANNEXE**["):
		if match := m.annexeLine.FindStringSubmatch(line); match != nil {
			return Token{
				Kind:         TokenAnnexe,
				TitleType:    strings.TrimSpace(match[1]),
				TitleContent: strings.TrimSpace(match[2]),
			}
		}

	case strings.HasPrefix(line, "**ARTICLE**"):
		if header, ok := m.MatchArticleHeader(line); ok {
			return Token{Kind: TokenArticle, Number: header.Number}
		}
	}
	return Token{Kind: TokenText}
}

// stripDashSeparator removes the optional "\-" or "-" between a heading
// type and its content.
func stripDashSeparator(content string) string {
	content = strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(content, `\-`):
		content = content[2:]
	case strings.HasPrefix(content, "- "):
		content = content[1:]
	}
	return strings.TrimSpace(content)
}

// titleArticle recognizes "**TITLE**[Art.] [N]. (REGION)" lines.
func (m *Matcher) titleArticle(line string) (Token, bool) {
	match := m.titleArticleLine.FindStringSubmatch(line)
	if match == nil {
		return Token{}, false
	}
	number := m.titleArticleNumber.FindStringSubmatch(strings.TrimSpace(match[1]))
	if number == nil {
		return Token{}, false
	}
	return Token{
		Kind:   TokenTitleArticle,
		Number: strings.TrimSpace(number[1]),
		Region: strings.TrimSpace(number[2]),
	}, true
}

// TokenizeTOC classifies the lines of the table of contents.
func (m *Matcher) TokenizeTOC(toc string) []Token {
	var tokens []Token
	for i, raw := range strings.Split(toc, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		token := m.classifyTOCLine(line)
		token.LineNumber = i + 1
		token.Line = line
		tokens = append(tokens, token)
	}
	return tokens
}

func (m *Matcher) classifyTOCLine(line string) Token {
	if token, ok := m.titleArticle(line); ok {
		return token
	}
	if match := m.tocHeadingLine.FindStringSubmatch(line); match != nil {
		titleType := strings.TrimSpace(match[1])
		if titleType != "Art." && titleType != "}Art." {
			content := match[2]
			if content == "" {
				content = match[3]
			}
			return Token{Kind: TokenHeading, TitleType: titleType, TitleContent: strings.TrimSpace(content)}
		}
	}
	if match := m.annexeLine.FindStringSubmatch(line); match != nil {
		return Token{Kind: TokenAnnexe, TitleType: strings.TrimSpace(match[1]), TitleContent: strings.TrimSpace(match[2])}
	}
	if match := m.tocArticleLine.FindStringSubmatch(line); match != nil {
		return Token{Kind: TokenArticle, Number: strings.TrimSpace(match[1])}
	}
	return Token{Kind: TokenText}
}

// Section markers delimiting the regions of a converted document.
const (
	TOCSection  = "[2A] ## Table des matières [2B]"
	TextSection = "[3A] ## Texte [3B]"
)

// ExtractRegion returns the text between an opening section marker such
// as "[3A] ## Texte [3B]" and the first of the closing markers that follows
// it. When no closing marker is found the region runs to the end.
func ExtractRegion(content, opening string, closing ...string) (string, bool) {
	start := strings.Index(content, opening)
	if start < 0 {
		return "", false
	}
	start += len(opening)
	rest := content[start:]
	end := len(rest)
	for _, marker := range closing {
		if i := strings.Index(rest, marker); i >= 0 && i < end {
			end = i
		}
	}
	return rest[:end], true
}
