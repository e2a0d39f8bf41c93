// Package hierarchy builds the forest of structural divisions of a
// document, either from the headings of the text body or from the table of
// contents.
package hierarchy

import (
	"fmt"
	"strings"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/pattern"
	"github.com/coolbeans/justel/pkg/types"
)

// Section markers delimiting the regions the builder reads.
const (
	TextMarker = pattern.TextSection
	TOCMarker  = pattern.TOCSection
)

// Source selects which region the tree is built from.
type Source string

const (
	SourceContent Source = "content"
	SourceTOC     Source = "toc"
	// SourceAuto builds from the body and falls back to the table of
	// contents when the body has no structural markers.
	SourceAuto Source = "auto"
)

// ParseSource validates a source name. An empty name means SourceAuto.
func ParseSource(name string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(name))) {
	case SourceContent:
		return SourceContent, nil
	case SourceTOC:
		return SourceTOC, nil
	case SourceAuto, "":
		return SourceAuto, nil
	default:
		return "", fmt.Errorf("unknown tree source %q (want content, toc or auto)", name)
	}
}

// Builder turns classified lines into a rank-ordered forest.
type Builder struct {
	matcher  *pattern.Matcher
	warnings *diag.Collector
}

// NewBuilder creates a builder. The collector may be nil.
func NewBuilder(matcher *pattern.Matcher, warnings *diag.Collector) *Builder {
	if matcher == nil {
		matcher = pattern.Default()
	}
	return &Builder{matcher: matcher, warnings: warnings}
}

// Build builds the forest from the requested source.
func (b *Builder) Build(content string, source Source) types.Forest {
	switch source {
	case SourceContent:
		forest, _ := b.BuildFromContent(content)
		return forest
	case SourceTOC:
		forest, _ := b.BuildFromTOC(content)
		return forest
	default:
		if forest, ok := b.BuildFromContent(content); ok && len(forest) > 0 {
			return forest
		}
		forest, _ := b.BuildFromTOC(content)
		return forest
	}
}

// BuildFromContent reads the "[3A] ## Texte [3B]" region line by line. A
// document carrying neither that region nor a table of contents is read
// whole. The second result is false when the region is missing and a table
// of contents could stand in for it.
func (b *Builder) BuildFromContent(content string) (types.Forest, bool) {
	start := strings.Index(content, TextMarker)
	if start < 0 {
		b.warnings.Warn(diag.CodeSectionMissing, "", "document text section %q not found", TextMarker)
		if strings.Contains(content, TOCMarker) {
			return types.Forest{}, false
		}
		start = 0
	}

	tree := newStack()
	for _, token := range b.matcher.TokenizeBody(content[start:]) {
		switch token.Kind {
		case pattern.TokenHeading:
			tree.open(headingNode(token))
		case pattern.TokenAnnexe:
			tree.open(annexeNode(token))
		case pattern.TokenTitleArticle:
			articleRange := titleArticleRange(token)
			tree.attach(types.NewArticleLeaf(pattern.CleanUnmatchedBraces("Art. "+articleRange), articleRange))
		case pattern.TokenArticle:
			tree.attach(types.NewArticleLeaf(pattern.CleanUnmatchedBraces("Art. "+token.Number), token.Number))
		}
	}

	b.reportOrphans(tree)
	return tree.forest, true
}

// BuildFromTOC reads the table of contents region, which runs up to the
// text section or the first article header.
func (b *Builder) BuildFromTOC(content string) (types.Forest, bool) {
	toc, ok := pattern.ExtractRegion(content, TOCMarker, "[3A]", "**ARTICLE**")
	if !ok {
		b.warnings.Warn(diag.CodeSectionMissing, "", "table of contents %q not found", TOCMarker)
		return types.Forest{}, false
	}

	tree := newStack()
	for _, token := range b.matcher.TokenizeTOC(toc) {
		switch token.Kind {
		case pattern.TokenHeading:
			tree.open(headingNode(token))
		case pattern.TokenAnnexe:
			tree.open(annexeNode(token))
		case pattern.TokenTitleArticle:
			articleRange := titleArticleRange(token)
			tree.attach(types.NewArticleLeaf(pattern.CleanUnmatchedBraces("Article "+articleRange), articleRange))
		case pattern.TokenArticle:
			articleRange := pattern.CleanUnmatchedBraces(token.Number)
			if articleRange == "" {
				b.warnings.Warn(diag.CodeMalformedTOCEntry, "", "line %d: article entry without range, every article will be extracted", token.LineNumber)
			}
			tree.attach(types.NewArticleLeaf(strings.TrimSpace("Article "+articleRange), articleRange))
		case pattern.TokenText:
			if strings.HasPrefix(token.Line, "**TITLE**[") {
				b.warnings.Warn(diag.CodeMalformedTOCEntry, "", "line %d: unrecognized entry %q", token.LineNumber, token.Line)
			}
		}
	}

	b.reportOrphans(tree)
	return tree.forest, true
}

// reportOrphans warns about article leaves left at the root of a forest
// that does have divisions.
func (b *Builder) reportOrphans(tree *stack) {
	if !tree.sawHeading {
		return
	}
	for _, root := range tree.forest {
		if root.IsArticle() {
			b.warnings.Warn(diag.CodeOrphanNode, root.Metadata.ArticleRange, "article %q has no enclosing division", root.Label)
		}
	}
}

func headingNode(token pattern.Token) *types.StructuralNode {
	titleType := pattern.CleanUnmatchedBraces(token.TitleType)
	kind := types.KindForTitleType(titleType)
	label := pattern.CleanUnmatchedBraces(strings.TrimSpace(titleType + " " + token.TitleContent))
	return types.NewHeadingNode(kind, label, titleType, token.TitleContent, kind.Rank())
}

func annexeNode(token pattern.Token) *types.StructuralNode {
	titleType := pattern.CleanUnmatchedBraces(token.TitleType)
	if !strings.HasPrefix(strings.ToUpper(titleType), "ANNEXE") {
		titleType = "ANNEXE " + titleType
	}
	return types.NewHeadingNode(types.KindAnnexe, titleType, titleType, "", types.RankAnnexe)
}

// titleArticleRange renders "N." or "N. (REGION)".
func titleArticleRange(token pattern.Token) string {
	number := pattern.CleanUnmatchedBraces(token.Number)
	if token.Region == "" {
		return number + "."
	}
	return fmt.Sprintf("%s. (%s)", number, pattern.CleanUnmatchedBraces(token.Region))
}

// stack is the open division path while a region is read.
type stack struct {
	forest     types.Forest
	path       []*types.StructuralNode
	sawHeading bool
}

func newStack() *stack {
	return &stack{forest: types.Forest{}}
}

// open closes every open division ranked at or below the node, attaches
// the node and makes it the innermost open division.
func (s *stack) open(node *types.StructuralNode) {
	for len(s.path) > 0 && s.path[len(s.path)-1].Rank() >= node.Rank() {
		s.path = s.path[:len(s.path)-1]
	}
	s.attach(node)
	s.path = append(s.path, node)
	s.sawHeading = true
}

// attach adds a node under the innermost open division, or at the root.
func (s *stack) attach(node *types.StructuralNode) {
	if len(s.path) == 0 {
		s.forest = append(s.forest, node)
		return
	}
	parent := s.path[len(s.path)-1]
	parent.Children = append(parent.Children, node)
}
