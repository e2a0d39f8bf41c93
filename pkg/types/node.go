// Package types defines the data model shared by the parsing engine: the
// structural tree of a Belgian legal document and the article records that
// populate its leaves.
package types

import "strings"

// NodeKind identifies a structural division.
type NodeKind string

const (
	KindLivre       NodeKind = "livre"
	KindTitre       NodeKind = "titre"
	KindChapitre    NodeKind = "chapitre"
	KindSection     NodeKind = "section"
	KindSousSection NodeKind = "sous_section"
	KindAnnexe      NodeKind = "annexe"
	KindArticle     NodeKind = "article"
)

// Ranks of the structural divisions. Lower ranks enclose higher ones.
const (
	RankLivre       = 0
	RankTitre       = 1
	RankAnnexe      = 1
	RankChapitre    = 2
	RankSection     = 3
	RankSousSection = 4
	RankArticle     = 5
)

// Rank returns the fixed rank of the kind.
func (k NodeKind) Rank() int {
	switch k {
	case KindLivre:
		return RankLivre
	case KindTitre:
		return RankTitre
	case KindAnnexe:
		return RankAnnexe
	case KindChapitre:
		return RankChapitre
	case KindSousSection:
		return RankSousSection
	case KindArticle:
		return RankArticle
	default:
		return RankSection
	}
}

// KindForTitleType maps a heading type such as "CHAPITRE Ier." or
// "Sous-section 2" to its kind. Sous-section is checked before section and
// unknown heading types are treated as sections.
func KindForTitleType(titleType string) NodeKind {
	lower := strings.ToLower(titleType)
	switch {
	case strings.Contains(lower, "livre"):
		return KindLivre
	case strings.Contains(lower, "titre"):
		return KindTitre
	case strings.Contains(lower, "annexe"):
		return KindAnnexe
	case strings.Contains(lower, "chapitre"):
		return KindChapitre
	case strings.Contains(lower, "sous-section"), strings.Contains(lower, "sous section"):
		return KindSousSection
	default:
		return KindSection
	}
}

// NodeMetadata carries the heading details a node was built from.
type NodeMetadata struct {
	TitleType    string `json:"title_type,omitempty"`
	TitleContent string `json:"title_content,omitempty"`
	Rank         int    `json:"rank"`
	ArticleRange string `json:"article_range,omitempty"`
}

// StructuralNode is one division of the document forest. Article nodes are
// leaves and carry the article record once the tree is populated.
type StructuralNode struct {
	Kind     NodeKind          `json:"type"`
	Label    string            `json:"label"`
	Metadata NodeMetadata      `json:"metadata"`
	Children []*StructuralNode `json:"children"`
	Article  *ArticleRecord    `json:"article_content"`
}

// NewHeadingNode creates a division node with an explicit rank.
func NewHeadingNode(kind NodeKind, label, titleType, titleContent string, rank int) *StructuralNode {
	return &StructuralNode{
		Kind:  kind,
		Label: label,
		Metadata: NodeMetadata{
			TitleType:    titleType,
			TitleContent: titleContent,
			Rank:         rank,
		},
		Children: make([]*StructuralNode, 0),
	}
}

// NewArticleLeaf creates an unpopulated article placeholder.
func NewArticleLeaf(label, articleRange string) *StructuralNode {
	return &StructuralNode{
		Kind:  KindArticle,
		Label: label,
		Metadata: NodeMetadata{
			Rank:         RankArticle,
			ArticleRange: articleRange,
		},
		Children: make([]*StructuralNode, 0),
	}
}

// IsArticle reports whether the node is an article leaf.
func (n *StructuralNode) IsArticle() bool {
	return n != nil && n.Kind == KindArticle
}

// Rank returns the node's rank.
func (n *StructuralNode) Rank() int {
	return n.Metadata.Rank
}

// Walk visits the node and its descendants depth-first in tree order.
// Returning false from fn skips the node's children.
func (n *StructuralNode) Walk(fn func(node *StructuralNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *StructuralNode) walk(fn func(node *StructuralNode, depth int) bool, depth int) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Forest is the ordered list of root nodes of a document.
type Forest []*StructuralNode

// Walk visits every node of the forest in tree order.
func (f Forest) Walk(fn func(node *StructuralNode, depth int) bool) {
	for _, root := range f {
		root.Walk(fn)
	}
}

// ArticleLeaves returns the article leaves in tree order.
func (f Forest) ArticleLeaves() []*StructuralNode {
	var leaves []*StructuralNode
	f.Walk(func(node *StructuralNode, _ int) bool {
		if node.IsArticle() {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}

// TreeStatistics counts the populated content of a forest.
type TreeStatistics struct {
	Articles           int `json:"articles_in_tree"`
	UnclaimedLeaves    int `json:"unclaimed_leaves"`
	Footnotes          int `json:"footnotes"`
	FootnoteReferences int `json:"footnote_references"`
	Nodes              int `json:"nodes"`
}

// Statistics walks the forest and counts articles, footnotes and references.
func (f Forest) Statistics() TreeStatistics {
	var stats TreeStatistics
	f.Walk(func(node *StructuralNode, _ int) bool {
		stats.Nodes++
		if !node.IsArticle() {
			return true
		}
		if node.Article == nil {
			stats.UnclaimedLeaves++
			return true
		}
		stats.Articles++
		stats.Footnotes += len(node.Article.Footnotes)
		stats.FootnoteReferences += len(node.Article.FootnoteReferences)
		return true
	})
	return stats
}

// CheckRanks returns the first node that violates the rank ordering, or nil.
// Every child must rank strictly below its parent and articles must be
// rank five leaves.
func (f Forest) CheckRanks() *StructuralNode {
	var offender *StructuralNode
	var check func(node *StructuralNode) bool
	check = func(node *StructuralNode) bool {
		if node.IsArticle() && (node.Rank() != RankArticle || len(node.Children) > 0) {
			offender = node
			return false
		}
		for _, child := range node.Children {
			if child.Rank() <= node.Rank() {
				offender = child
				return false
			}
			if !check(child) {
				return false
			}
		}
		return true
	}
	for _, root := range f {
		if !check(root) {
			break
		}
	}
	return offender
}
