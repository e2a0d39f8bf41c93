package hierarchy

import (
	"fmt"
	"strings"

	"github.com/coolbeans/justel/pkg/types"
)

// Outline renders the forest as an indented outline, one node per line.
// Article leaves show whether they carry content.
func Outline(forest types.Forest) string {
	var sb strings.Builder
	forest.Walk(func(node *types.StructuralNode, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		if node.IsArticle() {
			marker := "-"
			if node.Article != nil {
				marker = "+"
			}
			fmt.Fprintf(&sb, "%s %s\n", marker, node.Label)
			return true
		}
		fmt.Fprintf(&sb, "%s [%s]\n", node.Label, node.Kind)
		return true
	})
	return sb.String()
}
