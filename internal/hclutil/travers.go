package hclutil

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal, suitable for use as a map key or in messages.
func TraversalKey(t hcl.Traversal) string {
	// e.g., stage.index
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// UnknownReferences returns the keys of the traversals in expr whose root is
// not among known, in order of appearance.
func UnknownReferences(expr hcl.Expression, known map[string]bool) []string {
	var unknown []string
	for _, t := range expr.Variables() {
		if !known[t.RootName()] {
			unknown = append(unknown, TraversalKey(t))
		}
	}
	return unknown
}
