package physical

import (
	"strings"
)

// Walk visits plan and its descendants depth first, parents before children.
// Returning false from fn skips the children of that node.
func Walk(plan PhysicalPlan, fn func(node PhysicalPlan, depth int) bool) {
	walk(plan, 0, fn)
}

func walk(plan PhysicalPlan, depth int, fn func(PhysicalPlan, int) bool) {
	if !fn(plan, depth) {
		return
	}
	for _, child := range plan.Children() {
		walk(child, depth+1, fn)
	}
}

// Explain renders the tree one node per line, children indented under their
// parent.
func Explain(plan PhysicalPlan) string {
	var sb strings.Builder
	Walk(plan, func(node PhysicalPlan, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(node.String())
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}
