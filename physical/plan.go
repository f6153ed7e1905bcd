// Package physical holds the executable plan tree: the PhysicalPlan contract,
// its scan and projection nodes, and the expressions they evaluate.
package physical

import (
	"github.com/guileen/litequery/types"
)

// PhysicalPlan is a node of an executable plan tree. A node exclusively owns
// its children. Execute materializes the complete output of every child,
// depth first and left to right, before applying the node's own transform;
// it does not modify the tree, so a tree may be executed any number of
// times, including concurrently.
type PhysicalPlan interface {
	Schema() *types.Schema
	Execute() ([]*types.Batch, error)
	Children() []PhysicalPlan
	String() string
}
