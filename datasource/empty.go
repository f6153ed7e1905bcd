package datasource

import (
	"github.com/guileen/litequery/types"
)

// EmptyTable is a source with a schema and no rows.
type EmptyTable struct {
	schema *types.Schema
}

var _ TableSource = (*EmptyTable)(nil)

func NewEmptyTable(schema *types.Schema) *EmptyTable {
	return &EmptyTable{schema: schema}
}

func (t *EmptyTable) Schema() *types.Schema {
	return t.schema
}

func (t *EmptyTable) Scan(projection []int) ([]*types.Batch, error) {
	return ProjectBatches(t.schema, nil, projection)
}
