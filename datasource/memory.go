package datasource

import (
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// MemTable is a table source over batches held in memory.
type MemTable struct {
	schema  *types.Schema
	batches []*types.Batch
}

var _ TableSource = (*MemTable)(nil)

// NewMemTable creates a MemTable. Every batch must carry a schema equal to
// schema.
func NewMemTable(schema *types.Schema, batches []*types.Batch) (*MemTable, error) {
	for i, b := range batches {
		if !b.Schema().Equal(schema) {
			return nil, errors.NewSchemaErrorf("NewMemTable", "batch %d has schema %s, table declares %s", i, b.Schema(), schema)
		}
	}
	return &MemTable{
		schema:  schema,
		batches: append([]*types.Batch(nil), batches...),
	}, nil
}

// NewMemTableFromRows builds the batches of a MemTable from row values.
func NewMemTableFromRows(schema *types.Schema, rows [][]any, batchSize int) (*MemTable, error) {
	batches, err := types.BuildBatches(schema, rows, batchSize)
	if err != nil {
		return nil, err
	}
	return NewMemTable(schema, batches)
}

func (t *MemTable) Schema() *types.Schema {
	return t.schema
}

func (t *MemTable) Scan(projection []int) ([]*types.Batch, error) {
	return ProjectBatches(t.schema, t.batches, projection)
}

// NumRows returns the total row count over all batches
func (t *MemTable) NumRows() int {
	n := 0
	for _, b := range t.batches {
		n += b.NumRows()
	}
	return n
}
