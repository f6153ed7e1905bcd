package datasource

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

func fourColumnTable(t *testing.T) *MemTable {
	t.Helper()
	schema := types.MustSchema(
		types.NewField("t1", "a", arrow.PrimitiveTypes.Int32, false),
		types.NewField("t1", "b", arrow.PrimitiveTypes.Int32, false),
		types.NewField("t1", "c", arrow.PrimitiveTypes.Int32, false),
		types.NewField("t1", "d", arrow.PrimitiveTypes.Int32, true),
	)
	table, err := NewMemTableFromRows(schema, [][]any{
		{1, 4, 7, nil},
		{2, 5, 8, nil},
		{3, 6, 9, 9},
	}, 0)
	require.NoError(t, err)
	return table
}

func int32Values(t *testing.T, b *types.Batch, col int) []int32 {
	t.Helper()
	arr, err := b.Column(col)
	require.NoError(t, err)
	return arr.(*array.Int32).Int32Values()
}

func TestMemTableScan(t *testing.T) {
	table := fourColumnTable(t)

	batches, err := table.Scan([]int{2, 1})
	require.NoError(t, err)
	require.Len(t, batches, 1)

	batch := batches[0]
	assert.Equal(t, 2, batch.NumColumns())
	f0, _ := batch.Schema().Field(0)
	f1, _ := batch.Schema().Field(1)
	assert.Equal(t, "t1.c", f0.QualifiedName())
	assert.Equal(t, "t1.b", f1.QualifiedName())
	assert.Equal(t, []int32{7, 8, 9}, int32Values(t, batch, 0))
	assert.Equal(t, []int32{4, 5, 6}, int32Values(t, batch, 1))

	want, _ := table.Schema().Project([]int{2, 1})
	assert.True(t, batch.Schema().Equal(want))
}

func TestMemTableScanWithoutProjection(t *testing.T) {
	table := fourColumnTable(t)

	batches, err := table.Scan(nil)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 4, batches[0].NumColumns())
	assert.True(t, batches[0].Schema().Equal(table.Schema()))
	assert.Equal(t, 3, table.NumRows())
}

func TestMemTableScanDoesNotMutate(t *testing.T) {
	table := fourColumnTable(t)

	before, err := table.Scan(nil)
	require.NoError(t, err)

	_, err = table.Scan([]int{3, 3, 0})
	require.NoError(t, err)
	_, err = table.Scan([]int{})
	require.NoError(t, err)

	after, err := table.Scan(nil)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.True(t, before[i].Equal(after[i]))
	}
}

func TestMemTableScanDuplicatesAndEmpty(t *testing.T) {
	table := fourColumnTable(t)

	batches, err := table.Scan([]int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, int32Values(t, batches[0], 1))

	batches, err = table.Scan([]int{})
	require.NoError(t, err)
	assert.Equal(t, 0, batches[0].NumColumns())
	assert.Equal(t, 3, batches[0].NumRows())
}

func TestMemTableInvalidProjection(t *testing.T) {
	table := fourColumnTable(t)

	batches, err := table.Scan([]int{5})
	assert.Nil(t, batches)
	assert.True(t, errors.IsSchemaError(err))
	assert.True(t, errors.IsIndexError(err))

	_, err = table.Scan([]int{-1})
	assert.True(t, errors.IsSchemaError(err))
}

func TestNewMemTableRejectsForeignBatches(t *testing.T) {
	table := fourColumnTable(t)
	batches, err := table.Scan([]int{0})
	require.NoError(t, err)

	_, err = NewMemTable(table.Schema(), batches)
	assert.True(t, errors.IsSchemaError(err))
}

func TestEmptyTable(t *testing.T) {
	schema := types.MustSchema(types.NewField("e", "x", arrow.PrimitiveTypes.Int64, false))
	table := NewEmptyTable(schema)

	assert.Same(t, schema, table.Schema())
	batches, err := table.Scan(nil)
	require.NoError(t, err)
	assert.Empty(t, batches)

	batches, err = table.Scan([]int{0})
	require.NoError(t, err)
	assert.Empty(t, batches)

	_, err = table.Scan([]int{1})
	assert.True(t, errors.IsSchemaError(err))
}
