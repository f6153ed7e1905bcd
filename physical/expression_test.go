package physical

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

func t1Schema() *types.Schema {
	return types.MustSchema(
		types.NewField("t1", "a", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "b", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "c", arrow.PrimitiveTypes.Int64, false),
	)
}

func t1Batch(t *testing.T) *types.Batch {
	t.Helper()
	batches, err := types.BuildBatches(t1Schema(), [][]any{
		{1, 4, 7},
		{2, 5, 8},
		{3, 6, 9},
	}, 0)
	require.NoError(t, err)
	return batches[0]
}

func int64Values(t *testing.T, arr arrow.Array) []int64 {
	t.Helper()
	ints, ok := arr.(*array.Int64)
	require.True(t, ok, "expected int64 array, got %s", arr.DataType())
	return ints.Int64Values()
}

func TestColumnIndex(t *testing.T) {
	batch := t1Batch(t)

	col, err := NewColumnIndex(1).Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, int64Values(t, col))

	src, _ := batch.Column(1)
	assert.Same(t, src, col)

	_, err = NewColumnIndex(3).Evaluate(batch)
	assert.True(t, errors.IsIndexError(err))
	_, err = NewColumnIndex(-1).Evaluate(batch)
	assert.True(t, errors.IsIndexError(err))

	assert.Equal(t, "#1", NewColumnIndex(1).String())
}

func TestColumnName(t *testing.T) {
	batch := t1Batch(t)

	col, err := NewColumnName("t1", "c").Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, int64Values(t, col))

	col, err = NewColumnName("", "a").Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, int64Values(t, col))

	_, err = NewColumnName("t2", "a").Evaluate(batch)
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, "t1.c", NewColumnName("t1", "c").String())
	assert.Equal(t, "a", NewColumnName("", "a").String())
}

func TestColumnNameAmbiguous(t *testing.T) {
	schema := types.MustSchema(
		types.NewField("t1", "id", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t2", "id", arrow.PrimitiveTypes.Int64, false),
	)
	batches, err := types.BuildBatches(schema, [][]any{{1, 2}}, 0)
	require.NoError(t, err)

	_, err = NewColumnName("", "id").Evaluate(batches[0])
	assert.True(t, errors.IsAmbiguousName(err))

	col, err := NewColumnName("t2", "id").Evaluate(batches[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, int64Values(t, col))
}

func TestLiteral(t *testing.T) {
	batch := t1Batch(t)

	lit, err := NewLiteral(arrow.BinaryTypes.String, "x")
	require.NoError(t, err)
	col, err := lit.Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, "x", col.(*array.String).Value(2))
	assert.Equal(t, `"x"`, lit.String())

	null, err := NewLiteral(arrow.PrimitiveTypes.Int64, nil)
	require.NoError(t, err)
	col, err = null.Evaluate(batch)
	require.NoError(t, err)
	assert.Equal(t, 3, col.NullN())
	assert.Equal(t, "NULL", null.String())

	_, err = NewLiteral(arrow.PrimitiveTypes.Int64, "nope")
	assert.True(t, errors.IsSchemaError(err))
}
