package codec

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

func sampleBatch(t *testing.T) *types.Batch {
	t.Helper()
	schema := types.MustSchema(
		types.NewField("t1", "id", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "name", arrow.BinaryTypes.String, true),
		types.NewField("t1", "score", arrow.PrimitiveTypes.Float64, true),
	)
	batches, err := types.BuildBatches(schema, [][]any{
		{1, "ann", 1.5},
		{2, nil, nil},
		{3, "cid", 3.25},
	}, 0)
	require.NoError(t, err)
	return batches[0]
}

func TestBatchCodecRoundTrip(t *testing.T) {
	c, err := NewBatchCodec(nil)
	require.NoError(t, err)
	defer c.Close()

	batch := sampleBatch(t)
	data, err := c.EncodeBatch(batch)
	require.NoError(t, err)

	decoded, err := c.DecodeBatch(data, batch.Schema())
	require.NoError(t, err)
	assert.True(t, batch.Equal(decoded))
	assert.Equal(t, batch.Rows(), decoded.Rows())
}

func TestBatchCodecZeroColumns(t *testing.T) {
	c, err := NewBatchCodec(nil)
	require.NoError(t, err)
	defer c.Close()

	batch, err := sampleBatch(t).Project([]int{})
	require.NoError(t, err)

	data, err := c.EncodeBatch(batch)
	require.NoError(t, err)
	decoded, err := c.DecodeBatch(data, batch.Schema())
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.NumRows())
}

func TestBatchCodecSchemaMismatch(t *testing.T) {
	c, err := NewBatchCodec(nil)
	require.NoError(t, err)
	defer c.Close()

	batch := sampleBatch(t)
	data, err := c.EncodeBatch(batch)
	require.NoError(t, err)

	narrowed, _ := batch.Schema().Project([]int{0})
	_, err = c.DecodeBatch(data, narrowed)
	assert.True(t, errors.IsSchemaError(err))

	_, err = c.DecodeBatch([]byte("not zstd"), batch.Schema())
	assert.True(t, errors.IsCodecError(err))
}

func TestSchemaCodec(t *testing.T) {
	schema := sampleBatch(t).Schema()

	data, err := EncodeSchema(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"qualifier":"t1"`)

	decoded, err := DecodeSchema(data)
	require.NoError(t, err)
	assert.True(t, schema.Equal(decoded))

	_, err = DecodeSchema([]byte("{"))
	assert.True(t, errors.IsCodecError(err))
}

func TestKeys(t *testing.T) {
	key := EncodeBatchKey("users", 42)
	name, seq, err := DecodeBatchKey(key)
	require.NoError(t, err)
	assert.Equal(t, "users", name)
	assert.Equal(t, int64(42), seq)

	lower, upper := BatchKeyRange("users")
	assert.True(t, string(key) >= string(lower) && string(key) < string(upper))

	// a table whose name extends another must fall outside its range
	other := EncodeBatchKey("users2", 0)
	assert.False(t, string(other) >= string(lower) && string(other) < string(upper))

	assert.Less(t, string(EncodeBatchKey("users", 1)), string(EncodeBatchKey("users", 2)))

	schemaKey := EncodeSchemaKey("users")
	tableName, err := DecodeSchemaKey(schemaKey)
	require.NoError(t, err)
	assert.Equal(t, "users", tableName)
	sLower, sUpper := SchemaKeyRange()
	assert.True(t, string(schemaKey) >= string(sLower) && string(schemaKey) < string(sUpper))

	_, _, err = DecodeBatchKey(schemaKey)
	assert.True(t, errors.IsCodecError(err))

	assert.Error(t, ValidateTableName(""))
	assert.Error(t, ValidateTableName("a\x00b"))
	assert.NoError(t, ValidateTableName("public.users"))
}
