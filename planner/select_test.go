package planner

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/physical"
	"github.com/guileen/litequery/types"
)

func t1(t *testing.T) *datasource.MemTable {
	t.Helper()
	schema := types.MustSchema(
		types.NewField("t1", "a", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "b", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "c", arrow.PrimitiveTypes.Int64, false),
	)
	table, err := datasource.NewMemTableFromRows(schema, [][]any{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}, 0)
	require.NoError(t, err)
	return table
}

func TestParseColumnRef(t *testing.T) {
	ref, err := ParseColumnRef("t1.a")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Qualifier: "t1", Name: "a"}, ref)

	ref, err = ParseColumnRef(" public.users.id ")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Qualifier: "public.users", Name: "id"}, ref)
	assert.Equal(t, "public.users.id", ref.String())

	ref, err = ParseColumnRef("b")
	require.NoError(t, err)
	assert.Equal(t, "b", ref.String())

	for _, bad := range []string{"", ".a", "t1."} {
		_, err := ParseColumnRef(bad)
		assert.True(t, errors.IsValidationError(err), bad)
	}
}

func TestSelectColumns(t *testing.T) {
	plan, err := SelectColumns(t1(t), []string{"c", "t1.b", "c"})
	require.NoError(t, err)

	proj, ok := plan.(*physical.ProjectionPlan)
	require.True(t, ok)
	scan, ok := proj.Children()[0].(*physical.ScanPlan)
	require.True(t, ok)
	assert.Equal(t, []int{2, 1}, scan.Projection())

	assert.Equal(t, 3, plan.Schema().Len())
	batches, err := plan.Execute()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, [][]any{
		{int64(7), int64(4), int64(7)},
		{int64(8), int64(5), int64(8)},
		{int64(9), int64(6), int64(9)},
	}, batches[0].Rows())
}

func TestSelectAllColumns(t *testing.T) {
	plan, err := SelectColumns(t1(t), nil)
	require.NoError(t, err)
	scan, ok := plan.(*physical.ScanPlan)
	require.True(t, ok)
	assert.Nil(t, scan.Projection())
}

func TestSelectColumnsErrors(t *testing.T) {
	_, err := SelectColumns(t1(t), []string{"z"})
	assert.True(t, errors.IsNotFound(err))

	_, err = SelectColumns(t1(t), []string{"t2.a"})
	assert.True(t, errors.IsNotFound(err))

	_, err = SelectColumns(t1(t), []string{"a", ""})
	assert.True(t, errors.IsValidationError(err))

	schema := types.MustSchema(
		types.NewField("l", "id", arrow.PrimitiveTypes.Int64, false),
		types.NewField("r", "id", arrow.PrimitiveTypes.Int64, false),
	)
	_, err = SelectColumns(datasource.NewEmptyTable(schema), []string{"id"})
	assert.True(t, errors.IsAmbiguousName(err))
}
