package physical

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// Literal evaluates to a column repeating one value for every row of the
// batch. A nil value yields an all-null column.
type Literal struct {
	Type  arrow.DataType
	Value any
}

var _ PhysicalExpr = (*Literal)(nil)

// NewLiteral creates a literal after checking value fits typ.
func NewLiteral(typ arrow.DataType, value any) (*Literal, error) {
	field := types.NewField("", "literal", typ, true)
	probe := types.NewBatchBuilder(types.MustSchema(field), nil)
	defer probe.Release()
	if err := probe.Append([]any{value}); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSchema, "NewLiteral", "literal %v", value)
	}
	return &Literal{Type: typ, Value: value}, nil
}

func (e *Literal) Evaluate(batch *types.Batch) (arrow.Array, error) {
	if e.Value == nil {
		return array.MakeArrayOfNull(memory.DefaultAllocator, e.Type, batch.NumRows()), nil
	}
	schema := types.MustSchema(types.NewField("", "literal", e.Type, false))
	bld := types.NewBatchBuilder(schema, nil)
	defer bld.Release()

	row := []any{e.Value}
	for i := 0; i < batch.NumRows(); i++ {
		if err := bld.Append(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSchema, "Literal.Evaluate")
		}
	}
	out, err := bld.NewBatch()
	if err != nil {
		return nil, err
	}
	return out.Column(0)
}

func (e *Literal) String() string {
	if e.Value == nil {
		return "NULL"
	}
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", e.Value)
}
