package physical

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// PhysicalExpr evaluates to one column of the batch it is given. Expressions
// are stateless and resolved against each batch at evaluation time.
type PhysicalExpr interface {
	Evaluate(batch *types.Batch) (arrow.Array, error)
	String() string
}

// ColumnIndex references a column by ordinal position.
type ColumnIndex struct {
	Index int
}

var _ PhysicalExpr = (*ColumnIndex)(nil)

func NewColumnIndex(index int) *ColumnIndex {
	return &ColumnIndex{Index: index}
}

// Evaluate returns the batch's own array at Index, not a copy.
func (e *ColumnIndex) Evaluate(batch *types.Batch) (arrow.Array, error) {
	col, err := batch.Column(e.Index)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeIndex, "ColumnIndex.Evaluate", "column #%d", e.Index)
	}
	return col, nil
}

func (e *ColumnIndex) String() string {
	return fmt.Sprintf("#%d", e.Index)
}

// ColumnName references a column by name, optionally qualified. The position
// is looked up in every batch, since batches produced by different scans can
// lay the same column out at different positions.
type ColumnName struct {
	Qualifier string
	Name      string
}

var _ PhysicalExpr = (*ColumnName)(nil)

func NewColumnName(qualifier, name string) *ColumnName {
	return &ColumnName{Qualifier: qualifier, Name: name}
}

// Evaluate resolves the name in the batch schema and returns that array.
func (e *ColumnName) Evaluate(batch *types.Batch) (arrow.Array, error) {
	idx, err := batch.Schema().IndexOfName(e.Qualifier, e.Name)
	if err != nil {
		return nil, err
	}
	return batch.Column(idx)
}

func (e *ColumnName) String() string {
	if e.Qualifier == "" {
		return e.Name
	}
	return e.Qualifier + "." + e.Name
}
