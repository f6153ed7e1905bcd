package types

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"

	"github.com/guileen/litequery/engine/errors"
)

// Batch is a fixed set of equal-length typed columns conforming to a schema.
// Column arrays are shared, never copied, between batches derived from one
// another.
type Batch struct {
	schema  *Schema
	columns []arrow.Array
	numRows int
}

// NewBatch validates columns against schema and builds a batch. The row count
// is taken from the first column; a batch without columns has no rows.
func NewBatch(schema *Schema, columns []arrow.Array) (*Batch, error) {
	numRows := 0
	if len(columns) > 0 {
		numRows = columns[0].Len()
	}
	return NewBatchWithRows(schema, columns, numRows)
}

// NewBatchWithRows builds a batch with an explicit row count, which lets a
// zero-column batch keep the row count of the batch it was derived from.
func NewBatchWithRows(schema *Schema, columns []arrow.Array, numRows int) (*Batch, error) {
	b := &Batch{
		schema:  schema,
		columns: append([]arrow.Array(nil), columns...),
		numRows: numRows,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BatchFromRecord wraps the columns of an arrow record.
func BatchFromRecord(schema *Schema, rec arrow.Record) (*Batch, error) {
	return NewBatchWithRows(schema, rec.Columns(), int(rec.NumRows()))
}

func (b *Batch) validate() error {
	const op = "NewBatch"
	if b.schema == nil {
		return errors.NewSchemaErrorf(op, "batch without schema")
	}
	if len(b.columns) != b.schema.Len() {
		return errors.NewSchemaErrorf(op, "schema has %d fields but batch has %d columns", b.schema.Len(), len(b.columns))
	}
	for i, col := range b.columns {
		f := b.schema.fields[i]
		if col == nil {
			return errors.NewSchemaErrorf(op, "column %d (%s) is nil", i, f.QualifiedName())
		}
		if !arrow.TypeEqual(col.DataType(), f.Type) {
			return errors.NewSchemaErrorf(op, "column %d (%s) has type %s, schema declares %s",
				i, f.QualifiedName(), col.DataType(), f.Type)
		}
		if col.Len() != b.numRows {
			return errors.NewSchemaErrorf(op, "column %d (%s) has %d rows, expected %d",
				i, f.QualifiedName(), col.Len(), b.numRows)
		}
		if !f.Nullable && col.NullN() > 0 {
			return errors.NewSchemaErrorf(op, "column %d (%s) is not nullable but holds %d nulls",
				i, f.QualifiedName(), col.NullN())
		}
	}
	return nil
}

// Schema returns the schema the batch conforms to
func (b *Batch) Schema() *Schema {
	return b.schema
}

// NumRows returns the row count shared by every column
func (b *Batch) NumRows() int {
	return b.numRows
}

// NumColumns returns the number of columns
func (b *Batch) NumColumns() int {
	return len(b.columns)
}

// Column returns the array at ordinal i
func (b *Batch) Column(i int) (arrow.Array, error) {
	if i < 0 || i >= len(b.columns) {
		return nil, errors.NewIndexError("Batch.Column", i, len(b.columns))
	}
	return b.columns[i], nil
}

// Project returns a batch holding the columns at indices, with its schema
// narrowed by Schema.Project. The arrays are shared with b.
func (b *Batch) Project(indices []int) (*Batch, error) {
	schema, err := b.schema.Project(indices)
	if err != nil {
		return nil, err
	}
	columns := make([]arrow.Array, len(indices))
	for i, idx := range indices {
		columns[i] = b.columns[idx]
	}
	return &Batch{schema: schema, columns: columns, numRows: b.numRows}, nil
}

// Record converts the batch to an arrow record. The caller owns the record
// and should Release it.
func (b *Batch) Record() arrow.Record {
	return array.NewRecord(b.schema.Arrow(), b.columns, int64(b.numRows))
}

// Equal reports whether both batches have equal schemas and column values.
func (b *Batch) Equal(o *Batch) bool {
	if b.numRows != o.numRows || !b.schema.Equal(o.schema) {
		return false
	}
	for i := range b.columns {
		if !array.Equal(b.columns[i], o.columns[i]) {
			return false
		}
	}
	return true
}

// Rows flattens the batch into row-major values suitable for JSON encoding.
func (b *Batch) Rows() [][]any {
	rows := make([][]any, b.numRows)
	for r := range rows {
		row := make([]any, len(b.columns))
		for c, col := range b.columns {
			if col.IsNull(r) {
				continue
			}
			row[c] = col.GetOneForMarshal(r)
		}
		rows[r] = row
	}
	return rows
}
