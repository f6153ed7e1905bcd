package types

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/guileen/litequery/engine/errors"
)

// BatchBuilder accumulates row values into column builders and cuts them into
// batches. It is not safe for concurrent use.
type BatchBuilder struct {
	schema   *Schema
	builders []array.Builder
	rows     int
}

// NewBatchBuilder creates a builder for schema. A nil allocator means the Go
// allocator.
func NewBatchBuilder(schema *Schema, mem memory.Allocator) *BatchBuilder {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	builders := make([]array.Builder, schema.Len())
	for i, f := range schema.fields {
		builders[i] = array.NewBuilder(mem, f.Type)
	}
	return &BatchBuilder{schema: schema, builders: builders}
}

// Len returns the number of rows appended since the last batch was cut
func (b *BatchBuilder) Len() int {
	return b.rows
}

// Append adds one row. The row is checked in full before anything is
// appended, so a rejected row leaves the builder unchanged.
func (b *BatchBuilder) Append(row []any) error {
	if len(row) != len(b.builders) {
		return errors.NewSchemaErrorf("BatchBuilder.Append", "row has %d values, schema has %d fields", len(row), len(b.builders))
	}
	values := make([]any, len(row))
	for i, v := range row {
		f := b.schema.fields[i]
		if v == nil {
			if !f.Nullable {
				return errors.NewSchemaErrorf("BatchBuilder.Append", "null value for non-nullable column %s", f.QualifiedName())
			}
			continue
		}
		nv, err := normalizeValue(f.Type, v)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCodeSchema, "BatchBuilder.Append", "column %s", f.QualifiedName())
		}
		values[i] = nv
	}
	for i, v := range values {
		appendValue(b.builders[i], v)
	}
	b.rows++
	return nil
}

// NewBatch cuts the appended rows into a batch and resets the builder.
func (b *BatchBuilder) NewBatch() (*Batch, error) {
	columns := make([]arrow.Array, len(b.builders))
	for i, bld := range b.builders {
		columns[i] = bld.NewArray()
	}
	rows := b.rows
	b.rows = 0
	return NewBatchWithRows(b.schema, columns, rows)
}

// Release releases the column builders
func (b *BatchBuilder) Release() {
	for _, bld := range b.builders {
		bld.Release()
	}
}

// BuildBatches splits rows into batches of at most batchSize rows.
func BuildBatches(schema *Schema, rows [][]any, batchSize int) ([]*Batch, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	bld := NewBatchBuilder(schema, nil)
	defer bld.Release()

	var batches []*Batch
	for i, row := range rows {
		if err := bld.Append(row); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSchema, "BuildBatches", "row %d", i)
		}
		if bld.Len() == batchSize {
			batch, err := bld.NewBatch()
			if err != nil {
				return nil, err
			}
			batches = append(batches, batch)
		}
	}
	if bld.Len() > 0 {
		batch, err := bld.NewBatch()
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func appendValue(bld array.Builder, v any) {
	if v == nil {
		bld.AppendNull()
		return
	}
	switch b := bld.(type) {
	case *array.Int16Builder:
		b.Append(v.(int16))
	case *array.Int32Builder:
		b.Append(v.(int32))
	case *array.Int64Builder:
		b.Append(v.(int64))
	case *array.Float32Builder:
		b.Append(v.(float32))
	case *array.Float64Builder:
		b.Append(v.(float64))
	case *array.BooleanBuilder:
		b.Append(v.(bool))
	case *array.StringBuilder:
		b.Append(v.(string))
	case *array.BinaryBuilder:
		b.Append(v.([]byte))
	case *array.Date32Builder:
		b.Append(v.(arrow.Date32))
	case *array.TimestampBuilder:
		b.Append(v.(arrow.Timestamp))
	default:
		panic(fmt.Sprintf("unsupported builder %T", bld))
	}
}

// normalizeValue converts a loosely typed Go value (as decoded from YAML,
// JSON or a database driver) to the exact Go type the column builder takes.
func normalizeValue(dt arrow.DataType, v any) (any, error) {
	switch dt.ID() {
	case arrow.INT16:
		n, err := toInt64(v)
		if err != nil || n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("cannot store %v (%T) as smallint", v, v)
		}
		return int16(n), nil
	case arrow.INT32:
		n, err := toInt64(v)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("cannot store %v (%T) as integer", v, v)
		}
		return int32(n), nil
	case arrow.INT64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	case arrow.FLOAT32:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case arrow.FLOAT64:
		return toFloat64(v)
	case arrow.BOOL:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case arrow.STRING:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case fmt.Stringer:
			return s.String(), nil
		}
	case arrow.BINARY:
		switch s := v.(type) {
		case []byte:
			return s, nil
		case string:
			return []byte(s), nil
		}
	case arrow.DATE32:
		t, err := toTime(v, time.DateOnly)
		if err != nil {
			return nil, err
		}
		return arrow.Date32FromTime(t), nil
	case arrow.TIMESTAMP:
		t, err := toTime(v, time.RFC3339Nano)
		if err != nil {
			return nil, err
		}
		return arrow.Timestamp(t.UnixMicro()), nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", dt)
	}
	return nil, fmt.Errorf("cannot store %v (%T) as %s", v, v, dt)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows bigint", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		// MaxInt64 rounds up to 2^63 as a float64, so the upper bound is exclusive
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v overflows bigint", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("cannot store %v (%T) as an integer", v, v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot store %v (%T) as a float", v, v)
	}
	return float64(i), nil
}

func toTime(v any, layout string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(layout, t)
	}
	return time.Time{}, fmt.Errorf("cannot store %v (%T) as a time", v, v)
}
