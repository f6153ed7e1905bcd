package types

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// ColumnType represents the declared data type of a column
type ColumnType string

const (
	ColumnTypeString    ColumnType = "string"
	ColumnTypeText      ColumnType = "text"
	ColumnTypeVarchar   ColumnType = "varchar"
	ColumnTypeChar      ColumnType = "char"
	ColumnTypeNumber    ColumnType = "number"
	ColumnTypeBoolean   ColumnType = "boolean"
	ColumnTypeDate      ColumnType = "date"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeBinary    ColumnType = "binary"

	ColumnTypeSmallInt ColumnType = "smallint"
	ColumnTypeInteger  ColumnType = "integer"
	ColumnTypeBigInt   ColumnType = "bigint"
	ColumnTypeReal     ColumnType = "real"
	ColumnTypeDouble   ColumnType = "double"
)

// IsValidColumnType checks if a column type is valid
func IsValidColumnType(typ ColumnType) bool {
	return typ.ArrowType() != nil
}

// ArrowType returns the array type used to store values of this column type,
// or nil when the type is unknown.
func (typ ColumnType) ArrowType() arrow.DataType {
	switch typ {
	case ColumnTypeString, ColumnTypeText, ColumnTypeVarchar, ColumnTypeChar:
		return arrow.BinaryTypes.String
	case ColumnTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case ColumnTypeSmallInt:
		return arrow.PrimitiveTypes.Int16
	case ColumnTypeInteger:
		return arrow.PrimitiveTypes.Int32
	case ColumnTypeBigInt:
		return arrow.PrimitiveTypes.Int64
	case ColumnTypeReal:
		return arrow.PrimitiveTypes.Float32
	case ColumnTypeDouble, ColumnTypeNumber:
		return arrow.PrimitiveTypes.Float64
	case ColumnTypeBinary:
		return arrow.BinaryTypes.Binary
	case ColumnTypeDate:
		return arrow.FixedWidthTypes.Date32
	case ColumnTypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return nil
	}
}

// ColumnTypeOf maps an array type back to its canonical column type
func ColumnTypeOf(dt arrow.DataType) (ColumnType, bool) {
	switch dt.ID() {
	case arrow.STRING:
		return ColumnTypeText, true
	case arrow.BOOL:
		return ColumnTypeBoolean, true
	case arrow.INT16:
		return ColumnTypeSmallInt, true
	case arrow.INT32:
		return ColumnTypeInteger, true
	case arrow.INT64:
		return ColumnTypeBigInt, true
	case arrow.FLOAT32:
		return ColumnTypeReal, true
	case arrow.FLOAT64:
		return ColumnTypeDouble, true
	case arrow.BINARY:
		return ColumnTypeBinary, true
	case arrow.DATE32:
		return ColumnTypeDate, true
	case arrow.TIMESTAMP:
		if ts, ok := dt.(*arrow.TimestampType); ok && ts.Unit == arrow.Microsecond {
			return ColumnTypeTimestamp, true
		}
	}
	return "", false
}
