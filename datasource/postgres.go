package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/types"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresOptions selects what LoadPostgresTable reads.
type PostgresOptions struct {
	// Columns restricts the import; empty reads every column.
	Columns []string
	// Qualifier for the resulting fields; defaults to the table name.
	Qualifier string
	// BatchSize is the maximum number of rows per batch.
	BatchSize int
}

// LoadPostgresTable reads a whole Postgres table once and materializes it
// into a MemTable. All fields are nullable since a result set does not carry
// column constraints.
func LoadPostgresTable(ctx context.Context, q Querier, table string, opts PostgresOptions) (*MemTable, error) {
	const op = "LoadPostgresTable"

	sql := buildSelect(table, opts.Columns)
	logger.DebugContext(ctx, "Loading postgres table", "table", table, "sql", sql)

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorage, op, "query %s", table)
	}
	defer rows.Close()

	qualifier := opts.Qualifier
	if qualifier == "" {
		qualifier = table
	}
	schema, err := schemaFromDescriptions(qualifier, rows.FieldDescriptions())
	if err != nil {
		return nil, err
	}

	bld := types.NewBatchBuilder(schema, nil)
	defer bld.Release()

	var batches []*types.Batch
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeStorage, op, "decode row of %s", table)
		}
		if err := bld.Append(values); err != nil {
			return nil, err
		}
		if opts.BatchSize > 0 && bld.Len() == opts.BatchSize {
			batch, err := bld.NewBatch()
			if err != nil {
				return nil, err
			}
			batches = append(batches, batch)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorage, op, "read %s", table)
	}
	if bld.Len() > 0 {
		batch, err := bld.NewBatch()
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	logger.InfoContext(ctx, "Loaded postgres table", "table", table, "batches", len(batches), "columns", schema.Len())
	return NewMemTable(schema, batches)
}

func buildSelect(table string, columns []string) string {
	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", cols, pgx.Identifier(strings.Split(table, ".")).Sanitize())
}

func schemaFromDescriptions(qualifier string, descs []pgconn.FieldDescription) (*types.Schema, error) {
	fields := make([]types.Field, len(descs))
	for i, d := range descs {
		ct, ok := columnTypeForOID(d.DataTypeOID)
		if !ok {
			return nil, errors.NewSchemaErrorf("LoadPostgresTable", "column %q has unsupported type oid %d", d.Name, d.DataTypeOID)
		}
		fields[i] = types.NewField(qualifier, d.Name, ct.ArrowType(), true)
	}
	return types.NewSchema(fields...)
}

func columnTypeForOID(oid uint32) (types.ColumnType, bool) {
	switch oid {
	case pgtype.Int2OID:
		return types.ColumnTypeSmallInt, true
	case pgtype.Int4OID:
		return types.ColumnTypeInteger, true
	case pgtype.Int8OID:
		return types.ColumnTypeBigInt, true
	case pgtype.Float4OID:
		return types.ColumnTypeReal, true
	case pgtype.Float8OID:
		return types.ColumnTypeDouble, true
	case pgtype.BoolOID:
		return types.ColumnTypeBoolean, true
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		return types.ColumnTypeText, true
	case pgtype.ByteaOID:
		return types.ColumnTypeBinary, true
	case pgtype.DateOID:
		return types.ColumnTypeDate, true
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		return types.ColumnTypeTimestamp, true
	default:
		return "", false
	}
}
