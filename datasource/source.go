// Package datasource defines the TableSource contract and its in-memory,
// empty and Postgres-backed implementations.
package datasource

import (
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// TableSource provides a schema and the batches conforming to it. A source is
// immutable once built and may be scanned any number of times, concurrently.
type TableSource interface {
	// Schema returns the full, unprojected schema.
	Schema() *types.Schema

	// Scan returns the source's batches. A nil projection returns them
	// unchanged; otherwise each batch is narrowed to the listed ordinals in
	// order, repeats allowed. Out-of-range ordinals fail with a schema error.
	Scan(projection []int) ([]*types.Batch, error)
}

// ProjectBatches applies projection to every batch without touching the
// originals. It is the shared Scan implementation for sources holding
// materialized batches.
func ProjectBatches(schema *types.Schema, batches []*types.Batch, projection []int) ([]*types.Batch, error) {
	if projection == nil {
		return append([]*types.Batch(nil), batches...), nil
	}
	if _, err := schema.Project(projection); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSchema, "Scan", "invalid projection %v for %s", projection, schema)
	}

	out := make([]*types.Batch, len(batches))
	for i, b := range batches {
		p, err := b.Project(projection)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSchema, "Scan", "invalid projection %v for batch %d", projection, i)
		}
		out[i] = p
	}
	return out, nil
}
