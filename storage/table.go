package storage

import (
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/guileen/litequery/codec"
	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// Table is a stored table read through a pebble snapshot, so it keeps
// returning the same batches however the store changes afterwards.
type Table struct {
	name   string
	schema *types.Schema
	codec  *codec.BatchCodec
	store  *BatchStore

	mu     sync.RWMutex
	snap   *pebble.Snapshot
	closed bool
}

var _ datasource.TableSource = (*Table)(nil)

// Name returns the name the table was stored under
func (t *Table) Name() string {
	return t.name
}

func (t *Table) Schema() *types.Schema {
	return t.schema
}

// Scan decodes the stored batches on every call.
func (t *Table) Scan(projection []int) ([]*types.Batch, error) {
	const op = "storage.Table.Scan"

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return nil, errors.NewStorageErrorf(op, "table %q closed", t.name)
	}
	if projection != nil {
		if _, err := t.schema.Project(projection); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSchema, op, "invalid projection %v for %s", projection, t.schema)
		}
	}

	lower, upper := codec.BatchKeyRange(t.name)
	iter, err := t.snap.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	defer iter.Close()

	var batches []*types.Batch
	for iter.First(); iter.Valid(); iter.Next() {
		b, err := t.codec.DecodeBatch(iter.Value(), t.schema)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeStorage, op, "decode batch of %q", t.name)
		}
		batches = append(batches, b)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, op)
	}

	return datasource.ProjectBatches(t.schema, batches, projection)
}

// Close releases the snapshot
func (t *Table) Close() error {
	t.closeSnapshot()
	t.store.release(t)
	return nil
}

func (t *Table) closeSnapshot() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.snap.Close()
}
