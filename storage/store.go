package storage

import (
	"context"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/guileen/litequery/codec"
	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
)

// BatchStore keeps whole tables in pebble: one schema key per table and one
// key per batch. A stored table is written once and never modified in place.
type BatchStore struct {
	db    *pebble.DB
	codec *codec.BatchCodec
	sync  bool

	mu     sync.Mutex
	closed bool
	open   map[*Table]struct{}
}

// Open opens or creates a batch store
func Open(config *PebbleConfig) (*BatchStore, error) {
	const op = "storage.Open"

	cache := pebble.NewCache(config.CacheSize)
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:        cache,
		MemTableSize: config.MemTableSize,
		MaxOpenFiles: config.MaxOpenFiles,
	}
	path := config.Path
	if config.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorage, op, "open pebble at %q", path)
	}

	c, err := codec.NewBatchCodec(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Batch store opened", "path", path, "in_memory", config.InMemory)
	return &BatchStore{
		db:    db,
		codec: c,
		sync:  config.SyncWrites,
		open:  make(map[*Table]struct{}),
	}, nil
}

func (s *BatchStore) writeOptions() *pebble.WriteOptions {
	if s.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// PutTable stores every batch of src under name in one atomic write. It fails
// with a conflict error when the name is taken.
func (s *BatchStore) PutTable(ctx context.Context, name string, src datasource.TableSource) error {
	const op = "BatchStore.PutTable"

	if err := codec.ValidateTableName(name); err != nil {
		return err
	}

	batches, err := src.Scan(nil)
	if err != nil {
		return err
	}
	schemaData, err := codec.EncodeSchema(src.Schema())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.NewStorageErrorf(op, "store closed")
	}

	exists, err := s.hasTable(name)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf(errors.ErrCodeConflict, op, "table %q already stored", name)
	}

	wb := s.db.NewBatch()
	defer wb.Close()

	if err := wb.Set(codec.EncodeSchemaKey(name), schemaData, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, op)
		}
		data, err := s.codec.EncodeBatch(b)
		if err != nil {
			return err
		}
		if err := wb.Set(codec.EncodeBatchKey(name, int64(i)), data, nil); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, op)
		}
	}
	if err := wb.Commit(s.writeOptions()); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorage, op, "commit table %q", name)
	}

	logger.InfoContext(logger.WithContextValue(ctx, logger.TableKey, name), "Table stored", "batches", len(batches))
	return nil
}

// DropTable deletes a stored table. Tables already opened keep reading the
// snapshot they were opened on.
func (s *BatchStore) DropTable(ctx context.Context, name string) error {
	const op = "BatchStore.DropTable"

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.NewStorageErrorf(op, "store closed")
	}

	exists, err := s.hasTable(name)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundErrorf(op, "table %q not stored", name)
	}

	wb := s.db.NewBatch()
	defer wb.Close()

	lower, upper := codec.BatchKeyRange(name)
	if err := wb.DeleteRange(lower, upper, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	if err := wb.Delete(codec.EncodeSchemaKey(name), nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	if err := wb.Commit(s.writeOptions()); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorage, op, "drop table %q", name)
	}

	logger.InfoContext(logger.WithContextValue(ctx, logger.TableKey, name), "Table dropped")
	return nil
}

func (s *BatchStore) hasTable(name string) (bool, error) {
	_, closer, err := s.db.Get(codec.EncodeSchemaKey(name))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStorage, "BatchStore.hasTable")
	}
	closer.Close()
	return true, nil
}

// Tables lists stored table names in key order
func (s *BatchStore) Tables() ([]string, error) {
	const op = "BatchStore.Tables"

	lower, upper := codec.SchemaKeyRange()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		name, err := codec.DecodeSchemaKey(iter.Key())
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Table opens a stored table on a snapshot taken now. The table must be
// closed when no longer scanned.
func (s *BatchStore) Table(name string) (*Table, error) {
	const op = "BatchStore.Table"

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.NewStorageErrorf(op, "store closed")
	}

	snap := s.db.NewSnapshot()
	value, closer, err := snap.Get(codec.EncodeSchemaKey(name))
	if err == pebble.ErrNotFound {
		snap.Close()
		return nil, errors.NewNotFoundErrorf(op, "table %q not stored", name)
	}
	if err != nil {
		snap.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStorage, op)
	}
	schema, err := codec.DecodeSchema(value)
	closer.Close()
	if err != nil {
		snap.Close()
		return nil, err
	}

	t := &Table{name: name, schema: schema, snap: snap, codec: s.codec, store: s}
	s.open[t] = struct{}{}
	return t, nil
}

func (s *BatchStore) release(t *Table) {
	s.mu.Lock()
	delete(s.open, t)
	s.mu.Unlock()
}

// Close closes every open table and then the database
func (s *BatchStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tables := make([]*Table, 0, len(s.open))
	for t := range s.open {
		tables = append(tables, t)
	}
	s.mu.Unlock()

	for _, t := range tables {
		t.closeSnapshot()
	}
	s.codec.Close()
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "BatchStore.Close")
	}
	return nil
}
