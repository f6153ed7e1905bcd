// Package catalog keeps the named table sources the server can plan over.
package catalog

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
)

// SourceKind tells where a table's batches live.
type SourceKind string

const (
	KindMemory   SourceKind = "memory"
	KindStored   SourceKind = "stored"
	KindPostgres SourceKind = "postgres"
)

// Entry is one registered table.
type Entry struct {
	ID        uuid.UUID
	Name      string
	Kind      SourceKind
	Source    datasource.TableSource
	CreatedAt time.Time
}

// Catalog is a concurrent-safe name to source registry.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Register adds source under name. Names are unique.
func (c *Catalog) Register(name string, kind SourceKind, source datasource.TableSource) (*Entry, error) {
	if name == "" {
		return nil, errors.NewValidationErrorf("Catalog.Register", "table name is empty")
	}
	if source == nil {
		return nil, errors.NewValidationErrorf("Catalog.Register", "table %q has no source", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; ok {
		return nil, errors.Errorf(errors.ErrCodeConflict, "Catalog.Register", "table %q already registered", name)
	}
	entry := &Entry{
		ID:        uuid.New(),
		Name:      name,
		Kind:      kind,
		Source:    source,
		CreatedAt: time.Now(),
	}
	c.entries[name] = entry

	logger.Info("Table registered", "table", name, "kind", kind, "id", entry.ID.String(), "columns", source.Schema().Len())
	return entry, nil
}

func (c *Catalog) Lookup(name string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[name]
	if !ok {
		return nil, errors.NewNotFoundErrorf("Catalog.Lookup", "table %q not found", name)
	}
	return entry, nil
}

// Tables returns the registered entries sorted by name.
func (c *Catalog) Tables() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Drop unregisters name, closing its source if it holds resources.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	entry, ok := c.entries[name]
	if ok {
		delete(c.entries, name)
	}
	c.mu.Unlock()

	if !ok {
		return errors.NewNotFoundErrorf("Catalog.Drop", "table %q not found", name)
	}
	logger.Info("Table dropped", "table", name, "id", entry.ID.String())
	if closer, ok := entry.Source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Close drops every table.
func (c *Catalog) Close() error {
	var first error
	for _, e := range c.Tables() {
		if err := c.Drop(e.Name); err != nil && first == nil {
			first = err
		}
	}
	return first
}
