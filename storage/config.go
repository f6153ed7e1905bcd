// Package storage persists tables as compressed arrow batches in pebble and
// serves them back as snapshot-backed table sources.
package storage

// PebbleConfig holds the options the batch store opens pebble with
type PebbleConfig struct {
	Path         string
	InMemory     bool
	CacheSize    int64
	MemTableSize uint64
	MaxOpenFiles int
	SyncWrites   bool
}

// DefaultPebbleConfig creates a configuration for an on-disk store at path
func DefaultPebbleConfig(path string) *PebbleConfig {
	return &PebbleConfig{
		Path:         path,
		CacheSize:    64 << 20,
		MemTableSize: 16 << 20,
		MaxOpenFiles: 1000,
	}
}

// InMemoryPebbleConfig creates a configuration backed by an in-memory
// filesystem, used by tests and ephemeral servers.
func InMemoryPebbleConfig() *PebbleConfig {
	config := DefaultPebbleConfig("")
	config.InMemory = true
	config.CacheSize = 8 << 20
	config.MemTableSize = 4 << 20
	return config
}
