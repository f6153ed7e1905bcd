package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/types"
)

// Config holds configuration for the query server and its sources
type Config struct {
	// HTTP surface
	HTTPAddr string `yaml:"http_addr"`

	// Batch store
	DataDir       string `yaml:"data_dir"`
	InMemoryStore bool   `yaml:"in_memory_store"`
	SyncWrites    bool   `yaml:"sync_writes"`

	// Rows per batch when sources materialize row-oriented input
	BatchSize int `yaml:"batch_size"`

	// Upper bound on plans run concurrently by the executor
	MaxParallelPlans int `yaml:"max_parallel_plans"`

	Postgres PostgresConfig `yaml:"postgres"`

	// Tables registered at startup
	Tables []TableSeed `yaml:"tables"`
}

// PostgresConfig names a Postgres database and the tables imported from it
type PostgresConfig struct {
	DSN    string   `yaml:"dsn"`
	Tables []string `yaml:"tables"`
}

// TableSeed describes an in-memory table loaded from configuration
type TableSeed struct {
	Name    string                  `yaml:"name"`
	Persist bool                    `yaml:"persist"`
	Columns []types.FieldDefinition `yaml:"columns"`
	Rows    [][]any                 `yaml:"rows"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		HTTPAddr:         ":8080",
		DataDir:          "/tmp/litequery",
		InMemoryStore:    false,
		SyncWrites:       false,
		BatchSize:        1024,
		MaxParallelPlans: 4,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() Config {
	config := DefaultConfig()
	applyEnv(&config)
	return config
}

// LoadFile reads a YAML file over the defaults and then applies environment
// overrides, so LITEQUERY_* variables always win.
func LoadFile(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, errors.ErrCodeValidation, "config.LoadFile", "read %s", path)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, errors.ErrCodeValidation, "config.LoadFile", "parse %s", path)
	}

	applyEnv(&config)
	return config, config.Validate()
}

func applyEnv(config *Config) {
	if addr := os.Getenv("LITEQUERY_HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}

	if dir := os.Getenv("LITEQUERY_DATA_DIR"); dir != "" {
		config.DataDir = dir
	}

	if inMemStr := os.Getenv("LITEQUERY_IN_MEMORY_STORE"); inMemStr != "" {
		if inMem, err := strconv.ParseBool(inMemStr); err == nil {
			config.InMemoryStore = inMem
		}
	}

	if syncStr := os.Getenv("LITEQUERY_SYNC_WRITES"); syncStr != "" {
		if sync, err := strconv.ParseBool(syncStr); err == nil {
			config.SyncWrites = sync
		}
	}

	if batchSizeStr := os.Getenv("LITEQUERY_BATCH_SIZE"); batchSizeStr != "" {
		if size, err := strconv.Atoi(batchSizeStr); err == nil && size > 0 {
			config.BatchSize = size
		}
	}

	if parallelStr := os.Getenv("LITEQUERY_MAX_PARALLEL_PLANS"); parallelStr != "" {
		if n, err := strconv.Atoi(parallelStr); err == nil && n > 0 {
			config.MaxParallelPlans = n
		}
	}

	if dsn := os.Getenv("LITEQUERY_PG_DSN"); dsn != "" {
		config.Postgres.DSN = dsn
	}

	if tables := os.Getenv("LITEQUERY_PG_TABLES"); tables != "" {
		config.Postgres.Tables = nil
		for _, name := range strings.Split(tables, ",") {
			if name = strings.TrimSpace(name); name != "" {
				config.Postgres.Tables = append(config.Postgres.Tables, name)
			}
		}
	}
}

// Validate checks the configuration for values the server cannot run with
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.NewValidationErrorf("config.Validate", "batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxParallelPlans <= 0 {
		return errors.NewValidationErrorf("config.Validate", "max_parallel_plans must be positive, got %d", c.MaxParallelPlans)
	}
	if !c.InMemoryStore && c.DataDir == "" {
		return errors.NewValidationErrorf("config.Validate", "data_dir is required unless in_memory_store is set")
	}
	if len(c.Postgres.Tables) > 0 && c.Postgres.DSN == "" {
		return errors.NewValidationErrorf("config.Validate", "postgres.tables requires postgres.dsn")
	}

	seen := make(map[string]struct{}, len(c.Tables))
	for _, seed := range c.Tables {
		if seed.Name == "" {
			return errors.NewValidationErrorf("config.Validate", "table seed without a name")
		}
		if _, dup := seen[seed.Name]; dup {
			return errors.NewValidationErrorf("config.Validate", "table %q declared twice", seed.Name)
		}
		seen[seed.Name] = struct{}{}
		if len(seed.Columns) == 0 {
			return errors.NewValidationErrorf("config.Validate", "table %q has no columns", seed.Name)
		}
		for _, col := range seed.Columns {
			if !types.IsValidColumnType(col.Type) {
				return errors.NewValidationErrorf("config.Validate", "table %q column %q has unknown type %q",
					seed.Name, col.Name, col.Type)
			}
		}
		for i, row := range seed.Rows {
			if len(row) != len(seed.Columns) {
				return errors.NewValidationErrorf("config.Validate", "table %q row %d has %d values, want %d",
					seed.Name, i, len(row), len(seed.Columns))
			}
		}
	}
	return nil
}
