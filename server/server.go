// Package server assembles the query server from configuration: batch store,
// catalog, seed and imported tables, executor, metrics and HTTP routes.
package server

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/guileen/litequery/catalog"
	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/config"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/executor"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/physical"
	"github.com/guileen/litequery/protocol/api"
	"github.com/guileen/litequery/storage"
	"github.com/guileen/litequery/types"
)

type Server struct {
	config   config.Config
	store    *storage.BatchStore
	catalog  *catalog.Catalog
	executor *executor.Executor
	registry *prometheus.Registry
	router   chi.Router
}

// New opens the store and registers every configured table. Tables already
// in the store are served from it; seed tables marked persist are written
// there on first start.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pebbleConfig := storage.DefaultPebbleConfig(cfg.DataDir)
	if cfg.InMemoryStore {
		pebbleConfig = storage.InMemoryPebbleConfig()
	}
	pebbleConfig.SyncWrites = cfg.SyncWrites

	store, err := storage.Open(pebbleConfig)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		store:    store,
		catalog:  catalog.New(),
		executor: executor.NewExecutor(executor.Config{MaxParallelPlans: cfg.MaxParallelPlans}),
		registry: prometheus.NewRegistry(),
	}

	if err := s.setup(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(ctx context.Context) error {
	if err := s.registerMetrics(); err != nil {
		return err
	}
	if err := s.loadStoredTables(); err != nil {
		return err
	}
	for _, seed := range s.config.Tables {
		if err := s.loadSeed(ctx, seed); err != nil {
			return err
		}
	}
	if s.config.Postgres.DSN != "" && len(s.config.Postgres.Tables) > 0 {
		if err := s.importPostgres(ctx); err != nil {
			return err
		}
	}

	handler := api.NewRESTHandler(s.catalog, s.executor, s.store, s.config.BatchSize).WithMetrics(s.registry)
	r := handler.Router()
	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	r.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	s.router = r
	return nil
}

func (s *Server) registerMetrics() error {
	cs := append(s.executor.Collectors(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range cs {
		if err := s.registry.Register(c); err != nil {
			return err
		}
	}
	return physical.RegisterMetrics(s.registry)
}

func (s *Server) loadStoredTables() error {
	names, err := s.store.Tables()
	if err != nil {
		return err
	}
	for _, name := range names {
		table, err := s.store.Table(name)
		if err != nil {
			return err
		}
		if _, err := s.catalog.Register(name, catalog.KindStored, table); err != nil {
			table.Close()
			return err
		}
	}
	logger.Info("Stored tables loaded", "count", len(names))
	return nil
}

func (s *Server) loadSeed(ctx context.Context, seed config.TableSeed) error {
	if _, err := s.catalog.Lookup(seed.Name); err == nil {
		if seed.Persist {
			logger.Debug("Seed table already stored", "table", seed.Name)
			return nil
		}
		return errors.Errorf(errors.ErrCodeConflict, "server.loadSeed", "seed table %q shadows a stored table", seed.Name)
	}

	schema, err := types.SchemaFromDefinitions(seed.Name, seed.Columns)
	if err != nil {
		return err
	}
	mem, err := datasource.NewMemTableFromRows(schema, seed.Rows, s.config.BatchSize)
	if err != nil {
		return err
	}

	if !seed.Persist {
		_, err := s.catalog.Register(seed.Name, catalog.KindMemory, mem)
		return err
	}
	if err := s.store.PutTable(ctx, seed.Name, mem); err != nil {
		return err
	}
	table, err := s.store.Table(seed.Name)
	if err != nil {
		return err
	}
	if _, err := s.catalog.Register(seed.Name, catalog.KindStored, table); err != nil {
		table.Close()
		return err
	}
	return nil
}

func (s *Server) importPostgres(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, s.config.Postgres.DSN)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "server.importPostgres")
	}
	defer pool.Close()

	for _, name := range s.config.Postgres.Tables {
		table, err := datasource.LoadPostgresTable(ctx, pool, name, datasource.PostgresOptions{BatchSize: s.config.BatchSize})
		if err != nil {
			return err
		}
		if _, err := s.catalog.Register(name, catalog.KindPostgres, table); err != nil {
			return err
		}
	}
	return nil
}

// Catalog returns the registry of served tables
func (s *Server) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", s.config.HTTPAddr, "tables", len(s.catalog.Tables()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Close releases every table and the store.
func (s *Server) Close() error {
	catErr := s.catalog.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return catErr
}
