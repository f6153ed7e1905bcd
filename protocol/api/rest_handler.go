// Package api exposes the catalog over HTTP: listing and describing tables,
// creating and dropping them, and running or explaining column selections.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guileen/litequery/catalog"
	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/executor"
	"github.com/guileen/litequery/physical"
	"github.com/guileen/litequery/planner"
	"github.com/guileen/litequery/storage"
	"github.com/guileen/litequery/types"
)

type RESTHandler struct {
	catalog   *catalog.Catalog
	executor  *executor.Executor
	store     *storage.BatchStore
	batchSize int
	gatherer  prometheus.Gatherer
}

// NewRESTHandler creates the handler. store may be nil, in which case tables
// cannot be persisted.
func NewRESTHandler(cat *catalog.Catalog, exec *executor.Executor, store *storage.BatchStore, batchSize int) *RESTHandler {
	return &RESTHandler{
		catalog:   cat,
		executor:  exec,
		store:     store,
		batchSize: batchSize,
	}
}

// WithMetrics serves gatherer at /metrics.
func (h *RESTHandler) WithMetrics(gatherer prometheus.Gatherer) *RESTHandler {
	h.gatherer = gatherer
	return h
}

// Router builds a chi router with the handler's routes and middleware.
func (h *RESTHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	h.RegisterRoutes(r)
	return r
}

func (h *RESTHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Post("/", h.CreateTable)
		r.Route("/{table}", func(r chi.Router) {
			r.Delete("/", h.DropTable)
			r.Get("/schema", h.DescribeTable)
			r.Post("/query", h.QueryTable)
			r.Get("/explain", h.ExplainQuery)
		})
	})
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

type TableInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Columns int    `json:"columns"`
}

type SchemaResponse struct {
	Table  string                  `json:"table"`
	Fields []types.FieldDefinition `json:"fields"`
}

type CreateTableRequest struct {
	Name    string                  `json:"name"`
	Persist bool                    `json:"persist,omitempty"`
	Columns []types.FieldDefinition `json:"columns"`
	Rows    [][]any                 `json:"rows,omitempty"`
}

type QueryRequest struct {
	Columns []string `json:"columns,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

type QueryResponse struct {
	QueryID    string   `json:"query_id"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	Count      int      `json:"count"`
	HasMore    bool     `json:"has_more,omitempty"`
	DurationMS float64  `json:"duration_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *RESTHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.Tables()
	tables := make([]TableInfo, len(entries))
	for i, e := range entries {
		tables[i] = TableInfo{
			ID:      e.ID.String(),
			Name:    e.Name,
			Kind:    string(e.Kind),
			Columns: e.Source.Schema().Len(),
		}
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *RESTHandler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	entry, err := h.catalog.Lookup(chi.URLParam(r, "table"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	defs, err := entry.Source.Schema().Definitions()
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SchemaResponse{Table: entry.Name, Fields: defs})
}

func (h *RESTHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("table name is required"))
		return
	}

	schema, err := types.SchemaFromDefinitions(req.Name, req.Columns)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	mem, err := datasource.NewMemTableFromRows(schema, req.Rows, h.batchSize)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	entry, err := h.register(r.Context(), req.Name, req.Persist, mem)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TableInfo{
		ID:      entry.ID.String(),
		Name:    entry.Name,
		Kind:    string(entry.Kind),
		Columns: schema.Len(),
	})
}

// register adds mem to the catalog, first writing it to the store when
// persist is set so that the catalog serves the stored copy.
func (h *RESTHandler) register(ctx context.Context, name string, persist bool, mem *datasource.MemTable) (*catalog.Entry, error) {
	if !persist {
		return h.catalog.Register(name, catalog.KindMemory, mem)
	}
	if h.store == nil {
		return nil, errors.NewValidationErrorf("CreateTable", "persistence is not configured")
	}
	if _, err := h.catalog.Lookup(name); err == nil {
		return nil, errors.Errorf(errors.ErrCodeConflict, "CreateTable", "table %q already registered", name)
	}
	if err := h.store.PutTable(ctx, name, mem); err != nil {
		return nil, err
	}
	stored, err := h.store.Table(name)
	if err != nil {
		return nil, err
	}
	entry, err := h.catalog.Register(name, catalog.KindStored, stored)
	if err != nil {
		stored.Close()
		return nil, err
	}
	return entry, nil
}

func (h *RESTHandler) DropTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	entry, err := h.catalog.Lookup(name)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if err := h.catalog.Drop(name); err != nil {
		writeEngineError(w, r, err)
		return
	}
	if entry.Kind == catalog.KindStored && h.store != nil {
		if err := h.store.DropTable(r.Context(), name); err != nil {
			writeEngineError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) QueryTable(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	if req.Limit == 0 {
		req.Limit = getIntQueryParam(r, "limit", 0)
	}

	plan, err := h.plan(r, req.Columns)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	result, err := h.executor.Execute(r.Context(), plan)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	rows := result.Rows()
	hasMore := false
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
		hasMore = true
	}
	columns := make([]string, result.Schema.Len())
	for i, f := range result.Schema.Fields() {
		columns[i] = f.QualifiedName()
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		QueryID:    result.QueryID,
		Columns:    columns,
		Rows:       rows,
		Count:      len(rows),
		HasMore:    hasMore,
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
	})
}

func (h *RESTHandler) ExplainQuery(w http.ResponseWriter, r *http.Request) {
	var columns []string
	if raw := r.URL.Query().Get("columns"); raw != "" {
		columns = strings.Split(raw, ",")
	}
	plan, err := h.plan(r, columns)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, physical.Explain(plan))
}

func (h *RESTHandler) plan(r *http.Request, columns []string) (physical.PhysicalPlan, error) {
	entry, err := h.catalog.Lookup(chi.URLParam(r, "table"))
	if err != nil {
		return nil, err
	}
	return planner.SelectColumns(entry.Source, columns)
}

// statusFor maps engine error codes to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsConflict(err):
		return http.StatusConflict
	case errors.IsAmbiguousName(err), errors.IsIndexError(err), errors.IsSchemaError(err), errors.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errors.LogError(r.Context(), err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: errors.CodeOf(err)})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	writeJSON(w, statusCode, ErrorResponse{Error: err.Error()})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
