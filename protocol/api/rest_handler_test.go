package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/litequery/catalog"
	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/executor"
	"github.com/guileen/litequery/physical"
	"github.com/guileen/litequery/storage"
	"github.com/guileen/litequery/types"
)

func setupTestRESTHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := storage.Open(storage.InMemoryPebbleConfig())
	require.NoError(t, err)

	cat := catalog.New()
	t.Cleanup(func() {
		cat.Close()
		store.Close()
	})

	schema := types.MustSchema(
		types.NewField("t1", "a", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "b", arrow.PrimitiveTypes.Int64, false),
		types.NewField("t1", "c", arrow.PrimitiveTypes.Int64, false),
	)
	table, err := datasource.NewMemTableFromRows(schema, [][]any{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}, 2)
	require.NoError(t, err)
	_, err = cat.Register("t1", catalog.KindMemory, table)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	exec := executor.NewExecutor(executor.Config{})
	for _, c := range exec.Collectors() {
		require.NoError(t, reg.Register(c))
	}
	require.NoError(t, physical.RegisterMetrics(reg))

	return NewRESTHandler(cat, exec, store, 2).WithMetrics(reg).Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRESTHandler_ListAndDescribe(t *testing.T) {
	h := setupTestRESTHandler(t)

	w := do(t, h, http.MethodGet, "/api/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tables []TableInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tables))
	require.Len(t, tables, 1)
	assert.Equal(t, "t1", tables[0].Name)
	assert.Equal(t, 3, tables[0].Columns)

	w = do(t, h, http.MethodGet, "/api/tables/t1/schema", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var schema SchemaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	require.Len(t, schema.Fields, 3)
	assert.Equal(t, "c", schema.Fields[2].Name)
	assert.Equal(t, types.ColumnTypeBigInt, schema.Fields[2].Type)

	w = do(t, h, http.MethodGet, "/api/tables/missing/schema", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRESTHandler_Query(t *testing.T) {
	h := setupTestRESTHandler(t)

	w := do(t, h, http.MethodPost, "/api/tables/t1/query", QueryRequest{Columns: []string{"t1.c", "b"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"t1.c", "t1.b"}, resp.Columns)
	assert.Equal(t, [][]any{{7.0, 4.0}, {8.0, 5.0}, {9.0, 6.0}}, resp.Rows)
	assert.Equal(t, 3, resp.Count)
	assert.NotEmpty(t, resp.QueryID)

	w = do(t, h, http.MethodPost, "/api/tables/t1/query?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = QueryResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.HasMore)
	assert.Len(t, resp.Columns, 3)
}

func TestRESTHandler_QueryErrors(t *testing.T) {
	h := setupTestRESTHandler(t)

	w := do(t, h, http.MethodPost, "/api/tables/t1/query", QueryRequest{Columns: []string{"z"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "not_found", errResp.Code)

	w = do(t, h, http.MethodPost, "/api/tables/t1/query", QueryRequest{Columns: []string{"t1."}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/tables/nope/query", QueryRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRESTHandler_Explain(t *testing.T) {
	h := setupTestRESTHandler(t)

	w := do(t, h, http.MethodGet, "/api/tables/t1/explain?columns=c,a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ProjectionPlan")
	assert.Contains(t, lines[1], "ScanPlan: projection=[2 0]")
}

func TestRESTHandler_CreateAndDrop(t *testing.T) {
	h := setupTestRESTHandler(t)

	for _, persist := range []bool{false, true} {
		name := "mem"
		if persist {
			name = "stored"
		}
		req := CreateTableRequest{
			Name:    name,
			Persist: persist,
			Columns: []types.FieldDefinition{
				{Name: "id", Type: types.ColumnTypeBigInt},
				{Name: "label", Type: types.ColumnTypeText, Nullable: true},
			},
			Rows: [][]any{{1, "x"}, {2, nil}, {3, "z"}},
		}
		w := do(t, h, http.MethodPost, "/api/tables", req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var info TableInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		if persist {
			assert.Equal(t, "stored", info.Kind)
		} else {
			assert.Equal(t, "memory", info.Kind)
		}

		w = do(t, h, http.MethodPost, "/api/tables/"+name+"/query", QueryRequest{Columns: []string{"label"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp QueryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, [][]any{{"x"}, {nil}, {"z"}}, resp.Rows)

		w = do(t, h, http.MethodPost, "/api/tables", req)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = do(t, h, http.MethodDelete, "/api/tables/"+name, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = do(t, h, http.MethodDelete, "/api/tables/"+name, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	w := do(t, h, http.MethodPost, "/api/tables", CreateTableRequest{
		Name:    "bad",
		Columns: []types.FieldDefinition{{Name: "id", Type: types.ColumnTypeBigInt}},
		Rows:    [][]any{{"not a number"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRESTHandler_Metrics(t *testing.T) {
	h := setupTestRESTHandler(t)

	do(t, h, http.MethodPost, "/api/tables/t1/query", QueryRequest{})
	w := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "litequery_executor_queries_total")
	assert.Contains(t, w.Body.String(), "litequery_plan_rows_total")
}
