package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognalign/tomsteer/internal/config"
	"github.com/cognalign/tomsteer/internal/steering"
	"github.com/cognalign/tomsteer/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("TOMSTEER_DISABLE_AUTH", "true")
	t.Setenv("TOMSTEER_API_KEY", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	cfg := config.Default()
	cfg.Extraction.VectorDir = t.TempDir()

	srv, err := NewServer(cfg, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, st
}

func doRequest(t *testing.T, srv *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func seedRun(t *testing.T, st store.Store, id, benchmark string, strength float64, items []store.ItemRecord) {
	t.Helper()
	passed := 0
	for _, it := range items {
		if it.Passed {
			passed++
		}
	}
	accuracy := 0.0
	if len(items) > 0 {
		accuracy = float64(passed) / float64(len(items))
	}
	err := st.SaveRun(context.Background(), &store.RunRecord{
		ID:          id,
		Model:       "test-model",
		Benchmark:   benchmark,
		Strength:    strength,
		Accuracy:    accuracy,
		TotalItems:  len(items),
		PassedItems: passed,
		StartedAt:   time.Now().UTC().Add(-time.Minute),
		FinishedAt:  time.Now().UTC(),
		Items:       items,
	})
	if err != nil {
		t.Fatalf("SaveRun(%s): %v", id, err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("TOMSTEER_API_KEY", "")
	t.Setenv("TOMSTEER_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	if _, err := NewServer(config.Default(), st); err == nil {
		t.Error("expected error without auth configuration")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("TOMSTEER_API_KEY", "secret")
	t.Setenv("TOMSTEER_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	srv, err := NewServer(config.Default(), st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	w := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", w.Code)
	}
}

func TestListBenchmarks(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/benchmarks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if len(body) != 4 {
		t.Errorf("got %d benchmarks, want 4", len(body))
	}
}

func TestRunEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run-1", "tomi", 0, []store.ItemRecord{
		{ItemID: "q1", Passed: true, Score: 1},
		{ItemID: "q2", Passed: false},
	})
	seedRun(t, st, "run-2", "tomi", 4, []store.ItemRecord{
		{ItemID: "q1", Passed: true, Score: 1},
		{ItemID: "q2", Passed: true, Score: 1},
	})
	seedRun(t, st, "run-3", "fantom", 0, nil)

	w := doRequest(t, srv, http.MethodGet, "/api/runs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var runs []store.RunRecord
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("parse runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs", len(runs))
	}

	w = doRequest(t, srv, http.MethodGet, "/api/runs?benchmark=tomi", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("parse filtered runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("benchmark filter got %d runs, want 2", len(runs))
	}

	w = doRequest(t, srv, http.MethodGet, "/api/runs?limit=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/runs/run-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var run store.RunRecord
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("parse run: %v", err)
	}
	if run.ID != "run-1" || len(run.Items) != 2 {
		t.Errorf("run = %+v", run)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/runs/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d", w.Code)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/runs/run-1/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results status = %d", w.Code)
	}
	var items []store.ItemRecord
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("parse items: %v", err)
	}
	if len(items) != 2 || items[0].ItemID != "q1" {
		t.Errorf("items = %+v", items)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/history/tomi", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("parse history: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("history got %d runs", len(runs))
	}

	w = doRequest(t, srv, http.MethodGet, "/api/compare?baseline=run-1&steered=run-2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("compare status = %d", w.Code)
	}
	var cmp store.RunComparison
	if err := json.Unmarshal(w.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("parse comparison: %v", err)
	}
	if len(cmp.Improvements) != 1 || cmp.Improvements[0] != "q2" {
		t.Errorf("improvements = %v", cmp.Improvements)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/compare?baseline=run-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("partial compare status = %d", w.Code)
	}
}

func TestVectorEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	dir := srv.config.Extraction.VectorDir

	set := &steering.VectorSet{
		Model:     "test-model",
		Layers:    []int{8},
		Dim:       2,
		PairCount: 4,
		UsedPairs: 3,
		CreatedAt: time.Now().UTC(),
		Vectors:   map[int][]float32{8: {3, 4}},
	}
	if err := set.Save(filepath.Join(dir, "run.json")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := doRequest(t, srv, http.MethodGet, "/api/vectors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var files []vectorFileInfo
	if err := json.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("parse files: %v", err)
	}
	if len(files) != 1 || files[0].Name != "run.json" {
		t.Errorf("files = %+v", files)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/vectors/run.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var meta map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if meta["model"] != "test-model" {
		t.Errorf("metadata = %v", meta)
	}
	if _, ok := meta["norms"]; !ok {
		t.Error("metadata missing norms")
	}

	w = doRequest(t, srv, http.MethodGet, "/api/vectors/missing.json", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing vector status = %d", w.Code)
	}
}
