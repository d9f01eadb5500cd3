package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognalign/tomsteer/internal/benchmark"
	"github.com/cognalign/tomsteer/internal/steering"
	"github.com/cognalign/tomsteer/internal/store"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListBenchmarks(c *gin.Context) {
	type benchmarkInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	datasets := []benchmark.Dataset{
		&benchmark.ToMiDataset{},
		&benchmark.FANToMDataset{},
		&benchmark.SimpleToMDataset{},
		&benchmark.ToMBenchDataset{},
	}

	out := make([]benchmarkInfo, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, benchmarkInfo{Name: d.Name(), Description: d.Description()})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		Model:     strings.TrimSpace(c.Query("model")),
		Benchmark: strings.TrimSpace(c.Query("benchmark")),
		Since:     since,
		Until:     until,
		Limit:     limit,
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, ok := s.loadRun(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRunResults(c *gin.Context) {
	run, ok := s.loadRun(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run.Items)
}

func (s *Server) loadRun(c *gin.Context, id string) (*store.RunRecord, bool) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return nil, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return nil, false
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

func (s *Server) handleBenchmarkHistory(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	name := strings.TrimSpace(c.Param("benchmark"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing benchmark name"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	runs, err := s.store.BenchmarkHistory(c.Request.Context(), name, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleCompareRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	baseline := strings.TrimSpace(c.Query("baseline"))
	steered := strings.TrimSpace(c.Query("steered"))
	if baseline == "" || steered == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing baseline or steered run id"))
		return
	}

	cmp, err := s.store.CompareRuns(c.Request.Context(), baseline, steered)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, errors.New("run not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, cmp)
}

type vectorFileInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (s *Server) handleListVectors(c *gin.Context) {
	dir := s.vectorDir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []vectorFileInfo{})
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]vectorFileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, vectorFileInfo{
			Name:       e.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetVector(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || name != filepath.Base(name) {
		respondError(c, http.StatusBadRequest, errors.New("invalid vector name"))
		return
	}

	set, err := steering.Load(filepath.Join(s.vectorDir(), name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(c, http.StatusNotFound, fmt.Errorf("vector %q not found", name))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	// Metadata only; full vectors can be megabytes.
	c.JSON(http.StatusOK, gin.H{
		"name":       name,
		"model":      set.Model,
		"layers":     set.Layers,
		"dim":        set.Dim,
		"pair_count": set.PairCount,
		"used_pairs": set.UsedPairs,
		"created_at": set.CreatedAt,
		"norms":      set.Norms(),
	})
}

func (s *Server) vectorDir() string {
	if s != nil && s.config != nil {
		if dir := strings.TrimSpace(s.config.Extraction.VectorDir); dir != "" {
			return dir
		}
	}
	return "data/vectors"
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
