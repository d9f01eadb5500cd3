package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognalign/tomsteer/internal/config"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleRun(id, benchmark string, strength float64, items []ItemRecord) *RunRecord {
	passed := 0
	ambiguous := 0
	for _, it := range items {
		if it.Passed {
			passed++
		}
		if it.Ambiguous {
			ambiguous++
		}
	}
	accuracy := 0.0
	if len(items) > 0 {
		accuracy = float64(passed) / float64(len(items))
	}
	return &RunRecord{
		ID:             id,
		Model:          "test-model",
		Benchmark:      benchmark,
		VectorPath:     "data/vectors/v.json",
		Strength:       strength,
		Accuracy:       accuracy,
		TotalItems:     len(items),
		PassedItems:    passed,
		AmbiguousItems: ambiguous,
		TotalTokens:    100,
		TotalLatency:   250,
		StartedAt:      time.Now().UTC().Add(-time.Minute),
		FinishedAt:     time.Now().UTC(),
		Items:          items,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	items := []ItemRecord{
		{ItemID: "q1", Category: "first_order", Response: "basket", Score: 1, Passed: true, LatencyMs: 12, Tokens: 30},
		{ItemID: "q2", Category: "second_order", Response: "??", Ambiguous: true},
	}
	run := sampleRun("run-1", "tomi", 4, items)
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Model != "test-model" || got.Benchmark != "tomi" {
		t.Errorf("identity = %q/%q", got.Model, got.Benchmark)
	}
	if got.Strength != 4 || got.VectorPath != "data/vectors/v.json" {
		t.Errorf("steering fields = %v %q", got.Strength, got.VectorPath)
	}
	if got.Accuracy != 0.5 || got.AmbiguousItems != 1 {
		t.Errorf("accuracy = %v, ambiguous = %d", got.Accuracy, got.AmbiguousItems)
	}
	if len(got.Items) != 2 || got.Items[0].ItemID != "q1" || !got.Items[0].Passed {
		t.Errorf("items = %+v", got.Items)
	}
	if !got.Items[1].Ambiguous {
		t.Error("second item should be ambiguous")
	}
}

func TestSaveRunIsAppendOnly(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "tomi", 0, nil)
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.SaveRun(ctx, run); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestSaveRunValidation(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveRun(ctx, nil); err == nil {
		t.Error("expected error for nil run")
	}
	if err := st.SaveRun(nil, sampleRun("x", "tomi", 0, nil)); err == nil {
		t.Error("expected error for nil context")
	}

	run := sampleRun("", "tomi", 0, nil)
	if err := st.SaveRun(ctx, run); err == nil {
		t.Error("expected error for empty id")
	}

	run = sampleRun("run-1", "", 0, nil)
	if err := st.SaveRun(ctx, run); err == nil {
		t.Error("expected error for empty benchmark")
	}

	run = sampleRun("run-1", "tomi", 0, nil)
	run.StartedAt = time.Time{}
	if err := st.SaveRun(ctx, run); err == nil {
		t.Error("expected error for missing timestamps")
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if _, err := st.GetRun(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	r1 := sampleRun("run-1", "tomi", 0, nil)
	r1.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	r1.FinishedAt = r1.StartedAt.Add(time.Minute)
	r2 := sampleRun("run-2", "tomi", 4, nil)
	r3 := sampleRun("run-3", "fantom", 0, nil)
	r3.Model = "other-model"
	for _, r := range []*RunRecord{r1, r2, r3} {
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun(%s): %v", r.ID, err)
		}
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs", len(all))
	}
	if all[0].StartedAt.Before(all[1].StartedAt) {
		t.Error("runs should be newest first")
	}

	tomi, err := st.ListRuns(ctx, RunFilter{Benchmark: "tomi"})
	if err != nil {
		t.Fatalf("ListRuns benchmark: %v", err)
	}
	if len(tomi) != 2 {
		t.Errorf("got %d tomi runs, want 2", len(tomi))
	}

	byModel, err := st.ListRuns(ctx, RunFilter{Model: "other-model"})
	if err != nil {
		t.Fatalf("ListRuns model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].ID != "run-3" {
		t.Errorf("model filter = %+v", byModel)
	}

	recent, err := st.ListRuns(ctx, RunFilter{Since: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("ListRuns since: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("got %d recent runs, want 2", len(recent))
	}

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d limited runs", len(limited))
	}
}

func TestBenchmarkHistory(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-1", "run-2"} {
		r := sampleRun(id, "simpletom", float64(i), nil)
		r.StartedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		r.FinishedAt = r.StartedAt.Add(time.Minute)
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	history, err := st.BenchmarkHistory(ctx, "simpletom", 10)
	if err != nil {
		t.Fatalf("BenchmarkHistory: %v", err)
	}
	if len(history) != 2 || history[0].ID != "run-2" {
		t.Errorf("history = %+v", history)
	}

	if _, err := st.BenchmarkHistory(ctx, "", 10); err == nil {
		t.Error("expected error for empty benchmark")
	}
}

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	baseline := sampleRun("base", "tomi", 0, []ItemRecord{
		{ItemID: "q1", Passed: true},
		{ItemID: "q2", Passed: false},
		{ItemID: "q3", Passed: true},
	})
	steered := sampleRun("steer", "tomi", 6, []ItemRecord{
		{ItemID: "q1", Passed: true},
		{ItemID: "q2", Passed: true},
		{ItemID: "q3", Passed: false},
	})
	if err := st.SaveRun(ctx, baseline); err != nil {
		t.Fatalf("SaveRun baseline: %v", err)
	}
	if err := st.SaveRun(ctx, steered); err != nil {
		t.Fatalf("SaveRun steered: %v", err)
	}

	cmp, err := st.CompareRuns(ctx, "base", "steer")
	if err != nil {
		t.Fatalf("CompareRuns: %v", err)
	}
	if len(cmp.Improvements) != 1 || cmp.Improvements[0] != "q2" {
		t.Errorf("improvements = %v", cmp.Improvements)
	}
	if len(cmp.Regressions) != 1 || cmp.Regressions[0] != "q3" {
		t.Errorf("regressions = %v", cmp.Regressions)
	}

	other := sampleRun("other", "fantom", 0, nil)
	if err := st.SaveRun(ctx, other); err != nil {
		t.Fatalf("SaveRun other: %v", err)
	}
	if _, err := st.CompareRuns(ctx, "base", "other"); err == nil {
		t.Error("expected error for cross-benchmark comparison")
	}
	if _, err := st.CompareRuns(ctx, "missing", "steer"); err == nil {
		t.Error("expected error for missing baseline")
	}
}

func TestOpenFromConfig(t *testing.T) {
	t.Parallel()

	if _, err := Open(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := &config.Config{}
	cfg.Storage.Type = "memory"
	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	_ = st.Close()

	cfg.Storage.Type = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "runs.db")
	st, err = Open(cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	_ = st.Close()

	cfg.Storage.Type = "bolt"
	if _, err := Open(cfg); err == nil {
		t.Error("expected error for unsupported type")
	}
}
