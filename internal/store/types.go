package store

import (
	"context"
	"time"
)

// RunWriter defines persistence for evaluation runs.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
}

// RunReader defines read access to stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	BenchmarkHistory(ctx context.Context, benchmark string, limit int) ([]*RunRecord, error)
}

// Analytics defines query helpers for comparing runs.
type Analytics interface {
	CompareRuns(ctx context.Context, baselineID, steeredID string) (*RunComparison, error)
}

// Store defines persistence for evaluation results.
type Store interface {
	RunWriter
	RunReader
	Analytics
	Close() error
}

// RunRecord stores one evaluation run summary plus its item results.
type RunRecord struct {
	ID             string
	Model          string
	Benchmark      string
	VectorPath     string
	Strength       float64
	Accuracy       float64
	TotalItems     int
	PassedItems    int
	AmbiguousItems int
	TotalTokens    int
	TotalLatency   int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Items          []ItemRecord // JSON serialized
}

// ItemRecord stores a single scored item.
type ItemRecord struct {
	ItemID    string
	Category  string
	Response  string
	Score     float64
	Passed    bool
	Ambiguous bool
	LatencyMs int64
	Tokens    int
	Error     string
}

// RunFilter filters run listings.
type RunFilter struct {
	Model     string
	Benchmark string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// RunComparison summarizes per-item changes between a baseline run and a
// steered run of the same benchmark.
type RunComparison struct {
	Baseline      *RunRecord
	Steered       *RunRecord
	AccuracyDelta float64
	Regressions   []string // item IDs that flipped to failing
	Improvements  []string // item IDs that flipped to passing
}
