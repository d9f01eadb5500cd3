package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cognalign/tomsteer/internal/benchmark"
)

// JSONLWriter streams per-item results as newline-delimited JSON.
type JSONLWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

type jsonlRow struct {
	RunID     string  `json:"run_id"`
	Model     string  `json:"model"`
	Benchmark string  `json:"benchmark"`
	Strength  float64 `json:"strength"`
	ItemID    string  `json:"item_id"`
	Category  string  `json:"category,omitempty"`
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	Ambiguous bool    `json:"ambiguous,omitempty"`
	LatencyMs int64   `json:"latency_ms"`
	Tokens    int     `json:"tokens"`
	Response  string  `json:"response,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// NewJSONLWriter creates the file, truncating any previous contents.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create jsonl %q: %w", path, err)
	}
	return &JSONLWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// WriteRun appends one JSON line per item result.
func (jw *JSONLWriter) WriteRun(runID string, run *benchmark.RunResult) error {
	if jw == nil {
		return errors.New("report: nil jsonl writer")
	}
	if run == nil {
		return errors.New("report: nil run result")
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, item := range run.Items {
		row := jsonlRow{
			RunID:     runID,
			Model:     run.Model,
			Benchmark: run.Benchmark,
			Strength:  run.Strength,
			ItemID:    item.ID,
			Category:  item.Category,
			Score:     item.Score,
			Passed:    item.Passed,
			Ambiguous: item.Ambiguous,
			LatencyMs: item.Latency.Milliseconds(),
			Tokens:    item.Tokens,
			Response:  item.Response,
			Error:     item.Error,
		}
		if err := jw.enc.Encode(&row); err != nil {
			return fmt.Errorf("report: write jsonl row: %w", err)
		}
	}
	return jw.file.Sync()
}

// Close closes the underlying file.
func (jw *JSONLWriter) Close() error {
	if jw == nil {
		return nil
	}
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.file.Close()
}
