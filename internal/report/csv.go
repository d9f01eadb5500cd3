package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/cognalign/tomsteer/internal/benchmark"
)

// CSVWriter streams per-item results to a CSV file. Writes are flushed
// immediately so a crashed run still leaves usable output.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var csvHeader = []string{
	"run_id", "model", "benchmark", "strength",
	"item_id", "category", "score", "passed", "ambiguous",
	"latency_ms", "tokens", "response", "error",
}

// NewCSVWriter creates the file, truncating any previous contents, and
// writes the header row.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create csv %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: write csv header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: flush csv header: %w", err)
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRun appends one row per item result.
func (cw *CSVWriter) WriteRun(runID string, run *benchmark.RunResult) error {
	if cw == nil {
		return errors.New("report: nil csv writer")
	}
	if run == nil {
		return errors.New("report: nil run result")
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, item := range run.Items {
		record := []string{
			runID,
			run.Model,
			run.Benchmark,
			strconv.FormatFloat(run.Strength, 'f', -1, 64),
			item.ID,
			item.Category,
			strconv.FormatFloat(item.Score, 'f', -1, 64),
			strconv.FormatBool(item.Passed),
			strconv.FormatBool(item.Ambiguous),
			strconv.FormatInt(item.Latency.Milliseconds(), 10),
			strconv.Itoa(item.Tokens),
			item.Response,
			item.Error,
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("report: write csv row: %w", err)
		}
	}

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (cw *CSVWriter) Close() error {
	if cw == nil {
		return nil
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		_ = cw.file.Close()
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return cw.file.Close()
}
