package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultHistoryLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt        *sql.Stmt
	getRunStmt           *sql.Stmt
	benchmarkHistoryStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			benchmark TEXT NOT NULL,
			vector_path TEXT,
			strength REAL NOT NULL,
			accuracy REAL NOT NULL,
			total_items INTEGER NOT NULL,
			passed_items INTEGER NOT NULL,
			ambiguous_items INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			total_latency INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			item_results BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_benchmark ON runs(benchmark)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

const runColumns = `id, model, benchmark, vector_path, strength, accuracy, total_items, passed_items,
	ambiguous_items, total_tokens, total_latency, started_at, finished_at, item_results`

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (` + runColumns + `
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT ` + runColumns + `
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.benchmarkHistoryStmt,
			query: `
				SELECT ` + runColumns + `
				FROM runs
				WHERE benchmark = ?
				ORDER BY started_at DESC
				LIMIT ?
			`,
			errFmt: "store: prepare benchmark history: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.getRunStmt,
		s.benchmarkHistoryStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists one evaluation run. Runs are append-only.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if strings.TrimSpace(run.Model) == "" || strings.TrimSpace(run.Benchmark) == "" {
		return errors.New("store: missing model/benchmark")
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return errors.New("store: missing run timestamps")
	}

	itemJSON, err := json.Marshal(run.Items)
	if err != nil {
		return fmt.Errorf("store: marshal item results: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		run.Model,
		run.Benchmark,
		run.VectorPath,
		run.Strength,
		run.Accuracy,
		run.TotalItems,
		run.PassedItems,
		run.AmbiguousItems,
		run.TotalTokens,
		run.TotalLatency,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		itemJSON,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	rec, err := scanRunRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	model := strings.TrimSpace(filter.Model)
	benchmark := strings.TrimSpace(filter.Benchmark)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + runColumns + ` FROM runs WHERE 1=1`)

	var args []any
	if model != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, model)
	}
	if benchmark != "" {
		sb.WriteString(` AND benchmark = ?`)
		args = append(args, benchmark)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()
	return scanRunRows(rows)
}

// BenchmarkHistory returns recent runs of one benchmark.
func (s *SQLiteStore) BenchmarkHistory(ctx context.Context, benchmark string, limit int) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	benchmark = strings.TrimSpace(benchmark)
	if benchmark == "" {
		return nil, errors.New("store: empty benchmark")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.benchmarkHistoryStmt.QueryContext(ctx, benchmark, limit)
	if err != nil {
		return nil, fmt.Errorf("store: benchmark history: %w", err)
	}
	defer rows.Close()
	return scanRunRows(rows)
}

// CompareRuns diffs per-item outcomes between two runs of the same benchmark.
func (s *SQLiteStore) CompareRuns(ctx context.Context, baselineID, steeredID string) (*RunComparison, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	baseline, err := s.GetRun(ctx, baselineID)
	if err != nil {
		return nil, err
	}
	steered, err := s.GetRun(ctx, steeredID)
	if err != nil {
		return nil, err
	}
	if baseline.Benchmark != steered.Benchmark {
		return nil, fmt.Errorf("store: runs cover different benchmarks %q and %q", baseline.Benchmark, steered.Benchmark)
	}

	regressions, improvements := compareItemOutcomes(baseline.Items, steered.Items)

	return &RunComparison{
		Baseline:      baseline,
		Steered:       steered,
		AccuracyDelta: steered.Accuracy - baseline.Accuracy,
		Regressions:   regressions,
		Improvements:  improvements,
	}, nil
}

type runScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(row runScanner) (*RunRecord, error) {
	var (
		id             string
		model          string
		benchmark      string
		vectorPath     sql.NullString
		strength       float64
		accuracy       float64
		totalItems     int
		passedItems    int
		ambiguousItems int
		totalTokens    int
		totalLatency   int64
		startedAtMS    int64
		finishedAtMS   int64
		itemJSON       []byte
	)
	if err := row.Scan(
		&id,
		&model,
		&benchmark,
		&vectorPath,
		&strength,
		&accuracy,
		&totalItems,
		&passedItems,
		&ambiguousItems,
		&totalTokens,
		&totalLatency,
		&startedAtMS,
		&finishedAtMS,
		&itemJSON,
	); err != nil {
		return nil, err
	}

	items, err := decodeItemResults(itemJSON)
	if err != nil {
		return nil, fmt.Errorf("store: decode item results: %w", err)
	}

	return &RunRecord{
		ID:             id,
		Model:          model,
		Benchmark:      benchmark,
		VectorPath:     vectorPath.String,
		Strength:       strength,
		Accuracy:       accuracy,
		TotalItems:     totalItems,
		PassedItems:    passedItems,
		AmbiguousItems: ambiguousItems,
		TotalTokens:    totalTokens,
		TotalLatency:   totalLatency,
		StartedAt:      time.UnixMilli(startedAtMS).UTC(),
		FinishedAt:     time.UnixMilli(finishedAtMS).UTC(),
		Items:          items,
	}, nil
}

func scanRunRows(rows *sql.Rows) ([]*RunRecord, error) {
	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan run rows: %w", err)
	}
	return out, nil
}

func decodeItemResults(itemJSON []byte) ([]ItemRecord, error) {
	if len(itemJSON) == 0 {
		return nil, nil
	}
	var out []ItemRecord
	if err := json.Unmarshal(itemJSON, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compareItemOutcomes(baseline, steered []ItemRecord) ([]string, []string) {
	base := make(map[string]bool)
	for _, it := range baseline {
		base[it.ItemID] = it.Passed
	}
	after := make(map[string]bool)
	for _, it := range steered {
		after[it.ItemID] = it.Passed
	}

	var regressions []string
	var improvements []string
	for itemID, basePassed := range base {
		afterPassed, ok := after[itemID]
		if !ok {
			continue
		}
		if basePassed && !afterPassed {
			regressions = append(regressions, itemID)
		}
		if !basePassed && afterPassed {
			improvements = append(improvements, itemID)
		}
	}

	sort.Strings(regressions)
	sort.Strings(improvements)
	return regressions, improvements
}
