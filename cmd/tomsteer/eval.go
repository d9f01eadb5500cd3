package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/benchmark"
	"github.com/cognalign/tomsteer/internal/llm"
	"github.com/cognalign/tomsteer/internal/report"
	"github.com/cognalign/tomsteer/internal/steering"
	"github.com/cognalign/tomsteer/internal/store"
)

type evalOptions struct {
	benchmark  string
	provider   string
	model      string
	vector     string
	strength   float64
	sampleSize int
	csvPath    string
	jsonlPath  string
	output     string
}

func newEvalCmd(st *cliState) *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:     "eval",
		Short:   "Run a benchmark, optionally with a steering vector applied",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "benchmark: "+strings.Join(benchmark.Names(), "|"))
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().StringVar(&opts.vector, "vector", "", "steering vector file (optional)")
	cmd.Flags().Float64Var(&opts.strength, "strength", 0, "steering strength (0 = baseline)")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "sample size (0 = config default)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write per-item results to a CSV file")
	cmd.Flags().StringVar(&opts.jsonlPath, "jsonl", "", "write per-item results to a JSONL file")
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json (overrides config)")
	_ = cmd.MarkFlagRequired("benchmark")

	return cmd
}

func runEval(cmd *cobra.Command, st *cliState, opts *evalOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("eval: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("eval: nil options")
	}

	format, err := resolveOutputFormat(opts.output, st.cfg.Evaluation.OutputFormat)
	if err != nil {
		return err
	}

	ds, err := resolveDataset(st, opts.benchmark, opts.sampleSize)
	if err != nil {
		return err
	}

	provider, modelName, err := evalProviderFromConfig(st.cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	vectors, err := loadVectors(opts.vector)
	if err != nil {
		return err
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if st.cfg.Evaluation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.cfg.Evaluation.Timeout)
		defer cancel()
	}

	runID, res, err := executeRun(ctx, st, db, ds, provider, modelName, vectors, opts.vector, opts.strength)
	if err != nil {
		return err
	}

	if err := writeReports(runID, res, opts.csvPath, opts.jsonlPath); err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), FormatRunResult(runID, res, format))
	return nil
}

// executeRun runs one evaluation and persists the record; shared with sweep.
func executeRun(ctx context.Context, st *cliState, db store.Store, ds benchmark.Dataset, provider llm.Provider, modelName string, vectors *steering.VectorSet, vectorPath string, strength float64) (string, *benchmark.RunResult, error) {
	r := &benchmark.Runner{
		Provider: provider,
		Vectors:  vectors,
		Strength: strength,
		Log:      st.log,
	}

	startedAt := time.Now()
	res, err := r.Run(ctx, ds)
	if err != nil {
		return "", nil, err
	}
	res.Model = modelName

	runID := newRunID(res.Benchmark)
	rec := recordFromResult(runID, vectorPath, startedAt, res)
	if err := db.SaveRun(ctx, rec); err != nil {
		return "", nil, err
	}

	st.log.Info().
		Str("run_id", runID).
		Str("benchmark", res.Benchmark).
		Float64("accuracy", res.Accuracy).
		Float64("strength", res.Strength).
		Msg("run saved")
	return runID, res, nil
}

func resolveDataset(st *cliState, name string, sampleSize int) (benchmark.Dataset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if sampleSize <= 0 {
		sampleSize = st.cfg.Evaluation.SampleSize
	}

	var judge llm.Provider
	if name == "fantom" {
		j, err := judgeProviderFromConfig(st.cfg)
		if err != nil {
			return nil, err
		}
		judge = j
	}

	return benchmark.FromName(name, sampleSize, judge)
}

func loadVectors(path string) (*steering.VectorSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	return steering.Load(path)
}

func writeReports(runID string, res *benchmark.RunResult, csvPath, jsonlPath string) error {
	if csvPath = strings.TrimSpace(csvPath); csvPath != "" {
		cw, err := report.NewCSVWriter(csvPath)
		if err != nil {
			return err
		}
		if err := cw.WriteRun(runID, res); err != nil {
			_ = cw.Close()
			return err
		}
		if err := cw.Close(); err != nil {
			return err
		}
	}

	if jsonlPath = strings.TrimSpace(jsonlPath); jsonlPath != "" {
		jw, err := report.NewJSONLWriter(jsonlPath)
		if err != nil {
			return err
		}
		if err := jw.WriteRun(runID, res); err != nil {
			_ = jw.Close()
			return err
		}
		if err := jw.Close(); err != nil {
			return err
		}
	}

	return nil
}
