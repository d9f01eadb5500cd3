package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/store"
)

type sweepOptions struct {
	benchmark  string
	provider   string
	model      string
	vector     string
	strengths  []float64
	sampleSize int
}

func newSweepCmd(st *cliState) *cobra.Command {
	var opts sweepOptions

	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Evaluate a benchmark across several steering strengths",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "benchmark to sweep")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().StringVar(&opts.vector, "vector", "", "steering vector file")
	cmd.Flags().Float64SliceVar(&opts.strengths, "strengths", []float64{0, 1, 2, 4}, "strengths to evaluate, one run each")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "sample size (0 = config default)")
	_ = cmd.MarkFlagRequired("benchmark")
	_ = cmd.MarkFlagRequired("vector")

	return cmd
}

func runSweep(cmd *cobra.Command, st *cliState, opts *sweepOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("sweep: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("sweep: nil options")
	}
	if len(opts.strengths) == 0 {
		return fmt.Errorf("sweep: empty --strengths")
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

	rows := make([]sweepRow, 0, len(opts.strengths))
	for _, strength := range opts.strengths {
		runID, res, err := executeRun(ctx, st, db, ds, provider, modelName, vectors, opts.vector, strength)
		if err != nil {
			return fmt.Errorf("sweep: strength %.2f: %w", strength, err)
		}
		rows = append(rows, sweepRow{
			Strength:  strength,
			RunID:     runID,
			Accuracy:  res.Accuracy,
			Ambiguous: res.Ambiguous,
			Tokens:    res.TotalTokens,
			TimeMs:    res.TotalTime.Milliseconds(),
		})
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), formatSweepTable(ds.Name(), modelName, rows))
	return nil
}
