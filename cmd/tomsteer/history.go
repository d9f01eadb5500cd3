package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/store"
)

type historyOptions struct {
	benchmark string
	model     string
	limit     int
	since     string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:               "history",
		Short:             "Show past evaluation runs",
		Args:              cobra.NoArgs,
		PersistentPreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "benchmark name to filter")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name to filter")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max runs to list")
	cmd.Flags().StringVar(&opts.since, "since", "", "only runs since date (YYYY-MM-DD or RFC3339)")

	cmd.AddCommand(newHistoryShowCmd(st))
	cmd.AddCommand(newHistoryCompareCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-item details for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func newHistoryCompareCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <baseline-run-id> <steered-run-id>",
		Short: "Compare item outcomes between two runs of the same benchmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryCompare(cmd, st, args[0], args[1])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	filter := store.RunFilter{
		Model:     strings.TrimSpace(opts.model),
		Benchmark: strings.TrimSpace(opts.benchmark),
		Since:     since,
		Limit:     opts.limit,
	}
	runs, err := db.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tSTARTED\tBENCHMARK\tMODEL\tSTRENGTH\tACCURACY\tITEMS\tAMBIG")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.4f\t%d\t%d\n",
			r.ID,
			formatTime(r.StartedAt),
			r.Benchmark,
			r.Model,
			r.Strength,
			r.Accuracy,
			r.TotalItems,
			r.AmbiguousItems,
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("history: run %q not found", runID)
		}
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run: %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Benchmark: %s model=%s strength=%.2f\n", run.Benchmark, run.Model, run.Strength)
	if run.VectorPath != "" {
		_, _ = fmt.Fprintf(out, "Vector: %s\n", run.VectorPath)
	}
	_, _ = fmt.Fprintf(out, "Started: %s\n", formatTime(run.StartedAt))
	_, _ = fmt.Fprintf(out, "Finished: %s\n", formatTime(run.FinishedAt))
	_, _ = fmt.Fprintf(out, "Items: %d passed=%d ambiguous=%d accuracy=%.4f latency_ms=%d tokens=%d\n",
		run.TotalItems, run.PassedItems, run.AmbiguousItems, run.Accuracy, run.TotalLatency, run.TotalTokens)

	if len(run.Items) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tRESULT\tSCORE\tLAT(ms)\tTOKENS\tERROR")
	for _, ir := range run.Items {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%d\t%d\t%s\n",
			ir.ItemID,
			itemStatusLabel(ir),
			ir.Score,
			ir.LatencyMs,
			ir.Tokens,
			ir.Error,
		)
	}
	return tw.Flush()
}

func runHistoryCompare(cmd *cobra.Command, st *cliState, baselineID, steeredID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cmp, err := db.CompareRuns(cmd.Context(), strings.TrimSpace(baselineID), strings.TrimSpace(steeredID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("history: run not found")
		}
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Benchmark: %s\n", cmp.Baseline.Benchmark)
	_, _ = fmt.Fprintf(out, "Baseline: %s strength=%.2f accuracy=%.4f\n", cmp.Baseline.ID, cmp.Baseline.Strength, cmp.Baseline.Accuracy)
	_, _ = fmt.Fprintf(out, "Steered:  %s strength=%.2f accuracy=%.4f\n", cmp.Steered.ID, cmp.Steered.Strength, cmp.Steered.Accuracy)
	_, _ = fmt.Fprintf(out, "Accuracy delta: %+.4f\n", cmp.AccuracyDelta)
	if len(cmp.Improvements) > 0 {
		_, _ = fmt.Fprintf(out, "Improvements (%d): %s\n", len(cmp.Improvements), strings.Join(cmp.Improvements, ", "))
	}
	if len(cmp.Regressions) > 0 {
		_, _ = fmt.Fprintf(out, "Regressions (%d): %s\n", len(cmp.Regressions), strings.Join(cmp.Regressions, ", "))
	}
	if len(cmp.Improvements) == 0 && len(cmp.Regressions) == 0 {
		_, _ = fmt.Fprintln(out, "No item outcomes changed.")
	}
	return nil
}

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("history: invalid --since %q (expected YYYY-MM-DD or RFC3339)", s)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}

func itemStatusLabel(ir store.ItemRecord) string {
	switch {
	case ir.Ambiguous:
		return "AMBIG"
	case ir.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}
