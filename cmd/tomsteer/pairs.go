package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/pairs"
)

type pairsOptions struct {
	dataDir string
	outDir  string
	split   string
}

func newPairsCmd(st *cliState) *cobra.Command {
	var opts pairsOptions

	cmd := &cobra.Command{
		Use:     "pairs",
		Short:   "Build contrastive ToM/non-ToM pairs from raw ToMi data",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPairs(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory with ToMi txt and trace files")
	cmd.Flags().StringVar(&opts.outDir, "out", "data/pairs", "output directory for grouped JSONL files")
	cmd.Flags().StringVar(&opts.split, "split", "test", "data split to read")
	_ = cmd.MarkFlagRequired("data-dir")

	return cmd
}

func runPairs(cmd *cobra.Command, st *cliState, opts *pairsOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("pairs: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("pairs: nil options")
	}

	examples, err := pairs.LoadNative(opts.dataDir, opts.split)
	if err != nil {
		return err
	}
	st.log.Info().Int("examples", len(examples)).Str("split", opts.split).Msg("loaded native data")

	groups := pairs.GroupByBaseType(examples)
	if len(groups) == 0 {
		return fmt.Errorf("pairs: no pairable question types in %q", opts.dataDir)
	}

	summary, err := pairs.WriteGrouped(opts.outDir, opts.split, len(examples), groups)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Wrote %d groups to %s (tom=%d no_tom=%d of %d read)\n",
		len(summary.Groups), opts.outDir, summary.TotalToM, summary.TotalNonToM, summary.TotalRead)
	for _, key := range pairs.SortedKeys(groups) {
		sizes := summary.Groups[key]
		_, _ = fmt.Fprintf(out, "  %s: tom=%d no_tom=%d\n", key, sizes.ToM, sizes.NoToM)
	}

	st.log.Info().Str("out", opts.outDir).Msg("pair extraction complete")
	return nil
}
