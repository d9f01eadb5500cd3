package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/llm"
	"github.com/cognalign/tomsteer/internal/pairs"
	"github.com/cognalign/tomsteer/internal/steering"
)

type extractOptions struct {
	pairsDir string
	layers   []int
	provider string
	model    string
	limit    int
	out      string
}

func newExtractCmd(st *cliState) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:     "extract",
		Short:   "Extract steering vectors from contrastive pair activations",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.pairsDir, "pairs", "", "directory with grouped pair JSONL files")
	cmd.Flags().IntSliceVar(&opts.layers, "layers", nil, "layer indices to capture (overrides config)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "max pairs to use (0 = config pair_limit)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output vector file (default <vector_dir>/tom_steering.json)")
	_ = cmd.MarkFlagRequired("pairs")

	return cmd
}

func runExtract(cmd *cobra.Command, st *cliState, opts *extractOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("extract: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("extract: nil options")
	}

	layers := opts.layers
	if len(layers) == 0 {
		layers = st.cfg.Extraction.Layers
	}
	if len(layers) == 0 {
		return fmt.Errorf("extract: no layers (set --layers or extraction.layers in config)")
	}

	limit := opts.limit
	if limit <= 0 {
		limit = st.cfg.Extraction.PairLimit
	}

	provider, modelName, err := evalProviderFromConfig(st.cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}
	capturer, ok := provider.(llm.ActivationCapturer)
	if !ok {
		return fmt.Errorf("extract: provider %q cannot capture activations (use the steer provider)", provider.Name())
	}

	pairSet, err := pairs.LoadPairs(opts.pairsDir, limit)
	if err != nil {
		return err
	}
	st.log.Info().Int("pairs", len(pairSet)).Ints("layers", layers).Str("model", modelName).Msg("starting extraction")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if st.cfg.Extraction.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.cfg.Extraction.Timeout)
		defer cancel()
	}

	ex, err := steering.NewExtractor(capturer, layers, st.log)
	if err != nil {
		return err
	}
	vs, err := ex.Extract(ctx, pairSet)
	if err != nil {
		return err
	}

	outPath := opts.out
	if outPath == "" {
		outPath = filepath.Join(st.cfg.Extraction.VectorDir, "tom_steering.json")
	}
	if err := vs.Save(outPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Vectors saved: %s (model=%s pairs_used=%d/%d dim=%d)\n",
		outPath, vs.Model, vs.UsedPairs, vs.PairCount, vs.Dim)
	for _, layer := range vs.Layers {
		_, _ = fmt.Fprintf(out, "  layer %d: norm=%.4f\n", layer, steering.L2Norm(vs.Layer(layer)))
	}

	return nil
}
