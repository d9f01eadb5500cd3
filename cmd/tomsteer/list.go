package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/benchmark"
	"github.com/cognalign/tomsteer/internal/steering"
)

func newListCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List supported benchmarks and saved steering vectors",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, st)
		},
	}
}

func runList(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("list: missing config (internal error)")
	}

	out := cmd.OutOrStdout()

	datasets := []benchmark.Dataset{
		&benchmark.ToMiDataset{},
		&benchmark.FANToMDataset{},
		&benchmark.SimpleToMDataset{},
		&benchmark.ToMBenchDataset{},
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tDESCRIPTION")
	for _, d := range datasets {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name(), d.Description())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	vectorDir := strings.TrimSpace(st.cfg.Extraction.VectorDir)
	entries, err := os.ReadDir(vectorDir)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = fmt.Fprintf(out, "\nNo steering vectors in %s.\n", vectorDir)
			return nil
		}
		return fmt.Errorf("list: read %q: %w", vectorDir, err)
	}

	_, _ = fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VECTOR\tMODEL\tLAYERS\tDIM\tPAIRS")
	found := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		vs, err := steering.Load(filepath.Join(vectorDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\tunreadable: %v\n", entry.Name(), err)
			found++
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\n",
			entry.Name(), vs.Model, joinLayers(vs.Layers), vs.Dim, vs.UsedPairs, vs.PairCount)
		found++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if found == 0 {
		_, _ = fmt.Fprintf(out, "No steering vectors in %s.\n", vectorDir)
	}
	return nil
}

func joinLayers(layers []int) string {
	if len(layers) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(layers))
	for _, l := range layers {
		parts = append(parts, fmt.Sprintf("%d", l))
	}
	return strings.Join(parts, ",")
}
