package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/internal/config"
	"github.com/cognalign/tomsteer/internal/logger"
)

type cliState struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "tomsteer",
		Short:         "Extract and evaluate theory-of-mind steering vectors",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newPairsCmd(st))
	root.AddCommand(newExtractCmd(st))
	root.AddCommand(newEvalCmd(st))
	root.AddCommand(newSweepCmd(st))
	root.AddCommand(newListCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

// loadConfig is the shared PreRunE for every subcommand.
func (st *cliState) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	st.log = logger.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}
