package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognalign/tomsteer/api"
	"github.com/cognalign/tomsteer/internal/store"
)

type serveOptions struct {
	addr string
}

func newServeCmd(st *cliState) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve past results over a read-only HTTP API",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, st *cliState, opts *serveOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("serve: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("serve: nil options")
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := api.NewServer(st.cfg, db)
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(opts.addr)
	if addr == "" {
		addr = strings.TrimSpace(st.cfg.Server.Addr)
	}

	st.log.Info().Str("addr", addr).Msg("starting api server")
	return srv.Run(addr)
}
