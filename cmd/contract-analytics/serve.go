package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/internal/server"
	"github.com/iwvelando/contract-analytics/pkg/adapters"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				conf.Server.Address = address
			}
			if err := validateConfiguration("main.serve"); err != nil {
				return err
			}

			cfg, err := server.NewConfig(conf.Server)
			if err != nil {
				return fmt.Errorf("invalid server configuration: %w", err)
			}

			engine, err := analytics.New(logger, adapters.EngineOptions(*conf))
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Serve(ctx, cfg, logger, engine, version)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}
