package main

import (
	"fmt"

	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/internal/source"
	"github.com/iwvelando/contract-analytics/pkg/adapters"
	"github.com/iwvelando/contract-analytics/pkg/output"
	"github.com/iwvelando/contract-analytics/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		outputFormat string
		driver       string
		path         string
		databaseURL  string
		tenant       string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analytics cycle over the configured source and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			const op = "main.analyze"

			// CLI flags take precedence over the configuration file
			if cmd.Flags().Changed("source") {
				conf.Source.Driver = driver
			}
			if cmd.Flags().Changed("path") {
				conf.Source.Path = path
			}
			if cmd.Flags().Changed("database-url") {
				conf.Source.DatabaseURL = databaseURL
			}
			if cmd.Flags().Changed("tenant") {
				conf.Source.Tenant = tenant
			}
			if outputFormat != "" {
				conf.Output.Format = outputFormat
			}
			if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
				return err
			}
			if err := validateConfiguration(op); err != nil {
				return err
			}

			ctx := cmd.Context()
			src, err := source.Open(ctx, conf.Source, logger)
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}
			defer func() {
				if err := src.Close(); err != nil {
					logger.Warn("failed to close source", zap.String("op", op), zap.Error(err))
				}
			}()

			raw, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load records: %w", err)
			}

			engine, err := analytics.New(logger, adapters.EngineOptions(*conf))
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.Run(ctx, raw)
			if err != nil {
				return fmt.Errorf("failed to compute analytics: %w", err)
			}

			return output.Write(cmd.OutOrStdout(), conf.Output.Format, result)
		},
	}

	cmd.Flags().StringVar(&outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.Flags().StringVar(&driver, "source", "", "source driver override: file, postgres, sqlite")
	cmd.Flags().StringVar(&path, "path", "", "file or sqlite database path override")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres connection string override")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant whose records are analyzed")
	return cmd
}
