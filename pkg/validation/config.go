// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/contract-analytics/internal/config"
	"github.com/iwvelando/contract-analytics/pkg/adapters"
	"github.com/iwvelando/contract-analytics/pkg/constants"
)

// ValidateSourceDriver checks if the source driver is supported.
func ValidateSourceDriver(driver string) error {
	switch driver {
	case constants.SourceDriverFile, constants.SourceDriverPostgres, constants.SourceDriverSQLite:
		return nil
	}
	return fmt.Errorf("expected source driver of %s, %s or %s, got %s",
		constants.SourceDriverFile, constants.SourceDriverPostgres, constants.SourceDriverSQLite, driver)
}

// ValidateLogging checks the logging level and format.
func ValidateLogging(logging config.LoggingConfig) error {
	switch logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", logging.Level)
	}
	switch logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", logging.Format)
	}
	return nil
}

// ValidateOptions returns the first hard configuration error, if any.
// Softer problems are reported by Configuration.ValidateConfiguration.
func ValidateOptions(conf config.Configuration) error {
	if err := ValidateLogging(conf.Logging); err != nil {
		return err
	}
	if err := ValidateOutputFormat(conf.Output.Format); err != nil {
		return err
	}
	if err := ValidateSourceDriver(conf.Source.Driver); err != nil {
		return err
	}
	if err := adapters.EngineOptions(conf).Validate(); err != nil {
		return fmt.Errorf("invalid analytics configuration: %w", err)
	}
	return nil
}
