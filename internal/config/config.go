// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for contract-analytics.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Source    SourceConfig    `yaml:"source,omitempty" mapstructure:"source"`
	Server    ServerConfig    `yaml:"server,omitempty" mapstructure:"server"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty" mapstructure:"analytics"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// SourceConfig selects where contract and vendor records are read from.
type SourceConfig struct {
	Driver      string `yaml:"driver,omitempty" mapstructure:"driver"` // file, postgres, sqlite
	Path        string `yaml:"path,omitempty" mapstructure:"path"`     // file or sqlite database path
	DatabaseURL string `yaml:"databaseURL,omitempty" mapstructure:"databaseURL"`
	Tenant      string `yaml:"tenant,omitempty" mapstructure:"tenant"`
}

// ServerConfig holds runtime parameters for the HTTP server.
type ServerConfig struct {
	Address           string  `yaml:"address,omitempty" mapstructure:"address"`
	MaxUploadSize     string  `yaml:"maxUploadSize,omitempty" mapstructure:"maxUploadSize"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond"`
	Burst             int     `yaml:"burst,omitempty" mapstructure:"burst"`
}

// AnalyticsConfig tunes the analytics components.
type AnalyticsConfig struct {
	ForecastHorizon     int           `yaml:"forecastHorizon,omitempty" mapstructure:"forecastHorizon"`
	MinForecastPoints   int           `yaml:"minForecastPoints,omitempty" mapstructure:"minForecastPoints"`
	TrendThreshold      float64       `yaml:"trendThreshold,omitempty" mapstructure:"trendThreshold"`
	ExpiringDays        []int         `yaml:"expiringDays,omitempty" mapstructure:"expiringDays"`
	ValueBuckets        []float64     `yaml:"valueBuckets,omitempty" mapstructure:"valueBuckets"`
	VendorlessThreshold float64       `yaml:"vendorlessThreshold,omitempty" mapstructure:"vendorlessThreshold"`
	HighValueThreshold  float64       `yaml:"highValueThreshold,omitempty" mapstructure:"highValueThreshold"`
	ComplianceFloor     float64       `yaml:"complianceFloor,omitempty" mapstructure:"complianceFloor"`
	RiskWeights         RiskWeights   `yaml:"riskWeights,omitempty" mapstructure:"riskWeights"`
	Savings             SavingsConfig `yaml:"savings,omitempty" mapstructure:"savings"`
}

// RiskWeights weighs the risk factors against each other.
type RiskWeights struct {
	VendorRisk float64 `yaml:"vendorRisk" mapstructure:"vendorRisk"`
	HighValue  float64 `yaml:"highValue" mapstructure:"highValue"`
	Compliance float64 `yaml:"compliance" mapstructure:"compliance"`
}

// SavingsConfig holds the savings opportunity heuristics.
type SavingsConfig struct {
	ConsolidationMinVendors int     `yaml:"consolidationMinVendors" mapstructure:"consolidationMinVendors"`
	ConsolidationRate       float64 `yaml:"consolidationRate" mapstructure:"consolidationRate"`
	RenegotiationScoreFloor float64 `yaml:"renegotiationScoreFloor" mapstructure:"renegotiationScoreFloor"`
	RenegotiationRate       float64 `yaml:"renegotiationRate" mapstructure:"renegotiationRate"`
	DuplicateRate           float64 `yaml:"duplicateRate" mapstructure:"duplicateRate"`
}

// newViper returns a viper instance with defaults and environment overrides
// applied. Every key has a default so that environment variables reach
// Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("source.driver", constants.SourceDriverFile)
	v.SetDefault("source.path", "")
	v.SetDefault("source.databaseURL", "")
	v.SetDefault("source.tenant", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("server.requestsPerSecond", constants.DefaultRequestsPerSecond)
	v.SetDefault("server.burst", constants.DefaultRequestBurst)
	v.SetDefault("analytics.forecastHorizon", constants.DefaultForecastHorizon)
	v.SetDefault("analytics.minForecastPoints", constants.MinForecastPoints)
	v.SetDefault("analytics.trendThreshold", constants.DefaultTrendThreshold)
	v.SetDefault("analytics.expiringDays", constants.DefaultExpiringDays())
	v.SetDefault("analytics.valueBuckets", constants.DefaultValueEdges())
	v.SetDefault("analytics.vendorlessThreshold", constants.DefaultVendorlessThreshold)
	v.SetDefault("analytics.highValueThreshold", constants.DefaultHighValueThreshold)
	v.SetDefault("analytics.complianceFloor", constants.DefaultComplianceFloor)
	v.SetDefault("analytics.riskWeights.vendorRisk", 1.0)
	v.SetDefault("analytics.riskWeights.highValue", 1.0)
	v.SetDefault("analytics.riskWeights.compliance", 1.0)
	v.SetDefault("analytics.savings.consolidationMinVendors", constants.DefaultConsolidationMinVendors)
	v.SetDefault("analytics.savings.consolidationRate", constants.DefaultConsolidationRate)
	v.SetDefault("analytics.savings.renegotiationScoreFloor", constants.DefaultRenegotiationScoreFloor)
	v.SetDefault("analytics.savings.renegotiationRate", constants.DefaultRenegotiationRate)
	v.SetDefault("analytics.savings.duplicateRate", constants.DefaultDuplicateRate)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path loads defaults and environment
// overrides only.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read %s", configPath)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, eris.Wrap(err, "config: read")
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	switch c.Source.Driver {
	case constants.SourceDriverFile:
		if c.Source.Path == "" {
			warnings = append(warnings, "source.path is empty; records must be supplied by another means")
		}
	case constants.SourceDriverSQLite:
		if c.Source.Path == "" {
			warnings = append(warnings, "source.path is empty; sqlite will open an in-memory database")
		}
		if c.Source.Tenant == "" {
			warnings = append(warnings, "source.tenant is empty; only rows with an empty tenant_id are read")
		}
	case constants.SourceDriverPostgres:
		if c.Source.DatabaseURL == "" {
			warnings = append(warnings, "source.databaseURL is empty; connection defaults from the PG* environment apply")
		}
		if c.Source.Tenant == "" {
			warnings = append(warnings, "source.tenant is empty; only rows with an empty tenant_id are read")
		}
	}

	a := c.Analytics
	if len(a.ExpiringDays) == 0 {
		warnings = append(warnings, "analytics.expiringDays is empty; no expiring-soon counts will be reported")
	}
	if a.ForecastHorizon > 36 {
		warnings = append(warnings, fmt.Sprintf("analytics.forecastHorizon of %d months extrapolates a linear trend far beyond typical history", a.ForecastHorizon))
	}
	if a.MinForecastPoints == 2 {
		warnings = append(warnings, "analytics.minForecastPoints of 2 always yields a perfect fit")
	}
	w := a.RiskWeights
	if w.VendorRisk == 0 && w.HighValue == 0 && w.Compliance == 0 {
		warnings = append(warnings, "analytics.riskWeights are all zero; factors are weighted equally")
	}

	return warnings
}
