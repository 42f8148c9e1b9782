// Package constants provides shared constants for the contract-analytics application.
package constants

// MonthLayout is the month key format used for every monthly series.
const MonthLayout = "2006-01"

// Analytics defaults
const (
	// DefaultForecastHorizon is the number of months projected forward
	DefaultForecastHorizon = 6

	// MinForecastPoints is the minimum number of historical months needed to forecast
	MinForecastPoints = 3

	// DefaultTrendThreshold is the slope-to-mean percentage below which a trend is stable
	DefaultTrendThreshold = 5.0

	// DefaultVendorlessThreshold is the fraction of vendorless contracts that raises a health issue
	DefaultVendorlessThreshold = 0.2

	// DefaultHighValueThreshold is the contract value above which a contract counts as high risk
	DefaultHighValueThreshold = 100000.0

	// DefaultComplianceFloor is the compliance score below which a vendor counts as non-compliant
	DefaultComplianceFloor = 70.0
)

// DefaultExpiringDays returns the default "expiring soon" horizons in days.
func DefaultExpiringDays() []int {
	return []int{7, 30, 90}
}

// DefaultValueEdges returns the default value distribution bucket edges.
func DefaultValueEdges() []float64 {
	return []float64{10000, 50000, 250000}
}

// Savings policy defaults
const (
	// DefaultConsolidationMinVendors is the number of vendors in one category that suggests consolidation
	DefaultConsolidationMinVendors = 3

	// DefaultConsolidationRate is the share of category spend recoverable by consolidating vendors
	DefaultConsolidationRate = 0.10

	// DefaultRenegotiationScoreFloor is the performance score below which a vendor is renegotiated
	DefaultRenegotiationScoreFloor = 60.0

	// DefaultRenegotiationRate is the share of vendor spend recoverable by renegotiation
	DefaultRenegotiationRate = 0.05

	// DefaultDuplicateRate is the share of overlapping contract spend recoverable by merging
	DefaultDuplicateRate = 0.15
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Source driver constants
const (
	SourceDriverFile     = "file"
	SourceDriverPostgres = "postgres"
	SourceDriverSQLite   = "sqlite"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "CONTRACT_ANALYTICS"

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (4 MB)
	DefaultMaxUploadSizeBytes int64 = 4 * 1024 * 1024

	// DefaultRequestsPerSecond is the sustained rate for analysis endpoints
	DefaultRequestsPerSecond = 5.0

	// DefaultRequestBurst is the burst size for analysis endpoints
	DefaultRequestBurst = 10
)

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MaxScore is the upper bound of every 0-100 score
	MaxScore = 100.0
)
