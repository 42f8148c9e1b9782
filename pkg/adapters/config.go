// Package adapters provides adapter implementations between different package interfaces.
package adapters

import (
	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/internal/config"
	"github.com/iwvelando/contract-analytics/internal/forecast"
	"github.com/iwvelando/contract-analytics/internal/risk"
	"github.com/iwvelando/contract-analytics/internal/spend"
	"github.com/iwvelando/contract-analytics/internal/stats"
)

// EngineOptions converts the analytics section of the configuration into
// engine options with a wall clock.
func EngineOptions(conf config.Configuration) analytics.Options {
	a := conf.Analytics

	opts := analytics.DefaultOptions()
	opts.Tenant = conf.Source.Tenant
	opts.Stats = StatsOptions(a)
	opts.Spend = spend.Options{Savings: SavingsPolicy(a.Savings)}
	opts.Risk = RiskOptions(a)
	opts.Forecast = forecast.Options{
		Horizon:        a.ForecastHorizon,
		MinPoints:      a.MinForecastPoints,
		TrendThreshold: a.TrendThreshold,
	}
	return opts
}

// StatsOptions converts the stats related settings.
func StatsOptions(a config.AnalyticsConfig) stats.Options {
	return stats.Options{
		ExpiringDays:        append([]int(nil), a.ExpiringDays...),
		ValueEdges:          append([]float64(nil), a.ValueBuckets...),
		VendorlessThreshold: a.VendorlessThreshold,
	}
}

// RiskOptions converts the risk related settings.
func RiskOptions(a config.AnalyticsConfig) risk.Options {
	return risk.Options{
		Weights: risk.Weights{
			VendorRisk: a.RiskWeights.VendorRisk,
			HighValue:  a.RiskWeights.HighValue,
			Compliance: a.RiskWeights.Compliance,
		},
		HighValueThreshold: a.HighValueThreshold,
		ComplianceFloor:    a.ComplianceFloor,
	}
}

// SavingsPolicy converts the savings heuristics.
func SavingsPolicy(s config.SavingsConfig) spend.SavingsPolicy {
	return spend.SavingsPolicy{
		ConsolidationMinVendors: s.ConsolidationMinVendors,
		ConsolidationRate:       s.ConsolidationRate,
		RenegotiationScoreFloor: s.RenegotiationScoreFloor,
		RenegotiationRate:       s.RenegotiationRate,
		DuplicateRate:           s.DuplicateRate,
	}
}
