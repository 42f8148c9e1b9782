package adapters

import (
	"testing"

	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/internal/config"
	"github.com/iwvelando/contract-analytics/internal/risk"
)

func TestEngineOptionsDefaults(t *testing.T) {
	conf, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	got := EngineOptions(*conf)
	want := analytics.DefaultOptions()

	if got.Forecast != want.Forecast {
		t.Errorf("Forecast = %+v, expected %+v", got.Forecast, want.Forecast)
	}
	if got.Spend != want.Spend {
		t.Errorf("Spend = %+v, expected %+v", got.Spend, want.Spend)
	}
	if got.Risk != want.Risk {
		t.Errorf("Risk = %+v, expected %+v", got.Risk, want.Risk)
	}
	if len(got.Stats.ExpiringDays) != len(want.Stats.ExpiringDays) {
		t.Errorf("ExpiringDays = %v, expected %v", got.Stats.ExpiringDays, want.Stats.ExpiringDays)
	}
	if got.Now == nil {
		t.Error("expected a clock")
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default options should validate, got %v", err)
	}
}

func TestEngineOptionsOverrides(t *testing.T) {
	conf := config.Configuration{
		Source: config.SourceConfig{Tenant: "acme"},
		Analytics: config.AnalyticsConfig{
			ForecastHorizon:     12,
			MinForecastPoints:   4,
			TrendThreshold:      2.5,
			ExpiringDays:        []int{14},
			ValueBuckets:        []float64{1000},
			VendorlessThreshold: 0.5,
			HighValueThreshold:  75000,
			ComplianceFloor:     80,
			RiskWeights:         config.RiskWeights{VendorRisk: 3},
			Savings: config.SavingsConfig{
				ConsolidationMinVendors: 5,
				ConsolidationRate:       0.2,
				RenegotiationScoreFloor: 50,
				RenegotiationRate:       0.1,
				DuplicateRate:           0.3,
			},
		},
	}

	got := EngineOptions(conf)

	if got.Tenant != "acme" {
		t.Errorf("Tenant = %q, expected acme", got.Tenant)
	}
	if got.Forecast.Horizon != 12 || got.Forecast.MinPoints != 4 || got.Forecast.TrendThreshold != 2.5 {
		t.Errorf("Forecast = %+v", got.Forecast)
	}
	if got.Risk.Weights != (risk.Weights{VendorRisk: 3}) {
		t.Errorf("Weights = %+v", got.Risk.Weights)
	}
	if got.Risk.ComplianceFloor != 80 || got.Risk.HighValueThreshold != 75000 {
		t.Errorf("Risk = %+v", got.Risk)
	}
	if got.Spend.Savings.ConsolidationMinVendors != 5 || got.Spend.Savings.DuplicateRate != 0.3 {
		t.Errorf("Savings = %+v", got.Spend.Savings)
	}
	if got.Stats.VendorlessThreshold != 0.5 || got.Stats.ExpiringDays[0] != 14 || got.Stats.ValueEdges[0] != 1000 {
		t.Errorf("Stats = %+v", got.Stats)
	}
}

func TestStatsOptionsCopiesSlices(t *testing.T) {
	a := config.AnalyticsConfig{ExpiringDays: []int{7}, ValueBuckets: []float64{10}}
	opts := StatsOptions(a)
	opts.ExpiringDays[0] = 99
	opts.ValueEdges[0] = 99

	if a.ExpiringDays[0] != 7 || a.ValueBuckets[0] != 10 {
		t.Error("StatsOptions should not alias the configuration slices")
	}
}
