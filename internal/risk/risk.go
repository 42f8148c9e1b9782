// Package risk scores portfolio risk from vendor risk indicators, contract
// value concentration and vendor compliance.
package risk

import (
	"sort"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/iwvelando/contract-analytics/pkg/mathutil"
	"github.com/rotisserie/eris"
)

// Factor names.
const (
	FactorVendorRisk = "vendor_risk"
	FactorHighValue  = "high_value"
	FactorCompliance = "compliance"
)

// Risk levels derived from the overall score.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Level boundaries on the overall score.
const (
	mediumFrom = 34.0
	highFrom   = 67.0
)

// Weights are the relative importance of each factor in the overall score.
type Weights struct {
	VendorRisk float64 `json:"vendorRisk"`
	HighValue  float64 `json:"highValue"`
	Compliance float64 `json:"compliance"`
}

// EqualWeights weighs every factor the same.
func EqualWeights() Weights {
	return Weights{VendorRisk: 1, HighValue: 1, Compliance: 1}
}

func (w Weights) sum() float64 {
	return w.VendorRisk + w.HighValue + w.Compliance
}

// Options configures the scorer.
type Options struct {
	Weights            Weights `json:"weights"`
	HighValueThreshold float64 `json:"highValueThreshold"`
	ComplianceFloor    float64 `json:"complianceFloor"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Weights:            EqualWeights(),
		HighValueThreshold: constants.DefaultHighValueThreshold,
		ComplianceFloor:    constants.DefaultComplianceFloor,
	}
}

// Validate rejects negative weights and thresholds.
func (o Options) Validate() error {
	if o.Weights.VendorRisk < 0 || o.Weights.HighValue < 0 || o.Weights.Compliance < 0 {
		return eris.Errorf("risk: weights must be non-negative, got %+v", o.Weights)
	}
	if o.HighValueThreshold < 0 {
		return eris.Errorf("risk: high value threshold must be non-negative, got %v", o.HighValueThreshold)
	}
	if o.ComplianceFloor < 0 || o.ComplianceFloor > constants.MaxScore {
		return eris.Errorf("risk: compliance floor must be within [0, 100], got %v", o.ComplianceFloor)
	}
	return nil
}

// Factor is one contributor to the overall score.
type Factor struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	// Contribution is the share of the overall score this factor accounts for.
	Contribution float64 `json:"contribution"`
}

// Analysis is the risk view of a portfolio.
type Analysis struct {
	Overall         float64  `json:"overall"`
	Level           string   `json:"level"`
	Factors         []Factor `json:"factors"`
	Dominant        string   `json:"dominant,omitempty"`
	HighRiskVendors []string `json:"highRiskVendors"`
}

// Factor returns the named factor.
func (a Analysis) Factor(name string) (Factor, bool) {
	for _, f := range a.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}

// Score computes the overall risk analysis.
func Score(contracts []record.Contract, vendors []record.Vendor, opts Options) (Analysis, error) {
	if err := opts.Validate(); err != nil {
		return Analysis{}, err
	}

	weights := opts.Weights
	if weights.sum() == 0 {
		weights = EqualWeights()
	}

	factors := []Factor{
		{Name: FactorVendorRisk, Score: VendorRisk(vendors), Weight: weights.VendorRisk},
		{Name: FactorHighValue, Score: HighValueRatio(contracts, opts.HighValueThreshold), Weight: weights.HighValue},
		{Name: FactorCompliance, Score: ComplianceGap(vendors, opts.ComplianceFloor), Weight: weights.Compliance},
	}

	overall := Combine(factors)

	a := Analysis{
		Overall:         mathutil.Round(overall),
		Level:           level(overall),
		Factors:         factors,
		HighRiskVendors: highRiskVendors(vendors, opts.ComplianceFloor),
	}

	var top float64
	total := weights.sum()
	for i := range a.Factors {
		f := &a.Factors[i]
		contribution := f.Score * f.Weight / total
		f.Contribution = mathutil.Round(contribution)
		f.Score = mathutil.Round(f.Score)
		if contribution > top {
			top = contribution
			a.Dominant = f.Name
		}
	}
	return a, nil
}

// Combine returns the weighted mean of the factor scores, clamped to
// [0, 100]. With non-negative weights it never decreases when a factor
// score increases.
func Combine(factors []Factor) float64 {
	var weighted, total float64
	for _, f := range factors {
		weighted += f.Score * f.Weight
		total += f.Weight
	}
	if total == 0 {
		return 0
	}
	return mathutil.ClampScore(weighted / total)
}

// VendorRisk is the mean vendor risk indicator, 0 without vendors.
func VendorRisk(vendors []record.Vendor) float64 {
	if len(vendors) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vendors {
		sum += v.Risk
	}
	return mathutil.ClampScore(sum / float64(len(vendors)))
}

// HighValueRatio is the percentage of contracts valued above threshold.
func HighValueRatio(contracts []record.Contract, threshold float64) float64 {
	n := 0
	for _, c := range contracts {
		if c.Value > threshold {
			n++
		}
	}
	return mathutil.Ratio(n, len(contracts)) * constants.PercentageMultiplier
}

// ComplianceGap is the percentage of vendors with compliance below floor.
func ComplianceGap(vendors []record.Vendor, floor float64) float64 {
	n := 0
	for _, v := range vendors {
		if v.Compliance < floor {
			n++
		}
	}
	return mathutil.Ratio(n, len(vendors)) * constants.PercentageMultiplier
}

func level(overall float64) string {
	switch {
	case overall >= highFrom:
		return LevelHigh
	case overall >= mediumFrom:
		return LevelMedium
	}
	return LevelLow
}

func highRiskVendors(vendors []record.Vendor, floor float64) []string {
	ids := []string{}
	for _, v := range vendors {
		if v.Risk >= highFrom || v.Compliance < floor {
			ids = append(ids, v.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
