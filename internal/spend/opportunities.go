package spend

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/iwvelando/contract-analytics/pkg/format"
	"github.com/iwvelando/contract-analytics/pkg/mathutil"
	"github.com/rotisserie/eris"
)

// Opportunity kinds, in the order they are reported.
const (
	KindConsolidation = "consolidation"
	KindRenegotiation = "renegotiation"
	KindDuplicate     = "duplicate"
)

// Opportunity is a heuristic savings suggestion.
type Opportunity struct {
	Kind             string  `json:"kind"`
	Subject          string  `json:"subject"`
	Description      string  `json:"description"`
	PotentialSavings float64 `json:"potentialSavings"`
}

// SavingsPolicy holds the coefficients of the savings heuristics. The
// defaults are placeholders to be tuned per tenant.
type SavingsPolicy struct {
	// ConsolidationMinVendors is the number of distinct vendors within one
	// contract type that suggests consolidating.
	ConsolidationMinVendors int     `json:"consolidationMinVendors"`
	ConsolidationRate       float64 `json:"consolidationRate"`
	// RenegotiationScoreFloor is the vendor performance score below which
	// renegotiation is suggested.
	RenegotiationScoreFloor float64 `json:"renegotiationScoreFloor"`
	RenegotiationRate       float64 `json:"renegotiationRate"`
	DuplicateRate           float64 `json:"duplicateRate"`
}

// DefaultSavingsPolicy returns the default coefficients.
func DefaultSavingsPolicy() SavingsPolicy {
	return SavingsPolicy{
		ConsolidationMinVendors: constants.DefaultConsolidationMinVendors,
		ConsolidationRate:       constants.DefaultConsolidationRate,
		RenegotiationScoreFloor: constants.DefaultRenegotiationScoreFloor,
		RenegotiationRate:       constants.DefaultRenegotiationRate,
		DuplicateRate:           constants.DefaultDuplicateRate,
	}
}

// Validate checks that every rate is a fraction and every threshold usable.
func (p SavingsPolicy) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"consolidation rate", p.ConsolidationRate},
		{"renegotiation rate", p.RenegotiationRate},
		{"duplicate rate", p.DuplicateRate},
	}
	for _, r := range rates {
		if r.value < 0 || r.value > 1 {
			return eris.Errorf("spend: %s must be within [0, 1], got %v", r.name, r.value)
		}
	}
	if p.ConsolidationMinVendors < 2 {
		return eris.Errorf("spend: consolidation needs at least 2 vendors, got %d", p.ConsolidationMinVendors)
	}
	return nil
}

func findOpportunities(contracts []record.Contract, vendors []record.Vendor, p SavingsPolicy) []Opportunity {
	out := []Opportunity{}
	out = append(out, consolidation(contracts, p)...)
	out = append(out, renegotiation(vendors, p)...)
	out = append(out, duplicates(contracts, p)...)
	return out
}

// consolidation flags contract types spread across many vendors.
func consolidation(contracts []record.Contract, p SavingsPolicy) []Opportunity {
	vendorsByType := make(map[string]map[string]struct{})
	spendByType := make(map[string]float64)
	for _, c := range contracts {
		if !c.HasVendor() {
			continue
		}
		if vendorsByType[c.Type] == nil {
			vendorsByType[c.Type] = make(map[string]struct{})
		}
		vendorsByType[c.Type][c.VendorID] = struct{}{}
		spendByType[c.Type] += c.Value
	}

	var out []Opportunity
	for _, category := range sortedKeys(vendorsByType) {
		n := len(vendorsByType[category])
		if n < p.ConsolidationMinVendors {
			continue
		}
		out = append(out, Opportunity{
			Kind:             KindConsolidation,
			Subject:          category,
			Description:      fmt.Sprintf("Consolidate %d vendors for %s contracts", n, category),
			PotentialSavings: savings(spendByType[category], p.ConsolidationRate),
		})
	}
	return out
}

// renegotiation flags underperforming vendors that still carry spend.
func renegotiation(vendors []record.Vendor, p SavingsPolicy) []Opportunity {
	sorted := append([]record.Vendor(nil), vendors...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []Opportunity
	for _, v := range sorted {
		if v.Performance >= p.RenegotiationScoreFloor || v.TotalSpend <= 0 {
			continue
		}
		name := v.Name
		if name == "" {
			name = v.ID
		}
		out = append(out, Opportunity{
			Kind:    KindRenegotiation,
			Subject: v.ID,
			Description: fmt.Sprintf("Renegotiate terms with %s (performance %.0f, spend %s)",
				name, v.Performance, format.Currency(v.TotalSpend)),
			PotentialSavings: savings(v.TotalSpend, p.RenegotiationRate),
		})
	}
	return out
}

// duplicates flags several contracts of the same type with the same vendor.
func duplicates(contracts []record.Contract, p SavingsPolicy) []Opportunity {
	groups := make(map[string][]float64)
	for _, c := range contracts {
		if !c.HasVendor() {
			continue
		}
		key := c.VendorID + "/" + c.Type
		groups[key] = append(groups[key], c.Value)
	}

	var out []Opportunity
	for _, key := range sortedKeys(groups) {
		values := groups[key]
		if len(values) < 2 {
			continue
		}
		var sum, largest float64
		for _, v := range values {
			sum += v
			largest = math.Max(largest, v)
		}
		out = append(out, Opportunity{
			Kind:             KindDuplicate,
			Subject:          key,
			Description:      fmt.Sprintf("Merge %d overlapping contracts (%s)", len(values), key),
			PotentialSavings: savings(sum-largest, p.DuplicateRate),
		})
	}
	return out
}

func savings(amount, rate float64) float64 {
	s := mathutil.Round(amount * rate)
	if s < 0 {
		return 0
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
