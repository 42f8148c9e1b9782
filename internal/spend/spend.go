// Package spend breaks contract spend down by category, vendor and month and
// flags savings opportunities.
package spend

import (
	"sort"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/pkg/datetime"
	"github.com/iwvelando/contract-analytics/pkg/mathutil"
)

// UnassignedVendor groups contracts without a vendor in the vendor breakdown.
const UnassignedVendor = "unassigned"

// Options configures the analyzer.
type Options struct {
	Savings SavingsPolicy `json:"savings"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{Savings: DefaultSavingsPolicy()}
}

// Analysis is the spend view of a contract portfolio.
type Analysis struct {
	TotalSpend    float64         `json:"totalSpend"`
	ByCategory    []CategorySpend `json:"byCategory"`
	ByVendor      []VendorSpend   `json:"byVendor"`
	MonthlyTrend  []MonthlySpend  `json:"monthlyTrend"`
	Opportunities []Opportunity   `json:"opportunities"`
}

// CategorySpend is the spend of one contract type.
type CategorySpend struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage int     `json:"percentage"`
}

// VendorSpend is the contract spend attributed to one vendor.
type VendorSpend struct {
	VendorID   string  `json:"vendorId"`
	VendorName string  `json:"vendorName,omitempty"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage int     `json:"percentage"`
}

// MonthlySpend is the value of contracts created in a month.
type MonthlySpend struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// TotalPotentialSavings sums the savings of every opportunity.
func (a Analysis) TotalPotentialSavings() float64 {
	var total float64
	for _, o := range a.Opportunities {
		total += o.PotentialSavings
	}
	return mathutil.Round(total)
}

// Analyze computes the spend analysis. Every contract given counts towards
// the totals; callers pre-filter when only some statuses should count.
func Analyze(contracts []record.Contract, vendors []record.Vendor, opts Options) (Analysis, error) {
	if err := opts.Savings.Validate(); err != nil {
		return Analysis{}, err
	}

	var total float64
	for _, c := range contracts {
		total += c.Value
	}

	a := Analysis{
		TotalSpend:   mathutil.Round(total),
		ByCategory:   byCategory(contracts, total),
		ByVendor:     byVendor(contracts, vendors, total),
		MonthlyTrend: monthlyTrend(contracts),
	}
	a.Opportunities = findOpportunities(contracts, vendors, opts.Savings)
	return a, nil
}

func byCategory(contracts []record.Contract, total float64) []CategorySpend {
	index := make(map[string]int)
	out := []CategorySpend{}
	for _, c := range contracts {
		i, ok := index[c.Type]
		if !ok {
			i = len(out)
			index[c.Type] = i
			out = append(out, CategorySpend{Category: c.Type})
		}
		out[i].Amount += c.Value
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = mathutil.RoundedPercentage(out[i].Amount, total)
		out[i].Amount = mathutil.Round(out[i].Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func byVendor(contracts []record.Contract, vendors []record.Vendor, total float64) []VendorSpend {
	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}

	index := make(map[string]int)
	out := []VendorSpend{}
	for _, c := range contracts {
		id := c.VendorID
		if id == "" {
			id = UnassignedVendor
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, VendorSpend{VendorID: id, VendorName: names[c.VendorID]})
		}
		out[i].Amount += c.Value
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = mathutil.RoundedPercentage(out[i].Amount, total)
		out[i].Amount = mathutil.Round(out[i].Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].VendorID < out[j].VendorID
	})
	return out
}

// monthlyTrend sums contract values per creation month. Months without
// contracts are not synthesized.
func monthlyTrend(contracts []record.Contract) []MonthlySpend {
	sums := make(map[string]float64)
	for _, c := range contracts {
		if c.CreatedAt == nil {
			continue
		}
		sums[datetime.MonthKey(*c.CreatedAt)] += c.Value
	}

	months := make([]string, 0, len(sums))
	for month := range sums {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]MonthlySpend, 0, len(months))
	for _, month := range months {
		out = append(out, MonthlySpend{Month: month, Amount: mathutil.Round(sums[month])})
	}
	return out
}
