package record

import (
	"math"
	"strings"

	"github.com/iwvelando/contract-analytics/pkg/mathutil"
)

const (
	KindContract = "contract"
	KindVendor   = "vendor"
)

// Drop reasons.
const (
	ReasonMissingID      = "missing identifier"
	ReasonDuplicateID    = "duplicate identifier"
	ReasonNegativeValue  = "negative value"
	ReasonEndBeforeStart = "end before start"
)

// Normalize converts a raw batch into canonical records. It never fails:
// records that cannot be represented are dropped and listed in the report.
// The raw maps are not modified.
func Normalize(raw RawBatch) (Batch, Report) {
	var report Report
	batch := Batch{
		Contracts: make([]Contract, 0, len(raw.Contracts)),
		Vendors:   make([]Vendor, 0, len(raw.Vendors)),
	}

	seen := make(map[string]struct{}, len(raw.Contracts))
	for i, r := range raw.Contracts {
		report.Contracts.Read++
		c, reason := normalizeContract(r)
		if reason == "" {
			if _, dup := seen[c.ID]; dup {
				reason = ReasonDuplicateID
			}
		}
		if reason != "" {
			report.Contracts.Dropped++
			report.Drops = append(report.Drops, Drop{Kind: KindContract, Index: i, ID: c.ID, Reason: reason})
			continue
		}
		seen[c.ID] = struct{}{}
		batch.Contracts = append(batch.Contracts, c)
	}
	report.Contracts.Kept = len(batch.Contracts)

	derived := vendorSpendFromContracts(batch.Contracts)
	seen = make(map[string]struct{}, len(raw.Vendors))
	for i, r := range raw.Vendors {
		report.Vendors.Read++
		v, stored := normalizeVendor(r)
		reason := ""
		if v.ID == "" {
			reason = ReasonMissingID
		} else if _, dup := seen[v.ID]; dup {
			reason = ReasonDuplicateID
		}
		if reason != "" {
			report.Vendors.Dropped++
			report.Drops = append(report.Drops, Drop{Kind: KindVendor, Index: i, ID: v.ID, Reason: reason})
			continue
		}
		if !stored {
			v.TotalSpend = derived[v.ID]
			v.SpendDerived = true
		}
		seen[v.ID] = struct{}{}
		batch.Vendors = append(batch.Vendors, v)
	}
	report.Vendors.Kept = len(batch.Vendors)

	return batch, report
}

// normalizeContract returns the canonical contract and, when the record must
// be dropped, the reason.
func normalizeContract(r Raw) (Contract, string) {
	c := Contract{
		ID:        stringField(r, idKeys),
		Title:     stringField(r, titleKeys),
		Status:    Status(strings.ToLower(stringField(r, statusKeys))),
		VendorID:  referenceField(r, vendorRefKeys),
		Type:      strings.ToLower(stringField(r, contractTypeKeys)),
		Start:     timeField(r, startKeys),
		End:       timeField(r, endKeys),
		CreatedAt: timeField(r, createdKeys),
	}
	if c.ID == "" {
		return c, ReasonMissingID
	}
	if c.Status == "" {
		c.Status = DefaultStatus
	}
	if c.Type == "" {
		c.Type = DefaultContractType
	}

	if value, ok := numberField(r, valueKeys); ok && !math.IsNaN(value) && !math.IsInf(value, 0) {
		if value < 0 {
			return c, ReasonNegativeValue
		}
		c.Value = value
	}

	if c.Start != nil && c.End != nil && c.End.Before(*c.Start) {
		return c, ReasonEndBeforeStart
	}
	return c, ""
}

// normalizeVendor returns the canonical vendor and whether the source
// supplied a usable total spend.
func normalizeVendor(r Raw) (Vendor, bool) {
	v := Vendor{
		ID:          stringField(r, idKeys),
		Name:        stringField(r, vendorNameKeys),
		Category:    strings.ToLower(stringField(r, categoryKeys)),
		Performance: scoreField(r, performanceKeys),
		Compliance:  scoreField(r, complianceKeys),
		Risk:        riskIndicator(r),
	}
	if v.Category == "" {
		v.Category = DefaultCategory
	}

	spend, ok := numberField(r, spendKeys)
	if !ok || spend < 0 || math.IsNaN(spend) || math.IsInf(spend, 0) {
		return v, false
	}
	v.TotalSpend = spend
	return v, true
}

func scoreField(r Raw, keys []string) float64 {
	n, ok := numberField(r, keys)
	if !ok || math.IsNaN(n) {
		return 0
	}
	return mathutil.ClampScore(n)
}

// riskIndicator accepts either a risk level label or a numeric score.
func riskIndicator(r Raw) float64 {
	v, ok := lookup(r, riskKeys)
	if !ok {
		return 0
	}
	if score, ok := RiskLevel(strings.ToLower(toString(v))).Score(); ok {
		return score
	}
	n, ok := toFloat(v)
	if !ok || math.IsNaN(n) {
		return 0
	}
	return mathutil.ClampScore(n)
}

func vendorSpendFromContracts(contracts []Contract) map[string]float64 {
	spend := make(map[string]float64)
	for _, c := range contracts {
		if c.HasVendor() {
			spend[c.VendorID] += c.Value
		}
	}
	return spend
}
