// Package stats computes portfolio-level contract statistics: status counts,
// value distribution, expiring-soon horizons and health indicators.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/iwvelando/contract-analytics/pkg/datetime"
	"github.com/iwvelando/contract-analytics/pkg/format"
	"github.com/iwvelando/contract-analytics/pkg/mathutil"
	"github.com/rotisserie/eris"
)

// StatusOther collects contracts whose status is outside the enumeration.
const StatusOther = "other"

// Health status values.
const (
	HealthHealthy   = "healthy"
	HealthAttention = "attention"
)

// Options configures the aggregator.
type Options struct {
	// ExpiringDays lists the "expiring soon" horizons in days.
	ExpiringDays []int `json:"expiringDays"`
	// ValueEdges are the ascending bucket boundaries of the value distribution.
	ValueEdges []float64 `json:"valueEdges"`
	// VendorlessThreshold is the fraction of contracts without a vendor
	// above which a health issue is raised.
	VendorlessThreshold float64 `json:"vendorlessThreshold"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ExpiringDays:        constants.DefaultExpiringDays(),
		ValueEdges:          constants.DefaultValueEdges(),
		VendorlessThreshold: constants.DefaultVendorlessThreshold,
	}
}

// Validate checks that the options can be applied.
func (o Options) Validate() error {
	for _, days := range o.ExpiringDays {
		if days <= 0 {
			return eris.Errorf("stats: expiring horizon must be positive, got %d", days)
		}
	}
	for i := 1; i < len(o.ValueEdges); i++ {
		if o.ValueEdges[i] <= o.ValueEdges[i-1] {
			return eris.Errorf("stats: value edges must be strictly ascending, got %v", o.ValueEdges)
		}
	}
	if o.VendorlessThreshold < 0 || o.VendorlessThreshold > 1 {
		return eris.Errorf("stats: vendorless threshold must be within [0, 1], got %v", o.VendorlessThreshold)
	}
	return nil
}

// Stats is the aggregated view of a contract portfolio.
type Stats struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"byStatus"`
	TotalValue        float64        `json:"totalValue"`
	AverageValue      float64        `json:"averageValue"`
	ValueDistribution []ValueBucket  `json:"valueDistribution"`
	Expiring          Expiring       `json:"expiring"`
	Health            Health         `json:"health"`
	MonthlyVolume     []MonthCount   `json:"monthlyVolume"`
}

// ValueBucket counts contracts whose value lies in [Min, Max). Max is zero
// for the open-ended top bucket.
type ValueBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Health lists the triggered portfolio health checks.
type Health struct {
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

// MonthCount is the number of contracts created in a month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Compute aggregates the contracts relative to now.
func Compute(contracts []record.Contract, opts Options, now time.Time) (Stats, error) {
	if err := opts.Validate(); err != nil {
		return Stats{}, err
	}

	s := Stats{
		Total:             len(contracts),
		ByStatus:          make(map[string]int, len(record.Statuses())+1),
		ValueDistribution: newValueBuckets(opts.ValueEdges),
		Expiring:          newExpiring(opts.ExpiringDays),
		MonthlyVolume:     []MonthCount{},
	}
	for _, status := range record.Statuses() {
		s.ByStatus[string(status)] = 0
	}
	s.ByStatus[StatusOther] = 0

	now = now.UTC()
	monthly := make(map[string]int)
	var vendorless, staleActive, unknownStatus int

	for _, c := range contracts {
		status := c.Status
		if status == "" {
			status = record.DefaultStatus
		}
		if status.Known() {
			s.ByStatus[string(status)]++
		} else {
			s.ByStatus[StatusOther]++
			unknownStatus++
		}

		s.TotalValue += c.Value
		s.addValue(c.Value)

		if c.End != nil {
			s.Expiring.add(*c.End, now)
			if status == record.StatusActive && c.End.Before(now) {
				staleActive++
			}
		}

		if !c.HasVendor() {
			vendorless++
		}

		if c.CreatedAt != nil {
			monthly[datetime.MonthKey(*c.CreatedAt)]++
		}
	}

	if s.Total > 0 {
		s.AverageValue = mathutil.Round(s.TotalValue / float64(s.Total))
	}
	s.TotalValue = mathutil.Round(s.TotalValue)
	for i := range s.ValueDistribution {
		s.ValueDistribution[i].Value = mathutil.Round(s.ValueDistribution[i].Value)
	}

	months := make([]string, 0, len(monthly))
	for month := range monthly {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		s.MonthlyVolume = append(s.MonthlyVolume, MonthCount{Month: month, Count: monthly[month]})
	}

	s.Health = checkHealth(checks{
		total:               s.Total,
		vendorless:          vendorless,
		vendorlessThreshold: opts.VendorlessThreshold,
		staleActive:         staleActive,
		unknownStatus:       unknownStatus,
		expiring:            s.Expiring,
	})

	return s, nil
}

func newValueBuckets(edges []float64) []ValueBucket {
	buckets := make([]ValueBucket, 0, len(edges)+1)
	if len(edges) == 0 {
		return append(buckets, ValueBucket{Label: "all"})
	}
	buckets = append(buckets, ValueBucket{Label: "<" + format.Compact(edges[0]), Max: edges[0]})
	for i := 1; i < len(edges); i++ {
		buckets = append(buckets, ValueBucket{
			Label: format.Compact(edges[i-1]) + "-" + format.Compact(edges[i]),
			Min:   edges[i-1],
			Max:   edges[i],
		})
	}
	last := edges[len(edges)-1]
	return append(buckets, ValueBucket{Label: ">=" + format.Compact(last), Min: last})
}

func (s *Stats) addValue(value float64) {
	idx := len(s.ValueDistribution) - 1
	for i, b := range s.ValueDistribution[:idx] {
		if value < b.Max {
			idx = i
			break
		}
	}
	s.ValueDistribution[idx].Count++
	s.ValueDistribution[idx].Value += value
}

type checks struct {
	total               int
	vendorless          int
	vendorlessThreshold float64
	staleActive         int
	unknownStatus       int
	expiring            Expiring
}

// checkHealth runs the health checks in a fixed order.
func checkHealth(c checks) Health {
	h := Health{Status: HealthHealthy, Issues: []string{}}

	if c.total > 0 && mathutil.Ratio(c.vendorless, c.total) > c.vendorlessThreshold {
		h.Issues = append(h.Issues, fmt.Sprintf("%d of %d contracts have no assigned vendor", c.vendorless, c.total))
	}
	if c.staleActive > 0 {
		h.Issues = append(h.Issues, fmt.Sprintf("%d active contracts are past their end date", c.staleActive))
	}
	if len(c.expiring.Buckets) > 0 {
		first := c.expiring.Buckets[0]
		if first.Count > 0 {
			h.Issues = append(h.Issues, fmt.Sprintf("%d contracts expire within %d days", first.Count, first.Days))
		}
	}
	if c.unknownStatus > 0 {
		h.Issues = append(h.Issues, fmt.Sprintf("%d contracts have an unrecognized status", c.unknownStatus))
	}

	if len(h.Issues) > 0 {
		h.Status = HealthAttention
	}
	return h
}
