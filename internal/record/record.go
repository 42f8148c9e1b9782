// Package record defines the canonical contract and vendor records consumed
// by the analytics components and normalizes loosely typed source records
// into them.
package record

import (
	"time"
)

// Status is the lifecycle state of a contract.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusExpired   Status = "expired"
	StatusDraft     Status = "draft"
	StatusCancelled Status = "cancelled"
)

// Statuses returns the known statuses in display order.
func Statuses() []Status {
	return []Status{StatusActive, StatusPending, StatusExpired, StatusDraft, StatusCancelled}
}

// Known reports whether s is one of the enumerated statuses.
func (s Status) Known() bool {
	switch s {
	case StatusActive, StatusPending, StatusExpired, StatusDraft, StatusCancelled:
		return true
	}
	return false
}

const (
	// DefaultStatus is applied when a contract has no status.
	DefaultStatus = StatusDraft

	// DefaultContractType is applied when a contract has no type label.
	DefaultContractType = "other"

	// DefaultCategory is applied when a vendor has no category.
	DefaultCategory = "uncategorized"
)

// RiskLevel is a categorical vendor risk indicator.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Score maps a risk level onto the 0-100 numeric scale.
func (l RiskLevel) Score() (float64, bool) {
	switch l {
	case RiskLow:
		return 20, true
	case RiskMedium:
		return 50, true
	case RiskHigh:
		return 80, true
	}
	return 0, false
}

// Contract is a normalized contract. Timestamps are UTC and nil when absent
// or unparsable. End is never before Start when both are set.
type Contract struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Value     float64    `json:"value"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	VendorID  string     `json:"vendorId,omitempty"`
	Type      string     `json:"type"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// HasVendor reports whether the contract references a vendor.
func (c Contract) HasVendor() bool {
	return c.VendorID != ""
}

// Vendor is a normalized vendor. Scores are within [0, 100].
type Vendor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Performance float64 `json:"performance"`
	Compliance  float64 `json:"compliance"`
	Risk        float64 `json:"risk"`
	TotalSpend  float64 `json:"totalSpend"`
	// SpendDerived is set when TotalSpend was summed from contracts rather
	// than supplied by the source.
	SpendDerived bool `json:"spendDerived"`
}

// Raw is a single loosely typed record as delivered by a source.
type Raw map[string]any

// RawBatch is the unnormalized input of one analytics cycle.
type RawBatch struct {
	Contracts []Raw `json:"contracts" yaml:"contracts"`
	Vendors   []Raw `json:"vendors" yaml:"vendors"`
}

// Batch is the normalized input of one analytics cycle.
type Batch struct {
	Contracts []Contract `json:"contracts"`
	Vendors   []Vendor   `json:"vendors"`
}

// Count tallies the records of one kind seen by the normalizer.
type Count struct {
	Read    int `json:"read"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Drop describes one record the normalizer discarded.
type Drop struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Report summarizes a normalization pass.
type Report struct {
	Contracts Count  `json:"contracts"`
	Vendors   Count  `json:"vendors"`
	Drops     []Drop `json:"drops,omitempty"`
}

// Dropped returns the total number of discarded records.
func (r Report) Dropped() int {
	return r.Contracts.Dropped + r.Vendors.Dropped
}
