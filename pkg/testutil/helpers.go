// Package testutil provides common fixtures and lookups for testing.
package testutil

import (
	"time"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/spend"
)

// FixedNow is the reference time of the sample portfolio.
var FixedNow = time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)

// Clock returns a clock frozen at FixedNow.
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// SampleBatch returns a small raw portfolio spanning four months of contract
// creation. It mixes field spellings the way real sources do and includes one
// contract without an ID. Each call returns a fresh copy.
func SampleBatch() record.RawBatch {
	return record.RawBatch{
		Contracts: []record.Raw{
			{
				"id": "c-1", "title": "Cloud hosting", "status": "active", "value": 120000.0,
				"start_date": "2025-01-01", "end_date": "2026-01-01",
				"vendor_id": "v-1", "contract_type": "service", "created_at": "2025-01-15T09:30:00Z",
			},
			{
				"id": "c-2", "title": "Office licenses", "status": "Active", "contractValue": 30000,
				"startDate": "2025-02-01", "endDate": "2025-10-20",
				"vendorId": "v-2", "contractType": "license", "createdAt": "2025-02-10",
			},
			{
				"id": "c-3", "title": "Support renewal", "status": "pending", "amount": "45000",
				"end": "2025-12-31", "vendor": "v-1", "type": "service", "created": "2025-03-05",
			},
			{
				"id": "c-4", "title": "Consulting", "status": "expired", "value": 8000,
				"start_date": "2025-01-01", "end_date": "2025-04-30",
				"contract_type": "consulting", "created_at": "2025-04-01",
			},
			{
				"id": "c-5", "title": "Printer maintenance", "value": "$2,500",
				"vendor_id": "v-3", "contract_type": "service", "created_at": "2025-04-20",
			},
			{"title": "Unnamed draft", "value": 100},
		},
		Vendors: []record.Raw{
			{
				"id": "v-1", "name": "Acme Hosting", "category": "infrastructure",
				"performance_score": 85, "compliance_score": 90, "risk_level": "low",
			},
			{
				"id": "v-2", "name": "Globex Licensing", "category": "software",
				"performanceScore": 55, "complianceScore": 65, "riskScore": 40, "totalSpend": 30000,
			},
			{
				"id": "v-3", "name": "Initech", "performance": 70, "compliance": 80, "risk": "high",
			},
		},
	}
}

// FindOpportunity finds an opportunity by kind and subject.
// Returns a pointer to the opportunity if found, nil otherwise.
func FindOpportunity(opportunities []spend.Opportunity, kind, subject string) *spend.Opportunity {
	for i := range opportunities {
		if opportunities[i].Kind == kind && opportunities[i].Subject == subject {
			return &opportunities[i]
		}
	}
	return nil
}
