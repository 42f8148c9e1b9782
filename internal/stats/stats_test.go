package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func days(n int) *time.Time { return at(now.Add(time.Duration(n) * 24 * time.Hour)) }

func TestCompute_EmptyPortfolio(t *testing.T) {
	s, err := Compute(nil, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Zero(t, s.Total)
	assert.Equal(t, map[string]int{
		"active": 0, "pending": 0, "expired": 0, "draft": 0, "cancelled": 0, "other": 0,
	}, s.ByStatus)
	assert.Zero(t, s.TotalValue)
	assert.Zero(t, s.AverageValue)
	for _, b := range s.ValueDistribution {
		assert.Zero(t, b.Count, b.Label)
	}
	for _, b := range s.Expiring.Buckets {
		assert.Zero(t, b.Count, b.Key())
	}
	assert.Equal(t, HealthHealthy, s.Health.Status)
	assert.Empty(t, s.Health.Issues)
	assert.Empty(t, s.MonthlyVolume)
}

func TestCompute_SingleExpiringContract(t *testing.T) {
	contracts := []record.Contract{
		{ID: "c1", Status: record.StatusActive, VendorID: "v1", End: days(3)},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Expiring.Within(7))
	assert.Equal(t, 1, s.Expiring.Within(30))
	assert.Equal(t, 1, s.Expiring.Within(90))
}

func TestCompute_ExpiringBuckets(t *testing.T) {
	contracts := []record.Contract{
		{ID: "in7", VendorID: "v", End: days(7)},
		{ID: "in20", VendorID: "v", End: days(20)},
		{ID: "in60", VendorID: "v", End: days(60)},
		{ID: "in200", VendorID: "v", End: days(200)},
		{ID: "past", VendorID: "v", End: days(-1)},
		{ID: "open", VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Expiring.Within(7), "boundary day is inclusive")
	assert.Equal(t, 2, s.Expiring.Within(30))
	assert.Equal(t, 3, s.Expiring.Within(90))
	assert.Zero(t, s.Expiring.Within(14), "unconfigured horizon")
}

func TestCompute_StatusCounts(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1", Status: record.StatusActive, VendorID: "v"},
		{ID: "2", Status: record.StatusActive, VendorID: "v"},
		{ID: "3", Status: record.StatusPending, VendorID: "v"},
		{ID: "4", Status: record.StatusCancelled, VendorID: "v"},
		{ID: "5", Status: record.Status("on hold"), VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.ByStatus["active"])
	assert.Equal(t, 1, s.ByStatus["pending"])
	assert.Equal(t, 1, s.ByStatus["cancelled"])
	assert.Equal(t, 0, s.ByStatus["draft"])
	assert.Equal(t, 1, s.ByStatus[StatusOther])
	assert.NotContains(t, s.ByStatus, "on hold")
}

func TestCompute_EmptyStatusCountsAsDefault(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1", VendorID: "v"},
		{ID: "2", Status: record.StatusActive, VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, s.ByStatus[string(record.DefaultStatus)])
	assert.Zero(t, s.ByStatus[StatusOther])
	assert.Empty(t, s.Health.Issues)
}

func TestExpiringJSON_InvalidKey(t *testing.T) {
	var e Expiring
	assert.Error(t, json.Unmarshal([]byte(`{"soon":1}`), &e))
}

func TestCompute_ValueDistribution(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1", Value: 0, VendorID: "v"},
		{ID: "2", Value: 9999.99, VendorID: "v"},
		{ID: "3", Value: 10000, VendorID: "v"},
		{ID: "4", Value: 75000, VendorID: "v"},
		{ID: "5", Value: 250000, VendorID: "v"},
		{ID: "6", Value: 1000000, VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	require.Len(t, s.ValueDistribution, 4)
	labels := make([]string, 0, 4)
	counts := make([]int, 0, 4)
	for _, b := range s.ValueDistribution {
		labels = append(labels, b.Label)
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []string{"<10k", "10k-50k", "50k-250k", ">=250k"}, labels)
	assert.Equal(t, []int{2, 1, 1, 2}, counts)
	assert.InDelta(t, 1344999.99, s.TotalValue, 0.001)
	assert.InDelta(t, 224166.67, s.AverageValue, 0.01)
}

func TestCompute_HealthIssuesInOrder(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1", Status: record.StatusActive, End: days(-10)},
		{ID: "2", Status: record.StatusActive, End: days(2), VendorID: "v"},
		{ID: "3", Status: record.Status("zombie"), VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, HealthAttention, s.Health.Status)
	assert.Equal(t, []string{
		"1 of 3 contracts have no assigned vendor",
		"1 active contracts are past their end date",
		"1 contracts expire within 7 days",
		"1 contracts have an unrecognized status",
	}, s.Health.Issues)
}

func TestCompute_VendorlessThreshold(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1"},
		{ID: "2", VendorID: "v"},
		{ID: "3", VendorID: "v"},
		{ID: "4", VendorID: "v"},
		{ID: "5", VendorID: "v"},
	}

	opts := DefaultOptions()
	s, err := Compute(contracts, opts, now)
	require.NoError(t, err)
	assert.Empty(t, s.Health.Issues, "one in five is not above the threshold")

	opts.VendorlessThreshold = 0.1
	s, err = Compute(contracts, opts, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 of 5 contracts have no assigned vendor"}, s.Health.Issues)
}

func TestCompute_MonthlyVolume(t *testing.T) {
	contracts := []record.Contract{
		{ID: "1", VendorID: "v", CreatedAt: at(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))},
		{ID: "2", VendorID: "v", CreatedAt: at(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))},
		{ID: "3", VendorID: "v", CreatedAt: at(time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC))},
		{ID: "4", VendorID: "v"},
	}

	s, err := Compute(contracts, DefaultOptions(), now)
	require.NoError(t, err)

	assert.Equal(t, []MonthCount{
		{Month: "2025-01", Count: 1},
		{Month: "2025-03", Count: 2},
	}, s.MonthlyVolume)
}

func TestCompute_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"non-positive horizon", Options{ExpiringDays: []int{0}}},
		{"unsorted edges", Options{ValueEdges: []float64{50, 10}}},
		{"threshold above one", Options{VendorlessThreshold: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(nil, tt.opts, now)
			assert.Error(t, err)
		})
	}
}

func TestCompute_CustomHorizonsSortedAndDeduplicated(t *testing.T) {
	opts := DefaultOptions()
	opts.ExpiringDays = []int{60, 14, 60}

	s, err := Compute([]record.Contract{{ID: "1", VendorID: "v", End: days(10)}}, opts, now)
	require.NoError(t, err)

	assert.Equal(t, []ExpiringBucket{{Days: 14, Count: 1}, {Days: 60, Count: 1}}, s.Expiring.Buckets)
	assert.Equal(t, []string{"1 contracts expire within 14 days"}, s.Health.Issues)
}

func TestExpiringJSON(t *testing.T) {
	e := Expiring{Buckets: []ExpiringBucket{{Days: 7, Count: 1}, {Days: 30, Count: 2}}}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"next7Days":1,"next30Days":2}`, string(data))

	var decoded Expiring
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e, decoded)
}
