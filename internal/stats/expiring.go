package stats

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/contract-analytics/pkg/datetime"
	"github.com/rotisserie/eris"
)

// ExpiringBucket counts contracts ending within Days of now.
type ExpiringBucket struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// Key is the presentation key of the bucket, e.g. "next30Days".
func (b ExpiringBucket) Key() string {
	return fmt.Sprintf("next%dDays", b.Days)
}

// Expiring holds one bucket per configured horizon, shortest first.
type Expiring struct {
	Buckets []ExpiringBucket
}

func newExpiring(days []int) Expiring {
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)

	e := Expiring{Buckets: make([]ExpiringBucket, 0, len(sorted))}
	for i, d := range sorted {
		if i > 0 && d == sorted[i-1] {
			continue
		}
		e.Buckets = append(e.Buckets, ExpiringBucket{Days: d})
	}
	return e
}

// add counts end in every bucket whose window [now, now+days] contains it.
func (e *Expiring) add(end, now time.Time) {
	if end.Before(now) {
		return
	}
	for i := range e.Buckets {
		if !end.After(datetime.AddDays(now, e.Buckets[i].Days)) {
			e.Buckets[i].Count++
		}
	}
}

// Within returns the count for the given horizon, or 0 when the horizon is
// not configured.
func (e Expiring) Within(days int) int {
	for _, b := range e.Buckets {
		if b.Days == days {
			return b.Count
		}
	}
	return 0
}

// MarshalJSON renders the buckets as an object keyed by Key.
func (e Expiring) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(e.Buckets))
	for _, b := range e.Buckets {
		out[b.Key()] = b.Count
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores buckets written by MarshalJSON.
func (e *Expiring) UnmarshalJSON(data []byte) error {
	var in map[string]int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Buckets = make([]ExpiringBucket, 0, len(in))
	for key, count := range in {
		var days int
		if _, err := fmt.Sscanf(key, "next%dDays", &days); err != nil {
			return eris.Errorf("stats: invalid expiring bucket key %q", key)
		}
		e.Buckets = append(e.Buckets, ExpiringBucket{Days: days, Count: count})
	}
	sort.Slice(e.Buckets, func(i, j int) bool { return e.Buckets[i].Days < e.Buckets[j].Days })
	return nil
}
