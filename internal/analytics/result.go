package analytics

import (
	"time"

	"github.com/iwvelando/contract-analytics/internal/forecast"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/risk"
	"github.com/iwvelando/contract-analytics/internal/spend"
	"github.com/iwvelando/contract-analytics/internal/stats"
)

// State is the lifecycle state of the latest cycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further updates follow s within a cycle.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Result is the complete output of one successful cycle. It depends only on
// the input batch, the options and the clock, so repeated runs over the same
// batch compare equal. The run ID and sequence number live on Snapshot.
type Result struct {
	GeneratedAt   time.Time       `json:"generatedAt"`
	Normalization record.Report   `json:"normalization"`
	Stats         stats.Stats     `json:"stats"`
	Spend         spend.Analysis  `json:"spend"`
	Risk          risk.Analysis   `json:"risk"`
	Forecast      forecast.Result `json:"forecast"`
}

// Progress is a state update of the latest cycle.
type Progress struct {
	Seq      uint64  `json:"seq"`
	RunID    string  `json:"runId"`
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
}

// Snapshot is the observable state of the engine.
type Snapshot struct {
	Seq      uint64  `json:"seq"`
	RunID    string  `json:"runId,omitempty"`
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
	Result   *Result `json:"result,omitempty"`
	Err      error   `json:"-"`
	Error    string  `json:"error,omitempty"`
}

func (s Snapshot) progress() Progress {
	return Progress{Seq: s.Seq, RunID: s.RunID, State: s.State, Progress: s.Progress}
}
