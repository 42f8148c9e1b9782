package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/contract-analytics/internal/forecast"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/risk"
	"github.com/iwvelando/contract-analytics/internal/spend"
	"github.com/iwvelando/contract-analytics/internal/stats"
	"github.com/iwvelando/contract-analytics/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = testutil.Clock()
	return opts
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(zaptest.NewLogger(t), testOptions())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestRun_EmptyPortfolio(t *testing.T) {
	e := newEngine(t)

	res, err := e.Run(context.Background(), record.RawBatch{})
	require.NoError(t, err)

	assert.Equal(t, testutil.FixedNow, res.GeneratedAt)

	assert.Zero(t, res.Stats.Total)
	assert.Equal(t, stats.HealthHealthy, res.Stats.Health.Status)
	assert.Zero(t, res.Spend.TotalSpend)
	assert.Zero(t, res.Risk.Overall)
	assert.Equal(t, risk.LevelLow, res.Risk.Level)
	assert.True(t, res.Forecast.Insufficient())

	snap := e.Snapshot()
	assert.Equal(t, uint64(1), snap.Seq)
	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, 100.0, snap.Progress)
	require.NotNil(t, snap.Result)
	assert.Equal(t, res, *snap.Result)
}

func TestRun_SamplePortfolio(t *testing.T) {
	e := newEngine(t)

	res, err := e.Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Normalization.Contracts.Kept)
	assert.Equal(t, 1, res.Normalization.Contracts.Dropped)
	assert.Equal(t, 5, res.Stats.Total)
	assert.InDelta(t, 205500.0, res.Spend.TotalSpend, 1e-9)
	assert.Len(t, res.Spend.MonthlyTrend, 4)

	require.NotNil(t, res.Forecast.Projection, res.Forecast.Error)
	assert.Equal(t, SpendHistory(res.Spend.MonthlyTrend), res.Forecast.Historical)
	assert.Len(t, res.Forecast.Forecast, forecast.DefaultOptions().Horizon)
	assert.Equal(t, "2025-05", res.Forecast.Forecast[0].Month)

	assert.Equal(t, []string{"v-2", "v-3"}, res.Risk.HighRiskVendors)
	assert.NotNil(t, testutil.FindOpportunity(res.Spend.Opportunities, spend.KindRenegotiation, "v-2"))
}

func TestRun_Idempotent(t *testing.T) {
	e := newEngine(t)

	first, err := e.Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)
	firstRun := e.Snapshot().RunID
	second, err := e.Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Equal(t, uint64(2), snap.Seq)
	assert.NotEqual(t, firstRun, snap.RunID)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated run differs (-first +second):\n%s", diff)
	}
}

func TestRun_IdempotentAcrossEngines(t *testing.T) {
	first, err := newEngine(t).Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)
	second, err := newEngine(t).Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs on separate engines differ (-first +second):\n%s", diff)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	e := newEngine(t)

	raw := testutil.SampleBatch()
	_, err := e.Run(context.Background(), raw)
	require.NoError(t, err)

	if diff := cmp.Diff(testutil.SampleBatch(), raw); diff != "" {
		t.Errorf("input changed (-want +got):\n%s", diff)
	}
}

func TestRun_Superseded(t *testing.T) {
	e := newEngine(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	base := e.tasks.stats
	e.tasks.stats = func(ctx context.Context, contracts []record.Contract, opts stats.Options, now time.Time) (stats.Stats, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return base(ctx, contracts, opts, now)
	}

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := e.Run(context.Background(), testutil.SampleBatch())
		first <- outcome{res, err}
	}()
	<-started

	second, err := e.Run(context.Background(), record.RawBatch{})
	require.NoError(t, err)

	close(release)
	a := <-first
	assert.ErrorIs(t, a.err, ErrSuperseded)
	assert.Equal(t, Result{}, a.res)

	snap := e.Snapshot()
	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, second, *snap.Result)
	assert.Zero(t, snap.Result.Stats.Total, "the older cycle never lands")
}

func TestRun_TaskFailure(t *testing.T) {
	e := newEngine(t)

	boom := errors.New("risk backend unavailable")
	e.tasks.risk = func(context.Context, record.Batch, risk.Options) (risk.Analysis, error) {
		return risk.Analysis{}, boom
	}

	res, err := e.Run(context.Background(), testutil.SampleBatch())
	assert.Same(t, boom, err, "the task error is surfaced as is")
	assert.Equal(t, Result{}, res)

	snap := e.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, boom.Error(), snap.Error)
	assert.Less(t, snap.Progress, 100.0)
}

func TestRun_StatsFailureStopsForecast(t *testing.T) {
	e := newEngine(t)

	boom := errors.New("stats exploded")
	var forecasted atomic.Bool
	e.tasks.stats = func(context.Context, []record.Contract, stats.Options, time.Time) (stats.Stats, error) {
		return stats.Stats{}, boom
	}
	e.tasks.forecast = func(context.Context, []forecast.Point, forecast.Options) (forecast.Result, error) {
		forecasted.Store(true)
		return forecast.Result{}, nil
	}

	_, err := e.Run(context.Background(), testutil.SampleBatch())
	assert.Same(t, boom, err)
	assert.False(t, forecasted.Load())
}

func TestRun_PanicBecomesError(t *testing.T) {
	e := newEngine(t)

	e.tasks.spend = func(context.Context, record.Batch, spend.Options) (spend.Analysis, error) {
		panic("nil vendor map")
	}

	_, err := e.Run(context.Background(), testutil.SampleBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spend task panicked")
	assert.Equal(t, StateFailed, e.Snapshot().State)
}

func TestRun_ForecastWaitsForStatsAndSpend(t *testing.T) {
	e := newEngine(t)

	var statsFinished, spendFinished atomic.Bool
	baseStats, baseSpend, baseForecast := e.tasks.stats, e.tasks.spend, e.tasks.forecast
	e.tasks.stats = func(ctx context.Context, c []record.Contract, o stats.Options, now time.Time) (stats.Stats, error) {
		time.Sleep(10 * time.Millisecond)
		defer statsFinished.Store(true)
		return baseStats(ctx, c, o, now)
	}
	e.tasks.spend = func(ctx context.Context, b record.Batch, o spend.Options) (spend.Analysis, error) {
		time.Sleep(20 * time.Millisecond)
		defer spendFinished.Store(true)
		return baseSpend(ctx, b, o)
	}

	var history []forecast.Point
	e.tasks.forecast = func(ctx context.Context, h []forecast.Point, o forecast.Options) (forecast.Result, error) {
		assert.True(t, statsFinished.Load(), "stats completed before forecast")
		assert.True(t, spendFinished.Load(), "spend completed before forecast")
		history = h
		return baseForecast(ctx, h, o)
	}

	res, err := e.Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)
	assert.Equal(t, SpendHistory(res.Spend.MonthlyTrend), history)
}

func TestRun_CancelledContext(t *testing.T) {
	e := newEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, testutil.SampleBatch())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, e.Snapshot().State)
}

func TestSubscribe_ProgressIsMonotonic(t *testing.T) {
	e := newEngine(t)

	updates, unsubscribe := e.Subscribe()
	defer unsubscribe()

	_, err := e.Run(context.Background(), testutil.SampleBatch())
	require.NoError(t, err)

	var seen []Progress
	for len(seen) == 0 || !seen[len(seen)-1].State.Terminal() {
		select {
		case p := <-updates:
			seen = append(seen, p)
		case <-time.After(time.Second):
			t.Fatalf("no terminal update, saw %+v", seen)
		}
	}

	assert.Equal(t, StateIdle, seen[0].State)
	last := seen[len(seen)-1]
	assert.Equal(t, StateSucceeded, last.State)
	assert.Equal(t, 100.0, last.Progress)

	for i := 1; i < len(seen); i++ {
		if seen[i].Seq == seen[i-1].Seq {
			assert.GreaterOrEqual(t, seen[i].Progress, seen[i-1].Progress, "update %d", i)
		}
	}
}

func TestSubscribe_SlowSubscriberSeesTerminal(t *testing.T) {
	e := newEngine(t)

	updates, unsubscribe := e.Subscribe()
	defer unsubscribe()

	for i := 0; i < 3; i++ {
		_, err := e.Run(context.Background(), record.RawBatch{})
		require.NoError(t, err)
	}

	var last Progress
	for len(updates) > 0 {
		last = <-updates
	}
	assert.Equal(t, uint64(3), last.Seq)
	assert.Equal(t, StateSucceeded, last.State)
}

func TestSubscribe_UnsubscribeClosesChannel(t *testing.T) {
	e := newEngine(t)

	updates, unsubscribe := e.Subscribe()
	unsubscribe()
	unsubscribe()

	for range updates {
	}
	_, err := e.Run(context.Background(), record.RawBatch{})
	require.NoError(t, err)
}

func TestSubmit_Wait(t *testing.T) {
	e := newEngine(t)

	seq := e.Submit(context.Background(), testutil.SampleBatch())
	assert.Equal(t, uint64(1), seq)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := e.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, seq, snap.Seq)
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 5, snap.Result.Stats.Total)
}

func TestSubmit_LatestWins(t *testing.T) {
	e := newEngine(t)

	release := make(chan struct{})
	base := e.tasks.spend
	e.tasks.spend = func(ctx context.Context, b record.Batch, o spend.Options) (spend.Analysis, error) {
		if len(b.Contracts) > 0 {
			<-release
		}
		return base(ctx, b, o)
	}

	e.Submit(context.Background(), testutil.SampleBatch())
	latest := e.Submit(context.Background(), record.RawBatch{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := e.Wait(ctx)
	require.NoError(t, err)
	close(release)

	assert.Equal(t, latest, snap.Seq)
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Result)
	assert.Zero(t, snap.Result.Stats.Total)

	e.Close()
	after := e.Snapshot()
	assert.Equal(t, latest, after.Seq, "the released older cycle is discarded")
	assert.Zero(t, after.Result.Stats.Total)
}

func TestWait_Idle(t *testing.T) {
	e := newEngine(t)

	snap, err := e.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Seq)
}

func TestWait_ContextDone(t *testing.T) {
	e := newEngine(t)

	release := make(chan struct{})
	base := e.tasks.risk
	e.tasks.risk = func(ctx context.Context, b record.Batch, o risk.Options) (risk.Analysis, error) {
		<-release
		return base(ctx, b, o)
	}
	e.Submit(context.Background(), testutil.SampleBatch())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := e.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateRunning, snap.State)

	close(release)
}

func TestNew(t *testing.T) {
	e, err := New(nil, Options{
		Stats:    stats.DefaultOptions(),
		Spend:    spend.DefaultOptions(),
		Risk:     risk.DefaultOptions(),
		Forecast: forecast.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.NotNil(t, e.opts.Now, "a missing clock defaults to wall time")

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"stats", func(o *Options) { o.Stats.VendorlessThreshold = 2 }},
		{"spend", func(o *Options) { o.Spend.Savings.DuplicateRate = -1 }},
		{"risk", func(o *Options) { o.Risk.Weights.Compliance = -1 }},
		{"forecast", func(o *Options) { o.Forecast.Horizon = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(nil, opts)
			assert.Error(t, err)
		})
	}
}
