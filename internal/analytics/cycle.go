package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/iwvelando/contract-analytics/internal/forecast"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/risk"
	"github.com/iwvelando/contract-analytics/internal/spend"
	"github.com/iwvelando/contract-analytics/internal/stats"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// taskCount is the number of tasks that drive progress.
const taskCount = 4

// Task names.
const (
	TaskStats    = "stats"
	TaskSpend    = "spend"
	TaskRisk     = "risk"
	TaskForecast = "forecast"
)

// tasks are the component computations of a cycle.
type tasks struct {
	stats    func(ctx context.Context, contracts []record.Contract, opts stats.Options, now time.Time) (stats.Stats, error)
	spend    func(ctx context.Context, b record.Batch, opts spend.Options) (spend.Analysis, error)
	risk     func(ctx context.Context, b record.Batch, opts risk.Options) (risk.Analysis, error)
	forecast func(ctx context.Context, history []forecast.Point, opts forecast.Options) (forecast.Result, error)
}

func defaultTasks() tasks {
	return tasks{
		stats: func(_ context.Context, contracts []record.Contract, opts stats.Options, now time.Time) (stats.Stats, error) {
			return stats.Compute(contracts, opts, now)
		},
		spend: func(_ context.Context, b record.Batch, opts spend.Options) (spend.Analysis, error) {
			return spend.Analyze(b.Contracts, b.Vendors, opts)
		},
		risk: func(_ context.Context, b record.Batch, opts risk.Options) (risk.Analysis, error) {
			return risk.Score(b.Contracts, b.Vendors, opts)
		},
		forecast: func(_ context.Context, history []forecast.Point, opts forecast.Options) (forecast.Result, error) {
			return forecast.Project(history, opts), nil
		},
	}
}

// SpendHistory converts a monthly spend trend into a forecast series.
func SpendHistory(trend []spend.MonthlySpend) []forecast.Point {
	points := make([]forecast.Point, len(trend))
	for i, m := range trend {
		points[i] = forecast.Point{Month: m.Month, Value: m.Amount}
	}
	return points
}

// execute runs the task graph of cycle c. The first task error is returned
// as is.
func (e *Engine) execute(c cycle, raw record.RawBatch) (Result, error) {
	log := e.cycleLogger(c)

	batch, report := record.Normalize(raw)
	log.Debug("normalized batch",
		zap.String("op", "analytics.execute"),
		zap.Int("contracts", report.Contracts.Kept),
		zap.Int("vendors", report.Vendors.Kept),
		zap.Int("dropped", report.Dropped()),
	)

	res := Result{
		GeneratedAt:   c.now,
		Normalization: report,
	}

	var (
		mu        sync.Mutex
		completed int
	)
	complete := func(name string) {
		mu.Lock()
		completed++
		n := completed
		mu.Unlock()

		log.Debug("task completed", zap.String("op", "analytics.execute"), zap.String("task", name))
		e.advance(c, n)
	}

	statsDone := make(chan struct{})
	spendDone := make(chan struct{})

	g, gctx := errgroup.WithContext(c.ctx)

	g.Go(guard(TaskStats, func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		s, err := e.tasks.stats(gctx, batch.Contracts, e.opts.Stats, c.now)
		if err != nil {
			return err
		}
		res.Stats = s
		close(statsDone)
		complete(TaskStats)
		return nil
	}))

	g.Go(guard(TaskSpend, func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		a, err := e.tasks.spend(gctx, batch, e.opts.Spend)
		if err != nil {
			return err
		}
		res.Spend = a
		close(spendDone)
		complete(TaskSpend)
		return nil
	}))

	g.Go(guard(TaskRisk, func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		a, err := e.tasks.risk(gctx, batch, e.opts.Risk)
		if err != nil {
			return err
		}
		res.Risk = a
		complete(TaskRisk)
		return nil
	}))

	g.Go(guard(TaskForecast, func() error {
		for _, dep := range []<-chan struct{}{statsDone, spendDone} {
			select {
			case <-dep:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		f, err := e.tasks.forecast(gctx, SpendHistory(res.Spend.MonthlyTrend), e.opts.Forecast)
		if err != nil {
			return err
		}
		res.Forecast = f
		complete(TaskForecast)
		return nil
	}))

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// guard turns a panic in fn into an error.
func guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = eris.Errorf("analytics: %s task panicked: %v", name, r)
			}
		}()
		return fn()
	}
}
