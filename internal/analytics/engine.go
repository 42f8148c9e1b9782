// Package analytics runs the analytics cycle: it normalizes a raw batch,
// derives stats, spend, and risk concurrently, forecasts spend once stats
// and spend are available, and exposes the latest cycle's state.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/contract-analytics/internal/forecast"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/risk"
	"github.com/iwvelando/contract-analytics/internal/spend"
	"github.com/iwvelando/contract-analytics/internal/stats"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by Run when a newer cycle was issued before the
// run resolved.
var ErrSuperseded = eris.New("analytics: cycle superseded by a newer cycle")

// subscriberBuffer is the capacity of each subscriber channel.
const subscriberBuffer = 8

// Options configures every component of a cycle.
type Options struct {
	Stats    stats.Options    `json:"stats"`
	Spend    spend.Options    `json:"spend"`
	Risk     risk.Options     `json:"risk"`
	Forecast forecast.Options `json:"forecast"`
	// Tenant only labels log entries.
	Tenant string `json:"tenant,omitempty"`
	// Now is the reference time of each cycle. A fixed clock makes runs
	// reproducible.
	Now func() time.Time `json:"-"`
}

// DefaultOptions returns the defaults of every component with a wall clock.
func DefaultOptions() Options {
	return Options{
		Stats:    stats.DefaultOptions(),
		Spend:    spend.DefaultOptions(),
		Risk:     risk.DefaultOptions(),
		Forecast: forecast.DefaultOptions(),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks every component's options.
func (o Options) Validate() error {
	if err := o.Stats.Validate(); err != nil {
		return eris.Wrap(err, "analytics: invalid options")
	}
	if err := o.Spend.Savings.Validate(); err != nil {
		return eris.Wrap(err, "analytics: invalid options")
	}
	if err := o.Risk.Validate(); err != nil {
		return eris.Wrap(err, "analytics: invalid options")
	}
	if err := forecast.Validate(o.Forecast); err != nil {
		return eris.Wrap(err, "analytics: invalid options")
	}
	return nil
}

// Engine runs analytics cycles. Only the most recently issued cycle may
// change the observable state; older cycles are cancelled and discarded.
type Engine struct {
	logger *zap.Logger
	opts   Options
	tasks  tasks

	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
	snap   Snapshot
	done   chan struct{}
	subs   map[int]chan Progress
	nextID int

	inflight sync.WaitGroup
}

// New creates an Engine. A nil logger discards output.
func New(logger *zap.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = DefaultOptions().Now
	}

	return &Engine{
		logger: logger,
		opts:   opts,
		tasks:  defaultTasks(),
		snap:   Snapshot{State: StateIdle},
		subs:   make(map[int]chan Progress),
	}, nil
}

// Run executes a cycle and blocks until it resolves.
func (e *Engine) Run(ctx context.Context, raw record.RawBatch) (Result, error) {
	c := e.begin(ctx)
	defer c.cancel()

	res, err := e.execute(c, raw)
	if !e.finish(c, res, err) {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Submit starts a cycle in the background and returns its sequence number.
// The cycle is cancelled when ctx is, or when a newer cycle is issued.
func (e *Engine) Submit(ctx context.Context, raw record.RawBatch) uint64 {
	c := e.begin(ctx)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer c.cancel()

		res, err := e.execute(c, raw)
		e.finish(c, res, err)
	}()
	return c.seq
}

// Snapshot returns the state of the latest cycle.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Subscribe returns a channel of state updates for the latest cycle and a
// function that ends the subscription. Slow subscribers miss intermediate
// updates but always receive terminal ones.
func (e *Engine) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, subscriberBuffer)

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	ch <- e.snap.progress()
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

// Wait blocks until the latest cycle is terminal, or returns immediately
// when no cycle has been issued.
func (e *Engine) Wait(ctx context.Context) (Snapshot, error) {
	for {
		e.mu.Lock()
		snap, done := e.snap, e.done
		e.mu.Unlock()

		if done == nil {
			return snap, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Close cancels the latest cycle and waits for background cycles to return.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
	e.inflight.Wait()
}

// cycle identifies one issued cycle.
type cycle struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	runID  string
	now    time.Time
}

func (e *Engine) begin(ctx context.Context) cycle {
	cctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.snap
	if e.cancel != nil {
		e.cancel()
	}
	if e.done != nil {
		// Wake waiters of the superseded cycle so they follow this one.
		close(e.done)
	}

	e.latest++
	c := cycle{
		ctx:    cctx,
		cancel: cancel,
		seq:    e.latest,
		runID:  uuid.NewString(),
		now:    e.opts.Now(),
	}
	e.cancel = cancel
	e.done = make(chan struct{})
	e.snap = Snapshot{Seq: c.seq, RunID: c.runID, State: StateRunning}
	e.publish(false)

	log := e.cycleLogger(c)
	if previous.State == StateRunning {
		log.Info("superseding running cycle",
			zap.String("op", "analytics.begin"),
			zap.Uint64("superseded_seq", previous.Seq),
		)
	}
	log.Info("cycle started", zap.String("op", "analytics.begin"))
	return c
}

// advance records one completed task of cycle c.
func (e *Engine) advance(c cycle, completed int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.seq != e.latest {
		return
	}
	p := float64(completed) / float64(taskCount) * 100
	if p > e.snap.Progress {
		e.snap.Progress = p
	}
	e.publish(false)
}

// finish records the outcome of cycle c and reports whether c was still the
// latest cycle.
func (e *Engine) finish(c cycle, res Result, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.cycleLogger(c)
	if c.seq != e.latest {
		log.Info("discarding superseded cycle",
			zap.String("op", "analytics.finish"),
			zap.Uint64("latest_seq", e.latest),
		)
		return false
	}

	if err != nil {
		e.snap.State = StateFailed
		e.snap.Err = err
		e.snap.Error = err.Error()
		log.Error("cycle failed", zap.String("op", "analytics.finish"), zap.Error(err))
	} else {
		e.snap.State = StateSucceeded
		e.snap.Progress = 100
		e.snap.Result = &res
		log.Info("cycle succeeded",
			zap.String("op", "analytics.finish"),
			zap.Int("contracts", res.Normalization.Contracts.Kept),
			zap.Int("vendors", res.Normalization.Vendors.Kept),
			zap.Int("dropped", res.Normalization.Dropped()),
		)
	}
	e.publish(true)
	close(e.done)
	e.done = nil
	return true
}

// publish fans the current snapshot out to subscribers. The caller holds
// e.mu.
func (e *Engine) publish(terminal bool) {
	p := e.snap.progress()
	for _, ch := range e.subs {
		select {
		case ch <- p:
			continue
		default:
		}
		if !terminal {
			continue
		}
		// Make room for the terminal update by dropping the oldest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
	}
}

func (e *Engine) cycleLogger(c cycle) *zap.Logger {
	return e.logger.With(
		zap.String("run_id", c.runID),
		zap.Uint64("seq", c.seq),
		zap.String("tenant", e.opts.Tenant),
	)
}
