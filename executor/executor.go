// Package executor runs physical plans on behalf of callers, tagging each run
// with a query ID for logging and metrics.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/physical"
	"github.com/guileen/litequery/types"
)

// Result is the materialized output of one plan execution.
type Result struct {
	QueryID  string
	Schema   *types.Schema
	Batches  []*types.Batch
	Duration time.Duration
}

// NumRows returns the total row count over all batches
func (r *Result) NumRows() int {
	n := 0
	for _, b := range r.Batches {
		n += b.NumRows()
	}
	return n
}

// Rows flattens the batches into row values in batch order.
func (r *Result) Rows() [][]any {
	rows := make([][]any, 0, r.NumRows())
	for _, b := range r.Batches {
		rows = append(rows, b.Rows()...)
	}
	return rows
}

// Config tunes an Executor.
type Config struct {
	// MaxParallelPlans bounds ExecuteAll; zero or less means unbounded.
	MaxParallelPlans int
}

// Executor runs plans. It holds no per-query state and is safe for
// concurrent use.
type Executor struct {
	config  Config
	queries *prometheus.CounterVec
	latency prometheus.Histogram
}

func NewExecutor(config Config) *Executor {
	return &Executor{
		config: config,
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "litequery",
			Subsystem: "executor",
			Name:      "queries_total",
			Help:      "Plans executed, by outcome.",
		}, []string{"status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "litequery",
			Subsystem: "executor",
			Name:      "query_duration_seconds",
			Help:      "Wall time of whole plan executions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Collectors returns the executor's metrics for registration.
func (e *Executor) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.queries, e.latency}
}

// Execute runs plan to completion. Plans are not interruptible, so ctx is
// only checked before the plan starts.
func (e *Executor) Execute(ctx context.Context, plan physical.PhysicalPlan) (*Result, error) {
	queryID := uuid.NewString()
	ctx = logger.WithContextValue(ctx, logger.QueryIDKey, queryID)

	if err := ctx.Err(); err != nil {
		e.queries.WithLabelValues("canceled").Inc()
		return nil, err
	}

	log := logger.WithContext(ctx).With(logger.Component("executor"))
	log.Debug("Executing plan", "plan", plan.String())
	start := time.Now()
	batches, err := plan.Execute()
	elapsed := time.Since(start)
	e.latency.Observe(elapsed.Seconds())

	if err != nil {
		e.queries.WithLabelValues("error").Inc()
		errors.LogWarning(ctx, err)
		return nil, err
	}

	e.queries.WithLabelValues("ok").Inc()
	result := &Result{
		QueryID:  queryID,
		Schema:   plan.Schema(),
		Batches:  batches,
		Duration: elapsed,
	}
	log.Info("Plan executed", "batches", len(batches), "rows", result.NumRows(), "duration", elapsed)
	return result, nil
}

// ExecuteAll runs independent plans concurrently and returns their results in
// plan order. The first failure cancels plans not yet started and is returned.
func (e *Executor) ExecuteAll(ctx context.Context, plans []physical.PhysicalPlan) ([]*Result, error) {
	results := make([]*Result, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	if e.config.MaxParallelPlans > 0 {
		g.SetLimit(e.config.MaxParallelPlans)
	}

	for i, plan := range plans {
		g.Go(func() error {
			res, err := e.Execute(gctx, plan)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
