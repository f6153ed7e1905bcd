package physical

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guileen/litequery/types"
)

var (
	operatorBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litequery",
		Subsystem: "plan",
		Name:      "batches_total",
		Help:      "Batches produced by plan operators.",
	}, []string{"operator"})

	operatorRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litequery",
		Subsystem: "plan",
		Name:      "rows_total",
		Help:      "Rows produced by plan operators.",
	}, []string{"operator"})

	operatorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "litequery",
		Subsystem: "plan",
		Name:      "operator_duration_seconds",
		Help:      "Time spent in an operator's own transform, children excluded.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"operator"})
)

// RegisterMetrics registers the operator collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{operatorBatches, operatorRows, operatorDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func observeOperator(operator string, batches []*types.Batch, d time.Duration) {
	rows := 0
	for _, b := range batches {
		rows += b.NumRows()
	}
	operatorBatches.WithLabelValues(operator).Add(float64(len(batches)))
	operatorRows.WithLabelValues(operator).Add(float64(rows))
	operatorDuration.WithLabelValues(operator).Observe(d.Seconds())
}
