package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "vecsim".
	Namespace string

	// Registerer receives the metrics. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// DefaultOptions holds the options for a new Collector.
var DefaultOptions = Options{
	Namespace: "vecsim",
}

// Collector implements vecsim.MetricsCollector on Prometheus
// primitives. Operations count by outcome; durations land in
// histograms labeled by operation.
type Collector struct {
	operations     *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	batchItems     prometheus.Counter
	batchFailed    prometheus.Counter
	removedRecords prometheus.Counter
}

// NewCollector creates and registers a Collector. Registration fails
// when the registerer already holds metrics with the same names, so
// create one Collector per registry.
func NewCollector(optFns ...func(o *Options)) (*Collector, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "operations_total",
			Help:      "Store operations by type and outcome.",
		}, []string{"op", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency by type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		batchItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "batch_items_total",
			Help:      "Embeddings attempted through batch adds.",
		}),
		batchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "batch_items_failed_total",
			Help:      "Embeddings rejected during batch adds.",
		}),
		removedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "removed_records_total",
			Help:      "Records deleted by remove operations.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.operations, c.durations, c.batchItems, c.batchFailed, c.removedRecords,
	} {
		if err := opts.Registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Collector) observe(op string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	c.operations.WithLabelValues(op, status).Inc()
	c.durations.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordAdd implements vecsim.MetricsCollector.
func (c *Collector) RecordAdd(duration time.Duration, err error) {
	c.observe("add", duration, err)
}

// RecordBatchAdd implements vecsim.MetricsCollector.
func (c *Collector) RecordBatchAdd(count, failed int, duration time.Duration) {
	var err error
	if failed == count && count > 0 {
		err = errAllFailed
	}

	c.observe("batch_add", duration, err)
	c.batchItems.Add(float64(count))
	c.batchFailed.Add(float64(failed))
}

// RecordSearch implements vecsim.MetricsCollector.
func (c *Collector) RecordSearch(_ int, duration time.Duration, err error) {
	c.observe("search", duration, err)
}

// RecordRemove implements vecsim.MetricsCollector.
func (c *Collector) RecordRemove(removed int, duration time.Duration) {
	c.observe("remove", duration, nil)
	c.removedRecords.Add(float64(removed))
}

// RecordSave implements vecsim.MetricsCollector.
func (c *Collector) RecordSave(duration time.Duration, err error) {
	c.observe("save", duration, err)
}

var errAllFailed = batchError("all batch items failed")

type batchError string

func (e batchError) Error() string { return string(e) }
