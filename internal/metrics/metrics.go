// Package metrics wires ferrule/internal/book's Observer side channel to
// Prometheus counters and histograms. It is optional instrumentation:
// the book core never imports this package directly, it only depends
// on the book.Observer interface this package implements.
package metrics

import (
	"ferrule/internal/book"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements book.Observer on top of a private Prometheus
// registry, so a caller can run several independent books in the same
// process without metric collisions.
type Recorder struct {
	registry *prometheus.Registry

	ordersAdded    *prometheus.CounterVec
	ordersFilled   *prometheus.CounterVec
	ordersCanceled *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	growths        *prometheus.CounterVec
	reticks        prometheus.Counter
	fillSize       prometheus.Histogram
}

// NewRecorder builds a Recorder and registers its collectors on a fresh
// registry, reachable through Registry for a caller that wants to serve
// /metrics itself.
func NewRecorder(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		ordersAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_added_total",
			Help:      "Orders that came to rest on a ladder, by side.",
		}, []string{"side"}),
		ordersFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_filled_total",
			Help:      "Fill events observed during matching, by side of the resting order.",
		}, []string{"side"}),
		ordersCanceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Orders removed by explicit cancellation, by side.",
		}, []string{"side"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Operations rejected, by side and kind.",
		}, []string{"side", "kind"}),
		growths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ladder_growths_total",
			Help:      "Ring-buffer growth events, by side.",
		}, []string{"side"}),
		reticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reticks_total",
			Help:      "Accepted tick-price refinements, counted once per non-empty ladder re-laid.",
		}),
		fillSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fill_size",
			Help:      "Distribution of quantity consumed per fill event.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
	}

	reg.MustRegister(r.ordersAdded, r.ordersFilled, r.ordersCanceled, r.rejections, r.growths, r.reticks, r.fillSize)
	return r
}

// Registry exposes the underlying registry for a caller that wants to
// serve it over promhttp; this package never opens a listener itself.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) OnAdd(side book.OrderSide, _ book.Order, resting bool) {
	if resting {
		r.ordersAdded.WithLabelValues(side.String()).Inc()
	}
}

func (r *Recorder) OnFill(side book.OrderSide, _ string, _ *book.Order, filledQty int32, _ int32) {
	r.ordersFilled.WithLabelValues(side.String()).Inc()
	r.fillSize.Observe(float64(filledQty))
}

func (r *Recorder) OnCancel(side book.OrderSide, _ book.Order) {
	r.ordersCanceled.WithLabelValues(side.String()).Inc()
}

func (r *Recorder) OnReject(side book.OrderSide, kind string) {
	r.rejections.WithLabelValues(side.String(), kind).Inc()
}

func (r *Recorder) OnGrow(side book.OrderSide, _ int) {
	r.growths.WithLabelValues(side.String()).Inc()
}

func (r *Recorder) OnRetick(_, _ int32) {
	r.reticks.Inc()
}
