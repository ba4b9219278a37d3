package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/event"
)

var (
	errNoMetricKey   = errors.New("no metric key for metric event")
	errNoMetricValue = errors.New("no metric value for metric event")
)

// PrometheusHandler turns event metrics into prometheus collectors on the
// given registerer. Collectors are created lazily from the first event of
// each metric, so the label names of that event fix the label set.
//
//	event.Counter        -> CounterVec
//	event.FloatGauge     -> GaugeVec
//	event.DurationDistribution -> HistogramVec (_seconds or _milliseconds)
type PrometheusHandler struct {
	reg          prometheus.Registerer
	errorHandler func(error)

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

var _ event.Handler = (*PrometheusHandler)(nil)

type PrometheusHandlerOption func(*PrometheusHandler)

func WithPrometheusErrorHandler(handler func(error)) PrometheusHandlerOption {
	return func(h *PrometheusHandler) {
		h.errorHandler = handler
	}
}

func NewPrometheusHandler(reg prometheus.Registerer, opts ...PrometheusHandlerOption) (*PrometheusHandler, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}

	h := &PrometheusHandler{
		reg:        reg,
		collectors: make(map[string]prometheus.Collector),
		errorHandler: func(err error) {
			slog.Default().Error("prometheus handler error", slog.String("error", err.Error()))
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (h *PrometheusHandler) Event(ctx context.Context, e *event.Event) context.Context {
	if e == nil {
		h.errorHandler(ErrNilEvent)
		return ctx
	}

	if e.Kind != event.MetricKind {
		return ctx
	}

	mi, ok := event.MetricKey.Find(e)
	if !ok {
		h.errorHandler(errNoMetricKey)
		return ctx
	}

	em := mi.(event.Metric)
	lval := e.Find(event.MetricVal)
	if !lval.HasValue() {
		h.errorHandler(errNoMetricValue)
		return ctx
	}

	keys, vals := labelsToKeyVals(e.Labels)

	c, err := h.collector(em, keys)
	if err != nil {
		h.errorHandler(err)
		return ctx
	}

	unit := em.Options().Unit
	switch col := c.(type) {
	case *prometheus.CounterVec:
		v := lval.Int64()
		if v < 0 {
			h.errorHandler(fmt.Errorf("counter %s cannot decrease: %d", em.Name(), v))
			return ctx
		}
		col.WithLabelValues(vals...).Add(float64(v))
	case *prometheus.GaugeVec:
		col.WithLabelValues(vals...).Set(lval.Float64())
	case *prometheus.HistogramVec:
		d := lval.Duration()
		v := d.Seconds()
		if unit == event.UnitMilliseconds {
			v = float64(d.Milliseconds())
		}
		col.WithLabelValues(vals...).Observe(v)
	}

	return ctx
}

// Collector returns the collector registered for the metric name, without
// namespace.
func (h *PrometheusHandler) Collector(name string) (prometheus.Collector, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.collectors[name]
	return c, ok
}

func (h *PrometheusHandler) collector(em event.Metric, keys []string) (prometheus.Collector, error) {
	name := em.Name()

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.collectors[name]; ok {
		return c, nil
	}

	opts := em.Options()
	fqName := name
	if opts.Unit == event.UnitBytes {
		fqName += "_bytes"
	}

	var c prometheus.Collector
	switch em.(type) {
	case *event.Counter:
		c = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      fqName,
			Help:      opts.Description,
		}, keys)
	case *event.FloatGauge:
		c = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      fqName,
			Help:      opts.Description,
		}, keys)
	case *event.DurationDistribution:
		buckets := prometheus.DefBuckets
		if opts.Unit == event.UnitMilliseconds {
			fqName += "_milliseconds"
			buckets = prometheus.ExponentialBuckets(5, 2, 12)
		} else {
			fqName += "_seconds"
		}
		c = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      fqName,
			Help:      opts.Description,
			Buckets:   buckets,
		}, keys)
	default:
		return nil, fmt.Errorf("unsupported metric type %T for %s", em, name)
	}

	if err := h.reg.Register(c); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	h.collectors[name] = c

	return c, nil
}

func labelsToKeyVals(labels []event.Label) (keys []string, vals []string) {
	for _, l := range labels {
		if l.Name == string(event.MetricKey) || l.Name == string(event.MetricVal) {
			continue
		}
		keys = append(keys, l.Name)
		vals = append(vals, l.String())
	}

	return
}
