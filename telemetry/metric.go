package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/exp/event"
)

// MetricHandler records event metrics on an OpenTelemetry meter, so the same
// counters reach the OTLP collector as well as /metrics.
type MetricHandler struct {
	meter        metric.Meter
	errorHandler func(error)

	mu          sync.Mutex
	recordFuncs map[event.Metric]recordFunc
}

type recordFunc func(context.Context, event.Label, []event.Label)

var _ event.Handler = (*MetricHandler)(nil)

type MetricHandlerOption func(*MetricHandler)

func WithMetricErrorHandler(handler func(error)) MetricHandlerOption {
	return func(h *MetricHandler) {
		h.errorHandler = handler
	}
}

func NewMetricHandler(m metric.Meter, opts ...MetricHandlerOption) (*MetricHandler, error) {
	if m == nil {
		return nil, ErrNilMeter
	}

	h := &MetricHandler{
		meter:       m,
		recordFuncs: make(map[event.Metric]recordFunc),
		errorHandler: func(err error) {
			slog.Default().Error("metric handler error", slog.String("error", err.Error()))
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (h *MetricHandler) Event(ctx context.Context, e *event.Event) context.Context {
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

	rf, err := h.getRecordFunc(em)
	if err != nil {
		h.errorHandler(err)
		return ctx
	}
	rf(ctx, lval, e.Labels)

	return ctx
}

func (h *MetricHandler) getRecordFunc(em event.Metric) (recordFunc, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if f, ok := h.recordFuncs[em]; ok {
		return f, nil
	}

	f, err := h.newRecordFunc(em)
	if err != nil {
		return nil, err
	}
	h.recordFuncs[em] = f

	return f, nil
}

func (h *MetricHandler) newRecordFunc(em event.Metric) (recordFunc, error) {
	opts := em.Options()
	name := em.Name()
	if opts.Namespace != "" {
		name = opts.Namespace + "_" + name
	}

	switch em.(type) {
	case *event.Counter:
		c, err := h.meter.Int64Counter(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit(string(opts.Unit)),
		)
		if err != nil {
			return nil, err
		}

		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			c.Add(ctx, l.Int64(), metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	case *event.FloatGauge:
		g, err := h.meter.Float64Gauge(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit(string(opts.Unit)),
		)
		if err != nil {
			return nil, err
		}

		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			g.Record(ctx, l.Float64(), metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	case *event.DurationDistribution:
		r, err := h.meter.Float64Histogram(name,
			metric.WithDescription(opts.Description),
			metric.WithUnit(string(opts.Unit)),
		)
		if err != nil {
			return nil, err
		}

		ms := opts.Unit == event.UnitMilliseconds
		return func(ctx context.Context, l event.Label, attrs []event.Label) {
			d := l.Duration()
			v := d.Seconds()
			if ms {
				v = float64(d) / 1e6
			}
			r.Record(ctx, v, metric.WithAttributes(labelsToAttributes(attrs)...))
		}, nil

	default:
		return nil, fmt.Errorf("unsupported metric type %T for %s", em, name)
	}
}

func labelsToAttributes(ls []event.Label) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, l := range ls {
		if l.Name == string(event.MetricKey) || l.Name == string(event.MetricVal) {
			continue
		}
		attrs = append(attrs, labelToAttribute(l))
	}

	return attrs
}

func labelToAttribute(l event.Label) attribute.KeyValue {
	switch {
	case l.IsString():
		return attribute.String(l.Name, l.String())
	case l.IsInt64():
		return attribute.Int64(l.Name, l.Int64())
	case l.IsFloat64():
		return attribute.Float64(l.Name, l.Float64())
	case l.IsBool():
		return attribute.Bool(l.Name, l.Bool())
	default:
		return attribute.String(l.Name, fmt.Sprint(l.Interface()))
	}
}
