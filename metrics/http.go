package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alextanhongpin/shopobs/http/httputil"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// DefaultNamespace keeps the metric names used by the existing Grafana
// dashboards.
const DefaultNamespace = "fastapi"

// HTTP holds the request collectors for a single service. All series carry
// the app_name label so several services can share one Prometheus.
type HTTP struct {
	appName string
	route   func(*http.Request) string

	info       *prometheus.GaugeVec
	requests   *prometheus.CounterVec
	responses  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	exceptions *prometheus.CounterVec
	inProgress *prometheus.GaugeVec
}

type HTTPOption func(*httpOptions)

type httpOptions struct {
	route func(*http.Request) string
}

// WithRoute sets the function resolving the route template of a request,
// e.g. "GET /orders/{id}". Requests without a route are not measured.
func WithRoute(fn func(*http.Request) string) HTTPOption {
	return func(o *httpOptions) {
		o.route = fn
	}
}

// NewHTTP creates the collectors and registers them on reg.
func NewHTTP(reg prometheus.Registerer, appName string, opts ...HTTPOption) (*HTTP, error) {
	o := &httpOptions{
		route: func(r *http.Request) string { return r.Pattern },
	}
	for _, opt := range opts {
		opt(o)
	}

	ns := DefaultNamespace
	m := &HTTP{
		appName: appName,
		route:   o.route,
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "app_info",
			Help:      "Application information.",
		}, []string{"app_name"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "requests_total",
			Help:      "Total count of requests by method and path.",
		}, []string{"method", "path", "app_name"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "responses_total",
			Help:      "Total count of responses by method, path and status codes.",
		}, []string{"method", "path", "status_code", "app_name"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "requests_duration_seconds",
			Help:      "Histogram of requests processing time by path (in seconds).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "app_name"}),
		exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "exceptions_total",
			Help:      "Total count of exceptions raised by path and exception type.",
		}, []string{"method", "path", "exception_type", "app_name"}),
		inProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "requests_in_progress",
			Help:      "Gauge of requests by method and path currently being processed.",
		}, []string{"method", "path", "app_name"}),
	}

	for _, c := range []prometheus.Collector{
		m.info,
		m.requests,
		m.responses,
		m.duration,
		m.exceptions,
		m.inProgress,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register http collector: %w", err)
		}
	}
	m.info.WithLabelValues(appName).Inc()

	return m, nil
}

// Handler records the request metrics. A panic is counted as an exception and
// a 500 response, then re-raised for the recovery middleware.
func (m *HTTP) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routePath(m.route(r))
		if path == "" {
			next.ServeHTTP(w, r)
			return
		}

		method := r.Method
		inProgress := m.inProgress.WithLabelValues(method, path, m.appName)
		inProgress.Inc()
		defer inProgress.Dec()

		m.requests.WithLabelValues(method, path, m.appName).Inc()

		start := time.Now()
		wr := httputil.NewResponseWriterRecorder(w)

		defer func() {
			status := wr.StatusCode()

			rec := recover()
			if rec != nil {
				status = http.StatusInternalServerError
				m.exceptions.WithLabelValues(method, path, exceptionType(rec), m.appName).Inc()
			}

			m.observe(r, method, path, time.Since(start))
			m.responses.WithLabelValues(method, path, strconv.Itoa(status), m.appName).Inc()

			if rec != nil {
				panic(rec)
			}
		}()

		next.ServeHTTP(wr, r)
	})
}

func (m *HTTP) observe(r *http.Request, method, path string, d time.Duration) {
	obs := m.duration.WithLabelValues(method, path, m.appName)

	sc := trace.SpanContextFromContext(r.Context())
	if eo, ok := obs.(prometheus.ExemplarObserver); ok && sc.HasTraceID() {
		eo.ObserveWithExemplar(d.Seconds(), prometheus.Labels{
			"TraceID": sc.TraceID().String(),
		})
		return
	}

	obs.Observe(d.Seconds())
}

// routePath strips the method and the exact-match marker from a ServeMux
// pattern, e.g. "POST /products/{$}" becomes "/products/".
func routePath(pattern string) string {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return ""
	}

	return strings.TrimSuffix(fields[len(fields)-1], "{$}")
}

func exceptionType(rec any) string {
	return fmt.Sprintf("%T", rec)
}
