package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alextanhongpin/shopobs/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dto "github.com/prometheus/client_model/go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newHandler(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /error_test", func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("value error"))
	})

	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTP(reg, "ecommerce-service", metrics.WithRoute(func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}))
	require.NoError(t, err)

	return m.Handler(mux), reg
}

func TestHTTP(t *testing.T) {
	h, reg := newHandler(t)

	for _, path := range []string{"/orders/1", "/orders/2", "/orders/missing", "/unknown"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	}

	want := `# HELP fastapi_app_info Application information.
# TYPE fastapi_app_info gauge
fastapi_app_info{app_name="ecommerce-service"} 1
# HELP fastapi_requests_total Total count of requests by method and path.
# TYPE fastapi_requests_total counter
fastapi_requests_total{app_name="ecommerce-service",method="GET",path="/orders/{id}"} 3
# HELP fastapi_responses_total Total count of responses by method, path and status codes.
# TYPE fastapi_responses_total counter
fastapi_responses_total{app_name="ecommerce-service",method="GET",path="/orders/{id}",status_code="200"} 2
fastapi_responses_total{app_name="ecommerce-service",method="GET",path="/orders/{id}",status_code="404"} 1
# HELP fastapi_requests_in_progress Gauge of requests by method and path currently being processed.
# TYPE fastapi_requests_in_progress gauge
fastapi_requests_in_progress{app_name="ecommerce-service",method="GET",path="/orders/{id}"} 0
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"fastapi_app_info",
		"fastapi_requests_total",
		"fastapi_responses_total",
		"fastapi_requests_in_progress",
	)
	assert.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "fastapi_requests_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHTTPPanic(t *testing.T) {
	h, reg := newHandler(t)

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/error_test", nil))
	})

	want := `# HELP fastapi_exceptions_total Total count of exceptions raised by path and exception type.
# TYPE fastapi_exceptions_total counter
fastapi_exceptions_total{app_name="ecommerce-service",exception_type="*errors.errorString",method="GET",path="/error_test"} 1
# HELP fastapi_responses_total Total count of responses by method, path and status codes.
# TYPE fastapi_responses_total counter
fastapi_responses_total{app_name="ecommerce-service",method="GET",path="/error_test",status_code="500"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"fastapi_exceptions_total",
		"fastapi_responses_total",
	)
	assert.NoError(t, err)
}

func TestHTTPExemplar(t *testing.T) {
	h, reg := newHandler(t)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "GET /orders/{id}")
	defer span.End()

	req := httptest.NewRequest("GET", "/orders/1", nil).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range mfs {
		if mf.GetName() == "fastapi_requests_duration_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)

	var traceIDs []string
	for _, b := range hist.GetBucket() {
		if ex := b.GetExemplar(); ex != nil {
			for _, lp := range ex.GetLabel() {
				traceIDs = append(traceIDs, lp.GetValue())
			}
		}
	}
	assert.Equal(t, []string{span.SpanContext().TraceID().String()}, traceIDs)
}

func TestNewHTTPDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := metrics.NewHTTP(reg, "a")
	require.NoError(t, err)

	_, err = metrics.NewHTTP(reg, "a")
	assert.ErrorContains(t, err, "register http collector")
}
