// Package api exposes the shop and the demo endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/alextanhongpin/shopobs/http/handler"
	"github.com/alextanhongpin/shopobs/http/health"
	"github.com/alextanhongpin/shopobs/http/middleware"
	"github.com/alextanhongpin/shopobs/internal/downstream"
	"github.com/alextanhongpin/shopobs/internal/shop"
	"github.com/alextanhongpin/shopobs/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const metricsPath = "/metrics"

// Config holds the dependencies of the router. Service, Registry and
// Client are required.
type Config struct {
	AppName  string
	Version  string
	Service  *shop.Service
	Registry *prometheus.Registry
	Client   *downstream.Client
	Logger   *slog.Logger

	// Chain lists the URLs called in order by GET /chain.
	Chain []string

	TracerProvider trace.TracerProvider

	// Sleep and IntN are replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	IntN  func(n int) int
}

// New returns the service handler with the middleware stack applied.
func New(cfg Config) (http.Handler, error) {
	if cfg.Service == nil || cfg.Registry == nil || cfg.Client == nil {
		return nil, errors.New("api: service, registry and client are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	if cfg.IntN == nil {
		cfg.IntN = rand.IntN
	}

	base := handler.BaseHandler{}.WithLogger(cfg.Logger)

	shopCtrl := &ShopController{
		BaseHandler: base,
		svc:         cfg.Service,
	}
	demoCtrl := &DemoController{
		BaseHandler: base,
		client:      cfg.Client,
		chain:       cfg.Chain,
		sleep:       cfg.Sleep,
		intN:        cfg.IntN,
	}

	hc := health.New(cfg.Version)
	hc.AddCheck("store", storeCheck(cfg.Service))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /products/{$}", shopCtrl.CreateProduct)
	mux.HandleFunc("POST /orders/{$}", shopCtrl.CreateOrder)
	mux.HandleFunc("GET /orders/{id}", shopCtrl.GetOrder)
	mux.HandleFunc("GET /stress-test", shopCtrl.StressTest)

	mux.HandleFunc("GET /{$}", demoCtrl.Root)
	mux.HandleFunc("GET /items/{item_id}", demoCtrl.Item)
	mux.HandleFunc("GET /io_task", demoCtrl.IOTask)
	mux.HandleFunc("GET /cpu_task", demoCtrl.CPUTask)
	mux.HandleFunc("GET /random_status", demoCtrl.RandomStatus)
	mux.HandleFunc("GET /random_sleep", demoCtrl.RandomSleep)
	mux.HandleFunc("GET /error_test", demoCtrl.ErrorTest)
	mux.HandleFunc("GET /chain", demoCtrl.Chain)

	mux.HandleFunc("GET /healthz", hc.Live)
	mux.HandleFunc("GET /readyz", hc.Ready)
	mux.Handle("GET "+metricsPath, promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorLog:          slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError),
	}))

	route := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}

	m, err := metrics.NewHTTP(cfg.Registry, cfg.AppName, metrics.WithRoute(route))
	if err != nil {
		return nil, err
	}

	var traceOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		traceOpts = append(traceOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Trace(route, traceOpts...),
		middleware.LogRequest(cfg.Logger, metricsPath),
		middleware.Recovery(cfg.Logger),
		m.Handler,
	), nil
}

func storeCheck(svc *shop.Service) health.Checker {
	return func(ctx context.Context) health.Check {
		stats := svc.Stats()
		return health.Check{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d products, %d orders", stats.Products, stats.Orders),
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
