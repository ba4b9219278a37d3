// Command server runs the instrumented shop service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alextanhongpin/shopobs/http/server"
	"github.com/alextanhongpin/shopobs/internal/api"
	"github.com/alextanhongpin/shopobs/internal/config"
	"github.com/alextanhongpin/shopobs/internal/downstream"
	"github.com/alextanhongpin/shopobs/internal/shop"
	"github.com/alextanhongpin/shopobs/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/exp/event"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(telemetry.NewLogHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}),
		cfg.AppName,
	))
	slog.SetDefault(logger)

	provider, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.AppName,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	events, err := newEventHandler(logger, reg, provider)
	if err != nil {
		return err
	}
	ctx = event.WithExporter(ctx, event.NewExporter(events, &event.ExporterOptions{Now: time.Now}))

	payment := shop.NewSimulatedPayment(shop.PaymentOptions{
		FailureRate: cfg.Payment.FailureRate,
		MinDelay:    cfg.Payment.MinDelay,
		MaxDelay:    cfg.Payment.MaxDelay,
	})
	svc := shop.NewService(shop.NewStore(), payment,
		shop.WithStressIterations(cfg.StressIterations),
	)

	h, err := api.New(api.Config{
		AppName:  cfg.AppName,
		Version:  cfg.Version,
		Service:  svc,
		Registry: reg,
		Client:   downstream.New(),
		Logger:   logger,
		Chain: []string{
			fmt.Sprintf("http://localhost:%d/", cfg.Port),
			fmt.Sprintf("http://%s:%d/io_task", cfg.Downstream.TargetOneHost, cfg.Port),
			fmt.Sprintf("http://%s:%d/cpu_task", cfg.Downstream.TargetTwoHost, cfg.Port),
		},
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Addr(), h, server.BaseContext{Context: ctx})
	logger.InfoContext(ctx, "starting server",
		slog.String("addr", srv.Addr),
		slog.Bool("otel_enabled", cfg.OTel.Enabled),
	)

	return server.Run(ctx, srv, cfg.ShutdownTimeout, provider.Shutdown, func(context.Context) error {
		return events.Close()
	})
}

func newEventHandler(logger *slog.Logger, reg prometheus.Registerer, provider *telemetry.Provider) (*telemetry.MultiHandler, error) {
	onError := func(err error) {
		logger.Error("telemetry handler failed", slog.String("error", err.Error()))
	}

	log, err := telemetry.NewSlogHandler(logger, telemetry.WithSlogErrorHandler(onError))
	if err != nil {
		return nil, err
	}

	metric, err := telemetry.NewMetricHandler(
		provider.MeterProvider.Meter("github.com/alextanhongpin/shopobs"),
		telemetry.WithMetricErrorHandler(onError),
	)
	if err != nil {
		return nil, err
	}

	prom, err := telemetry.NewPrometheusHandler(reg, telemetry.WithPrometheusErrorHandler(onError))
	if err != nil {
		return nil, err
	}

	return &telemetry.MultiHandler{
		Log:        log,
		Metric:     metric,
		Prometheus: prom,
	}, nil
}
