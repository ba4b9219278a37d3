package shop

import (
	"context"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/alextanhongpin/shopobs/internal/shop"

// Payment charges an amount and reports whether the charge went through.
// A declined charge is not an error.
type Payment interface {
	Charge(ctx context.Context, amount float64) (bool, error)
}

type PaymentFunc func(ctx context.Context, amount float64) (bool, error)

func (f PaymentFunc) Charge(ctx context.Context, amount float64) (bool, error) {
	return f(ctx, amount)
}

type PaymentOptions struct {
	FailureRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// Rand returns a number in [0, 1). Defaults to math/rand/v2.
	Rand           func() float64
	TracerProvider trace.TracerProvider
}

// SimulatedPayment stands in for an external payment provider. Each charge
// waits a random delay and is declined with probability FailureRate.
type SimulatedPayment struct {
	opts   PaymentOptions
	tracer trace.Tracer
}

func NewSimulatedPayment(opts PaymentOptions) *SimulatedPayment {
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}

	return &SimulatedPayment{
		opts:   opts,
		tracer: opts.TracerProvider.Tracer(tracerName),
	}
}

func (p *SimulatedPayment) Charge(ctx context.Context, amount float64) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "process_payment")
	defer span.End()

	span.SetAttributes(attribute.Float64("payment.amount", amount))

	if err := sleep(ctx, p.delay()); err != nil {
		span.RecordError(err)
		return false, err
	}

	ok := p.opts.Rand() >= p.opts.FailureRate
	span.SetAttributes(attribute.Bool("payment.success", ok))

	return ok, nil
}

func (p *SimulatedPayment) delay() time.Duration {
	spread := p.opts.MaxDelay - p.opts.MinDelay

	return p.opts.MinDelay + time.Duration(p.opts.Rand()*float64(spread))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
