package shop

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/event"
)

const defaultStressIterations = 1_000_000

var (
	productsCreated = event.NewCounter("products_created_total", &event.MetricOptions{
		Namespace:   "shop",
		Description: "Total products registered",
	})
	ordersTotal = event.NewCounter("orders_total", &event.MetricOptions{
		Namespace:   "shop",
		Description: "Total order attempts by outcome",
	})
	orderAmount = event.NewFloatGauge("order_amount", &event.MetricOptions{
		Namespace:   "shop",
		Description: "Total of the last completed order",
	})
	paymentDuration = event.NewDuration("payment_duration", &event.MetricOptions{
		Namespace:   "shop",
		Description: "Payment processing duration",
		Unit:        event.UnitMilliseconds,
	})
)

type Service struct {
	store      *Store
	payment    Payment
	tracer     trace.Tracer
	newID      func() string
	rand       func() float64
	iterations int
}

type Option func(*Service)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func WithRand(fn func() float64) Option {
	return func(s *Service) {
		s.rand = fn
	}
}

func WithStressIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.iterations = n
		}
	}
}

func NewService(store *Store, payment Payment, opts ...Option) *Service {
	s := &Service{
		store:      store,
		payment:    payment,
		tracer:     otel.Tracer(tracerName),
		newID:      uuid.NewString,
		rand:       rand.Float64,
		iterations: defaultStressIterations,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	event.Log(ctx, "creating new product",
		event.String("product_id", p.ID),
		event.String("product_name", p.Name),
	)

	if err := s.store.AddProduct(p); err != nil {
		return Product{}, err
	}
	productsCreated.Record(ctx, 1)

	return p, nil
}

// CreateOrder validates the products, charges the total and, once the payment
// is accepted, stores a completed order. Units are reserved before charging and
// released again when the payment fails, so stock never goes negative.
func (s *Service) CreateOrder(ctx context.Context, productIDs []string) (Order, error) {
	ctx, span := s.tracer.Start(ctx, "create_order")
	defer span.End()

	orderID := s.newID()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("order.items", len(productIDs)),
	)

	total, err := s.store.Quote(productIDs)
	if err != nil {
		return Order{}, s.fail(ctx, span, err)
	}
	span.SetAttributes(attribute.Float64("order.total", total))

	total, err = s.store.Reserve(productIDs)
	if err != nil {
		return Order{}, s.fail(ctx, span, err)
	}

	start := time.Now()
	ok, err := s.payment.Charge(ctx, total)
	paymentDuration.Record(ctx, time.Since(start), event.String("success", strconv.FormatBool(ok)))
	if err != nil || !ok {
		s.store.Release(productIDs)

		event.Log(ctx, "payment failed",
			event.String("order_id", orderID),
			event.Float64("amount", total),
			event.String("error", errString(err, ErrPaymentFailed)),
		)

		return Order{}, s.fail(ctx, span, ErrPaymentFailed)
	}

	order := Order{
		ID:       orderID,
		Products: productIDs,
		Total:    total,
		Status:   OrderStatusCompleted,
	}
	s.store.SaveOrder(order)

	ordersTotal.Record(ctx, 1, event.String("status", string(OrderStatusCompleted)))
	orderAmount.Record(ctx, total)
	event.Log(ctx, "order created successfully",
		event.String("order_id", orderID),
		event.Float64("total", total),
	)

	return order, nil
}

func (s *Service) Order(ctx context.Context, id string) (Order, error) {
	o, err := s.store.Order(id)
	if err != nil {
		// Logged as an error, but a missing order is a client error and
		// must not fail the request span.
		event.Log(ctx, "order not found",
			event.String("level", "error"),
			event.String("order_id", id),
			event.String("reason", err.Error()),
		)

		return Order{}, err
	}

	return o, nil
}

// Stress burns CPU in a traced span.
func (s *Service) Stress(ctx context.Context) StressResult {
	_, span := s.tracer.Start(ctx, "stress_test")
	defer span.End()

	span.SetAttributes(
		attribute.String("test.type", "stress"),
		attribute.Int("test.iterations", s.iterations),
	)

	var result float64
	for i := range s.iterations {
		result += float64(i) * s.rand()
	}

	return StressResult{
		Status: "completed",
		Result: result,
	}
}

// Stats exposes the store counters for readiness checks.
func (s *Service) Stats() StoreStats {
	return s.store.Stats()
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ordersTotal.Record(ctx, 1, event.String("status", outcome(err)))

	return err
}

func outcome(err error) string {
	switch {
	case Is(err, ErrProductNotFound):
		return "not_found"
	case Is(err, ErrOutOfStock):
		return "out_of_stock"
	case Is(err, ErrPaymentFailed):
		return "payment_failed"
	default:
		return "error"
	}
}

func errString(err, fallback error) string {
	if err != nil {
		return err.Error()
	}

	return fallback.Error()
}
