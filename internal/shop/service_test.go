package shop_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alextanhongpin/shopobs/internal/shop"
	"github.com/alextanhongpin/shopobs/telemetry"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/exp/event"
	"golang.org/x/exp/event/eventtest"
)

var (
	approve = shop.PaymentFunc(func(ctx context.Context, amount float64) (bool, error) {
		return true, nil
	})
	decline = shop.PaymentFunc(func(ctx context.Context, amount float64) (bool, error) {
		return false, nil
	})
)

type fixture struct {
	store    *shop.Store
	svc      *shop.Service
	recorder *tracetest.SpanRecorder
	metrics  *telemetry.PrometheusHandler
	ctx      context.Context
}

func newFixture(t *testing.T, payment shop.Payment, products ...shop.Product) *fixture {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	h, err := telemetry.NewPrometheusHandler(prometheus.NewRegistry())
	require.NoError(t, err)

	store := newStore(t, products...)
	svc := shop.NewService(store, payment,
		shop.WithTracerProvider(tp),
		shop.WithIDGenerator(func() string { return "order-1" }),
		shop.WithStressIterations(10),
		shop.WithRand(func() float64 { return 0.5 }),
	)

	return &fixture{
		store:    store,
		svc:      svc,
		recorder: recorder,
		metrics:  h,
		ctx:      event.WithExporter(context.Background(), event.NewExporter(h, eventtest.ExporterOptions())),
	}
}

func (f *fixture) ordersTotal(t *testing.T, status string) float64 {
	t.Helper()

	c, ok := f.metrics.Collector("orders_total")
	require.True(t, ok)

	return testutil.ToFloat64(c.(*prometheus.CounterVec).WithLabelValues(status))
}

func (f *fixture) span(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()

	for _, s := range f.recorder.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not recorded", name)

	return nil
}

func attr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t, approve)

	p := shop.Product{ID: "p1", Name: "Pen", Price: 10, Stock: 1}
	got, err := f.svc.CreateProduct(f.ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = f.svc.CreateProduct(f.ctx, shop.Product{ID: "p1", Name: "Dup", Price: 1, Stock: 5})
	assert.True(t, shop.Is(err, shop.ErrProductExists))

	stored, err := f.store.Product("p1")
	require.NoError(t, err)
	assert.Equal(t, p, stored)

	c, ok := f.metrics.Collector("products_created_total")
	require.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(c))
}

func TestCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, approve,
			shop.Product{ID: "p1", Price: 10, Stock: 5},
			shop.Product{ID: "p2", Price: 2.5, Stock: 1},
		)

		order, err := f.svc.CreateOrder(f.ctx, []string{"p1", "p2", "p1"})
		require.NoError(t, err)

		want := shop.Order{
			ID:       "order-1",
			Products: []string{"p1", "p2", "p1"},
			Total:    22.5,
			Status:   shop.OrderStatusCompleted,
		}
		if diff := cmp.Diff(want, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}

		assert.Equal(t, 3, stock(t, f.store, "p1"))
		assert.Equal(t, 0, stock(t, f.store, "p2"))

		stored, err := f.svc.Order(f.ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, want, stored)

		assert.Equal(t, 1.0, f.ordersTotal(t, "completed"))

		span := f.span(t, "create_order")
		total, ok := attr(span, "order.total")
		require.True(t, ok)
		assert.Equal(t, 22.5, total.AsFloat64())
		assert.Equal(t, codes.Unset, span.Status().Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, approve, shop.Product{ID: "p1", Price: 10, Stock: 1})

		_, err := f.svc.CreateOrder(f.ctx, []string{"p1", "nope"})
		assert.True(t, shop.Is(err, shop.ErrProductNotFound))
		assert.Equal(t, "Product nope not found", message(t, err))
		assert.Equal(t, 1, stock(t, f.store, "p1"))
		assert.Equal(t, 0, f.store.Stats().Orders)
		assert.Equal(t, 1.0, f.ordersTotal(t, "not_found"))
		assert.Equal(t, codes.Error, f.span(t, "create_order").Status().Code)
	})

	t.Run("out of stock", func(t *testing.T) {
		f := newFixture(t, approve,
			shop.Product{ID: "p1", Price: 10, Stock: 3},
			shop.Product{ID: "p2", Price: 10, Stock: 0},
		)

		_, err := f.svc.CreateOrder(f.ctx, []string{"p1", "p2"})
		assert.True(t, shop.Is(err, shop.ErrOutOfStock))
		assert.Equal(t, 3, stock(t, f.store, "p1"))
		assert.Equal(t, 1.0, f.ordersTotal(t, "out_of_stock"))
	})

	t.Run("payment declined", func(t *testing.T) {
		f := newFixture(t, decline, shop.Product{ID: "p1", Price: 10, Stock: 2})

		_, err := f.svc.CreateOrder(f.ctx, []string{"p1", "p1"})
		assert.True(t, shop.Is(err, shop.ErrPaymentFailed))
		assert.Equal(t, 2, stock(t, f.store, "p1"))
		assert.Equal(t, 0, f.store.Stats().Orders)
		assert.Equal(t, 1.0, f.ordersTotal(t, "payment_failed"))
	})

	t.Run("payment error", func(t *testing.T) {
		payment := shop.PaymentFunc(func(ctx context.Context, amount float64) (bool, error) {
			return false, errors.New("gateway timeout")
		})
		f := newFixture(t, payment, shop.Product{ID: "p1", Price: 10, Stock: 1})

		_, err := f.svc.CreateOrder(f.ctx, []string{"p1"})
		assert.True(t, shop.Is(err, shop.ErrPaymentFailed))
		assert.Equal(t, 1, stock(t, f.store, "p1"))
	})

	t.Run("charges the quoted total", func(t *testing.T) {
		var charged float64
		payment := shop.PaymentFunc(func(ctx context.Context, amount float64) (bool, error) {
			charged = amount
			return true, nil
		})
		f := newFixture(t, payment,
			shop.Product{ID: "p1", Price: 1.25, Stock: 2},
			shop.Product{ID: "p2", Price: 3, Stock: 2},
		)

		_, err := f.svc.CreateOrder(f.ctx, []string{"p1", "p2"})
		require.NoError(t, err)
		assert.Equal(t, 4.25, charged)
	})
}

func TestCreateOrderLastUnit(t *testing.T) {
	f := newFixture(t, approve, shop.Product{ID: "p1", Name: "Pen", Price: 10, Stock: 1})

	order, err := f.svc.CreateOrder(f.ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, order.Total)
	assert.Equal(t, 0, stock(t, f.store, "p1"))

	_, err = f.svc.CreateOrder(f.ctx, []string{"p1"})
	assert.True(t, shop.Is(err, shop.ErrOutOfStock))
	assert.Equal(t, "Product p1 out of stock", message(t, err))
	assert.Equal(t, 0, stock(t, f.store, "p1"))
}

func TestCreateOrderConcurrent(t *testing.T) {
	const buyers = 20

	store := newStore(t, shop.Product{ID: "p1", Price: 10, Stock: 1})

	svc := shop.NewService(store, approve)

	var (
		wg      sync.WaitGroup
		success atomic.Int64
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := svc.CreateOrder(context.Background(), []string{"p1"}); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), success.Load())
	assert.Equal(t, 0, stock(t, store, "p1"))
	assert.Equal(t, 1, store.Stats().Orders)
}

func TestOrderNotFound(t *testing.T) {
	f := newFixture(t, approve)

	_, err := f.svc.Order(f.ctx, "missing")
	assert.True(t, shop.Is(err, shop.ErrOrderNotFound))
}

func TestOrderNotFoundSpanStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var buf bytes.Buffer
	h, err := telemetry.NewSlogHandler(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)

	svc := shop.NewService(newStore(t), approve, shop.WithTracerProvider(tp))

	ctx := event.WithExporter(context.Background(), event.NewExporter(h, eventtest.ExporterOptions()))
	ctx, span := tp.Tracer("test").Start(ctx, "GET /orders/{id}")
	_, err = svc.Order(ctx, "missing")
	span.End()

	assert.True(t, shop.Is(err, shop.ErrOrderNotFound))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"msg":"order not found"`)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestStress(t *testing.T) {
	f := newFixture(t, approve)

	res := f.svc.Stress(f.ctx)
	assert.Equal(t, "completed", res.Status)
	// sum(i * 0.5) for i in [0, 10)
	assert.Equal(t, 22.5, res.Result)

	span := f.span(t, "stress_test")
	v, ok := attr(span, "test.type")
	require.True(t, ok)
	assert.Equal(t, "stress", v.AsString())
}
