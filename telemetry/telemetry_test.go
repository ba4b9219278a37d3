package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/event"
)

type mockHandler struct {
	callCount int
	lastEvent *event.Event
	lastCtx   context.Context
	returnCtx context.Context
}

func (m *mockHandler) Event(ctx context.Context, e *event.Event) context.Context {
	m.callCount++
	m.lastEvent = e
	m.lastCtx = ctx
	if m.returnCtx != nil {
		return m.returnCtx
	}
	return ctx
}

type mockCloser struct {
	mockHandler
	closeError  error
	closeCalled bool
}

func (m *mockCloser) Close() error {
	m.closeCalled = true
	return m.closeError
}

type ctxKey string

func TestMultiHandlerEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("nil event", func(t *testing.T) {
		log := &mockHandler{}
		h := &MultiHandler{Log: log}

		assert.Equal(t, ctx, h.Event(ctx, nil))
		assert.Zero(t, log.callCount)
	})

	t.Run("all handlers nil", func(t *testing.T) {
		h := &MultiHandler{}

		assert.Equal(t, ctx, h.Event(ctx, &event.Event{Kind: event.LogKind}))
	})

	t.Run("fan out", func(t *testing.T) {
		log := &mockHandler{}
		metric := &mockHandler{}
		prom := &mockHandler{}

		h := &MultiHandler{Log: log, Metric: metric, Prometheus: prom}

		e := &event.Event{Kind: event.MetricKind}
		h.Event(ctx, e)

		for _, m := range []*mockHandler{log, metric, prom} {
			assert.Equal(t, 1, m.callCount)
			assert.Equal(t, e, m.lastEvent)
		}
	})

	t.Run("context propagation", func(t *testing.T) {
		ctx1 := context.WithValue(ctx, ctxKey("k1"), "v1")
		ctx2 := context.WithValue(ctx1, ctxKey("k2"), "v2")
		ctx3 := context.WithValue(ctx2, ctxKey("k3"), "v3")

		log := &mockHandler{returnCtx: ctx1}
		metric := &mockHandler{returnCtx: ctx2}
		prom := &mockHandler{returnCtx: ctx3}

		h := &MultiHandler{Log: log, Metric: metric, Prometheus: prom}

		got := h.Event(ctx, &event.Event{Kind: event.LogKind})
		assert.Equal(t, ctx3, got)
		assert.Equal(t, ctx, log.lastCtx)
		assert.Equal(t, ctx1, metric.lastCtx)
		assert.Equal(t, ctx2, prom.lastCtx)
	})
}

func TestMultiHandlerClose(t *testing.T) {
	t.Run("handlers without Close", func(t *testing.T) {
		h := &MultiHandler{Log: &mockHandler{}, Metric: &mockHandler{}}
		assert.NoError(t, h.Close())
	})

	t.Run("closes all", func(t *testing.T) {
		log := &mockCloser{}
		metric := &mockCloser{closeError: errors.New("boom")}
		prom := &mockCloser{}

		h := &MultiHandler{Log: log, Metric: metric, Prometheus: prom}

		err := h.Close()
		assert.ErrorContains(t, err, "failed to close metric handler: boom")
		assert.True(t, log.closeCalled)
		assert.True(t, metric.closeCalled)
		assert.True(t, prom.closeCalled)
	})
}
