package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/event"
)

var (
	ErrNilEvent      = errors.New("event cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrNilRegisterer = errors.New("registerer cannot be nil")
	ErrNilMeter      = errors.New("meter cannot be nil")
)

// MultiHandler fans an event out to the log, otel metric and prometheus
// handlers, in that order. Nil handlers are skipped.
type MultiHandler struct {
	Log        event.Handler
	Metric     event.Handler
	Prometheus event.Handler
}

var _ event.Handler = (*MultiHandler)(nil)

func (h *MultiHandler) Event(ctx context.Context, ev *event.Event) context.Context {
	if ev == nil {
		return ctx
	}

	for _, eh := range h.handlers() {
		ctx = eh.Event(ctx, ev)
	}

	return ctx
}

// Close closes every handler implementing io.Closer.
func (h *MultiHandler) Close() error {
	var errs []error
	for name, eh := range map[string]event.Handler{
		"log":        h.Log,
		"metric":     h.Metric,
		"prometheus": h.Prometheus,
	} {
		c, ok := eh.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s handler: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (h *MultiHandler) handlers() []event.Handler {
	hs := make([]event.Handler, 0, 3)
	for _, eh := range []event.Handler{h.Log, h.Metric, h.Prometheus} {
		if eh != nil {
			hs = append(hs, eh)
		}
	}

	return hs
}
