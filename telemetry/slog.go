package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/event"
)

// SlogHandler writes event.Log events to a slog.Logger. A label named "error"
// raises the record to error level and marks the current span as failed.
type SlogHandler struct {
	logger       *slog.Logger
	errorHandler func(error)
}

type SlogHandlerOption func(*SlogHandler)

func WithSlogErrorHandler(handler func(error)) SlogHandlerOption {
	return func(s *SlogHandler) {
		s.errorHandler = handler
	}
}

func NewSlogHandler(logger *slog.Logger, opts ...SlogHandlerOption) (*SlogHandler, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	h := &SlogHandler{
		logger: logger,
		errorHandler: func(err error) {
			logger.Error("slog handler error", slog.String("error", err.Error()))
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

func (h *SlogHandler) Event(ctx context.Context, ev *event.Event) context.Context {
	if ev == nil {
		h.errorHandler(ErrNilEvent)
		return ctx
	}

	if ev.Kind != event.LogKind {
		return ctx
	}

	var (
		attrs   []slog.Attr
		isError bool
		msg     string
		level   = slog.LevelInfo
	)

	if l := ev.Find("msg"); l.HasValue() {
		msg = l.String()
	}

	for _, l := range ev.Labels {
		if !l.HasValue() || l.Name == "" || l.Name == "msg" {
			continue
		}

		// A level label only sets the severity. Unlike an error label it
		// leaves the span status alone.
		if l.Name == "level" && l.IsString() {
			if err := level.UnmarshalText([]byte(l.String())); err != nil {
				h.errorHandler(err)
			}
			continue
		}

		if l.Name == "error" {
			isError = true
		}

		attrs = append(attrs, label(l))
	}

	if isError {
		level = slog.LevelError

		// Trace ids are added by the logger's handler, see NewLogHandler.
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetStatus(codes.Error, msg)
		}
	}

	h.logAttrs(ctx, ev.At, level, msg, attrs...)

	return ctx
}

func (h *SlogHandler) logAttrs(ctx context.Context, at time.Time, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}

	l := h.logger
	if !l.Enabled(ctx, level) {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}

	var pcs [1]uintptr
	// skip [runtime.Callers, logAttrs, Event, exporter, event.Log]
	runtime.Callers(5, pcs[:])
	r := slog.NewRecord(at, level, msg, pcs[0])
	r.AddAttrs(attrs...)

	if err := l.Handler().Handle(ctx, r); err != nil {
		h.errorHandler(err)
	}
}

func label(l event.Label) slog.Attr {
	switch {
	case l.IsString():
		return slog.String(l.Name, l.String())
	case l.IsBytes():
		return slog.String(l.Name, string(l.Bytes()))
	case l.IsInt64():
		return slog.Int64(l.Name, l.Int64())
	case l.IsUint64():
		return slog.Uint64(l.Name, l.Uint64())
	case l.IsFloat64():
		return slog.Float64(l.Name, l.Float64())
	case l.IsBool():
		return slog.Bool(l.Name, l.Bool())
	default:
		switch v := l.Interface().(type) {
		case fmt.Stringer:
			return slog.String(l.Name, v.String())
		default:
			return slog.Any(l.Name, v)
		}
	}
}
