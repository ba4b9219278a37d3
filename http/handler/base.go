// Package handler provides a base controller for HTTP handlers with JSON
// handling, error mapping and structured logging.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
	"github.com/alextanhongpin/shopobs/http/request"
	"github.com/alextanhongpin/shopobs/http/response"
)

// BaseHandler is embedded by controllers.
//
//	func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
//		order, err := c.svc.Order(r.Context(), r.PathValue("id"))
//		if err != nil {
//			c.Next(w, r, err)
//			return
//		}
//
//		c.JSON(w, order, http.StatusOK)
//	}
type BaseHandler struct {
	logger *slog.Logger
}

// WithLogger returns a copy of the handler logging to logger.
func (h BaseHandler) WithLogger(logger *slog.Logger) BaseHandler {
	h.logger = logger
	return h
}

func (h BaseHandler) Logger() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}

	return h.logger
}

// ReadJSON decodes the body into req and validates it when req has a
// Validate method.
func (h BaseHandler) ReadJSON(r *http.Request, req any) error {
	return request.DecodeJSON(r, req)
}

func (h BaseHandler) JSON(w http.ResponseWriter, data any, code int) {
	response.JSON(w, data, code)
}

func (h BaseHandler) Text(w http.ResponseWriter, text string, code int) {
	response.Text(w, text, code)
}

func (h BaseHandler) ErrorJSON(w http.ResponseWriter, err error) {
	response.ErrorJSON(w, err)
}

// Next logs err and writes the error response. Client errors are logged as
// warnings, everything else as errors.
func (h BaseHandler) Next(w http.ResponseWriter, r *http.Request, err error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("pattern", r.Pattern),
	}

	var (
		ve interface {
			Map() map[string]any
		}
		c *cause.Error
	)

	ctx := r.Context()
	logger := h.Logger()

	switch {
	case errors.As(err, &ve):
		logger.WarnContext(ctx, "validation error occurred",
			append(attrs,
				slog.Any("errors", ve.Map()),
				slog.Int("code", http.StatusBadRequest),
			)...,
		)
	case errors.As(err, &c):
		code := codes.HTTP(c.Code)
		level := slog.LevelWarn
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		logger.Log(ctx, level, c.Message,
			append(attrs,
				slog.String("error", c.Name),
				slog.Int("code", code),
			)...,
		)
	default:
		logger.ErrorContext(ctx, "internal error occurred",
			append(attrs,
				slog.String("error", err.Error()),
				slog.Int("code", http.StatusInternalServerError),
			)...,
		)
	}

	h.ErrorJSON(w, err)
}
