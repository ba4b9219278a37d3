package response

import (
	"cmp"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
)

const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// RawJSON writes already encoded JSON.
func RawJSON(w http.ResponseWriter, data []byte, code int) {
	if !json.Valid(data) {
		ErrorJSON(w, errors.New("invalid JSON data"))
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(cmp.Or(code, http.StatusOK))

	if _, err := w.Write(data); err != nil {
		// Headers are already written.
		slog.Default().Error("failed to write response", "error", err)
	}
}

// JSON wraps data in the Body envelope.
func JSON(w http.ResponseWriter, data any, code int) {
	encode(w, Body{Data: data}, code)
}

func Text(w http.ResponseWriter, text string, code int) {
	w.Header().Set("Content-Type", ContentTypeText)
	w.WriteHeader(cmp.Or(code, http.StatusOK))

	if _, err := w.Write([]byte(text)); err != nil {
		slog.Default().Error("failed to write text response", "error", err)
	}
}

// ErrorJSON maps err to a status code and an error body.
//
//	validation errors -> 400 VALIDATION_ERROR with the field errors
//	*cause.Error      -> codes.HTTP(c.Code) with the error name and message
//	anything else     -> 500 INTERNAL_SERVER_ERROR
func ErrorJSON(w http.ResponseWriter, err error) {
	encode(w, Body{Error: toError(err)}, StatusCode(err))
}

// StatusCode returns the status ErrorJSON would respond with.
func StatusCode(err error) int {
	var (
		c  *cause.Error
		ve validationError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &c):
		return codes.HTTP(c.Code)
	default:
		return http.StatusInternalServerError
	}
}

type validationError interface {
	error
	Map() map[string]any
}

func toError(err error) *Error {
	var (
		c  *cause.Error
		ve validationError
	)

	switch {
	case errors.As(err, &ve):
		return &Error{
			Code:    "VALIDATION_ERROR",
			Message: "Validation failed",
			Errors:  ve.Map(),
		}
	case errors.As(err, &c):
		return &Error{
			Code:    c.Name,
			Message: c.Message,
		}
	default:
		return &Error{
			Code:    "INTERNAL_SERVER_ERROR",
			Message: "An unexpected error occurred. Please try again later.",
		}
	}
}

func encode(w http.ResponseWriter, body Body, code int) {
	b, err := json.Marshal(body)
	if err != nil {
		slog.Default().Error("failed to encode response", "error", err)

		b, _ = json.Marshal(Body{Error: toError(err)})
		code = http.StatusInternalServerError
	}

	RawJSON(w, b, code)
}
