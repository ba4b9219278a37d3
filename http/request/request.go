// package request handles the parsing and validation for the request body.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alextanhongpin/errors/cause"
	"github.com/alextanhongpin/errors/codes"
)

var (
	ErrInvalidJSON  = cause.New(codes.BadRequest, "request/invalid_json", "Request body is not valid JSON")
	ErrInvalidBody  = cause.New(codes.BadRequest, "request/invalid_body", "Request body does not match the expected schema")
	ErrBodyTooLarge = cause.New(codes.BadRequest, "request/body_too_large", "Request body is too large")
)

type BodyError struct {
	Body []byte
	err  error
}

func (b *BodyError) Unwrap() error {
	return b.err
}

func (b *BodyError) Error() string {
	return b.err.Error()
}

type validatable interface {
	Validate() error
}

// DecodeJSON decodes the json to v and, when v implements Validate, validates
// it. Malformed bodies are reported as bad requests.
func DecodeJSON(r *http.Request, v any) error {
	b, err := Read(r)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: %w", ErrBodyTooLarge, err)
		}

		return err
	}

	if !json.Valid(b) {
		return &BodyError{Body: b, err: ErrInvalidJSON}
	}

	if err := json.Unmarshal(b, v); err != nil {
		return &BodyError{Body: b, err: fmt.Errorf("%w: %w", ErrInvalidBody, err)}
	}

	if t, ok := v.(validatable); ok {
		return t.Validate()
	}

	return nil
}
