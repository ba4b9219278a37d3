package validator

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type FieldError struct {
	Field string
	Error error
}

func Field(field string, err error) FieldError {
	return FieldError{Field: field, Error: err}
}

// Errors maps a field name to its validation message.
type Errors map[string]string

func (ve Errors) Error() string {
	errs := make([]string, 0, len(ve))
	for _, field := range slices.Sorted(maps.Keys(ve)) {
		errs = append(errs, fmt.Sprintf("%s: %s", field, ve[field]))
	}

	return strings.Join(errs, "\n")
}

func (ve Errors) Map() map[string]any {
	m := make(map[string]any, len(ve))
	for k, v := range ve {
		m[k] = v
	}

	return m
}

func NewErrors(fes ...FieldError) error {
	ve := make(Errors)
	for _, fe := range fes {
		if fe.Error == nil {
			continue
		}
		ve[fe.Field] = fe.Error.Error()
	}

	if len(ve) == 0 {
		return nil
	}

	return ve
}
