// Package validator validates structs using struct tags and reports failures
// as a field to message map.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())

	// Report fields by their json name so the messages match the payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}

		return name
	})

	return v
}

// Struct validates v against its `validate` tags.
// It returns nil, an Errors, or the underlying error when v is not a struct.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ves playground.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	fes := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		fes = append(fes, Field(fe.Field(), errors.New(message(fe))))
	}

	return NewErrors(fes...)
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("%s %s", fe.Tag(), fe.Param())
	case "gtefield", "ltefield":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
