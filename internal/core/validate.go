package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags on a document type (request, collection,
// environment, history entry, settings).
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %T: %s", v, describeValidation(err))
	}
	return nil
}

// ValidateEach validates every element and reports the first failure with its index.
func ValidateEach[T any](items []T) error {
	for i := range items {
		if err := Validate(items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// describeValidation turns validator errors into a readable message.
func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	var msgs []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field '%s' is required", e.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be one of [%s], got %q", e.Namespace(), e.Param(), e.Value()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be greater than or equal to %s", e.Namespace(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' tag", e.Namespace(), e.Tag()))
		}
	}
	return strings.Join(msgs, ", ")
}
