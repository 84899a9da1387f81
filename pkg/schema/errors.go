package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is one contact field that failed its schema.
type FieldError struct {
	Field  string
	Reason string
	// Value is empty for missing fields.
	Value string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %q)", e.Field, e.Reason, e.Value)
}

// FormError collects every failing field of one submission so a form can
// highlight all of them at once.
type FormError struct {
	Fields []error
}

func (e *FormError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0].Error()
	}
	parts := make([]string, len(e.Fields))
	for i, err := range e.Fields {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d invalid fields: %s", len(e.Fields), strings.Join(parts, "; "))
}

// FieldErrors unwraps the per-field failures of err, or nil.
func FieldErrors(err error) []error {
	var form *FormError
	if errors.As(err, &form) {
		return form.Fields
	}
	return nil
}
