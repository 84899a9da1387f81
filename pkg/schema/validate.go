package schema

import (
	"fmt"
	"slices"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "email": Email(), "phone": Optional(Phone())}
type Schema map[string]Type

// ForLeadForm derives a schema from a lead form's field declarations.
func ForLeadForm(form *domain.LeadFormElement) (Schema, error) {
	s := make(Schema, len(form.Fields))
	for _, f := range form.Fields {
		t, err := ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if !f.Required {
			t = Optional(t)
		}
		s[f.Name] = t
	}
	return s, nil
}

// Validate checks if data conforms to the schema. Fields are checked in
// name order so error lists are stable. Missing fields are validated as
// empty values, which only optional types accept.
func Validate(schema Schema, data map[string]string) error {
	if len(schema) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		fieldType := schema[name]
		value, exists := data[name]
		if !exists {
			if _, optional := fieldType.(*OptionalType); optional {
				continue
			}
			errs = append(errs, &FieldError{Field: name, Reason: "required"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &FieldError{Field: name, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &FormError{Fields: errs}
	}
	return nil
}

// ValidateLead checks captured fields against a lead form.
func ValidateLead(form *domain.LeadFormElement, fields map[string]string) error {
	s, err := ForLeadForm(form)
	if err != nil {
		return err
	}
	return Validate(s, fields)
}
