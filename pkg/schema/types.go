package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "email").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value string) error
}

// StringType accepts any non-empty string.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// EmailType accepts RFC 5322 addresses.
type EmailType struct{}

func (t *EmailType) Name() string { return "email" }

func (t *EmailType) Validate(value string) error {
	if err := validate.Var(strings.TrimSpace(value), "required,email"); err != nil {
		return fmt.Errorf("not a valid e-mail address")
	}
	return nil
}

// PhoneType accepts international numbers. Spaces, dashes, dots and
// parentheses are ignored; a missing leading '+' is assumed.
type PhoneType struct{}

func (t *PhoneType) Name() string { return "phone" }

func (t *PhoneType) Validate(value string) error {
	if err := validate.Var(NormalizePhone(value), "required,e164"); err != nil {
		return fmt.Errorf("not a valid phone number")
	}
	return nil
}

// NormalizePhone strips formatting characters and prefixes '+'.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case strings.ContainsRune(" -.()", r):
		default:
			return value
		}
	}
	s := b.String()
	if s != "" && s[0] != '+' {
		s = "+" + s
	}
	return s
}

// OptionalType lets an empty value pass and validates anything else with
// the wrapped type.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

func (t *OptionalType) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return t.inner.Validate(value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(string) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value string) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a non-empty string validator.
func String() Type { return &StringType{} }

// Email creates an e-mail validator.
func Email() Type { return &EmailType{} }

// Phone creates a phone number validator.
func Phone() Type { return &PhoneType{} }

// Optional wraps t so empty values pass.
func Optional(t Type) Type { return &OptionalType{inner: t} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(string) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type. An empty name means "string"
// and a trailing '?' marks the type optional.
func ParseType(typeStr string) (Type, error) {
	if strings.HasSuffix(typeStr, "?") {
		inner, err := ParseType(strings.TrimSuffix(typeStr, "?"))
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	switch typeStr {
	case "", "string", "text", "name":
		return String(), nil
	case "email":
		return Email(), nil
	case "phone", "tel":
		return Phone(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}
