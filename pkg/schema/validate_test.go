package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

func form() *domain.LeadFormElement {
	return &domain.LeadFormElement{
		ElementBase: domain.ElementBase{ID: "lead", Type: domain.VariantLeadForm},
		Fields: []domain.LeadField{
			{Name: "name", Required: true},
			{Name: "email", Type: "email", Required: true},
			{Name: "phone", Type: "phone"},
		},
	}
}

func TestValidateLead_Success(t *testing.T) {
	err := ValidateLead(form(), map[string]string{
		"name":  "Ada",
		"email": "ada@example.com",
		"phone": "+44 (20) 7946-0958",
	})
	assert.NoError(t, err)
}

func TestValidateLead_OptionalFieldMayBeMissing(t *testing.T) {
	err := ValidateLead(form(), map[string]string{"name": "Ada", "email": "ada@example.com"})
	assert.NoError(t, err)
}

func TestValidateLead_CollectsAllFailures(t *testing.T) {
	err := ValidateLead(form(), map[string]string{"email": "not-an-email", "phone": "abc"})
	require.Error(t, err)

	errs := FieldErrors(err)
	require.Len(t, errs, 3)

	keys := make([]string, 0, len(errs))
	for _, e := range errs {
		var ve *FieldError
		require.ErrorAs(t, e, &ve)
		keys = append(keys, ve.Field)
	}
	assert.Equal(t, []string{"email", "name", "phone"}, keys)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("email?")
	require.NoError(t, err)
	assert.Equal(t, "email?", typ.Name())
	assert.NoError(t, typ.Validate(""))

	_, err = ParseType("hologram")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+5511987654321", NormalizePhone("55 (11) 98765-4321"))
	assert.Equal(t, "+14155550100", NormalizePhone("+1 415.555.0100"))
	assert.Equal(t, "abc", NormalizePhone("abc"))
}

func TestCustomType(t *testing.T) {
	digits := Custom("cpf", func(v string) error {
		if len(v) != 11 {
			return assert.AnError
		}
		return nil
	})
	err := Validate(Schema{"cpf": digits}, map[string]string{"cpf": "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cpf")
}
