// Package schema validates contact data captured by lead forms.
//
// A Schema maps field names to types. Built-in types cover plain strings,
// e-mail addresses and phone numbers; Optional wraps a type so a missing
// or empty value passes. Schemas are usually derived from a lead form:
//
//	s, err := schema.ForLeadForm(form)
//	if err != nil {
//	    // form declares an unknown field type
//	}
//	if err := schema.Validate(s, fields); err != nil {
//	    for _, e := range schema.FieldErrors(err) {
//	        // report e to the respondent
//	    }
//	}
//
// Custom validators can be registered for form-specific rules:
//
//	cpf := schema.Custom("cpf", func(v string) error {
//	    if len(v) != 11 {
//	        return fmt.Errorf("must have 11 digits")
//	    }
//	    return nil
//	})
package schema
