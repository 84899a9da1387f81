package quizflow

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// maxGameText caps the free text a segmentless game accepts.
const maxGameText = 200

var (
	ErrAnswerTooLong = errors.New("answer too long")
	ErrInvalidUTF8   = errors.New("answer is not valid UTF-8")
)

// cleanAnswer validates typed text for a field capped at limit characters
// and strips control characters. Newlines and tabs survive only when
// multiline is set, otherwise they become spaces. Long answers are
// rejected, never truncated.
func cleanAnswer(text string, limit int, multiline bool) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			if multiline {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if n := utf8.RuneCountInString(out); n > limit {
		return "", fmt.Errorf("%w: %d characters, at most %d", ErrAnswerTooLong, n, limit)
	}
	return out, nil
}

// cleanLead sanitizes each submitted value against the limit of the form
// field of the same name. Unknown fields get the generic text limit.
func cleanLead(form *domain.LeadFormElement, fields map[string]string) error {
	limits := make(map[string]int, len(form.Fields))
	for _, f := range form.Fields {
		limits[f.Name] = f.Limit()
	}
	for name, v := range fields {
		limit, ok := limits[name]
		if !ok {
			limit = domain.LeadField{Name: name}.Limit()
		}
		clean, err := cleanAnswer(v, limit, false)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = clean
	}
	return nil
}
