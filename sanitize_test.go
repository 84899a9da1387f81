package quizflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

func TestParseAnswer_SanitizesText(t *testing.T) {
	form := &domain.LeadFormElement{Fields: []domain.LeadField{
		{Name: "email", Type: "email"},
		{Name: "phone", Type: "phone"},
	}}
	tests := []struct {
		name    string
		el      domain.Element
		line    string
		want    domain.Outcome
		wantErr error
	}{
		{
			name: "open text strips escape codes",
			el:   &domain.OpenTextElement{},
			line: "\x1b[31mbold\x00 coffee",
			want: domain.TextOutcome{Text: "[31mbold coffee"},
		},
		{
			name: "single line text flattens tabs",
			el:   &domain.OpenTextElement{},
			line: "dark\troast",
			want: domain.TextOutcome{Text: "dark roast"},
		},
		{
			name: "multiline text keeps tabs",
			el:   &domain.OpenTextElement{Multiline: true},
			line: "dark\troast",
			want: domain.TextOutcome{Text: "dark\troast"},
		},
		{
			name:    "open text over its cap",
			el:      &domain.OpenTextElement{MaxLength: 5},
			line:    "espresso",
			wantErr: ErrAnswerTooLong,
		},
		{
			name: "cap counts characters not bytes",
			el:   &domain.OpenTextElement{MaxLength: 5},
			line: "café!",
			want: domain.TextOutcome{Text: "café!"},
		},
		{
			name:    "invalid utf8",
			el:      &domain.OpenTextElement{},
			line:    "\xff\xfe",
			wantErr: ErrInvalidUTF8,
		},
		{
			name: "only control characters skips",
			el:   &domain.OpenTextElement{},
			line: "\x07\x08",
			want: domain.SkipOutcome{},
		},
		{
			name:    "phone longer than a phone number",
			el:      form,
			line:    "phone=" + strings.Repeat("5", 40),
			wantErr: ErrAnswerTooLong,
		},
		{
			name: "lead values are cleaned per field",
			el:   form,
			line: "email= ana@example.com\x00 ;phone=+1 555",
			want: domain.LeadOutcome{Fields: map[string]string{"email": "ana@example.com", "phone": "+1 555"}},
		},
		{
			name:    "segmentless game text is capped",
			el:      &domain.GameElement{},
			line:    strings.Repeat("x", maxGameText+1),
			wantErr: ErrAnswerTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.el, tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, errUnparsable, "the runner asks again")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLeadField_Limit(t *testing.T) {
	assert.Equal(t, 254, domain.LeadField{Type: "email"}.Limit())
	assert.Equal(t, 32, domain.LeadField{Type: "phone"}.Limit())
	assert.Equal(t, 200, domain.LeadField{Type: "string"}.Limit())
}
