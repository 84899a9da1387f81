package middleware

import (
	"context"
	"regexp"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

// DefaultPIIPatterns match the contact fields lead forms usually collect.
var DefaultPIIPatterns = []string{"(?i)email", "(?i)phone", "(?i)^name$", "(?i)address"}

type piiMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks contact fields whose
// name matches one of the patterns, both in RunState.Contact and in lead
// answers of the log. Only finished runs are masked: an active run still
// needs its contact for dispatch, which happens when it finishes. The
// state held by the engine is not modified.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, runID string, state *domain.RunState) error {
	if !state.Finished() {
		return m.next.Save(ctx, runID, state)
	}
	cloned := state.Clone()
	cloned.Contact = m.mask(cloned.Contact)
	for i, a := range cloned.Answers {
		if lead, ok := a.Outcome.(domain.LeadOutcome); ok {
			cloned.Answers[i].Outcome = domain.LeadOutcome{Fields: m.mask(lead.Fields)}
		}
	}
	return m.next.Save(ctx, runID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, runID string) (*domain.RunState, error) {
	return m.next.Load(ctx, runID)
}

func (m *piiMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a masked copy of fields.
func (m *piiMiddleware) mask(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
		for _, p := range m.patterns {
			if p.MatchString(k) {
				out[k] = Mask
				break
			}
		}
	}
	return out
}
