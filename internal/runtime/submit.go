package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/schema"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/scoring"
)

// Submit applies one respondent input to the element currently shown and
// returns the next state. On error the given state is still valid and
// unchanged, so the host can simply ask again.
func (e *Engine) Submit(ctx context.Context, q *Quiz, current *domain.RunState, in domain.Input) (*domain.RunState, error) {
	switch {
	case current.Finished():
		return nil, domain.ErrRunFinished
	case current.Status != domain.StatusAwaitingInput:
		return nil, domain.ErrNotAwaitingInput
	}

	st := current.Clone()
	if st.PendingLeadGate {
		return e.submitLeadGate(ctx, q, st, in)
	}

	node, ok := q.Graph.Node(st.CurrentNodeID)
	if !ok || st.CurrentElementIndex >= len(node.Elements) {
		return nil, fmt.Errorf("run %s points at %s#%d, which does not exist: %w",
			st.RunID, st.CurrentNodeID, st.CurrentElementIndex, domain.ErrNotAwaitingInput)
	}
	el := node.Elements[st.CurrentElementIndex]

	base, err := e.checkInput(q, node, el, in)
	if err != nil {
		return nil, err
	}

	_, timedOut := in.Outcome.(domain.TimeoutOutcome)
	verdict := scoring.Verdict(el, in.Outcome)
	eff := q.overlay.Apply(st.Gamification, el, verdict, timedOut, in.Elapsed)
	delta := scoring.Scale(base, eff.Multiplier) + eff.SpeedBonus
	st.Score += delta

	last := st.CurrentElementIndex == len(node.Elements)-1
	r := e.resolveRoute(q, node, domain.CandidateHandles(el, in.Outcome), last)

	rec := domain.AnswerRecord{
		NodeID:     node.ID,
		ElementID:  el.ElementID(),
		Variant:    el.Variant(),
		Outcome:    in.Outcome,
		Elapsed:    in.Elapsed,
		BaseDelta:  base,
		Multiplier: eff.Multiplier,
		SpeedBonus: eff.SpeedBonus,
		Delta:      delta,
		Handle:     r.handle,
		LifeLost:   eff.LifeLost,
	}
	st.Answers = append(st.Answers, rec)
	if lead, ok := in.Outcome.(domain.LeadOutcome); ok {
		captureContact(st, lead)
	}

	e.logger.Debug("element completed", "run", st.RunID, "node", node.ID, "element", el.ElementID(), "delta", delta, "score", st.Score)
	if e.hooks.OnAnswer != nil {
		e.hooks.OnAnswer(ctx, &domain.AnswerEvent{RunID: st.RunID, QuizID: st.QuizID, Record: rec, Score: st.Score})
	}

	if eff.Exhausted {
		e.exhaust(ctx, q, st, eff.Action)
		return st, nil
	}

	switch r.kind {
	case routeEdge:
		target, _ := q.Graph.Node(r.target)
		e.enter(ctx, st, target)
	case routeNext:
		st.CurrentElementIndex++
	case routeNone:
		e.unrouted(ctx, q, st, "unrouted_transition", fmt.Sprintf("no edge for element %q and no general or catch-all edge", el.ElementID()))
		return st, nil
	}
	e.advance(ctx, q, st)
	return st, nil
}

// Timeout records that the countdown of the current element expired.
// It fails with InvalidInputError when no timer applies to the element.
func (e *Engine) Timeout(ctx context.Context, q *Quiz, current *domain.RunState) (*domain.RunState, error) {
	var limit time.Duration
	if node, ok := q.Graph.Node(current.CurrentNodeID); ok && current.CurrentElementIndex < len(node.Elements) {
		limit = q.overlay.TimeLimit(node.Elements[current.CurrentElementIndex])
	}
	return e.Submit(ctx, q, current, domain.Input{Outcome: domain.TimeoutOutcome{}, Elapsed: limit})
}

// checkInput validates the input and returns the element's base delta.
func (e *Engine) checkInput(q *Quiz, node *domain.Node, el domain.Element, in domain.Input) (int, error) {
	if in.Elapsed < 0 {
		return 0, &domain.InvalidInputError{NodeID: node.ID, ElementID: el.ElementID(), Expected: "non-negative elapsed time", Got: in.Elapsed.String()}
	}
	if _, ok := in.Outcome.(domain.TimeoutOutcome); ok && q.overlay.TimeLimit(el) == 0 {
		return 0, &domain.InvalidInputError{NodeID: node.ID, ElementID: el.ElementID(), Expected: "an answer", Got: "timeout on an untimed element"}
	}

	base, err := scoring.Delta(node.ID, el, in.Outcome)
	if err != nil {
		return 0, err
	}

	if form, ok := el.(*domain.LeadFormElement); ok {
		if lead, ok := in.Outcome.(domain.LeadOutcome); ok {
			if err := e.validateLead(form, lead.Fields); err != nil {
				return 0, &domain.InvalidInputError{NodeID: node.ID, ElementID: el.ElementID(), Expected: "valid contact fields", Got: err.Error()}
			}
		}
	}
	return base, nil
}

// exhaust applies the configured action once the last life is gone.
func (e *Engine) exhaust(ctx context.Context, q *Quiz, st *domain.RunState, action domain.ExhaustionAction) {
	e.logger.Info("lives exhausted", "run", st.RunID, "action", action)
	switch action {
	case domain.ExhaustRedirect:
		st.RedirectURL = q.overlay.RedirectURL()
		e.finish(ctx, q, st, domain.TerminationRedirect, nil)
	case domain.ExhaustLeadGate:
		if len(st.Contact) > 0 {
			e.finish(ctx, q, st, domain.TerminationLivesLead, scoring.Resolve(st.Score, q.Graph.Ranges, q.Bounds()))
			return
		}
		st.PendingLeadGate = true
		st.Status = domain.StatusAwaitingInput
	default:
		e.finish(ctx, q, st, domain.TerminationLivesPartial, scoring.Resolve(st.Score, q.Graph.Ranges, q.Bounds()))
	}
}

// submitLeadGate accepts the lead required before a partial result.
func (e *Engine) submitLeadGate(ctx context.Context, q *Quiz, st *domain.RunState, in domain.Input) (*domain.RunState, error) {
	form := q.overlay.LeadForm()
	lead, ok := in.Outcome.(domain.LeadOutcome)
	if !ok {
		got := "nothing"
		if in.Outcome != nil {
			got = string(in.Outcome.Kind())
		}
		return nil, &domain.InvalidInputError{NodeID: st.CurrentNodeID, ElementID: form.ID, Expected: "lead", Got: got}
	}
	if err := e.validateLead(form, lead.Fields); err != nil {
		return nil, &domain.InvalidInputError{NodeID: st.CurrentNodeID, ElementID: form.ID, Expected: "valid contact fields", Got: err.Error()}
	}

	rec := domain.AnswerRecord{
		NodeID:    st.CurrentNodeID,
		ElementID: form.ID,
		Variant:   domain.VariantLeadForm,
		Outcome:   lead,
		Elapsed:   in.Elapsed,
	}
	st.Answers = append(st.Answers, rec)
	captureContact(st, lead)
	if e.hooks.OnAnswer != nil {
		e.hooks.OnAnswer(ctx, &domain.AnswerEvent{RunID: st.RunID, QuizID: st.QuizID, Record: rec, Score: st.Score})
	}

	e.finish(ctx, q, st, domain.TerminationLivesLead, scoring.Resolve(st.Score, q.Graph.Ranges, q.Bounds()))
	return st, nil
}

func (e *Engine) validateLead(form *domain.LeadFormElement, fields map[string]string) error {
	if e.replaying {
		return nil
	}
	return schema.ValidateLead(form, fields)
}

func captureContact(st *domain.RunState, lead domain.LeadOutcome) {
	if len(lead.Fields) == 0 {
		return
	}
	if st.Contact == nil {
		st.Contact = make(map[string]string, len(lead.Fields))
	}
	for k, v := range lead.Fields {
		st.Contact[k] = v
	}
}
