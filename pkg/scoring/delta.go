package scoring

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Delta validates an outcome against the element it answers and returns the
// element's base score contribution, before any gamification multiplier.
// A mismatch returns *domain.InvalidInputError.
func Delta(nodeID string, el domain.Element, out domain.Outcome) (int, error) {
	if out == nil {
		return 0, invalid(nodeID, el, "an outcome", "nothing")
	}
	if _, ok := out.(domain.TimeoutOutcome); ok {
		return 0, nil
	}

	switch e := el.(type) {
	case *domain.ChoiceElement:
		co, ok := out.(domain.ChoiceOutcome)
		if !ok {
			return 0, invalid(nodeID, el, "choice", string(out.Kind()))
		}
		return choiceDelta(nodeID, e, co)

	case *domain.RatingElement:
		ro, ok := out.(domain.RatingOutcome)
		if !ok {
			return 0, invalid(nodeID, el, "rating", string(out.Kind()))
		}
		if ro.Value < e.Min || ro.Value > e.Max {
			return 0, invalid(nodeID, el, fmt.Sprintf("rating in [%d,%d]", e.Min, e.Max), fmt.Sprint(ro.Value))
		}
		return Scale(ro.Value, e.Multiplier()), nil

	case *domain.OpenTextElement:
		switch o := out.(type) {
		case domain.TextOutcome:
			if e.Required && o.Text == "" {
				return 0, invalid(nodeID, el, "non-empty text", "empty text")
			}
			if n := utf8.RuneCountInString(o.Text); n > e.Limit() {
				return 0, invalid(nodeID, el, fmt.Sprintf("at most %d characters", e.Limit()), fmt.Sprintf("%d characters", n))
			}
			return 0, nil
		case domain.SkipOutcome:
			if e.Required {
				return 0, invalid(nodeID, el, "text", "skip")
			}
			return 0, nil
		}
		return 0, invalid(nodeID, el, "text", string(out.Kind()))

	case *domain.LeadFormElement:
		switch out.(type) {
		case domain.LeadOutcome:
			return 0, nil
		case domain.SkipOutcome:
			if e.Gate {
				return 0, invalid(nodeID, el, "lead", "skip")
			}
			return 0, nil
		}
		return 0, invalid(nodeID, el, "lead", string(out.Kind()))

	case *domain.GameElement:
		g, ok := out.(domain.GameOutcome)
		if !ok {
			return 0, invalid(nodeID, el, "game", string(out.Kind()))
		}
		if g.SegmentID == "" {
			if len(e.Segments) > 0 {
				return 0, invalid(nodeID, el, "segment id", "empty")
			}
			return 0, nil
		}
		seg, ok := e.Segment(g.SegmentID)
		if !ok {
			return 0, invalid(nodeID, el, "known segment", g.SegmentID)
		}
		if seg.Score == nil {
			return 0, nil
		}
		return *seg.Score, nil

	case *domain.SwipeElement:
		s, ok := out.(domain.SwipeOutcome)
		if !ok {
			return 0, invalid(nodeID, el, "swipe", string(out.Kind()))
		}
		if s.Direction != domain.SwipeLeft && s.Direction != domain.SwipeRight {
			return 0, invalid(nodeID, el, "left or right", string(s.Direction))
		}
		return e.Side(s.Direction).Score, nil

	case *domain.ContentElement:
		return 0, invalid(nodeID, el, "no input", string(out.Kind()))
	}
	return 0, invalid(nodeID, el, "known element", fmt.Sprintf("%T", el))
}

// choiceDelta sums the selected option scores. Addition makes the result
// independent of selection order.
func choiceDelta(nodeID string, e *domain.ChoiceElement, co domain.ChoiceOutcome) (int, error) {
	if len(co.OptionIDs) == 0 {
		return 0, invalid(nodeID, e, "at least one option", "none")
	}
	if !e.Multi() && len(co.OptionIDs) != 1 {
		return 0, invalid(nodeID, e, "exactly one option", fmt.Sprintf("%d options", len(co.OptionIDs)))
	}
	seen := make(map[string]bool, len(co.OptionIDs))
	total := 0
	for _, id := range co.OptionIDs {
		if seen[id] {
			return 0, invalid(nodeID, e, "distinct options", "duplicate "+id)
		}
		seen[id] = true
		opt, ok := e.Option(id)
		if !ok {
			return 0, invalid(nodeID, e, "known option", id)
		}
		total += opt.Score
	}
	return total, nil
}

// Scale multiplies a value and rounds half away from zero.
func Scale(value int, multiplier float64) int {
	if multiplier == 1 {
		return value
	}
	return int(math.Round(float64(value) * multiplier))
}

// Verdict classifies an outcome for streaks and lives. Elements without a
// marked correct answer are neutral; a timeout on a graded element is
// disqualifying.
func Verdict(el domain.Element, out domain.Outcome) domain.Verdict {
	_, timedOut := out.(domain.TimeoutOutcome)
	switch e := el.(type) {
	case *domain.ChoiceElement:
		if !e.Graded() {
			return domain.VerdictNeutral
		}
		co, ok := out.(domain.ChoiceOutcome)
		if timedOut || !ok || len(co.OptionIDs) == 0 {
			return domain.VerdictDisqualified
		}
		for _, id := range co.OptionIDs {
			if opt, ok := e.Option(id); !ok || !opt.Correct {
				return domain.VerdictDisqualified
			}
		}
		return domain.VerdictQualified
	case *domain.SwipeElement:
		if !e.Graded() {
			return domain.VerdictNeutral
		}
		so, ok := out.(domain.SwipeOutcome)
		if timedOut || !ok || !e.Side(so.Direction).Correct {
			return domain.VerdictDisqualified
		}
		return domain.VerdictQualified
	case *domain.GameElement:
		graded := false
		for _, s := range e.Segments {
			graded = graded || s.Correct
		}
		if !graded {
			return domain.VerdictNeutral
		}
		g, ok := out.(domain.GameOutcome)
		if timedOut || !ok {
			return domain.VerdictDisqualified
		}
		if seg, ok := e.Segment(g.SegmentID); ok && seg.Correct {
			return domain.VerdictQualified
		}
		return domain.VerdictDisqualified
	}
	return domain.VerdictNeutral
}

// Total recomputes a score from an answer log.
func Total(answers []domain.AnswerRecord) int {
	total := 0
	for _, a := range answers {
		total += a.Delta
	}
	return total
}

func invalid(nodeID string, el domain.Element, expected, got string) *domain.InvalidInputError {
	return &domain.InvalidInputError{
		NodeID:    nodeID,
		ElementID: el.ElementID(),
		Expected:  expected,
		Got:       got,
	}
}
