// Package gamification implements the optional lives, streak and timer
// overlay that modifies scoring and can end a run early.
package gamification

import (
	"time"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Effect is what the overlay did for one completed element.
type Effect struct {
	// Multiplier scales the element's base delta. It is 1 when no streak is active.
	Multiplier float64
	SpeedBonus int
	LifeLost   bool
	// Exhausted is set on the answer that spends the last life.
	Exhausted bool
	Action    domain.ExhaustionAction
}

// Overlay applies a GamificationConfig to run state. A nil config yields a
// neutral overlay.
type Overlay struct {
	cfg *domain.GamificationConfig
}

// New returns an Overlay for cfg.
func New(cfg *domain.GamificationConfig) *Overlay {
	return &Overlay{cfg: cfg}
}

// Enabled reports whether any overlay feature is configured.
func (o *Overlay) Enabled() bool {
	return o.cfg != nil && (o.cfg.Lives != nil || o.cfg.Streak != nil || o.cfg.Timer != nil)
}

// Init returns the starting overlay state, or nil when disabled.
func (o *Overlay) Init() *domain.GamificationState {
	if !o.Enabled() {
		return nil
	}
	st := &domain.GamificationState{BonusAwarded: map[string]bool{}}
	if o.cfg.Lives != nil && o.cfg.Lives.Count > 0 {
		st.LivesEnabled = true
		st.Lives = o.cfg.Lives.Count
	}
	return st
}

// TimeLimit returns the countdown for el, zero when no timer applies.
// Lead forms are never timed.
func (o *Overlay) TimeLimit(el domain.Element) time.Duration {
	if !el.Interactive() || el.Variant() == domain.VariantLeadForm {
		return 0
	}
	return o.cfg.TimeLimit(el)
}

// LeadForm returns the form used by the lead gate exhaustion action.
func (o *Overlay) LeadForm() *domain.LeadFormElement {
	if o.cfg != nil && o.cfg.Lives != nil && o.cfg.Lives.LeadForm != nil {
		return o.cfg.Lives.LeadForm
	}
	return domain.DefaultLeadForm()
}

// RedirectURL is the target of the redirect exhaustion action.
func (o *Overlay) RedirectURL() string {
	if o.cfg == nil || o.cfg.Lives == nil {
		return ""
	}
	return o.cfg.Lives.RedirectURL
}

// NextMultiplier is the streak multiplier a qualifying answer would get
// from state st.
func (o *Overlay) NextMultiplier(st *domain.GamificationState) float64 {
	if st == nil || o.cfg == nil || o.cfg.Streak == nil {
		return 1
	}
	s := o.cfg.Streak
	if s.Threshold > 0 && s.Multiplier > 0 && st.Streak+1 >= s.Threshold {
		return s.Multiplier
	}
	return 1
}

// Apply updates st for one completed element and reports the effect.
// st is mutated in place; callers pass a cloned state.
func (o *Overlay) Apply(st *domain.GamificationState, el domain.Element, verdict domain.Verdict, timedOut bool, elapsed time.Duration) Effect {
	eff := Effect{Multiplier: 1}
	if st == nil || o.cfg == nil {
		return eff
	}

	if s := o.cfg.Streak; s != nil && s.Threshold > 0 {
		switch verdict {
		case domain.VerdictQualified:
			st.Streak++
			st.BestStreak = max(st.BestStreak, st.Streak)
		case domain.VerdictDisqualified:
			st.Streak = 0
		}
		if st.Streak >= s.Threshold && s.Multiplier > 0 {
			eff.Multiplier = s.Multiplier
		}
	}

	if l := o.cfg.Lives; l != nil && st.LivesEnabled && !st.Exhausted {
		if el.Base().CostsLife && (timedOut || verdict == domain.VerdictDisqualified) && st.Lives > 0 {
			st.Lives--
			eff.LifeLost = true
			if st.Lives == 0 {
				st.Exhausted = true
				eff.Exhausted = true
				eff.Action = l.OnExhausted
				if eff.Action == "" {
					eff.Action = domain.ExhaustPartial
				}
			}
		}
	}

	if !timedOut && verdict != domain.VerdictDisqualified {
		eff.SpeedBonus = o.speedBonus(st, el, elapsed)
	}
	return eff
}

// speedBonus awards the best tier whose remaining-time threshold is met.
// An element is evaluated at most once per run.
func (o *Overlay) speedBonus(st *domain.GamificationState, el domain.Element, elapsed time.Duration) int {
	if o.cfg.Timer == nil || len(o.cfg.Timer.SpeedBonus) == 0 {
		return 0
	}
	limit := o.TimeLimit(el)
	if limit <= 0 || elapsed < 0 {
		return 0
	}
	if st.BonusAwarded == nil {
		st.BonusAwarded = map[string]bool{}
	}
	if st.BonusAwarded[el.ElementID()] {
		return 0
	}
	st.BonusAwarded[el.ElementID()] = true

	remaining := 1 - float64(elapsed)/float64(limit)
	best, bestAt := 0, -1.0
	for _, tier := range o.cfg.Timer.SpeedBonus {
		if remaining >= tier.MinRemaining && tier.MinRemaining > bestAt {
			best, bestAt = tier.Bonus, tier.MinRemaining
		}
	}
	return best
}
