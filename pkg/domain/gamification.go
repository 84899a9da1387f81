package domain

import "time"

// ExhaustionAction is what happens when the last life is lost.
type ExhaustionAction string

const (
	// ExhaustLeadGate asks for a lead before showing a partial result.
	ExhaustLeadGate ExhaustionAction = "lead_gate"
	// ExhaustPartial ends the run immediately with the score so far.
	ExhaustPartial ExhaustionAction = "partial"
	// ExhaustRedirect ends the run and sends the respondent to a URL,
	// bypassing result resolution.
	ExhaustRedirect ExhaustionAction = "redirect"
)

// GamificationConfig is the optional overlay attached to a quiz.
// A nil section disables that feature.
type GamificationConfig struct {
	Lives  *LivesConfig  `json:"lives,omitempty" mapstructure:"lives"`
	Streak *StreakConfig `json:"streak,omitempty" mapstructure:"streak"`
	Timer  *TimerConfig  `json:"timer,omitempty" mapstructure:"timer"`
}

// LivesConfig sets the life counter and the exhaustion behaviour.
type LivesConfig struct {
	Count       int              `json:"count" mapstructure:"count"`
	OnExhausted ExhaustionAction `json:"onExhausted" mapstructure:"onExhausted"`
	RedirectURL string           `json:"redirectUrl,omitempty" mapstructure:"redirectUrl"`
	LeadForm    *LeadFormElement `json:"leadForm,omitempty" mapstructure:"leadForm"`
}

// StreakConfig activates Multiplier once Threshold consecutive qualifying
// answers are reached.
type StreakConfig struct {
	Threshold  int     `json:"threshold" mapstructure:"threshold"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
}

// TimerConfig sets the default per-element countdown in seconds.
type TimerConfig struct {
	Seconds    int         `json:"seconds" mapstructure:"seconds"`
	SpeedBonus []SpeedTier `json:"speedBonus,omitempty" mapstructure:"speedBonus"`
}

// SpeedTier awards Bonus points when at least MinRemaining (a fraction in
// [0,1]) of the element time is left at answer time.
type SpeedTier struct {
	MinRemaining float64 `json:"minRemaining" mapstructure:"minRemaining"`
	Bonus        int     `json:"bonus" mapstructure:"bonus"`
}

// TimeLimit returns the effective countdown for an element, or zero when
// no timer applies.
func (c *GamificationConfig) TimeLimit(el Element) time.Duration {
	if c == nil || c.Timer == nil {
		return 0
	}
	secs := c.Timer.Seconds
	if el != nil && el.Base().TimeLimit > 0 {
		secs = el.Base().TimeLimit
	}
	return time.Duration(secs) * time.Second
}

// GamificationState is the per-run overlay state carried in RunState.
type GamificationState struct {
	Lives        int             `json:"lives"`
	LivesEnabled bool            `json:"livesEnabled,omitempty"`
	Exhausted    bool            `json:"exhausted,omitempty"`
	Streak       int             `json:"streak"`
	BestStreak   int             `json:"bestStreak,omitempty"`
	BonusAwarded map[string]bool `json:"bonusAwarded,omitempty"`
}

// Clone returns a deep copy.
func (s *GamificationState) Clone() *GamificationState {
	if s == nil {
		return nil
	}
	c := *s
	if s.BonusAwarded != nil {
		c.BonusAwarded = make(map[string]bool, len(s.BonusAwarded))
		for k, v := range s.BonusAwarded {
			c.BonusAwarded[k] = v
		}
	}
	return &c
}

// Verdict classifies an answer for streaks and lives.
type Verdict int

const (
	// VerdictNeutral is used for elements with no notion of a right answer.
	VerdictNeutral Verdict = iota
	VerdictQualified
	VerdictDisqualified
)
