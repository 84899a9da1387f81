package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

func graded(id string, costsLife bool) domain.Element {
	return &domain.ChoiceElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantSingleChoice, CostsLife: costsLife},
		Options:     []domain.Option{{ID: "right", Correct: true}, {ID: "wrong"}},
	}
}

func TestOverlay_StreakResetsOnMiss(t *testing.T) {
	o := New(&domain.GamificationConfig{Streak: &domain.StreakConfig{Threshold: 3, Multiplier: 2}})
	st := o.Init()
	el := graded("q", false)

	seq := []domain.Verdict{
		domain.VerdictQualified, domain.VerdictQualified, domain.VerdictDisqualified,
		domain.VerdictQualified, domain.VerdictQualified, domain.VerdictQualified,
	}
	var effects []Effect
	var streaks []int
	for _, v := range seq {
		effects = append(effects, o.Apply(st, el, v, false, 0))
		streaks = append(streaks, st.Streak)
	}

	assert.Equal(t, []int{1, 2, 0, 1, 2, 3}, streaks)
	assert.Equal(t, 1.0, effects[1].Multiplier)
	assert.Equal(t, 1.0, effects[4].Multiplier, "two in a row after the reset is below threshold")
	assert.Equal(t, 2.0, effects[5].Multiplier, "third in a row activates the multiplier")
	assert.Equal(t, 3, st.Streak)
}

func TestOverlay_NeutralAnswersKeepStreak(t *testing.T) {
	o := New(&domain.GamificationConfig{Streak: &domain.StreakConfig{Threshold: 2, Multiplier: 1.5}})
	st := o.Init()
	o.Apply(st, graded("a", false), domain.VerdictQualified, false, 0)
	o.Apply(st, graded("b", false), domain.VerdictNeutral, false, 0)
	eff := o.Apply(st, graded("c", false), domain.VerdictQualified, false, 0)
	assert.Equal(t, 1.5, eff.Multiplier)
}

func TestOverlay_LivesExhaust(t *testing.T) {
	o := New(&domain.GamificationConfig{Lives: &domain.LivesConfig{Count: 2, OnExhausted: domain.ExhaustRedirect, RedirectURL: "https://example.com"}})
	st := o.Init()
	require.True(t, st.LivesEnabled)

	eff := o.Apply(st, graded("a", true), domain.VerdictDisqualified, false, 0)
	assert.True(t, eff.LifeLost)
	assert.False(t, eff.Exhausted)

	eff = o.Apply(st, graded("b", false), domain.VerdictDisqualified, false, 0)
	assert.False(t, eff.LifeLost, "element not flagged as costing a life")

	eff = o.Apply(st, graded("c", true), domain.VerdictNeutral, true, 0)
	assert.True(t, eff.Exhausted, "timeout on a flagged element costs a life")
	assert.Equal(t, domain.ExhaustRedirect, eff.Action)
	assert.Equal(t, 0, st.Lives)
	assert.Equal(t, "https://example.com", o.RedirectURL())
}

func TestOverlay_SpeedBonusOncePerElement(t *testing.T) {
	o := New(&domain.GamificationConfig{Timer: &domain.TimerConfig{
		Seconds: 10,
		SpeedBonus: []domain.SpeedTier{
			{MinRemaining: 0.2, Bonus: 1},
			{MinRemaining: 0.8, Bonus: 5},
			{MinRemaining: 0.5, Bonus: 3},
		},
	}})
	st := o.Init()
	el := graded("q", false)

	eff := o.Apply(st, el, domain.VerdictQualified, false, 1*time.Second)
	assert.Equal(t, 5, eff.SpeedBonus)

	eff = o.Apply(st, el, domain.VerdictQualified, false, 0)
	assert.Zero(t, eff.SpeedBonus, "bonus is never awarded twice for one element")

	eff = o.Apply(st, graded("other", false), domain.VerdictQualified, false, 4*time.Second)
	assert.Equal(t, 3, eff.SpeedBonus)
}

func TestOverlay_DisabledIsNeutral(t *testing.T) {
	o := New(nil)
	assert.Nil(t, o.Init())
	eff := o.Apply(nil, graded("q", true), domain.VerdictDisqualified, true, 0)
	assert.Equal(t, Effect{Multiplier: 1}, eff)
	assert.Zero(t, o.TimeLimit(graded("q", false)))
}
