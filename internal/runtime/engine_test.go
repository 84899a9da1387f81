package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dsl"
)

type recorder struct {
	mu     sync.Mutex
	subs   []domain.Submission
	events []domain.HostEvent
}

func (r *recorder) Dispatch(_ context.Context, sub domain.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub)
}

func (r *recorder) Emit(_ context.Context, ev domain.HostEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func compile(t *testing.T, b *dsl.Builder) *Quiz {
	t.Helper()
	q, err := Compile(b.Build())
	require.NoError(t, err)
	return q
}

func pick(ids ...string) domain.Input {
	return domain.Input{Outcome: domain.ChoiceOutcome{OptionIDs: ids}}
}

// Start -> Q1(A=1, B=5) -> Result with ranges Low [0,2] and High [3,5].
func simpleQuiz() *dsl.Builder {
	b := dsl.New("simple")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Pick", dsl.Opt("A", "A", 1), dsl.Opt("B", "B", 5)).
		Go("result")
	b.Result("result")
	b.Range(0, 2, "Low").Range(3, 5, "High")
	return b
}

func TestEngine_EndToEnd(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(WithDispatcher(rec), WithEventSink(rec))
	q := compile(t, simpleQuiz())
	ctx := context.Background()

	st, err := e.Start(ctx, q, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingInput, st.Status)
	assert.Equal(t, "q1", st.CurrentNodeID)

	final, err := e.Submit(ctx, q, st, pick("B"))
	require.NoError(t, err)

	assert.True(t, final.Finished())
	assert.Equal(t, 5, final.Score)
	require.NotNil(t, final.Result)
	assert.Equal(t, "High", final.Result.Category)
	assert.Len(t, final.Answers, 1)
	assert.Equal(t, domain.TerminationResult, final.Termination)
	assert.Equal(t, []string{"start", "q1", "result"}, final.History)

	require.Len(t, rec.subs, 1, "dispatch happens exactly once")
	assert.Equal(t, "High", rec.subs[0].ResultCategory)
	require.Len(t, rec.events, 1)
	assert.Equal(t, domain.HostCompleted, rec.events[0].Type)
	assert.Equal(t, "simple", rec.events[0].Identifier)

	// The input state is never mutated.
	assert.Equal(t, domain.StatusAwaitingInput, st.Status)
	assert.Empty(t, st.Answers)

	_, err = e.Submit(ctx, q, final, pick("A"))
	assert.ErrorIs(t, err, domain.ErrRunFinished)
	assert.Len(t, rec.subs, 1)
}

func TestEngine_InvalidInputLeavesStateUsable(t *testing.T) {
	e := NewEngine()
	q := compile(t, simpleQuiz())
	ctx := context.Background()

	st, err := e.Start(ctx, q, "run")
	require.NoError(t, err)

	_, err = e.Submit(ctx, q, st, domain.Input{Outcome: domain.RatingOutcome{Value: 3}})
	var invalid *domain.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "e1", invalid.ElementID)

	_, err = e.Submit(ctx, q, st, domain.Input{Outcome: domain.TimeoutOutcome{}})
	require.ErrorAs(t, err, &invalid, "untimed elements cannot time out")

	next, err := e.Submit(ctx, q, st, pick("A"))
	require.NoError(t, err)
	assert.Equal(t, "Low", next.Result.Category)
}

func TestEngine_MultiSelectRoutesByDeclarationOrder(t *testing.T) {
	b := dsl.New("multi")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Multi("m", "Any", dsl.Opt("a", "A", 1), dsl.Opt("b", "B", 2), dsl.Opt("c", "C", 3)).
		When("m", "c", "via-c").
		When("m", "b", "via-b").
		Go("plain")
	b.Result("via-b")
	b.Result("via-c")
	b.Result("plain")
	q := compile(t, b)
	e := NewEngine()
	ctx := context.Background()

	st, _ := e.Start(ctx, q, "r")

	for _, sel := range [][]string{{"c", "b"}, {"b", "c"}, {"a", "b", "c"}} {
		final, err := e.Submit(ctx, q, st, pick(sel...))
		require.NoError(t, err)
		assert.Equal(t, "via-b", final.CurrentNodeID, "selection %v", sel)
		assert.Equal(t, "m-b", final.Answers[0].Handle)
	}

	final, err := e.Submit(ctx, q, st, pick("a"))
	require.NoError(t, err)
	assert.Equal(t, "plain", final.CurrentNodeID)
	assert.Equal(t, domain.HandleGeneral, final.Answers[0].Handle)
}

func TestEngine_ElementsCompleteInOrderAndPassiveContentAdvances(t *testing.T) {
	b := dsl.New("screens")
	b.Start("start").Go("screen")
	b.Composite("screen").
		Text("intro", "Welcome").
		Single("first", "First", dsl.Opt("x", "X", 1), dsl.Opt("y", "Y", 2)).
		Text("between", "Nice").
		Rating("second", "Rate", 1, 5, 1).
		When("first", "y", "shortcut").
		Go("end")
	b.Result("shortcut")
	b.Result("end")
	q := compile(t, b)
	e := NewEngine()
	ctx := context.Background()

	st, err := e.Start(ctx, q, "r")
	require.NoError(t, err)
	p, err := e.Current(q, st)
	require.NoError(t, err)
	assert.Equal(t, "first", p.Element.ElementID())
	require.Len(t, p.Passed, 1)
	assert.Equal(t, "intro", p.Passed[0].ElementID())

	// No specific edge for "x": fall through to the next element.
	st, err = e.Submit(ctx, q, st, pick("x"))
	require.NoError(t, err)
	p, err = e.Current(q, st)
	require.NoError(t, err)
	assert.Equal(t, "second", p.Element.ElementID())
	assert.Equal(t, 3, p.Index)

	st, err = e.Submit(ctx, q, st, domain.Input{Outcome: domain.RatingOutcome{Value: 4}})
	require.NoError(t, err)
	assert.Equal(t, "end", st.CurrentNodeID)
	assert.Equal(t, 5, st.Score)
	assert.Equal(t, []string{"intro", "first", "between", "second"}, elementIDs(st.Answers))

	between := st.Answers[2]
	assert.True(t, between.Passive())
	assert.Nil(t, between.Outcome)
	assert.Zero(t, between.Delta)

	inputs := InputsFromLog(st.Answers)
	assert.Len(t, inputs, 2, "content elements need no input")
	replayed, err := e.Replay(ctx, q, "r", inputs)
	require.NoError(t, err)
	assert.Equal(t, st.Answers, replayed.Answers)
	assert.Equal(t, st.Score, replayed.Score)

	// A specific edge leaves the node before later elements.
	st, _ = e.Start(ctx, q, "r2")
	st, err = e.Submit(ctx, q, st, pick("y"))
	require.NoError(t, err)
	assert.Equal(t, "shortcut", st.CurrentNodeID)
	assert.Equal(t, []string{"intro", "first"}, elementIDs(st.Answers))
}

func TestEngine_PassiveContentFiresAnswerHook(t *testing.T) {
	b := dsl.New("hooks")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Pick", dsl.Opt("a", "A", 1)).
		Go("outro")
	b.Composite("outro").Text("bye", "Thanks").Go("end")
	b.Result("end")
	q := compile(t, b)

	var seen []string
	e := NewEngine(WithLifecycleHooks(domain.LifecycleHooks{
		OnAnswer: func(_ context.Context, ev *domain.AnswerEvent) { seen = append(seen, ev.Record.ElementID) },
	}))
	ctx := context.Background()

	st, _ := e.Start(ctx, q, "r")
	final, err := e.Submit(ctx, q, st, pick("a"))
	require.NoError(t, err)

	assert.Equal(t, []string{"e1", "bye"}, seen)
	require.Len(t, final.Answers, 2)
	assert.Equal(t, domain.HandleGeneral, final.Answers[1].Handle, "a trailing content element records the edge it left by")
	assert.Equal(t, "end", final.CurrentNodeID)
}

func elementIDs(log []domain.AnswerRecord) []string {
	ids := make([]string, 0, len(log))
	for _, a := range log {
		ids = append(ids, a.ElementID)
	}
	return ids
}

// livesQuiz costs the single life on a wrong first answer, before q2 is reached.
func livesQuiz(lives *domain.LivesConfig) *dsl.Builder {
	b := dsl.New("lives")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Capital of France?", dsl.Correct("paris", "Paris", 3), dsl.Opt("rome", "Rome", 1)).
		CostsLife().
		Go("q2")
	b.Composite("q2").
		Single("e2", "Capital of Italy?", dsl.Correct("rome", "Rome", 3), dsl.Opt("paris", "Paris", 0)).
		Go("end")
	b.Result("end")
	b.Range(0, 2, "Low").Range(3, 6, "High")
	b.Gamify(&domain.GamificationConfig{Lives: lives})
	return b
}

func TestEngine_LivesExhaustion(t *testing.T) {
	tests := []struct {
		name  string
		lives *domain.LivesConfig
		check func(t *testing.T, e *Engine, q *Quiz, st *domain.RunState, rec *recorder)
	}{
		{
			name:  "partial ends at the current score",
			lives: &domain.LivesConfig{Count: 1, OnExhausted: domain.ExhaustPartial},
			check: func(t *testing.T, _ *Engine, _ *Quiz, st *domain.RunState, rec *recorder) {
				assert.True(t, st.Finished())
				assert.Equal(t, domain.TerminationLivesPartial, st.Termination)
				assert.Equal(t, "q1", st.CurrentNodeID, "no further node is visited")
				assert.Equal(t, 1, st.Score)
				require.NotNil(t, st.Result)
				assert.Equal(t, "Low", st.Result.Category)
				require.Len(t, rec.subs, 1)
				assert.Equal(t, domain.TerminationLivesPartial, rec.subs[0].Termination)
			},
		},
		{
			name:  "lead gate asks for contact before the result",
			lives: &domain.LivesConfig{Count: 1, OnExhausted: domain.ExhaustLeadGate},
			check: func(t *testing.T, e *Engine, q *Quiz, st *domain.RunState, rec *recorder) {
				ctx := context.Background()
				assert.False(t, st.Finished())
				assert.True(t, st.PendingLeadGate)
				assert.Empty(t, rec.subs)

				p, err := e.Current(q, st)
				require.NoError(t, err)
				assert.True(t, p.LeadGate)
				assert.Equal(t, domain.DefaultLeadForm().ID, p.Element.ElementID())

				_, err = e.Submit(ctx, q, st, pick("paris"))
				var invalid *domain.InvalidInputError
				require.ErrorAs(t, err, &invalid)

				final, err := e.Submit(ctx, q, st, domain.Input{Outcome: domain.LeadOutcome{Fields: map[string]string{"name": "Ana", "email": "ana@example.com"}}})
				require.NoError(t, err)
				assert.True(t, final.Finished())
				assert.Equal(t, domain.TerminationLivesLead, final.Termination)
				require.NotNil(t, final.Result)
				assert.Equal(t, "Low", final.Result.Category)
				require.Len(t, rec.subs, 1)
				assert.Equal(t, "ana@example.com", rec.subs[0].ContactFields["email"])
			},
		},
		{
			name:  "redirect skips result resolution",
			lives: &domain.LivesConfig{Count: 1, OnExhausted: domain.ExhaustRedirect, RedirectURL: "https://example.com/try-again"},
			check: func(t *testing.T, _ *Engine, _ *Quiz, st *domain.RunState, rec *recorder) {
				assert.True(t, st.Finished())
				assert.Equal(t, domain.TerminationRedirect, st.Termination)
				assert.Equal(t, "https://example.com/try-again", st.RedirectURL)
				assert.Nil(t, st.Result)
				require.Len(t, rec.subs, 1)
				assert.Equal(t, "https://example.com/try-again", rec.subs[0].RedirectURL)
				assert.Empty(t, rec.subs[0].ResultCategory)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			e := NewEngine(WithDispatcher(rec))
			q := compile(t, livesQuiz(tt.lives))
			ctx := context.Background()

			st, err := e.Start(ctx, q, "r")
			require.NoError(t, err)
			st, err = e.Submit(ctx, q, st, pick("rome"))
			require.NoError(t, err)
			require.NotNil(t, st.Gamification)
			assert.Zero(t, st.Gamification.Lives)
			assert.True(t, st.Answers[len(st.Answers)-1].LifeLost)
			tt.check(t, e, q, st, rec)
		})
	}
}

func TestEngine_Timeout(t *testing.T) {
	b := dsl.New("timed")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Quick", dsl.Correct("a", "A", 3), dsl.Opt("b", "B", 1)).
		CostsLife().
		Go("end")
	b.Result("end")
	b.Gamify(&domain.GamificationConfig{
		Lives: &domain.LivesConfig{Count: 2},
		Timer: &domain.TimerConfig{Seconds: 10},
	})
	q := compile(t, b)
	e := NewEngine()
	ctx := context.Background()

	st, _ := e.Start(ctx, q, "r")
	final, err := e.Timeout(ctx, q, st)
	require.NoError(t, err)

	require.Len(t, final.Answers, 1)
	got := final.Answers[0]
	assert.Equal(t, domain.TimeoutOutcome{}, got.Outcome)
	assert.Equal(t, 10*time.Second, got.Elapsed)
	assert.Zero(t, got.Delta)
	assert.True(t, got.LifeLost)
	assert.Equal(t, 1, final.Gamification.Lives)
	assert.Equal(t, "end", final.CurrentNodeID)

	untimed := compile(t, simpleQuiz())
	st, _ = e.Start(ctx, untimed, "r2")
	_, err = e.Timeout(ctx, untimed, st)
	var invalid *domain.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestEngine_UnroutedEndsWithFallback(t *testing.T) {
	b := dsl.New("broken")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Pick", dsl.Opt("a", "A", 1), dsl.Opt("b", "B", 4)).
		When("e1", "a", "end")
	b.Result("end")
	q := compile(t, b)

	var unrouted []domain.Diagnostic
	e := NewEngine(WithLifecycleHooks(domain.LifecycleHooks{
		OnUnrouted: func(_ context.Context, d *domain.Diagnostic) { unrouted = append(unrouted, *d) },
	}))
	ctx := context.Background()

	st, _ := e.Start(ctx, q, "r")
	final, err := e.Submit(ctx, q, st, pick("b"))
	require.NoError(t, err)

	assert.True(t, final.Finished())
	assert.Equal(t, domain.TerminationUnrouted, final.Termination)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Fallback)
	assert.Equal(t, "Q4", final.Result.Category)
	require.Len(t, unrouted, 1)
	assert.Equal(t, "q1", unrouted[0].NodeID)
	assert.Len(t, final.Diagnostics, 1)
}

func TestEngine_CatchAllFindsNearestResult(t *testing.T) {
	b := dsl.New("catchall")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Pick", dsl.Opt("a", "A", 1), dsl.Opt("b", "B", 2)).
		When("e1", "a", "specific").
		Otherwise("hop")
	b.Composite("hop").Text("t", "routing").Go("fallback")
	b.Result("specific")
	b.Result("fallback")
	q := compile(t, b)
	e := NewEngine()
	ctx := context.Background()

	st, _ := e.Start(ctx, q, "r")
	final, err := e.Submit(ctx, q, st, pick("b"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", final.CurrentNodeID)
	assert.Equal(t, domain.TerminationResult, final.Termination)
	assert.Equal(t, domain.HandleDefault, final.Answers[0].Handle)
}

func TestEngine_ReplayIsDeterministic(t *testing.T) {
	b := dsl.New("det")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "One", dsl.Correct("a", "A", 2), dsl.Opt("b", "B", 0)).
		Single("e2", "Two", dsl.Correct("a", "A", 3), dsl.Opt("b", "B", 1)).
		Go("q2")
	b.Composite("q2").Rating("r", "Rate", 1, 5, 1.5).Go("end")
	b.Result("end")
	b.Gamify(&domain.GamificationConfig{
		Streak: &domain.StreakConfig{Threshold: 2, Multiplier: 2},
		Timer:  &domain.TimerConfig{Seconds: 10, SpeedBonus: []domain.SpeedTier{{MinRemaining: 0.5, Bonus: 1}}},
	})
	q := compile(t, b)
	rec := &recorder{}
	e := NewEngine(WithDispatcher(rec))
	ctx := context.Background()

	inputs := []domain.Input{
		{Outcome: domain.ChoiceOutcome{OptionIDs: []string{"a"}}, Elapsed: 2 * time.Second},
		{Outcome: domain.ChoiceOutcome{OptionIDs: []string{"a"}}, Elapsed: 8 * time.Second},
		{Outcome: domain.RatingOutcome{Value: 3}, Elapsed: time.Second},
	}

	first, err := e.Replay(ctx, q, "r", inputs)
	require.NoError(t, err)
	second, err := e.Replay(ctx, q, "r", InputsFromLog(first.Answers))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, rec.subs, "replays never dispatch")
	// e1: 2 + bonus 1; e2: streak reaches 2 so 3*2, no bonus; r: round(4.5)=5 * 2 + 1
	assert.Equal(t, 3+6+11, first.Score)
}

func TestEngine_ReplayReportsFailingStep(t *testing.T) {
	e := NewEngine()
	q := compile(t, simpleQuiz())

	_, err := e.Replay(context.Background(), q, "r", []domain.Input{pick("A"), pick("B")})
	var replayErr *ReplayError
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, 1, replayErr.Step)
	assert.ErrorIs(t, err, domain.ErrRunFinished)
}

func TestEngine_EveryRunEndsWithAResult(t *testing.T) {
	b := dsl.New("coverage")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("e1", "Pick", dsl.Opt("a", "A", 0), dsl.Opt("b", "B", 3), dsl.Opt("c", "C", 9)).
		When("e1", "c", "high").
		Go("low")
	b.Result("low")
	b.Result("high")
	b.Range(0, 2, "Low")
	q := compile(t, b)
	e := NewEngine()
	ctx := context.Background()

	for _, opt := range []string{"a", "b", "c"} {
		st, _ := e.Start(ctx, q, "r-"+opt)
		final, err := e.Submit(ctx, q, st, pick(opt))
		require.NoError(t, err)
		require.True(t, final.Finished())
		require.NotNil(t, final.Result, "option %s", opt)
		assert.NotEmpty(t, final.Result.Category)
	}
}
