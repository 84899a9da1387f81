package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/runtime"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dsl"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/persistence/middleware"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/session"
)

type capture struct {
	mu   sync.Mutex
	subs []domain.Submission
}

func (c *capture) Dispatch(_ context.Context, sub domain.Submission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, sub)
}

func TestManager_MaskedStoreDispatchesRealContact(t *testing.T) {
	b := dsl.New("leads")
	b.Start("start").Go("form")
	b.Composite("form").Lead("lead", true, "email").Go("q1")
	b.Composite("q1").Single("e1", "Ready?", dsl.Opt("yes", "Yes", 2)).Go("done")
	b.Result("done")
	q, err := runtime.Compile(b.Build())
	require.NoError(t, err)

	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	underlying := memory.NewStore()
	m := session.NewManager(middleware.Chain(underlying, pii))

	sink := &capture{}
	e := runtime.NewEngine(runtime.WithDispatcher(sink))
	ctx := context.Background()

	_, err = m.LoadOrStart(ctx, "r", func(ctx context.Context) (*domain.RunState, error) {
		return e.Start(ctx, q, "r")
	})
	require.NoError(t, err)

	submit := func(in domain.Input) *domain.RunState {
		st, err := m.Update(ctx, "r", func(ctx context.Context, st *domain.RunState) (*domain.RunState, error) {
			return e.Submit(ctx, q, st, in)
		})
		require.NoError(t, err)
		return st
	}
	submit(domain.Input{Outcome: domain.LeadOutcome{Fields: map[string]string{"email": "a@b.co"}}})
	final := submit(domain.Input{Outcome: domain.ChoiceOutcome{OptionIDs: []string{"yes"}}})
	require.True(t, final.Finished())

	require.Len(t, sink.subs, 1)
	assert.Equal(t, "a@b.co", sink.subs[0].ContactFields["email"])

	stored, err := underlying.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Contact["email"], "the finished run is stored masked")

	replayed, err := e.Replay(ctx, q, "r", runtime.InputsFromLog(stored.Answers))
	require.NoError(t, err)
	assert.Equal(t, stored.Score, replayed.Score)
	assert.Equal(t, stored.Result, replayed.Result)
	assert.Len(t, sink.subs, 1, "replays never dispatch")
}
