package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	st := domain.NewRunState("run", "quiz", "start")
	st.Status = domain.StatusFinished
	st.Contact = map[string]string{"email": "ada@example.com", "company": "Analytical"}
	st.Answers = append(st.Answers, domain.AnswerRecord{
		NodeID:    "lead",
		ElementID: "form",
		Outcome:   domain.LeadOutcome{Fields: map[string]string{"Phone": "+15551234567", "name": "Ada"}},
	})

	require.NoError(t, store.Save(ctx, "run", st))

	assert.Equal(t, "ada@example.com", st.Contact["email"], "the caller's state is not modified")
	assert.Equal(t, "Ada", st.Answers[0].Outcome.(domain.LeadOutcome).Fields["name"])

	stored, err := underlying.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Contact["email"])
	assert.Equal(t, "Analytical", stored.Contact["company"])

	lead := stored.Answers[0].Outcome.(domain.LeadOutcome)
	assert.Equal(t, middleware.Mask, lead.Fields["Phone"])
	assert.Equal(t, middleware.Mask, lead.Fields["name"])
}

func TestPIIMiddleware_ChainedWithEncryption(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"email"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	st := contactState()
	st.Status = domain.StatusFinished
	require.NoError(t, store.Save(ctx, "run", st))

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Contact["email"])
}

func TestPIIMiddleware_ActiveRunKeepsContact(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run", contactState()))

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", loaded.Contact["email"], "masked only once the run is finished")
}

func TestPIIMiddleware_BadPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}
