package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dispatch"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

type hook struct {
	mu       sync.Mutex
	statuses []int
	ids      []string
	bodies   []domain.Submission
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var sub domain.Submission
	_ = json.NewDecoder(r.Body).Decode(&sub)
	h.bodies = append(h.bodies, sub)
	h.ids = append(h.ids, r.Header.Get(dispatch.HeaderDeliveryID))

	status := http.StatusOK
	if len(h.statuses) > 0 {
		status, h.statuses = h.statuses[0], h.statuses[1:]
	}
	w.WriteHeader(status)
}

func submission() domain.Submission {
	return domain.Submission{
		RunID:          "run-1",
		QuizID:         "quiz",
		Score:          5,
		ResultCategory: "High",
		Termination:    domain.TerminationResult,
		ContactFields:  map[string]string{"email": "ada@example.com"},
		Answers: []domain.AnswerRecord{{
			NodeID: "q1", ElementID: "e1", Outcome: domain.ChoiceOutcome{OptionIDs: []string{"B"}}, Delta: 5,
		}},
	}
}

func TestWebhook_RetriesServerErrors(t *testing.T) {
	h := &hook{statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	w := dispatch.NewWebhook(srv.URL, dispatch.WithInitialBackoff(time.Millisecond))
	require.NoError(t, w.Deliver(context.Background(), submission()))

	require.Len(t, h.ids, 3)
	assert.NotEmpty(t, h.ids[0])
	assert.Equal(t, h.ids[0], h.ids[2], "retries reuse the delivery id")
	assert.Equal(t, "High", h.bodies[2].ResultCategory)
	assert.Equal(t, domain.ChoiceOutcome{OptionIDs: []string{"B"}}, h.bodies[2].Answers[0].Outcome)
}

func TestWebhook_ClientErrorIsFinal(t *testing.T) {
	h := &hook{statuses: []int{http.StatusUnprocessableEntity}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	err := dispatch.NewWebhook(srv.URL, dispatch.WithInitialBackoff(time.Millisecond)).
		Deliver(context.Background(), submission())

	var status *dispatch.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusUnprocessableEntity, status.Code)
	assert.Len(t, h.ids, 1)
}

func TestWebhook_GivesUpAfterMaxAttempts(t *testing.T) {
	h := &hook{statuses: []int{500, 500, 500, 500}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	err := dispatch.NewWebhook(srv.URL,
		dispatch.WithInitialBackoff(time.Millisecond),
		dispatch.WithMaxAttempts(2),
		dispatch.WithRateLimit(1000, 1),
		dispatch.WithHeader("Authorization", "Bearer t"),
	).Deliver(context.Background(), submission())

	assert.Error(t, err)
	assert.Len(t, h.ids, 2)
}
