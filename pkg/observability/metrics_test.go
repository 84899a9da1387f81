package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	h := m.Hooks()
	ctx := context.Background()

	h.OnRunStart(ctx, &domain.NodeEvent{QuizID: "q", NodeID: "start"})
	h.OnNodeEnter(ctx, &domain.NodeEvent{QuizID: "q", NodeID: "start"})
	h.OnNodeEnter(ctx, &domain.NodeEvent{QuizID: "q", NodeID: "q1"})
	h.OnAnswer(ctx, &domain.AnswerEvent{QuizID: "q", Record: domain.AnswerRecord{Variant: domain.VariantSingleChoice, LifeLost: true}})
	h.OnUnrouted(ctx, &domain.Diagnostic{NodeID: "q1", Code: "unrouted_transition"})
	h.OnFinish(ctx, &domain.FinishEvent{QuizID: "q", Score: 7, Termination: domain.TerminationUnrouted})
	m.DropHandler(domain.Submission{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted.WithLabelValues("q")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("q", "q1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Answers.WithLabelValues("q", "single-choice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LivesLost.WithLabelValues("q")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unrouted.WithLabelValues("q1", "unrouted_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("q", "unrouted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchDropped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FinalScore))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnFinish: func(context.Context, *domain.FinishEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnFinish:   func(context.Context, *domain.FinishEvent) { order = append(order, "b") },
		OnRunStart: func(context.Context, *domain.NodeEvent) { order = append(order, "start") },
	}

	h := observability.Combine(a, b)
	h.OnRunStart(context.Background(), &domain.NodeEvent{})
	h.OnFinish(context.Background(), &domain.FinishEvent{})

	assert.Equal(t, []string{"start", "a", "b"}, order)
	assert.Nil(t, h.OnAnswer)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := observability.LogHooks(slog.New(slog.NewTextHandler(&buf, nil)))
	h.OnFinish(context.Background(), &domain.FinishEvent{RunID: "r", Score: 3, Result: &domain.ResolvedResult{Category: "High"}})
	assert.Contains(t, buf.String(), "result=High")
}
