package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

const namespace = "quizflow"

// Metrics holds the engine collectors.
type Metrics struct {
	RunsStarted      *prometheus.CounterVec
	RunsFinished     *prometheus.CounterVec
	NodeVisits       *prometheus.CounterVec
	Answers          *prometheus.CounterVec
	LivesLost        *prometheus.CounterVec
	Unrouted         *prometheus.CounterVec
	FinalScore       *prometheus.HistogramVec
	DispatchDropped  prometheus.Counter
	DispatchFailures prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_started_total",
			Help: "Runs started per quiz.",
		}, []string{"quiz"}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_finished_total",
			Help: "Runs finished per quiz and termination reason.",
		}, []string{"quiz", "termination"}),
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "node_visits_total",
			Help: "Node entries per quiz and node.",
		}, []string{"quiz", "node"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "answers_total",
			Help: "Completed elements per quiz and element variant.",
		}, []string{"quiz", "variant"}),
		LivesLost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lives_lost_total",
			Help: "Lives lost per quiz.",
		}, []string{"quiz"}),
		Unrouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "unrouted_total",
			Help: "Runs that ended without a route, per node and code.",
		}, []string{"node", "code"}),
		FinalScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "final_score",
			Help:    "Final score of finished runs.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"quiz"}),
		DispatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dispatch_dropped_total",
			Help: "Submissions dropped because the dispatch queue was full.",
		}),
		DispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dispatch_failures_total",
			Help: "Submission deliveries that failed after retries.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.RunsStarted, m.RunsFinished, m.NodeVisits, m.Answers, m.LivesLost,
		m.Unrouted, m.FinalScore, m.DispatchDropped, m.DispatchFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.NodeEvent) {
			m.RunsStarted.WithLabelValues(e.QuizID).Inc()
		},
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.QuizID, e.NodeID).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			m.Answers.WithLabelValues(e.QuizID, string(e.Record.Variant)).Inc()
			if e.Record.LifeLost {
				m.LivesLost.WithLabelValues(e.QuizID).Inc()
			}
		},
		OnUnrouted: func(_ context.Context, d *domain.Diagnostic) {
			m.Unrouted.WithLabelValues(d.NodeID, d.Code).Inc()
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			m.RunsFinished.WithLabelValues(e.QuizID, string(e.Termination)).Inc()
			m.FinalScore.WithLabelValues(e.QuizID).Observe(float64(e.Score))
		},
	}
}

// DropHandler counts submissions dropped by the dispatcher.
func (m *Metrics) DropHandler(domain.Submission) {
	m.DispatchDropped.Inc()
}

// ErrorHandler counts failed deliveries.
func (m *Metrics) ErrorHandler(domain.Submission, error) {
	m.DispatchFailures.Inc()
}
