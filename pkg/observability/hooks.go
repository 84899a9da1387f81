package observability

import (
	"context"
	"log/slog"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// LogHooks returns hooks that write an audit trail of each run.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "run_start", "run", e.RunID, "quiz", e.QuizID)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run", e.RunID, "node", e.NodeID, "kind", e.Kind)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.InfoContext(ctx, "answer",
				"run", e.RunID,
				"element", e.Record.ElementID,
				"delta", e.Record.Delta,
				"score", e.Score,
				"life_lost", e.Record.LifeLost,
			)
		},
		OnUnrouted: func(ctx context.Context, d *domain.Diagnostic) {
			logger.WarnContext(ctx, "unrouted", "node", d.NodeID, "code", d.Code, "msg", d.Message)
		},
		OnFinish: func(ctx context.Context, e *domain.FinishEvent) {
			attrs := []any{"run", e.RunID, "score", e.Score, "termination", e.Termination}
			if e.Result != nil {
				attrs = append(attrs, "result", e.Result.Category)
			}
			logger.InfoContext(ctx, "run_finish", attrs...)
		},
	}
}

// Combine merges hook sets; each callback runs in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chain(out.OnRunStart, h.OnRunStart)
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnAnswer = chain(out.OnAnswer, h.OnAnswer)
		out.OnUnrouted = chain(out.OnUnrouted, h.OnUnrouted)
		out.OnFinish = chain(out.OnFinish, h.OnFinish)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
