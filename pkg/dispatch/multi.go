package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

// Multi delivers to every deliverer in order and joins their errors.
// One failing target does not stop the others.
type Multi []ports.Deliverer

func (m Multi) Deliver(ctx context.Context, sub domain.Submission) error {
	var errs []error
	for _, d := range m {
		if err := d.Deliver(ctx, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log returns a deliverer that only records the submission.
func Log(logger *slog.Logger) ports.Deliverer {
	return ports.DelivererFunc(func(ctx context.Context, sub domain.Submission) error {
		logger.InfoContext(ctx, "run submitted",
			"run", sub.RunID,
			"quiz", sub.QuizID,
			"score", sub.Score,
			"result", sub.ResultCategory,
			"termination", sub.Termination,
			"answers", len(sub.Answers),
		)
		return nil
	})
}
