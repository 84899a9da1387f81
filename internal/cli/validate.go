package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
)

// ErrInvalid is returned by Validate when at least one quiz failed the
// structural checks.
var ErrInvalid = errors.New("validation failed")

// Validate checks each quiz in dir, or every quiz found there when ids is
// empty. Warnings are printed but do not fail the command unless strict.
func Validate(ctx context.Context, w io.Writer, dir string, ids []string, strict bool) error {
	eng, err := quizflow.New(dir, quizflow.WithLogger(logging.NewNop()))
	if err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}
	if len(ids) == 0 {
		if ids, err = eng.Quizzes(ctx); err != nil {
			return err
		}
	}

	failed := 0
	for _, id := range ids {
		rep, err := eng.Validate(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "✓ %s (score %d..%d)\n", id, rep.Bounds.Min, rep.Bounds.Max)
		for _, d := range rep.Diagnostics {
			loc := d.NodeID
			if d.ElementID != "" {
				loc += "/" + d.ElementID
			}
			fmt.Fprintf(w, "  ! %s [%s] %s\n", d.Code, loc, d.Message)
		}
		if strict && rep.Warnings() > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d quizzes", ErrInvalid, failed, len(ids))
	}
	return nil
}
