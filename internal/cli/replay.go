package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/runtime"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// ErrReplayMismatch reports that re-running a recorded answer log against
// the current graph produced a different outcome.
var ErrReplayMismatch = errors.New("replay diverged from recorded run")

// ReplayOptions selects the recorded run: a run id in the configured store,
// or a JSON state file.
type ReplayOptions struct {
	Config *config.Config
	RunID  string
	File   string
}

// Replay feeds a recorded answer log back through the engine and compares
// the outcome with what was recorded.
func Replay(ctx context.Context, w io.Writer, opts ReplayOptions) error {
	recorded, err := loadRecorded(ctx, opts)
	if err != nil {
		return err
	}

	eng, err := quizflow.New(opts.Config.Graphs.Dir, quizflow.WithLogger(logging.NewNop()))
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	got, err := eng.Replay(ctx, recorded.QuizID, recorded.RunID, runtime.InputsFromLog(recorded.Answers))
	if err != nil {
		return fmt.Errorf("replay %q: %w", recorded.RunID, err)
	}

	fmt.Fprintf(w, "run %s (%s): %d answers\n", recorded.RunID, recorded.QuizID, len(recorded.Answers))
	fmt.Fprintf(w, "  recorded: score=%d termination=%s result=%s\n", recorded.Score, recorded.Termination, category(recorded))
	fmt.Fprintf(w, "  replayed: score=%d termination=%s result=%s\n", got.Score, got.Termination, category(got))

	if got.Score != recorded.Score || got.Termination != recorded.Termination || category(got) != category(recorded) {
		return ErrReplayMismatch
	}
	return nil
}

func loadRecorded(ctx context.Context, opts ReplayOptions) (*domain.RunState, error) {
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, err
		}
		var st domain.RunState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.File, err)
		}
		return &st, nil
	}
	if opts.RunID == "" {
		return nil, errors.New("a run id or --file is required")
	}

	store, _, closeStore, err := createStore(opts.Config)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		defer closeStore(ctx)
	}
	return store.Load(ctx, opts.RunID)
}

func category(st *domain.RunState) string {
	if st.Result == nil {
		return "-"
	}
	return st.Result.Category
}
