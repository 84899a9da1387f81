package ports

import (
	"context"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// RunStore defines the interface for persisting run state.
// This lets a respondent resume a run from another request or replica.
type RunStore interface {
	// Save persists the state for a given run ID.
	Save(ctx context.Context, runID string, state *domain.RunState) error

	// Load retrieves the state for a given run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunState, error)

	// Delete removes the state for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of all stored runs.
	List(ctx context.Context) ([]string, error)
}
