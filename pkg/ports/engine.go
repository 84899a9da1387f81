package ports

import (
	"context"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// StatelessEngine is the surface transport adapters drive. State is owned
// by the caller and passed in on every step.
type StatelessEngine interface {
	// Start begins a new run of quizID.
	Start(ctx context.Context, quizID, runID string) (*domain.RunState, error)

	// Current describes what the host should render for state.
	Current(ctx context.Context, state *domain.RunState) (*domain.Prompt, error)

	// Submit applies one respondent input and returns the new state.
	Submit(ctx context.Context, state *domain.RunState, input domain.Input) (*domain.RunState, error)

	// Inspect returns the validated graph of a quiz.
	Inspect(ctx context.Context, quizID string) (*domain.Graph, error)
}
