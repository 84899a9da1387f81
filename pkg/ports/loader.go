package ports

import (
	"context"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// GraphLoader defines how the engine retrieves quiz graphs.
// This allows the storage layer (FS, Memory, Redis) to be decoupled.
type GraphLoader interface {
	// LoadGraph returns the decoded graph for a quiz id.
	// Returns domain.ErrQuizNotFound if the quiz does not exist.
	LoadGraph(ctx context.Context, quizID string) (*domain.Graph, error)

	// ListGraphs returns the ids of all quizzes available to the loader.
	ListGraphs(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload of authored quizzes.
type Watchable interface {
	// Watch returns a channel that receives the id of each quiz that changed.
	// An empty id means the loader cannot tell which quiz changed.
	Watch(ctx context.Context) (<-chan string, error)
}
