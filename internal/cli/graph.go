package cli

import (
	"context"
	"fmt"
	"io"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/presentation/graph"
)

// Graph prints the Mermaid diagram of a quiz. When runID is set the stored
// run is overlaid: visited nodes, the current node and unrouted exits.
func Graph(ctx context.Context, w io.Writer, cfg *config.Config, quizID, runID string) error {
	eng, err := quizflow.New(cfg.Graphs.Dir, quizflow.WithLogger(logging.NewNop()))
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	g, err := eng.Inspect(ctx, quizID)
	if err != nil {
		return fmt.Errorf("error inspecting graph: %w", err)
	}

	var overlay *graph.GraphOverlay
	if runID != "" {
		store, _, closeStore, err := createStore(cfg)
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer closeStore(ctx)
		}
		st, err := store.Load(ctx, runID)
		if err != nil {
			return fmt.Errorf("load run %q: %w", runID, err)
		}
		overlay = graph.OverlayFromRun(st)
	}

	fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
	return nil
}
