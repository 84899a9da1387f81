package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/codec"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Loader implements ports.GraphLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu     sync.RWMutex
	graphs map[string]*domain.Graph
}

// NewLoader decodes raw quiz documents (JSON or YAML) keyed by quiz id.
// The key wins over any id inside the document.
func NewLoader(data map[string]string) (*Loader, error) {
	l := &Loader{graphs: make(map[string]*domain.Graph, len(data))}
	for id, doc := range data {
		g, _, err := codec.Decode([]byte(doc), codec.FormatAuto)
		if err != nil {
			return nil, fmt.Errorf("failed to decode quiz %s: %w", id, err)
		}
		g.ID = id
		l.graphs[id] = g
	}
	return l, nil
}

// NewFromGraphs creates a Loader from already built graphs.
// This is the convenient form for tests and the dsl package.
func NewFromGraphs(graphs ...*domain.Graph) *Loader {
	l := &Loader{graphs: make(map[string]*domain.Graph, len(graphs))}
	for _, g := range graphs {
		l.graphs[g.ID] = g
	}
	return l
}

// Put adds or replaces a quiz.
func (l *Loader) Put(g *domain.Graph) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.graphs[g.ID] = g
}

// LoadGraph returns the graph registered under quizID.
func (l *Loader) LoadGraph(_ context.Context, quizID string) (*domain.Graph, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.graphs[quizID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	return g, nil
}

// ListGraphs returns all quiz ids.
func (l *Loader) ListGraphs(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.graphs))
	for k := range l.graphs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
