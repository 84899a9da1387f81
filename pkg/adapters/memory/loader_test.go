package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

const tinyQuiz = `
nodes:
  - id: start
    kind: start
  - id: end
    kind: result
edges:
  - id: e1
    source: start
    target: end
`

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(map[string]string{
		"tiny":  tinyQuiz,
		"other": tinyQuiz,
	})
	require.NoError(t, err)

	ports.GraphLoaderContract(t, loader, "tiny", "other")
}

func TestInMemoryLoader_FromGraphs(t *testing.T) {
	g := domain.NewGraph("built", []domain.Node{{ID: "s", Kind: domain.NodeStart}}, nil)
	loader := memory.NewFromGraphs(g)

	got, err := loader.LoadGraph(context.Background(), "built")
	require.NoError(t, err)
	assert.Same(t, g, got)

	loader.Put(domain.NewGraph("late", nil, nil))
	ids, _ := loader.ListGraphs(context.Background())
	assert.Equal(t, []string{"built", "late"}, ids)
}

func TestInMemoryLoader_RejectsBadDocument(t *testing.T) {
	_, err := memory.NewLoader(map[string]string{"bad": "{not json"})
	assert.Error(t, err)
}
