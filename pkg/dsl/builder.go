package dsl

import (
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	id     string
	order  []string
	nodes  map[string]*NodeBuilder
	ranges []domain.ScoreRange
	gamify *domain.GamificationConfig
}

// New creates a new graph builder for the quiz id.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a node of the given kind. If the node already exists, it
// returns the existing builder.
func (b *Builder) Add(id string, kind domain.NodeKind) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Kind: kind},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start adds the start node.
func (b *Builder) Start(id string) *NodeBuilder { return b.Add(id, domain.NodeStart) }

// Composite adds a screen node.
func (b *Builder) Composite(id string) *NodeBuilder { return b.Add(id, domain.NodeComposite) }

// Result adds a terminal node.
func (b *Builder) Result(id string) *NodeBuilder { return b.Add(id, domain.NodeResult) }

// Range appends a score range.
func (b *Builder) Range(min, max int, title string) *Builder {
	b.ranges = append(b.ranges, domain.ScoreRange{Min: min, Max: max, Title: title})
	return b
}

// Gamify attaches a gamification overlay.
func (b *Builder) Gamify(cfg *domain.GamificationConfig) *Builder {
	b.gamify = cfg
	return b
}

// Build assembles the graph in declaration order.
func (b *Builder) Build() *domain.Graph {
	nodes := make([]domain.Node, 0, len(b.order))
	var edges []domain.Edge
	for _, id := range b.order {
		nb := b.nodes[id]
		nodes = append(nodes, nb.node)
		edges = append(edges, nb.edges...)
	}
	g := domain.NewGraph(b.id, nodes, edges)
	g.Ranges = append([]domain.ScoreRange(nil), b.ranges...)
	g.Gamification = b.gamify
	return g
}

// Loader builds the graph and wraps it in an in-memory loader.
func (b *Builder) Loader() *memory.Loader {
	return memory.NewFromGraphs(b.Build())
}
