package domain

// Graph is one authored quiz: nodes, edges, result ranges and the optional
// gamification overlay. A Graph is read-only once validated and can be
// shared across concurrent runs.
type Graph struct {
	ID           string              `json:"id"`
	Version      string              `json:"version,omitempty"`
	Title        string              `json:"title,omitempty"`
	Nodes        []Node              `json:"nodes"`
	Edges        []Edge              `json:"edges"`
	Ranges       []ScoreRange        `json:"scoreRanges,omitempty"`
	Gamification *GamificationConfig `json:"gamification,omitempty"`

	nodeIndex map[string]int
	edgeIndex map[edgeKey]int
}

type edgeKey struct {
	source string
	handle string
}

// NewGraph builds a Graph and its lookup indexes.
func NewGraph(id string, nodes []Node, edges []Edge) *Graph {
	g := &Graph{ID: id, Nodes: nodes, Edges: edges}
	g.Reindex()
	return g
}

// Reindex rebuilds the node and edge lookups. Call it after mutating Nodes
// or Edges. When two edges share a (source, handle) pair the first one wins.
func (g *Graph) Reindex() {
	g.nodeIndex = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := g.nodeIndex[n.ID]; !dup {
			g.nodeIndex[n.ID] = i
		}
	}
	g.edgeIndex = make(map[edgeKey]int, len(g.Edges))
	for i, e := range g.Edges {
		k := edgeKey{e.Source, e.Handle()}
		if _, dup := g.edgeIndex[k]; !dup {
			g.edgeIndex[k] = i
		}
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g.nodeIndex != nil {
		i, ok := g.nodeIndex[id]
		if !ok {
			return nil, false
		}
		return &g.Nodes[i], true
	}
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// StartNode returns the first node of kind start.
func (g *Graph) StartNode() (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Kind == NodeStart {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Elements returns the elements of a node in declaration order.
func (g *Graph) Elements(nodeID string) []Element {
	n, ok := g.Node(nodeID)
	if !ok {
		return nil
	}
	return n.Elements
}

// EdgeFrom returns the edge leaving source through handle, if any.
func (g *Graph) EdgeFrom(source, handle string) (Edge, bool) {
	if handle == "" {
		handle = HandleGeneral
	}
	if g.edgeIndex != nil {
		i, ok := g.edgeIndex[edgeKey{source, handle}]
		if !ok {
			return Edge{}, false
		}
		return g.Edges[i], true
	}
	for _, e := range g.Edges {
		if e.Source == source && e.Handle() == handle {
			return e, true
		}
	}
	return Edge{}, false
}

// Outgoing returns every edge leaving source, in declaration order.
func (g *Graph) Outgoing(source string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

// ScoreRange maps an inclusive score interval to a result payload.
type ScoreRange struct {
	ID          string `json:"id,omitempty" mapstructure:"id"`
	Min         int    `json:"min" mapstructure:"min"`
	Max         int    `json:"max" mapstructure:"max"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	CTAText     string `json:"ctaText,omitempty" mapstructure:"ctaText"`
	CTAURL      string `json:"ctaUrl,omitempty" mapstructure:"ctaUrl"`
}

// Contains reports whether score falls inside the inclusive range.
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// Span is the width of the range, used for the narrowest-match tie-break.
func (r ScoreRange) Span() int {
	return r.Max - r.Min
}
