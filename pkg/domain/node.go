package domain

// NodeKind identifies the role a node plays in the flow.
type NodeKind string

const (
	// NodeStart is the unique entry point. It carries no elements.
	NodeStart NodeKind = "start"
	// NodeComposite is a screen holding an ordered list of elements.
	NodeComposite NodeKind = "composite"
	// NodeResult is a terminal node. Reaching it finishes the run.
	NodeResult NodeKind = "result"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeStart, NodeComposite, NodeResult:
		return true
	}
	return false
}

// Node is a vertex in the quiz graph.
type Node struct {
	ID       string    `json:"id" mapstructure:"id"`
	Kind     NodeKind  `json:"kind" mapstructure:"kind"`
	Label    string    `json:"label,omitempty" mapstructure:"label"`
	Elements []Element `json:"elements,omitempty" mapstructure:"-"`
}

// IsTerminal reports whether reaching the node ends the run.
func (n *Node) IsTerminal() bool {
	return n.Kind == NodeResult
}

// ElementByID returns the element with the given id and its position.
func (n *Node) ElementByID(id string) (Element, int, bool) {
	for i, el := range n.Elements {
		if el.ElementID() == id {
			return el, i, true
		}
	}
	return nil, -1, false
}
