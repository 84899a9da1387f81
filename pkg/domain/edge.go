package domain

const (
	// HandleGeneral is the node-level fall-through handle. Every element
	// exposes it and it is used when no outcome-specific edge exists.
	HandleGeneral = "general"

	// HandleDefault marks a catch-all edge. When a node cannot route an
	// outcome, the engine follows catch-all edges to the nearest Result node.
	HandleDefault = "default"

	// handleWildcard is an accepted spelling of HandleDefault.
	handleWildcard = "*"
)

// Edge is a directed connection from a (node, handle) pair to a target node.
type Edge struct {
	ID           string `json:"id,omitempty" mapstructure:"id"`
	Source       string `json:"source" mapstructure:"source"`
	SourceHandle string `json:"sourceHandle" mapstructure:"sourceHandle"`
	Target       string `json:"target" mapstructure:"target"`
}

// Handle returns the effective source handle. An empty handle is treated
// as HandleGeneral and "*" as HandleDefault.
func (e Edge) Handle() string {
	switch e.SourceHandle {
	case "":
		return HandleGeneral
	case handleWildcard:
		return HandleDefault
	}
	return e.SourceHandle
}
