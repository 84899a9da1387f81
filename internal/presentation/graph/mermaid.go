package graph

import (
	"fmt"
	"strings"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	// Unrouted marks the node a run got stuck on.
	Unrouted string
}

// OverlayFromRun builds an overlay from a run's history.
func OverlayFromRun(st *domain.RunState) *GraphOverlay {
	o := &GraphOverlay{VisitedNodes: st.History}
	if st.Termination == domain.TerminationUnrouted {
		o.Unrouted = st.CurrentNodeID
	} else {
		o.CurrentNode = st.CurrentNodeID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for a quiz graph.
// It applies semantic styling:
// - Start: ((Circle))
// - Composite with input: [/Parallelogram/]
// - Content only: [Rectangle]
// - Result: ([Stadium])
// Edges are labelled with the option or swipe side they route, catch-all
// edges are dotted, and overlay styles are applied if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.Kind == domain.NodeStart:
			opener, closer = "((", "))"
		case node.Kind == domain.NodeResult:
			opener, closer = "([", "])"
		case interactive(node):
			opener, closer = "[/", "/]"
		}

		label := node.ID
		if node.Label != "" {
			label = node.Label
		}
		label = escape(label)
		if n := len(node.Elements); n > 0 {
			label += fmt.Sprintf(" <br/> %d element", n)
			if n > 1 {
				label += "s"
			}
		}
		if timed(g, node) {
			label += " ⏱️"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, e := range g.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		switch h := e.Handle(); h {
		case domain.HandleGeneral:
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		case domain.HandleDefault:
			fmt.Fprintf(&sb, "    %s -. \"*\" .-> %s\n", from, to)
		default:
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(handleLabel(g, e.Source, h)), to)
		}
	}

	if len(g.Ranges) > 0 {
		sb.WriteString("\n    %% Score ranges\n")
		for _, r := range g.Ranges {
			fmt.Fprintf(&sb, "    %%%% %d..%d %s\n", r.Min, r.Max, r.Title)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef unrouted fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
		if overlay.Unrouted != "" {
			fmt.Fprintf(&sb, "    class %s unrouted;\n", sanitizeMermaidID(overlay.Unrouted))
		}
	}

	return sb.String()
}

// handleLabel names the option or swipe side behind an element-scoped handle.
func handleLabel(g *domain.Graph, nodeID, handle string) string {
	n, ok := g.Node(nodeID)
	if !ok {
		return handle
	}
	for _, el := range n.Elements {
		prefix := el.ElementID() + "-"
		if !strings.HasPrefix(handle, prefix) {
			continue
		}
		rest := strings.TrimPrefix(handle, prefix)
		switch v := el.(type) {
		case *domain.ChoiceElement:
			if o, ok := v.Option(rest); ok && o.Label != "" {
				return o.Label
			}
		case *domain.SwipeElement:
			side := v.Side(domain.SwipeDirection(rest))
			if side.Label != "" {
				return side.Label
			}
		}
	}
	return handle
}

func interactive(n domain.Node) bool {
	for _, el := range n.Elements {
		if el.Interactive() {
			return true
		}
	}
	return false
}

func timed(g *domain.Graph, n domain.Node) bool {
	for _, el := range n.Elements {
		if el.Interactive() && g.Gamification.TimeLimit(el) > 0 {
			return true
		}
	}
	return false
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
