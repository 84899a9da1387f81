// Package validator checks a quiz graph before it can be started. Fatal
// defects are returned as *domain.StructuralError; everything else is
// collected as diagnostics so authors can keep working on drafts.
package validator

import (
	"fmt"
	"slices"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/scoring"
)

// Report is the result of a successful validation.
type Report struct {
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
	// Bounds is the reachable score domain, ignoring gamification.
	Bounds scoring.Bounds `json:"bounds"`
	// Reachable holds the ids of nodes reachable from the start node.
	Reachable map[string]bool `json:"-"`
}

// Warnings returns the number of diagnostics.
func (r *Report) Warnings() int {
	return len(r.Diagnostics)
}

// Codes returns the diagnostic codes in report order.
func (r *Report) Codes() []string {
	codes := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func (r *Report) warn(code, nodeID, elementID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, domain.Diagnostic{
		Severity:  domain.SeverityWarning,
		Code:      code,
		NodeID:    nodeID,
		ElementID: elementID,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Validate checks g in a fixed order and fails fast on the first
// structural defect: start/result presence, node and edge shape, edges
// sharing a handle, reachable dead ends. It then collects warnings for
// unreachable nodes, unroutable outcomes, cycles and score coverage gaps.
func Validate(g *domain.Graph) (*Report, error) {
	start, err := checkStructure(g)
	if err != nil {
		return nil, err
	}

	r := &Report{Reachable: reachable(g, start.ID)}

	for _, n := range g.Nodes {
		if n.Kind == domain.NodeResult || !r.Reachable[n.ID] {
			continue
		}
		if len(g.Outgoing(n.ID)) == 0 {
			return nil, &domain.StructuralError{Code: "dead_end", NodeID: n.ID, Detail: "reachable node has no outgoing edge"}
		}
	}

	checkEdges(g, r)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !r.Reachable[n.ID] {
			r.warn("unreachable_node", n.ID, "", "node cannot be reached from the start node")
			continue
		}
		checkRouting(g, n, r)
	}

	timed := g.Gamification != nil && g.Gamification.Timer != nil
	w := &boundsWalker{g: g, timed: timed, memo: map[string]span{}, onStack: map[string]bool{}, report: r}
	s, _ := w.visit(start.ID)
	r.Bounds = scoring.Bounds{Min: s.lo, Max: s.hi}

	checkCoverage(g.Ranges, r)
	return r, nil
}

// ScoreBounds returns the reachable score domain of g, for builder UIs
// that show it while a quiz is still being authored.
func ScoreBounds(g *domain.Graph) (scoring.Bounds, error) {
	r, err := Validate(g)
	if err != nil {
		return scoring.Bounds{}, err
	}
	return r.Bounds, nil
}

func checkStructure(g *domain.Graph) (*domain.Node, error) {
	var start *domain.Node
	results := 0
	seen := make(map[string]bool, len(g.Nodes))

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return nil, &domain.StructuralError{Code: "missing_id", Detail: fmt.Sprintf("node #%d has no id", i)}
		}
		if seen[n.ID] {
			return nil, &domain.StructuralError{Code: "duplicate_node", NodeID: n.ID, Detail: "node id declared twice"}
		}
		seen[n.ID] = true

		switch n.Kind {
		case domain.NodeStart:
			if start != nil {
				return nil, &domain.StructuralError{Code: "duplicate_start", NodeID: n.ID, Detail: "graph has more than one start node"}
			}
			start = n
		case domain.NodeResult:
			results++
		case domain.NodeComposite:
		default:
			return nil, &domain.StructuralError{Code: "invalid_kind", NodeID: n.ID, Detail: fmt.Sprintf("unknown node kind %q", n.Kind)}
		}
		if n.Kind != domain.NodeComposite && len(n.Elements) > 0 {
			return nil, &domain.StructuralError{Code: "unexpected_elements", NodeID: n.ID, Detail: fmt.Sprintf("%s nodes carry no elements", n.Kind)}
		}
		if err := checkElements(n); err != nil {
			return nil, err
		}
	}

	if start == nil {
		return nil, &domain.StructuralError{Code: "missing_start", Detail: "graph has no start node"}
	}
	if results == 0 {
		return nil, &domain.StructuralError{Code: "missing_result", Detail: "graph has no result node"}
	}

	handles := make(map[[2]string]bool, len(g.Edges))
	for _, e := range g.Edges {
		k := [2]string{e.Source, e.Handle()}
		if handles[k] {
			return nil, &domain.StructuralError{Code: "duplicate_handle", NodeID: e.Source, Detail: fmt.Sprintf("handle %q has more than one edge", e.Handle())}
		}
		handles[k] = true
	}

	for _, r := range g.Ranges {
		if r.Min > r.Max {
			return nil, &domain.StructuralError{Code: "invalid_range", Detail: fmt.Sprintf("range %q has min %d above max %d", r.Title, r.Min, r.Max)}
		}
	}
	return start, nil
}

func checkElements(n *domain.Node) error {
	ids := make(map[string]bool, len(n.Elements))
	for _, el := range n.Elements {
		id := el.ElementID()
		if id == "" {
			return &domain.StructuralError{Code: "missing_id", NodeID: n.ID, Detail: "element has no id"}
		}
		if ids[id] {
			return &domain.StructuralError{Code: "duplicate_element", NodeID: n.ID, Detail: fmt.Sprintf("element %q declared twice", id)}
		}
		ids[id] = true
		if r, ok := el.(*domain.RatingElement); ok && r.Min > r.Max {
			return &domain.StructuralError{Code: "invalid_rating", NodeID: n.ID, Detail: fmt.Sprintf("rating %q has min above max", id)}
		}
	}
	return nil
}

// reachable walks every edge breadth-first from start.
func reachable(g *domain.Graph, start string) map[string]bool {
	visited := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		if _, ok := g.Node(id); !ok {
			continue
		}
		visited[id] = true
		for _, e := range g.Outgoing(id) {
			if !visited[e.Target] {
				queue = append(queue, e.Target)
			}
		}
	}
	return visited
}

func checkEdges(g *domain.Graph, r *Report) {
	for _, e := range g.Edges {
		src, ok := g.Node(e.Source)
		if !ok {
			r.warn("dangling_edge", e.Source, "", "edge %q leaves an unknown node", e.ID)
			continue
		}
		if _, ok := g.Node(e.Target); !ok {
			r.warn("dangling_edge", e.Source, "", "edge %q points to unknown node %q", e.ID, e.Target)
		}
		if src.Kind == domain.NodeResult {
			r.warn("edge_from_result", src.ID, "", "edges leaving result nodes are never followed")
			continue
		}
		h := e.Handle()
		if h == domain.HandleGeneral || h == domain.HandleDefault {
			continue
		}
		known := false
		for _, el := range src.Elements {
			if slices.Contains(domain.PossibleHandles(el), h) {
				known = true
				break
			}
		}
		if !known {
			r.warn("unknown_handle", src.ID, "", "handle %q does not belong to any element of the node", h)
		}
	}
}

// checkRouting warns when some outcome of a node's last element has
// nowhere to go. Earlier elements fall through to the next element.
func checkRouting(g *domain.Graph, n *domain.Node, r *Report) {
	if n.Kind == domain.NodeResult {
		return
	}
	_, general := g.EdgeFrom(n.ID, domain.HandleGeneral)
	_, catchAll := g.EdgeFrom(n.ID, domain.HandleDefault)
	if general || catchAll {
		return
	}

	if len(n.Elements) == 0 {
		r.warn("unroutable_outcome", n.ID, "", "node has no general edge")
		return
	}
	last := n.Elements[len(n.Elements)-1]
	handles := domain.PossibleHandles(last)
	if len(handles) == 0 {
		r.warn("unroutable_outcome", n.ID, last.ElementID(), "last element has no general edge to follow")
		return
	}
	for _, h := range handles {
		if _, ok := g.EdgeFrom(n.ID, h); !ok {
			r.warn("unroutable_outcome", n.ID, last.ElementID(), "outcome handle %q has no edge and no general fallback", h)
		}
	}
	if timed := g.Gamification != nil && g.Gamification.Timer != nil; timed && last.Interactive() {
		r.warn("unroutable_outcome", n.ID, last.ElementID(), "a timeout resolves through the general handle, which has no edge")
	}
}

type span struct{ lo, hi int }

// boundsWalker computes, for every node, the extreme cumulative scores of
// any path prefix starting there. Back edges are reported and skipped.
type boundsWalker struct {
	g       *domain.Graph
	timed   bool
	memo    map[string]span
	onStack map[string]bool
	cycles  map[string]bool
	report  *Report
}

func (w *boundsWalker) visit(id string) (span, bool) {
	if s, ok := w.memo[id]; ok {
		return s, true
	}
	if w.onStack[id] {
		if w.cycles == nil {
			w.cycles = map[string]bool{}
		}
		if w.cycles[id] {
			return span{}, false
		}
		w.cycles[id] = true
		w.report.warn("cycle", id, "", "graph contains a cycle through this node; score bounds ignore the loop")
		return span{}, false
	}
	n, ok := w.g.Node(id)
	if !ok {
		return span{}, false
	}

	w.onStack[id] = true
	defer delete(w.onStack, id)

	sumLo, sumHi, prefixLo, prefixHi := scoring.NodeBounds(n, w.timed)
	s := span{lo: prefixLo, hi: prefixHi}
	if n.Kind != domain.NodeResult {
		exits := elementExits(n, w.timed)
		for _, e := range w.g.Outgoing(id) {
			next, ok := w.visit(e.Target)
			if !ok {
				continue
			}
			exit := span{lo: sumLo, hi: sumHi}
			if b, ok := exits[e.SourceHandle]; ok {
				exit = span{lo: b.Min, hi: b.Max}
			}
			s.lo = min(s.lo, exit.lo+next.lo)
			s.hi = max(s.hi, exit.hi+next.hi)
		}
	}
	w.memo[id] = s
	return s, true
}

// elementExits maps each element handle of n to the node's score bounds at
// the moment that element can leave through it. General and catch-all
// handles are absent: they leave after the last element.
func elementExits(n *domain.Node, timed bool) map[string]scoring.Bounds {
	cum := scoring.CumulativeBounds(n, timed)
	exits := map[string]scoring.Bounds{}
	for i, el := range n.Elements {
		for _, h := range domain.PossibleHandles(el) {
			exits[h] = cum[i]
		}
	}
	return exits
}

// checkCoverage reports score values inside the reachable domain that no
// range covers, and ranges that can never match.
func checkCoverage(ranges []domain.ScoreRange, r *Report) {
	if len(ranges) == 0 {
		r.warn("no_ranges", "", "", "no score ranges defined; results use generic quartile tiers")
		return
	}

	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b domain.ScoreRange) int { return a.Min - b.Min })

	b := r.Bounds
	next := b.Min
	for _, rng := range sorted {
		if rng.Max < b.Min || rng.Min > b.Max {
			r.warn("range_unreachable", "", "", "range %q [%d,%d] lies outside reachable scores [%d,%d]", rng.Title, rng.Min, rng.Max, b.Min, b.Max)
			continue
		}
		if rng.Min > next {
			r.warn("range_gap", "", "", "scores %d..%d map to no range", next, rng.Min-1)
		}
		next = max(next, rng.Max+1)
	}
	if next <= b.Max {
		r.warn("range_gap", "", "", "scores %d..%d map to no range", next, b.Max)
	}
}
