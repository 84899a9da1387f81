package runtime

import (
	"context"
	"fmt"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/scoring"
)

type routeKind int

const (
	// routeNext moves to the next element of the same node.
	routeNext routeKind = iota
	// routeEdge follows an edge to another node.
	routeEdge
	// routeNone means nothing matched, not even a catch-all.
	routeNone
)

type route struct {
	kind   routeKind
	target string
	handle string
}

// resolveRoute picks the exit for a completed element. Outcome handles are
// tried in order; for the last element of a node the general handle and
// then any catch-all path follow. Edges into unknown nodes are skipped.
func (e *Engine) resolveRoute(q *Quiz, node *domain.Node, candidates []string, last bool) route {
	for _, h := range candidates {
		if target, ok := e.edgeTarget(q, node.ID, h); ok {
			return route{kind: routeEdge, target: target, handle: h}
		}
	}
	if !last {
		return route{kind: routeNext}
	}
	if target, ok := e.edgeTarget(q, node.ID, domain.HandleGeneral); ok {
		return route{kind: routeEdge, target: target, handle: domain.HandleGeneral}
	}
	if target, ok := catchAll(q.Graph, node.ID); ok {
		return route{kind: routeEdge, target: target, handle: domain.HandleDefault}
	}
	return route{kind: routeNone}
}

func (e *Engine) edgeTarget(q *Quiz, source, handle string) (string, bool) {
	edge, ok := q.Graph.EdgeFrom(source, handle)
	if !ok {
		return "", false
	}
	if _, exists := q.Graph.Node(edge.Target); !exists {
		return "", false
	}
	return edge.Target, true
}

// catchAll finds the nearest Result node reachable from source by leaving
// through its catch-all edge and then following catch-all or general edges.
func catchAll(g *domain.Graph, source string) (string, bool) {
	first, ok := g.EdgeFrom(source, domain.HandleDefault)
	if !ok {
		return "", false
	}
	visited := map[string]bool{source: true}
	queue := []string{first.Target}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		if n.IsTerminal() {
			return id, true
		}
		for _, h := range []string{domain.HandleDefault, domain.HandleGeneral} {
			if edge, ok := g.EdgeFrom(id, h); ok && !visited[edge.Target] {
				queue = append(queue, edge.Target)
			}
		}
	}
	return "", false
}

// enter moves the run to a node.
func (e *Engine) enter(ctx context.Context, st *domain.RunState, n *domain.Node) {
	st.CurrentNodeID = n.ID
	st.CurrentElementIndex = 0
	st.History = append(st.History, n.ID)
	e.nodeEntered(ctx, st, n)
}

// advance walks forward from the current position until an interactive
// element needs input or the run finishes. Passive elements complete on
// their own with a zero-delta answer record.
func (e *Engine) advance(ctx context.Context, q *Quiz, st *domain.RunState) {
	st.Status = domain.StatusRunning
	for steps := 0; ; steps++ {
		if steps >= e.maxSteps {
			e.unrouted(ctx, q, st, "loop", fmt.Sprintf("no input requested after %d steps", steps))
			return
		}

		node, ok := q.Graph.Node(st.CurrentNodeID)
		if !ok {
			e.unrouted(ctx, q, st, "missing_node", fmt.Sprintf("node %q does not exist", st.CurrentNodeID))
			return
		}
		if node.IsTerminal() {
			e.finish(ctx, q, st, domain.TerminationResult, scoring.Resolve(st.Score, q.Graph.Ranges, q.Bounds()))
			return
		}

		var trailing domain.Element
		if st.CurrentElementIndex < len(node.Elements) {
			el := node.Elements[st.CurrentElementIndex]
			if el.Interactive() {
				st.Status = domain.StatusAwaitingInput
				return
			}
			if st.CurrentElementIndex < len(node.Elements)-1 {
				e.passed(ctx, st, node, el, "")
				st.CurrentElementIndex++
				continue
			}
			trailing = el
		}

		// The node is exhausted: leave through the general handle.
		r := e.resolveRoute(q, node, nil, true)
		if trailing != nil {
			e.passed(ctx, st, node, trailing, r.handle)
		}
		if r.kind != routeEdge {
			e.unrouted(ctx, q, st, "unrouted_transition", fmt.Sprintf("node %q has no general edge", node.ID))
			return
		}
		target, _ := q.Graph.Node(r.target)
		e.enter(ctx, st, target)
	}
}

// passed logs a passive element as completed.
func (e *Engine) passed(ctx context.Context, st *domain.RunState, node *domain.Node, el domain.Element, handle string) {
	rec := domain.AnswerRecord{
		NodeID:    node.ID,
		ElementID: el.ElementID(),
		Variant:   el.Variant(),
		Handle:    handle,
	}
	st.Answers = append(st.Answers, rec)
	if e.hooks.OnAnswer != nil {
		e.hooks.OnAnswer(ctx, &domain.AnswerEvent{RunID: st.RunID, QuizID: st.QuizID, Record: rec, Score: st.Score})
	}
}

// unrouted ends the run on the generic fallback result and records why.
func (e *Engine) unrouted(ctx context.Context, q *Quiz, st *domain.RunState, code, msg string) {
	d := domain.Diagnostic{
		Severity: domain.SeverityWarning,
		Code:     code,
		NodeID:   st.CurrentNodeID,
		Message:  msg,
	}
	st.Diagnostics = append(st.Diagnostics, d)
	e.logger.Warn("run ended unrouted", "run", st.RunID, "node", st.CurrentNodeID, "code", code)
	if e.hooks.OnUnrouted != nil {
		e.hooks.OnUnrouted(ctx, &d)
	}
	e.finish(ctx, q, st, domain.TerminationUnrouted, scoring.Resolve(st.Score, nil, q.Bounds()))
}

// finish terminates the run, then hands the submission to the dispatcher
// and notifies the host. It runs once per run: a finished state rejects
// further input.
func (e *Engine) finish(ctx context.Context, q *Quiz, st *domain.RunState, why domain.Termination, res *domain.ResolvedResult) {
	st.Status = domain.StatusFinished
	st.Termination = why
	st.Result = res
	st.PendingLeadGate = false

	attrs := []any{"run", st.RunID, "score", st.Score, "termination", why}
	if res != nil {
		attrs = append(attrs, "category", res.Category)
	}
	e.logger.Info("run finished", attrs...)

	if e.hooks.OnFinish != nil {
		e.hooks.OnFinish(ctx, &domain.FinishEvent{
			RunID:       st.RunID,
			QuizID:      st.QuizID,
			Score:       st.Score,
			Termination: why,
			Result:      res,
		})
	}
	if e.dispatcher != nil {
		e.dispatcher.Dispatch(ctx, domain.NewSubmission(st))
	}
	if e.sink != nil {
		e.sink.Emit(ctx, domain.Completed(st))
	}
}
