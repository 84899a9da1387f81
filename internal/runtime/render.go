package runtime

import (
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Current describes what the host should render for st without changing it.
func (e *Engine) Current(q *Quiz, st *domain.RunState) (*domain.Prompt, error) {
	p := &domain.Prompt{
		RunID:        st.RunID,
		NodeID:       st.CurrentNodeID,
		Gamification: st.Gamification.Clone(),
		Multiplier:   q.overlay.NextMultiplier(st.Gamification),
	}
	if st.Finished() {
		p.Finished = true
		return p, nil
	}
	if st.PendingLeadGate {
		form := q.overlay.LeadForm()
		p.Element = form
		p.LeadGate = true
		p.Total = 1
		return p, nil
	}
	if st.Status != domain.StatusAwaitingInput {
		return nil, domain.ErrNotAwaitingInput
	}

	node, ok := q.Graph.Node(st.CurrentNodeID)
	if !ok || st.CurrentElementIndex >= len(node.Elements) {
		return nil, domain.ErrNotAwaitingInput
	}
	el := node.Elements[st.CurrentElementIndex]
	p.Element = el
	p.Index = st.CurrentElementIndex
	p.Total = len(node.Elements)
	p.TimeLimit = q.overlay.TimeLimit(el)

	// Passive content shown since the previous interactive element.
	from := st.CurrentElementIndex
	for from > 0 && !node.Elements[from-1].Interactive() {
		from--
	}
	p.Passed = append(p.Passed, node.Elements[from:st.CurrentElementIndex]...)
	return p, nil
}
