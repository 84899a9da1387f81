package runtime

import (
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/validator"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/gamification"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/scoring"
)

// Quiz is a graph that passed validation, bundled with what the engine
// needs at run time. It is read-only and safe to share.
type Quiz struct {
	Graph  *domain.Graph
	Report *validator.Report

	overlay *gamification.Overlay
}

// Compile validates g. A structural defect is returned as
// *domain.StructuralError and the graph cannot be started.
func Compile(g *domain.Graph) (*Quiz, error) {
	report, err := validator.Validate(g)
	if err != nil {
		return nil, err
	}
	return &Quiz{
		Graph:   g,
		Report:  report,
		overlay: gamification.New(g.Gamification),
	}, nil
}

// Bounds is the reachable score domain used for fallback tiers.
func (q *Quiz) Bounds() scoring.Bounds {
	return q.Report.Bounds
}

// Overlay exposes the quiz's gamification rules.
func (q *Quiz) Overlay() *gamification.Overlay {
	return q.overlay
}
