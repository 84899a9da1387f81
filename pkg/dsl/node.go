package dsl

import (
	"fmt"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	edges   []domain.Edge
	builder *Builder
}

// Opt declares a choice option.
func Opt(id, label string, score int) domain.Option {
	return domain.Option{ID: id, Label: label, Score: score}
}

// Correct declares a choice option marked as the right answer.
func Correct(id, label string, score int) domain.Option {
	return domain.Option{ID: id, Label: label, Score: score, Correct: true}
}

// Element appends any element to the node.
func (n *NodeBuilder) Element(el domain.Element) *NodeBuilder {
	n.node.Elements = append(n.node.Elements, el)
	return n
}

func (n *NodeBuilder) choice(variant domain.ElementVariant, id, title string, opts []domain.Option) *NodeBuilder {
	return n.Element(&domain.ChoiceElement{
		ElementBase: domain.ElementBase{ID: id, Type: variant, Title: title},
		Options:     opts,
	})
}

// Single adds a single-choice question.
func (n *NodeBuilder) Single(id, title string, opts ...domain.Option) *NodeBuilder {
	return n.choice(domain.VariantSingleChoice, id, title, opts)
}

// Multi adds a multi-choice question.
func (n *NodeBuilder) Multi(id, title string, opts ...domain.Option) *NodeBuilder {
	return n.choice(domain.VariantMultiChoice, id, title, opts)
}

// Icons adds an icon-choice question.
func (n *NodeBuilder) Icons(id, title string, opts ...domain.Option) *NodeBuilder {
	return n.choice(domain.VariantIconChoice, id, title, opts)
}

// Rating adds a rating question scored as value times multiplier.
func (n *NodeBuilder) Rating(id, title string, min, max int, multiplier float64) *NodeBuilder {
	return n.Element(&domain.RatingElement{
		ElementBase:     domain.ElementBase{ID: id, Type: domain.VariantRating, Title: title},
		Min:             min,
		Max:             max,
		ScoreMultiplier: &multiplier,
	})
}

// OpenText adds a free-text question.
func (n *NodeBuilder) OpenText(id, title string, required bool) *NodeBuilder {
	return n.Element(&domain.OpenTextElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantOpenText, Title: title},
		Required:    required,
	})
}

// Lead adds a lead form. Field names ending in "?" are optional.
func (n *NodeBuilder) Lead(id string, gate bool, fields ...string) *NodeBuilder {
	el := &domain.LeadFormElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantLeadForm},
		Gate:        gate,
	}
	for _, f := range fields {
		required := true
		if len(f) > 0 && f[len(f)-1] == '?' {
			f, required = f[:len(f)-1], false
		}
		el.Fields = append(el.Fields, domain.LeadField{Name: f, Type: fieldType(f), Required: required})
	}
	return n.Element(el)
}

func fieldType(name string) string {
	switch name {
	case "email", "phone":
		return name
	}
	return "string"
}

// Text adds a passive text block.
func (n *NodeBuilder) Text(id, body string) *NodeBuilder {
	return n.Element(&domain.ContentElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantText},
		Body:        body,
	})
}

// Media adds a passive image or video.
func (n *NodeBuilder) Media(id, url string) *NodeBuilder {
	return n.Element(&domain.ContentElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantMedia},
		URL:         url,
	})
}

// Game adds a mini-game of the given variant.
func (n *NodeBuilder) Game(variant domain.ElementVariant, id string, segments ...domain.GameSegment) *NodeBuilder {
	if variant.Family() != domain.FamilyGame {
		panic(fmt.Sprintf("dsl: %q is not a game variant", variant))
	}
	return n.Element(&domain.GameElement{
		ElementBase: domain.ElementBase{ID: id, Type: variant},
		Segments:    segments,
	})
}

// Segment declares a scored game segment.
func Segment(id string, score int) domain.GameSegment {
	return domain.GameSegment{ID: id, Label: id, Score: &score}
}

// Swipe adds a left/right question.
func (n *NodeBuilder) Swipe(id, statement string, left, right domain.SwipeSide) *NodeBuilder {
	return n.Element(&domain.SwipeElement{
		ElementBase: domain.ElementBase{ID: id, Type: domain.VariantSwipe},
		Statement:   statement,
		Left:        left,
		Right:       right,
	})
}

// CostsLife flags the most recently added element as able to cost a life.
func (n *NodeBuilder) CostsLife() *NodeBuilder {
	if len(n.node.Elements) > 0 {
		n.node.Elements[len(n.node.Elements)-1].Base().CostsLife = true
	}
	return n
}

// Handle adds an edge leaving through an explicit handle.
func (n *NodeBuilder) Handle(handle, target string) *NodeBuilder {
	n.edges = append(n.edges, domain.Edge{
		ID:           fmt.Sprintf("%s->%s:%s", n.node.ID, target, handle),
		Source:       n.node.ID,
		SourceHandle: handle,
		Target:       target,
	})
	return n
}

// Go adds the general edge of the node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.Handle(domain.HandleGeneral, target)
}

// When routes a choice option to target.
func (n *NodeBuilder) When(elementID, optionID, target string) *NodeBuilder {
	return n.Handle(domain.OptionHandle(elementID, optionID), target)
}

// OnSwipe routes a swipe direction to target.
func (n *NodeBuilder) OnSwipe(elementID string, d domain.SwipeDirection, target string) *NodeBuilder {
	return n.Handle(domain.SwipeHandle(elementID, d), target)
}

// Otherwise adds the catch-all edge of the node.
func (n *NodeBuilder) Otherwise(target string) *NodeBuilder {
	return n.Handle(domain.HandleDefault, target)
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
