package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/validator"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dsl"
)

func TestBuilder_Build(t *testing.T) {
	b := dsl.New("swipes")
	b.Start("start").Go("q1")
	b.Composite("q1").Label("Deck").
		Swipe("s", "Pineapple on pizza?", domain.SwipeSide{Label: "No"}, domain.SwipeSide{Label: "Yes", Score: 2}).
		CostsLife().
		OnSwipe("s", domain.SwipeRight, "fan").
		Otherwise("skeptic")
	b.Result("fan")
	b.Result("skeptic")
	b.Range(0, 1, "Skeptic").Range(2, 2, "Fan")

	g := b.Build()
	require.Len(t, g.Nodes, 4)
	assert.Equal(t, "swipes", g.ID)
	assert.Equal(t, []string{"start", "q1", "fan", "skeptic"}, []string{g.Nodes[0].ID, g.Nodes[1].ID, g.Nodes[2].ID, g.Nodes[3].ID})

	q1, ok := g.Node("q1")
	require.True(t, ok)
	assert.Equal(t, "Deck", q1.Label)
	require.Len(t, q1.Elements, 1)
	assert.True(t, q1.Elements[0].Base().CostsLife)

	e, ok := g.EdgeFrom("q1", "s-right")
	require.True(t, ok)
	assert.Equal(t, "fan", e.Target)
	e, ok = g.EdgeFrom("q1", domain.HandleDefault)
	require.True(t, ok)
	assert.Equal(t, "skeptic", e.Target)
	assert.Len(t, g.Ranges, 2)

	rep, err := validator.Validate(g)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Bounds.Min)
	assert.Equal(t, 2, rep.Bounds.Max)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := dsl.New("q")
	first := b.Composite("n")
	assert.Same(t, first, b.Composite("n"))
	assert.Len(t, b.Build().Nodes, 1)
}

func TestBuilder_Loader(t *testing.T) {
	b := dsl.New("lead")
	b.Start("start").Go("form")
	b.Composite("form").Lead("contact", true, "name", "phone?").Go("end")
	b.Result("end")

	g, err := b.Loader().LoadGraph(context.Background(), "lead")
	require.NoError(t, err)
	form, _ := g.Node("form")
	lead, ok := form.Elements[0].(*domain.LeadFormElement)
	require.True(t, ok)
	assert.True(t, lead.Gate)
	require.Len(t, lead.Fields, 2)
	assert.True(t, lead.Fields[0].Required)
	assert.False(t, lead.Fields[1].Required)
	assert.Equal(t, "phone", lead.Fields[1].Name)
}
