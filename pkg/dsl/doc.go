/*
Package dsl provides a fluent Go builder for quiz graphs.

It lets hosts and tests declare a quiz in code instead of a JSON or YAML
document. Nodes and edges keep declaration order, which matters for
multi-select routing and result tie-breaks.

Example usage:

	b := dsl.New("personality")

	b.Start("start").Go("q1")

	b.Composite("q1").
		Single("color", "Pick a color",
			dsl.Opt("red", "Red", 1),
			dsl.Opt("blue", "Blue", 5)).
		When("color", "red", "calm").
		Go("bold")

	b.Result("calm")
	b.Result("bold")
	b.Range(0, 2, "Calm").Range(3, 5, "Bold")

	graph := b.Build()
*/
package dsl
