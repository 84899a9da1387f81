// Package runtime walks a respondent through a validated quiz graph.
//
// The Engine is stateless: every operation takes a RunState and returns a
// new one, leaving the input untouched. The graph never changes after
// Compile, so one Quiz can serve any number of concurrent runs.
package runtime
