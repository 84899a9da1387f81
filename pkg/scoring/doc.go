// Package scoring computes per-element score deltas, the reachable score
// domain of a graph, and maps a final score to a result.
package scoring
