/*
Package domain contains the core domain models of the quizflow engine.

It defines the quiz graph (Nodes, Elements, Edges, ScoreRanges), the closed
sets of element variants and submitted outcomes, the gamification
configuration, and the per-respondent RunState. The package is pure and
free of I/O so it can be shared by the runtime, the adapters and the host
transport.

# Key Entities

  - Graph: the authored flow. Nodes in declaration order plus edges keyed by
    (source, sourceHandle).
  - Element: one interactive or passive unit inside a composite node.
  - Outcome: the value a respondent submits for the element being shown.
  - RunState: a snapshot of one respondent's walk (position, score, log).
  - Submission: the payload handed to the dispatch boundary on completion.
*/
package domain
