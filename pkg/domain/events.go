package domain

import "context"

// HostEventType names a runtime-to-host message.
type HostEventType string

const (
	// HostSizeChanged tells an embedding page the content height changed.
	HostSizeChanged HostEventType = "size_changed"
	// HostCompleted tells an embedding page the run finished.
	HostCompleted HostEventType = "completed"
)

// HostEvent is sent from a run to its embedding host.
type HostEvent struct {
	Type           HostEventType `json:"type"`
	RunID          string        `json:"runId"`
	Identifier     string        `json:"identifier,omitempty"`
	Height         int           `json:"height,omitempty"`
	Score          *int          `json:"score,omitempty"`
	ResultCategory string        `json:"resultCategory,omitempty"`
}

// SizeChanged builds a HostSizeChanged event.
func SizeChanged(runID string, height int) HostEvent {
	return HostEvent{Type: HostSizeChanged, RunID: runID, Height: height}
}

// Completed builds a HostCompleted event for a finished run.
func Completed(s *RunState) HostEvent {
	score := s.Score
	ev := HostEvent{Type: HostCompleted, RunID: s.RunID, Identifier: s.QuizID, Score: &score}
	if s.Result != nil {
		ev.ResultCategory = s.Result.Category
	}
	return ev
}

// NodeEvent represents entry into a node.
type NodeEvent struct {
	RunID  string
	QuizID string
	NodeID string
	Kind   NodeKind
}

// AnswerEvent is emitted after an element completes.
type AnswerEvent struct {
	RunID  string
	QuizID string
	Record AnswerRecord
	Score  int
}

// FinishEvent is emitted once per run when it terminates.
type FinishEvent struct {
	RunID       string
	QuizID      string
	Score       int
	Termination Termination
	Result      *ResolvedResult
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *NodeEvent)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnUnrouted  func(context.Context, *Diagnostic)
	OnFinish    func(context.Context, *FinishEvent)
}
