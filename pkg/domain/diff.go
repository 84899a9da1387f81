package domain

// StateDiff represents the changes between two run states.
// It is serialized to JSON for partial updates on the host.
type StateDiff struct {
	// RunID is always present to identify the target.
	RunID string `json:"runId"`

	CurrentNodeID       *string    `json:"currentNodeId,omitempty"`
	CurrentElementIndex *int       `json:"currentElementIndex,omitempty"`
	Status              *RunStatus `json:"status,omitempty"`
	Score               *int       `json:"score,omitempty"`

	// Answers holds only the records appended since the old state.
	// The answer log is append-only.
	Answers []AnswerRecord `json:"answers,omitempty"`

	// History holds node ids appended since the old state.
	History []string `json:"history,omitempty"`

	Gamification *GamificationState `json:"gamification,omitempty"`
	Result       *ResolvedResult    `json:"result,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
func Diff(oldState, newState *RunState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{RunID: newState.RunID}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		diff.CurrentNodeID = &newState.CurrentNodeID
	}
	if oldState == nil || oldState.CurrentElementIndex != newState.CurrentElementIndex {
		diff.CurrentElementIndex = &newState.CurrentElementIndex
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	if oldState == nil || oldState.Score != newState.Score {
		diff.Score = &newState.Score
	}

	diff.Answers = appended(oldState, func(s *RunState) int { return len(s.Answers) }, newState.Answers)
	diff.History = appended(oldState, func(s *RunState) int { return len(s.History) }, newState.History)

	if newState.Gamification != nil && (oldState == nil || !sameGamification(oldState.Gamification, newState.Gamification)) {
		diff.Gamification = newState.Gamification
	}
	if newState.Result != nil && (oldState == nil || oldState.Result == nil) {
		diff.Result = newState.Result
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func appended[T any](old *RunState, size func(*RunState) int, items []T) []T {
	from := 0
	if old != nil {
		from = size(old)
	}
	if len(items) <= from {
		return nil
	}
	return items[from:]
}

func sameGamification(a, b *GamificationState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Lives == b.Lives &&
		a.Streak == b.Streak &&
		a.Exhausted == b.Exhausted &&
		len(a.BonusAwarded) == len(b.BonusAwarded)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.CurrentElementIndex == nil &&
		d.Status == nil &&
		d.Score == nil &&
		len(d.Answers) == 0 &&
		len(d.History) == 0 &&
		d.Gamification == nil &&
		d.Result == nil
}
