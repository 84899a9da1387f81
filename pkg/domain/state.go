package domain

import (
	"encoding/json"
	"time"
)

// RunStatus is the coarse lifecycle of a run.
type RunStatus string

const (
	StatusRunning       RunStatus = "running"
	StatusAwaitingInput RunStatus = "awaiting_input"
	StatusFinished      RunStatus = "finished"
)

// Termination records why a finished run ended.
type Termination string

const (
	TerminationResult       Termination = "result"
	TerminationUnrouted     Termination = "unrouted"
	TerminationLivesPartial Termination = "lives_partial"
	TerminationLivesLead    Termination = "lives_lead_gate"
	TerminationRedirect     Termination = "lives_redirect"
)

// Input is one respondent action for the element currently shown.
// Elapsed is the time the respondent took, measured by the caller; the
// engine owns no clock.
type Input struct {
	Outcome Outcome
	Elapsed time.Duration
}

// AnswerRecord is one entry of the append-only answer log. Passive
// content is logged too, with a nil Outcome and a zero delta.
type AnswerRecord struct {
	NodeID     string
	ElementID  string
	Variant    ElementVariant
	Outcome    Outcome
	Elapsed    time.Duration
	BaseDelta  int
	Multiplier float64
	SpeedBonus int
	Delta      int
	Handle     string
	LifeLost   bool
}

// Passive reports whether the record logs content that needed no input.
func (a AnswerRecord) Passive() bool {
	return a.Variant.Family() == FamilyContent
}

type answerRecordJSON struct {
	NodeID     string          `json:"nodeId"`
	ElementID  string          `json:"elementId"`
	Variant    ElementVariant  `json:"variant"`
	Outcome    json.RawMessage `json:"outcome"`
	ElapsedMS  int64           `json:"elapsedMs,omitempty"`
	BaseDelta  int             `json:"baseDelta"`
	Multiplier float64         `json:"multiplier,omitempty"`
	SpeedBonus int             `json:"speedBonus,omitempty"`
	Delta      int             `json:"delta"`
	Handle     string          `json:"handle,omitempty"`
	LifeLost   bool            `json:"lifeLost,omitempty"`
}

// MarshalJSON encodes the record with a tagged outcome.
func (a AnswerRecord) MarshalJSON() ([]byte, error) {
	out, err := MarshalOutcome(a.Outcome)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerRecordJSON{
		NodeID:     a.NodeID,
		ElementID:  a.ElementID,
		Variant:    a.Variant,
		Outcome:    out,
		ElapsedMS:  a.Elapsed.Milliseconds(),
		BaseDelta:  a.BaseDelta,
		Multiplier: a.Multiplier,
		SpeedBonus: a.SpeedBonus,
		Delta:      a.Delta,
		Handle:     a.Handle,
		LifeLost:   a.LifeLost,
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (a *AnswerRecord) UnmarshalJSON(data []byte) error {
	var raw answerRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Outcome
	if len(raw.Outcome) > 0 {
		var err error
		if out, err = UnmarshalOutcome(raw.Outcome); err != nil {
			return err
		}
	}
	*a = AnswerRecord{
		NodeID:     raw.NodeID,
		ElementID:  raw.ElementID,
		Variant:    raw.Variant,
		Outcome:    out,
		Elapsed:    time.Duration(raw.ElapsedMS) * time.Millisecond,
		BaseDelta:  raw.BaseDelta,
		Multiplier: raw.Multiplier,
		SpeedBonus: raw.SpeedBonus,
		Delta:      raw.Delta,
		Handle:     raw.Handle,
		LifeLost:   raw.LifeLost,
	}
	return nil
}

// ResolvedResult is the outcome of result resolution.
type ResolvedResult struct {
	// Range is the matched authored range. Nil when the fallback tier was used.
	Range *ScoreRange `json:"range,omitempty"`
	// Category names the result for hosts and dispatch: the range title, or
	// "Q1".."Q4" for the fallback tier.
	Category string `json:"category"`
	Tier     int    `json:"tier,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// RunState is the snapshot of one respondent's walk through a quiz.
// The engine never mutates a state it was given; each step returns a copy.
type RunState struct {
	RunID               string             `json:"runId"`
	QuizID              string             `json:"quizId"`
	GraphVersion        string             `json:"graphVersion,omitempty"`
	Status              RunStatus          `json:"status"`
	CurrentNodeID       string             `json:"currentNodeId"`
	CurrentElementIndex int                `json:"currentElementIndex"`
	Score               int                `json:"score"`
	Answers             []AnswerRecord     `json:"answers"`
	History             []string           `json:"history,omitempty"`
	Contact             map[string]string  `json:"contact,omitempty"`
	Gamification        *GamificationState `json:"gamification,omitempty"`
	PendingLeadGate     bool               `json:"pendingLeadGate,omitempty"`
	Termination         Termination        `json:"termination,omitempty"`
	Result              *ResolvedResult    `json:"result,omitempty"`
	RedirectURL         string             `json:"redirectUrl,omitempty"`
	Diagnostics         []Diagnostic       `json:"diagnostics,omitempty"`

	// Sealed holds an encrypted snapshot written by storage middleware.
	// When set, the other fields besides the ids and Status are empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewRunState returns an empty state positioned at startNodeID.
func NewRunState(runID, quizID, startNodeID string) *RunState {
	return &RunState{
		RunID:         runID,
		QuizID:        quizID,
		Status:        StatusRunning,
		CurrentNodeID: startNodeID,
		Answers:       []AnswerRecord{},
		History:       []string{startNodeID},
	}
}

// Finished reports whether the run has ended.
func (s *RunState) Finished() bool {
	return s.Status == StatusFinished
}

// Clone returns a deep copy safe to mutate.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = append([]AnswerRecord(nil), s.Answers...)
	if c.Answers == nil {
		c.Answers = []AnswerRecord{}
	}
	c.History = append([]string(nil), s.History...)
	c.Diagnostics = append([]Diagnostic(nil), s.Diagnostics...)
	if s.Contact != nil {
		c.Contact = make(map[string]string, len(s.Contact))
		for k, v := range s.Contact {
			c.Contact[k] = v
		}
	}
	c.Gamification = s.Gamification.Clone()
	if s.Result != nil {
		r := *s.Result
		if s.Result.Range != nil {
			rng := *s.Result.Range
			r.Range = &rng
		}
		c.Result = &r
	}
	return &c
}

// Prompt describes what the host should render for the current step.
type Prompt struct {
	RunID     string        `json:"runId"`
	NodeID    string        `json:"nodeId"`
	Element   Element       `json:"element,omitempty"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	TimeLimit time.Duration `json:"timeLimit,omitempty"`
	LeadGate  bool          `json:"leadGate,omitempty"`
	Finished  bool          `json:"finished,omitempty"`

	// Passed lists passive elements of the node shown before Element.
	Passed []Element `json:"passed,omitempty"`

	// Gamification is a snapshot of lives and streak. Multiplier is the
	// streak multiplier that applies if the next answer qualifies.
	Gamification *GamificationState `json:"gamification,omitempty"`
	Multiplier   float64            `json:"multiplier,omitempty"`
}

// Submission is what the dispatch boundary receives when a run finishes.
type Submission struct {
	RunID          string            `json:"runId"`
	QuizID         string            `json:"quizId"`
	Answers        []AnswerRecord    `json:"answers"`
	Score          int               `json:"score"`
	ResultCategory string            `json:"resultCategory,omitempty"`
	Termination    Termination       `json:"termination"`
	RedirectURL    string            `json:"redirectUrl,omitempty"`
	ContactFields  map[string]string `json:"contactFields,omitempty"`
}

// NewSubmission builds the dispatch payload for a finished state.
func NewSubmission(s *RunState) Submission {
	sub := Submission{
		RunID:         s.RunID,
		QuizID:        s.QuizID,
		Answers:       append([]AnswerRecord(nil), s.Answers...),
		Score:         s.Score,
		Termination:   s.Termination,
		RedirectURL:   s.RedirectURL,
		ContactFields: s.Contact,
	}
	if s.Result != nil {
		sub.ResultCategory = s.Result.Category
	}
	return sub
}
