package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrQuizNotFound is returned when a loader has no graph for a quiz ID.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrRunFinished is returned when input is submitted to a finished run.
var ErrRunFinished = errors.New("run already finished")

// ErrNotAwaitingInput is returned when input arrives while the run is not
// waiting on an interactive element.
var ErrNotAwaitingInput = errors.New("run is not awaiting input")

// StructuralError is a fatal graph defect. Graphs carrying one cannot be
// started.
type StructuralError struct {
	Code   string
	NodeID string
	Detail string
}

func (e *StructuralError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("structural error %s at node %q: %s", e.Code, e.NodeID, e.Detail)
	}
	return fmt.Sprintf("structural error %s: %s", e.Code, e.Detail)
}

// InvalidInputError is returned when a submitted outcome does not match the
// element being shown. The run state is left untouched.
type InvalidInputError struct {
	NodeID    string
	ElementID string
	Expected  string
	Got       string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for element %q at node %q: expected %s, got %s",
		e.ElementID, e.NodeID, e.Expected, e.Got)
}

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal finding, reported by validation or recorded
// on a run when routing had to fall back.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	NodeID    string   `json:"nodeId,omitempty"`
	ElementID string   `json:"elementId,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.NodeID
	if d.ElementID != "" {
		loc += "/" + d.ElementID
	}
	if loc != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", d.Severity, d.Code, loc, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
}
