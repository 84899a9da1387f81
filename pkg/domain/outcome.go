package domain

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind tags a submitted outcome in its serialized form.
type OutcomeKind string

const (
	OutcomeChoice  OutcomeKind = "choice"
	OutcomeRating  OutcomeKind = "rating"
	OutcomeText    OutcomeKind = "text"
	OutcomeLead    OutcomeKind = "lead"
	OutcomeGame    OutcomeKind = "game"
	OutcomeSwipe   OutcomeKind = "swipe"
	OutcomeSkip    OutcomeKind = "skip"
	OutcomeTimeout OutcomeKind = "timeout"
)

// Outcome is the closed set of values a respondent can submit.
type Outcome interface {
	Kind() OutcomeKind
	isOutcome()
}

// ChoiceOutcome selects one option (single, icon) or several (multi).
type ChoiceOutcome struct {
	OptionIDs []string `json:"optionIds"`
}

// RatingOutcome carries the chosen rating value.
type RatingOutcome struct {
	Value int `json:"value"`
}

// TextOutcome carries free text, or the text revealed by a game.
type TextOutcome struct {
	Text string `json:"text"`
}

// LeadOutcome carries captured contact fields keyed by field name.
type LeadOutcome struct {
	Fields map[string]string `json:"fields"`
}

// GameOutcome reports the segment a mini-game landed on.
type GameOutcome struct {
	SegmentID string `json:"segmentId,omitempty"`
	Text      string `json:"text,omitempty"`
}

// SwipeDirection is either left or right.
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
)

// SwipeOutcome reports the swipe direction.
type SwipeOutcome struct {
	Direction SwipeDirection `json:"direction"`
}

// SkipOutcome declines an optional element.
type SkipOutcome struct{}

// TimeoutOutcome is recorded when the element timer expires before an answer.
type TimeoutOutcome struct{}

func (ChoiceOutcome) Kind() OutcomeKind  { return OutcomeChoice }
func (RatingOutcome) Kind() OutcomeKind  { return OutcomeRating }
func (TextOutcome) Kind() OutcomeKind    { return OutcomeText }
func (LeadOutcome) Kind() OutcomeKind    { return OutcomeLead }
func (GameOutcome) Kind() OutcomeKind    { return OutcomeGame }
func (SwipeOutcome) Kind() OutcomeKind   { return OutcomeSwipe }
func (SkipOutcome) Kind() OutcomeKind    { return OutcomeSkip }
func (TimeoutOutcome) Kind() OutcomeKind { return OutcomeTimeout }

func (ChoiceOutcome) isOutcome()  {}
func (RatingOutcome) isOutcome()  {}
func (TextOutcome) isOutcome()    {}
func (LeadOutcome) isOutcome()    {}
func (GameOutcome) isOutcome()    {}
func (SwipeOutcome) isOutcome()   {}
func (SkipOutcome) isOutcome()    {}
func (TimeoutOutcome) isOutcome() {}

// envelope is the wire form of an Outcome: the kind tag plus the payload fields.
type envelope struct {
	Kind      OutcomeKind       `json:"kind"`
	OptionIDs []string          `json:"optionIds,omitempty"`
	Value     *int              `json:"value,omitempty"`
	Text      string            `json:"text,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	SegmentID string            `json:"segmentId,omitempty"`
	Direction SwipeDirection    `json:"direction,omitempty"`
}

// MarshalOutcome encodes an outcome together with its kind tag.
func MarshalOutcome(o Outcome) ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	env := envelope{Kind: o.Kind()}
	switch v := o.(type) {
	case ChoiceOutcome:
		env.OptionIDs = v.OptionIDs
	case RatingOutcome:
		val := v.Value
		env.Value = &val
	case TextOutcome:
		env.Text = v.Text
	case LeadOutcome:
		env.Fields = v.Fields
	case GameOutcome:
		env.SegmentID = v.SegmentID
		env.Text = v.Text
	case SwipeOutcome:
		env.Direction = v.Direction
	}
	return json.Marshal(env)
}

// UnmarshalOutcome decodes the tagged form produced by MarshalOutcome.
func UnmarshalOutcome(data []byte) (Outcome, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	switch env.Kind {
	case OutcomeChoice:
		return ChoiceOutcome{OptionIDs: env.OptionIDs}, nil
	case OutcomeRating:
		if env.Value == nil {
			return nil, fmt.Errorf("decode outcome: rating without value")
		}
		return RatingOutcome{Value: *env.Value}, nil
	case OutcomeText:
		return TextOutcome{Text: env.Text}, nil
	case OutcomeLead:
		return LeadOutcome{Fields: env.Fields}, nil
	case OutcomeGame:
		return GameOutcome{SegmentID: env.SegmentID, Text: env.Text}, nil
	case OutcomeSwipe:
		return SwipeOutcome{Direction: env.Direction}, nil
	case OutcomeSkip:
		return SkipOutcome{}, nil
	case OutcomeTimeout:
		return TimeoutOutcome{}, nil
	}
	return nil, fmt.Errorf("decode outcome: unknown kind %q", env.Kind)
}
