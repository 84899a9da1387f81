package domain

// ElementVariant is the concrete type tag of an element, as stored in the
// serialized graph under "type".
type ElementVariant string

const (
	VariantSingleChoice ElementVariant = "single-choice"
	VariantMultiChoice  ElementVariant = "multi-choice"
	VariantIconChoice   ElementVariant = "icon-choice"
	VariantOpenText     ElementVariant = "open-text"
	VariantRating       ElementVariant = "rating"
	VariantLeadForm     ElementVariant = "lead-form"
	VariantText         ElementVariant = "text"
	VariantMedia        ElementVariant = "media"
	VariantScript       ElementVariant = "script"
	VariantSpinWheel    ElementVariant = "spin-wheel"
	VariantScratchCard  ElementVariant = "scratch-card"
	VariantSlotMachine  ElementVariant = "slot-machine"
	VariantMysteryBox   ElementVariant = "mystery-box"
	VariantPhoneCall    ElementVariant = "phone-call"
	VariantCardFlip     ElementVariant = "card-flip"
	VariantSwipe        ElementVariant = "swipe-question"
)

// Family groups variants that share payload shape and routing behaviour.
type Family string

const (
	FamilyChoice  Family = "choice"
	FamilyOpen    Family = "open"
	FamilyCapture Family = "capture"
	FamilyContent Family = "content"
	FamilyGame    Family = "game"
)

// Family returns the family a variant belongs to, or "" for unknown tags.
func (v ElementVariant) Family() Family {
	switch v {
	case VariantSingleChoice, VariantMultiChoice, VariantIconChoice, VariantSwipe:
		return FamilyChoice
	case VariantOpenText, VariantRating:
		return FamilyOpen
	case VariantLeadForm:
		return FamilyCapture
	case VariantText, VariantMedia, VariantScript:
		return FamilyContent
	case VariantSpinWheel, VariantScratchCard, VariantSlotMachine,
		VariantMysteryBox, VariantPhoneCall, VariantCardFlip:
		return FamilyGame
	}
	return ""
}

// Element is the closed set of things a composite node can hold.
// Implementations live in this package only.
type Element interface {
	ElementID() string
	Variant() ElementVariant
	Base() *ElementBase
	// Interactive reports whether the element waits for a respondent outcome.
	Interactive() bool
	isElement()
}

// ElementBase carries the fields every variant shares.
type ElementBase struct {
	ID    string         `json:"id" mapstructure:"id"`
	Type  ElementVariant `json:"type" mapstructure:"type"`
	Title string         `json:"title,omitempty" mapstructure:"title"`
	// CostsLife marks the element as able to cost a life when lives are
	// enabled: on timeout, or on an answer marked as wrong.
	CostsLife bool `json:"costsLife,omitempty" mapstructure:"costsLife"`
	// TimeLimit overrides the quiz-wide timer, in seconds. Zero inherits.
	TimeLimit int `json:"timeLimit,omitempty" mapstructure:"timeLimit"`
}

func (b *ElementBase) ElementID() string       { return b.ID }
func (b *ElementBase) Variant() ElementVariant { return b.Type }
func (b *ElementBase) Base() *ElementBase      { return b }

// Option is one selectable answer of a choice element.
type Option struct {
	ID      string `json:"id" mapstructure:"id"`
	Label   string `json:"label" mapstructure:"label"`
	Score   int    `json:"score" mapstructure:"score"`
	Correct bool   `json:"correct,omitempty" mapstructure:"correct"`
	Icon    string `json:"icon,omitempty" mapstructure:"icon"`
}

// ChoiceElement covers single, multi and icon choice.
type ChoiceElement struct {
	ElementBase `mapstructure:",squash"`
	Options     []Option `json:"options" mapstructure:"options"`
}

func (*ChoiceElement) Interactive() bool { return true }
func (*ChoiceElement) isElement()        {}

// Multi reports whether several options may be selected at once.
func (c *ChoiceElement) Multi() bool { return c.Type == VariantMultiChoice }

// Option returns the option with the given id.
func (c *ChoiceElement) Option(id string) (Option, bool) {
	for _, o := range c.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Graded reports whether any option is marked correct.
func (c *ChoiceElement) Graded() bool {
	for _, o := range c.Options {
		if o.Correct {
			return true
		}
	}
	return false
}

// OpenTextElement is a free-text question. It never contributes to score.
type OpenTextElement struct {
	ElementBase `mapstructure:",squash"`
	Placeholder string `json:"placeholder,omitempty" mapstructure:"placeholder"`
	Multiline   bool   `json:"multiline,omitempty" mapstructure:"multiline"`
	Required    bool   `json:"required,omitempty" mapstructure:"required"`
	// MaxLength caps the answer in characters. Zero means DefaultTextLimit.
	MaxLength int `json:"maxLength,omitempty" mapstructure:"maxLength"`
}

func (*OpenTextElement) Interactive() bool { return true }
func (*OpenTextElement) isElement()        {}

// DefaultTextLimit is the open text cap when MaxLength is unset.
const DefaultTextLimit = 2000

// Limit returns the effective answer cap in characters.
func (o *OpenTextElement) Limit() int {
	if o.MaxLength > 0 {
		return o.MaxLength
	}
	return DefaultTextLimit
}

// RatingElement asks for a value in [Min, Max]. Its score delta is the
// value scaled by ScoreMultiplier and rounded half away from zero. A nil
// ScoreMultiplier means 1; an explicit zero makes the rating unscored.
type RatingElement struct {
	ElementBase     `mapstructure:",squash"`
	Min             int      `json:"min" mapstructure:"min"`
	Max             int      `json:"max" mapstructure:"max"`
	ScoreMultiplier *float64 `json:"scoreMultiplier,omitempty" mapstructure:"scoreMultiplier"`
}

func (*RatingElement) Interactive() bool { return true }
func (*RatingElement) isElement()        {}

// Multiplier returns the configured multiplier, defaulting to 1 when unset.
func (r *RatingElement) Multiplier() float64 {
	if r.ScoreMultiplier == nil {
		return 1
	}
	return *r.ScoreMultiplier
}

// LeadField is one contact field requested by a lead form.
type LeadField struct {
	Name     string `json:"name" mapstructure:"name"`
	Label    string `json:"label,omitempty" mapstructure:"label"`
	Type     string `json:"fieldType,omitempty" mapstructure:"fieldType"`
	Required bool   `json:"required,omitempty" mapstructure:"required"`
}

// Limit returns the longest accepted value for the field, in characters.
func (f LeadField) Limit() int {
	switch f.Type {
	case "email":
		return 254
	case "phone":
		return 32
	}
	return 200
}

// LeadFormElement captures contact data. When Gate is set the respondent
// cannot skip it, so nothing downstream is reachable without a lead.
type LeadFormElement struct {
	ElementBase `mapstructure:",squash"`
	Fields      []LeadField `json:"fields" mapstructure:"fields"`
	Gate        bool        `json:"gate,omitempty" mapstructure:"gate"`
}

func (*LeadFormElement) Interactive() bool { return true }
func (*LeadFormElement) isElement()        {}

// DefaultLeadForm is presented when lives run out under the lead gate
// action and the quiz does not configure its own gate form.
func DefaultLeadForm() *LeadFormElement {
	return &LeadFormElement{
		ElementBase: ElementBase{ID: "lives-lead-gate", Type: VariantLeadForm, Title: "Where should we send your result?"},
		Fields: []LeadField{
			{Name: "name", Type: "string", Required: true},
			{Name: "email", Type: "email", Required: true},
		},
		Gate: true,
	}
}

// ContentElement is passive text, media or an embedded script.
type ContentElement struct {
	ElementBase `mapstructure:",squash"`
	Body        string `json:"body,omitempty" mapstructure:"body"`
	URL         string `json:"url,omitempty" mapstructure:"url"`
}

func (*ContentElement) Interactive() bool { return false }
func (*ContentElement) isElement()        {}

// GameSegment is one possible result of a game element (a wheel slice,
// a box, a card). A nil Score contributes nothing.
type GameSegment struct {
	ID      string `json:"id" mapstructure:"id"`
	Label   string `json:"label,omitempty" mapstructure:"label"`
	Score   *int   `json:"score,omitempty" mapstructure:"score"`
	Correct bool   `json:"correct,omitempty" mapstructure:"correct"`
}

// GameElement is a mini-game that yields a single outcome value.
type GameElement struct {
	ElementBase `mapstructure:",squash"`
	Segments    []GameSegment `json:"segments,omitempty" mapstructure:"segments"`
	Prompt      string        `json:"prompt,omitempty" mapstructure:"prompt"`
}

func (*GameElement) Interactive() bool { return true }
func (*GameElement) isElement()        {}

// Segment returns the segment with the given id.
func (g *GameElement) Segment(id string) (GameSegment, bool) {
	for _, s := range g.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return GameSegment{}, false
}

// SwipeSide describes one direction of a swipe question.
type SwipeSide struct {
	Label   string `json:"label,omitempty" mapstructure:"label"`
	Score   int    `json:"score" mapstructure:"score"`
	Correct bool   `json:"correct,omitempty" mapstructure:"correct"`
}

// SwipeElement is a binary left/right question with its own handles.
type SwipeElement struct {
	ElementBase `mapstructure:",squash"`
	Statement   string    `json:"statement,omitempty" mapstructure:"statement"`
	Left        SwipeSide `json:"left" mapstructure:"left"`
	Right       SwipeSide `json:"right" mapstructure:"right"`
}

func (*SwipeElement) Interactive() bool { return true }
func (*SwipeElement) isElement()        {}

// Side returns the configuration for a direction.
func (s *SwipeElement) Side(d SwipeDirection) SwipeSide {
	if d == SwipeLeft {
		return s.Left
	}
	return s.Right
}

// Graded reports whether either side is marked correct.
func (s *SwipeElement) Graded() bool { return s.Left.Correct || s.Right.Correct }
