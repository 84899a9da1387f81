package scoring

import (
	"math"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Bounds is the inclusive range of scores a run can end with.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Degenerate reports whether the domain is a single point.
func (b Bounds) Degenerate() bool {
	return b.Max <= b.Min
}

// ElementBounds returns the lowest and highest base delta an element can
// produce. Gamification multipliers and bonuses are not included. When
// timeouts are possible a zero delta is always reachable.
func ElementBounds(el domain.Element, timed bool) (lo, hi int) {
	switch e := el.(type) {
	case *domain.ChoiceElement:
		lo, hi = choiceBounds(e)
	case *domain.RatingElement:
		a, b := Scale(e.Min, e.Multiplier()), Scale(e.Max, e.Multiplier())
		lo, hi = min(a, b), max(a, b)
	case *domain.GameElement:
		lo, hi = math.MaxInt, math.MinInt
		for _, s := range e.Segments {
			v := 0
			if s.Score != nil {
				v = *s.Score
			}
			lo, hi = min(lo, v), max(hi, v)
		}
		if len(e.Segments) == 0 {
			lo, hi = 0, 0
		}
	case *domain.SwipeElement:
		lo, hi = min(e.Left.Score, e.Right.Score), max(e.Left.Score, e.Right.Score)
	default:
		return 0, 0
	}
	if timed && el.Interactive() {
		lo, hi = min(lo, 0), max(hi, 0)
	}
	return lo, hi
}

func choiceBounds(e *domain.ChoiceElement) (lo, hi int) {
	if len(e.Options) == 0 {
		return 0, 0
	}
	lo, hi = math.MaxInt, math.MinInt
	for _, o := range e.Options {
		lo, hi = min(lo, o.Score), max(hi, o.Score)
	}
	if !e.Multi() {
		return lo, hi
	}
	// A multi-select takes at least one option, so the extremes are the sum
	// of all negative (or positive) scores when there is one.
	neg, pos := 0, 0
	for _, o := range e.Options {
		if o.Score < 0 {
			neg += o.Score
		}
		if o.Score > 0 {
			pos += o.Score
		}
	}
	if neg < 0 {
		lo = neg
	}
	if pos > 0 {
		hi = pos
	}
	return lo, hi
}

// NodeBounds returns the bounds of a full pass through a node together with
// the extreme prefix sums reachable inside it. Prefixes always include zero.
func NodeBounds(n *domain.Node, timed bool) (sumLo, sumHi, prefixLo, prefixHi int) {
	for _, el := range n.Elements {
		lo, hi := ElementBounds(el, timed)
		sumLo += lo
		sumHi += hi
		prefixLo = min(prefixLo, sumLo)
		prefixHi = max(prefixHi, sumHi)
	}
	return sumLo, sumHi, prefixLo, prefixHi
}

// CumulativeBounds returns, for each element of n, the bounds of the node's
// contribution up to and including that element. A branch taken on an
// element's own handle leaves the node with exactly that much.
func CumulativeBounds(n *domain.Node, timed bool) []Bounds {
	out := make([]Bounds, len(n.Elements))
	var lo, hi int
	for i, el := range n.Elements {
		elo, ehi := ElementBounds(el, timed)
		lo, hi = lo+elo, hi+ehi
		out[i] = Bounds{Min: lo, Max: hi}
	}
	return out
}
