package scoring

import (
	"fmt"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// FallbackTiers is the number of generic tiers used when no range matches.
const FallbackTiers = 4

// Resolve maps a final score to a result. Among the ranges containing the
// score, the one with the smallest span wins; equal spans fall back to
// declaration order. With no match the score is bucketed into quartiles of
// bounds; a degenerate domain always yields the first tier.
func Resolve(score int, ranges []domain.ScoreRange, bounds Bounds) *domain.ResolvedResult {
	best := -1
	for i, r := range ranges {
		if !r.Contains(score) {
			continue
		}
		if best < 0 || r.Span() < ranges[best].Span() {
			best = i
		}
	}
	if best >= 0 {
		r := ranges[best]
		return &domain.ResolvedResult{Range: &r, Category: r.Title}
	}

	tier := Tier(score, bounds)
	return &domain.ResolvedResult{
		Category: fmt.Sprintf("Q%d", tier),
		Tier:     tier,
		Fallback: true,
	}
}

// Tier places score into one of FallbackTiers equal slices of bounds,
// numbered from 1. Scores outside the domain are clamped.
func Tier(score int, bounds Bounds) int {
	if bounds.Degenerate() {
		return 1
	}
	span := float64(bounds.Max - bounds.Min)
	frac := float64(score-bounds.Min) / span
	switch {
	case frac <= 0:
		return 1
	case frac >= 1:
		return FallbackTiers
	}
	return int(frac*FallbackTiers) + 1
}
