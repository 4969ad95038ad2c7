package scoring

import (
	"errors"
	"fmt"
	"math"
)

var ErrPercentOutOfRange = errors.New("percent out of range [0, 100]")

// BadgeTier is one row of the badge table. A tier applies from MinPercent up
// to the MinPercent of the next tier.
type BadgeTier struct {
	MinPercent float64 `toml:"min_pct" json:"min_pct"`
	Key        string  `toml:"key" json:"key"`
	Label      string  `toml:"label" json:"label"`
}

var DefaultBadgeTiers = []BadgeTier{
	{MinPercent: 0, Key: "novice", Label: "Starting the Palate"},
	{MinPercent: 15, Key: "explorer", Label: "Curious Taster"},
	{MinPercent: 30, Key: "enthusiast", Label: "Sharp Palate"},
	{MinPercent: 50, Key: "experienced", Label: "Trained Nose"},
	{MinPercent: 75, Key: "specialist", Label: "Glass Reader"},
}

type BadgeClassifier struct {
	tiers []BadgeTier
}

// NewBadgeClassifier validates the tier table: it must start at 0, be
// strictly ascending within [0, 100] and carry unique keys.
func NewBadgeClassifier(tiers []BadgeTier) (*BadgeClassifier, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: badge table is empty", ErrInvalidConfig)
	}
	if tiers[0].MinPercent != 0 {
		return nil, fmt.Errorf("%w: lowest badge %q starts at %v, not 0", ErrInvalidConfig, tiers[0].Key, tiers[0].MinPercent)
	}

	keys := make(map[string]bool, len(tiers))
	for i, t := range tiers {
		if t.Key == "" || t.Label == "" {
			return nil, fmt.Errorf("%w: badge #%d needs both key and label", ErrInvalidConfig, i)
		}
		if keys[t.Key] {
			return nil, fmt.Errorf("%w: duplicate badge key %q", ErrInvalidConfig, t.Key)
		}
		keys[t.Key] = true

		if math.IsNaN(t.MinPercent) || t.MinPercent < 0 || t.MinPercent > 100 {
			return nil, fmt.Errorf("%w: badge %q threshold %v outside [0, 100]", ErrInvalidConfig, t.Key, t.MinPercent)
		}
		if i > 0 && t.MinPercent <= tiers[i-1].MinPercent {
			return nil, fmt.Errorf("%w: badge %q threshold %v is not above %q (%v)",
				ErrInvalidConfig, t.Key, t.MinPercent, tiers[i-1].Key, tiers[i-1].MinPercent)
		}
	}

	own := make([]BadgeTier, len(tiers))
	copy(own, tiers)
	return &BadgeClassifier{tiers: own}, nil
}

// Classify returns the highest tier whose threshold is at or below percent.
// Percentages outside [0, 100] are rejected rather than clamped.
func (b *BadgeClassifier) Classify(percent float64) (BadgeTier, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return BadgeTier{}, fmt.Errorf("%w: %v", ErrPercentOutOfRange, percent)
	}

	chosen := b.tiers[0]
	for _, t := range b.tiers[1:] {
		if percent < t.MinPercent {
			break
		}
		chosen = t
	}
	return chosen, nil
}

func (b *BadgeClassifier) Tiers() []BadgeTier {
	out := make([]BadgeTier, len(b.tiers))
	copy(out, b.tiers)
	return out
}
