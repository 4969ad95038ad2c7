package recompute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/scoring"
)

// Recomputer scores every evaluation of a round against the round's key.
type Recomputer struct {
	calc *scoring.Calculator
	now  func() time.Time
}

func NewRecomputer(calc *scoring.Calculator) *Recomputer {
	return &Recomputer{
		calc: calc,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RecomputeRound rescores the key and all participant evaluations of a round.
// Running it twice on unchanged data writes the same scores.
func (r *Recomputer) RecomputeRound(ctx context.Context, repo Repository, roundID uuid.UUID) (*RoundResult, error) {
	round, err := repo.GetRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round %s: %w", roundID, err)
	}

	key, err := repo.GetAnswerKey(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key of round %s: %w", roundID, err)
	}
	if key == nil {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrNoAnswerKey)
	}

	scoredAt := r.now()
	maxScore := r.calc.CalculateMaxScore(key)
	if err := repo.SaveEvaluationScore(ctx, key.ID, maxScore, scoredAt); err != nil {
		return nil, fmt.Errorf("failed to save answer key score: %w", err)
	}

	evaluations, err := repo.ListRoundEvaluations(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations of round %s: %w", roundID, err)
	}

	result := &RoundResult{
		RoundID:     round.ID,
		EventID:     round.EventID,
		KeyMaxScore: maxScore,
		Scores:      make(map[uuid.UUID]int, len(evaluations)),
	}
	for i := range evaluations {
		e := &evaluations[i]
		if e.IsAnswerKey {
			continue
		}
		score := r.calc.CalculateScore(e, key)
		if err := repo.SaveEvaluationScore(ctx, e.ID, score, scoredAt); err != nil {
			return nil, fmt.Errorf("failed to save score of evaluation %s: %w", e.ID, err)
		}
		result.Scores[e.ID] = score
	}

	logger.Debug.Printf("Round %s rescored: key worth %d, %d evaluations", roundID, maxScore, result.Count())
	return result, nil
}
