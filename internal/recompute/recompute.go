package recompute

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
)

var ErrNoAnswerKey = errors.New("round has no answer key")

// Repository is the slice of the store the recomputation pipeline needs.
// Callers pass a transaction-bound implementation to make a run atomic.
type Repository interface {
	GetRound(ctx context.Context, id uuid.UUID) (*models.Round, error)
	// GetAnswerKey returns nil, nil when the round has no key yet.
	GetAnswerKey(ctx context.Context, roundID uuid.UUID) (*models.Evaluation, error)
	// ListRoundEvaluations returns the participant evaluations of a round, keys excluded.
	ListRoundEvaluations(ctx context.Context, roundID uuid.UUID) ([]models.Evaluation, error)
	SaveEvaluationScore(ctx context.Context, id uuid.UUID, score int, scoredAt time.Time) error
	// ListEventEvaluations returns keys and participant evaluations of every round of an event.
	ListEventEvaluations(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error)
	UpsertParticipantEvent(ctx context.Context, summary *models.ParticipantEvent) error
}

// RoundResult is the outcome of scoring one round.
type RoundResult struct {
	RoundID     uuid.UUID         `json:"round_id"`
	EventID     uuid.UUID         `json:"event_id"`
	KeyMaxScore int               `json:"key_max_score"`
	Scores      map[uuid.UUID]int `json:"scores"`
}

func (r *RoundResult) Count() int {
	return len(r.Scores)
}
