package recompute

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
	"github.com/shrimpsizemoose/blindtaste/internal/scoring"
)

// Aggregator rolls round scores up into per participant event summaries.
type Aggregator struct {
	badges *scoring.BadgeClassifier
	now    func() time.Time
}

func NewAggregator(badges *scoring.BadgeClassifier) *Aggregator {
	return &Aggregator{
		badges: badges,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecomputeEventTotals rebuilds and upserts the summary of every participant
// with at least one evaluation in a judged round of the event. It returns the
// number of summaries written.
func (a *Aggregator) RecomputeEventTotals(ctx context.Context, repo Repository, eventID uuid.UUID) (int, error) {
	evaluations, err := repo.ListEventEvaluations(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list evaluations of event %s: %w", eventID, err)
	}

	summaries, err := a.Aggregate(eventID, evaluations)
	if err != nil {
		return 0, err
	}

	for i := range summaries {
		if err := repo.UpsertParticipantEvent(ctx, &summaries[i]); err != nil {
			return 0, fmt.Errorf("failed to save summary of participant %s: %w", summaries[i].ParticipantID, err)
		}
	}

	logger.Debug.Printf("Event %s totals rebuilt for %d participants", eventID, len(summaries))
	return len(summaries), nil
}

// Aggregate computes event summaries from the evaluations of an event. Only
// rounds whose key has been scored count, both for the participant totals and
// for the maximum attainable total. Summaries are ordered by participant id.
func (a *Aggregator) Aggregate(eventID uuid.UUID, evaluations []models.Evaluation) ([]models.ParticipantEvent, error) {
	judged := make(map[uuid.UUID]bool)
	maxTotal := 0
	for _, e := range evaluations {
		if e.IsAnswerKey && e.ScoredAt != nil && !judged[e.RoundID] {
			judged[e.RoundID] = true
			maxTotal += e.Score
		}
	}

	totals := make(map[uuid.UUID]int)
	for _, e := range evaluations {
		if e.IsAnswerKey || !e.ParticipantID.Valid || !judged[e.RoundID] {
			continue
		}
		totals[e.ParticipantID.UUID] += e.Score
	}

	participants := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		participants = append(participants, id)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].String() < participants[j].String()
	})

	now := a.now()
	summaries := make([]models.ParticipantEvent, 0, len(participants))
	for _, id := range participants {
		total := totals[id]
		percent := scoring.Percentage(total, maxTotal)

		badge, err := a.badges.Classify(percent)
		if err != nil {
			return nil, fmt.Errorf("participant %s scored %d of %d: %w", id, total, maxTotal, err)
		}

		summaries = append(summaries, models.ParticipantEvent{
			ParticipantID: id,
			EventID:       eventID,
			ScoreTotal:    total,
			ScoreMaxTotal: maxTotal,
			Percentual:    percent,
			Badge:         badge.Label,
			BadgeKey:      badge.Key,
			UpdatedAt:     now,
		})
	}
	return summaries, nil
}
