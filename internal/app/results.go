package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
	"github.com/shrimpsizemoose/blindtaste/internal/recompute"
	"github.com/shrimpsizemoose/blindtaste/internal/scoring"
)

// Standing is one row of a round or event leaderboard.
type Standing struct {
	scoring.RankedRow
	ParticipantName string   `json:"participant_name"`
	ScoreMaxTotal   int      `json:"score_max_total,omitempty"`
	Percentual      *float64 `json:"percentual,omitempty"`
	Badge           string   `json:"badge,omitempty"`
	BadgeKey        string   `json:"badge_key,omitempty"`
}

type GroupResult struct {
	Group      scoring.Group             `json:"group"`
	Points     int                       `json:"points"`
	Attributes []scoring.AttributeResult `json:"attributes"`
}

// RoundBreakdown explains a participant's score in one round attribute by attribute.
type RoundBreakdown struct {
	RoundID       uuid.UUID     `json:"round_id"`
	ParticipantID uuid.UUID     `json:"participant_id"`
	Score         int           `json:"score"`
	MaxScore      int           `json:"max_score"`
	Groups        []GroupResult `json:"groups"`
}

// RoundRanking ranks the scored evaluations of a round.
func (s *Service) RoundRanking(ctx context.Context, roundID uuid.UUID) ([]Standing, error) {
	if _, err := s.Store.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	scores, err := s.Store.ListRoundScores(ctx, roundID)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(scores))
	rows := make([]scoring.ScoreRow, 0, len(scores))
	for _, sc := range scores {
		names[sc.ParticipantID] = sc.ParticipantName
		rows = append(rows, scoring.ScoreRow{ParticipantID: sc.ParticipantID, Score: sc.Score})
	}

	ranked := scoring.Rank(rows)
	standings := make([]Standing, 0, len(ranked))
	for _, r := range ranked {
		standings = append(standings, Standing{RankedRow: r, ParticipantName: names[r.ParticipantID]})
	}
	return standings, nil
}

func (s *Service) RoundWinners(ctx context.Context, roundID uuid.UUID) ([]Standing, error) {
	standings, err := s.RoundRanking(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return winners(standings), nil
}

// EventRanking ranks participants by event total. limit <= 0 returns everyone.
func (s *Service) EventRanking(ctx context.Context, eventID uuid.UUID, limit int) ([]Standing, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	summaries, err := s.Store.ListParticipantEvents(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byParticipant := make(map[uuid.UUID]models.ParticipantEvent, len(summaries))
	rows := make([]scoring.ScoreRow, 0, len(summaries))
	for _, pe := range summaries {
		byParticipant[pe.ParticipantID] = pe
		rows = append(rows, scoring.ScoreRow{ParticipantID: pe.ParticipantID, Score: pe.ScoreTotal})
	}

	ranked := scoring.Top(scoring.Rank(rows), limit)
	standings := make([]Standing, 0, len(ranked))
	for _, r := range ranked {
		pe := byParticipant[r.ParticipantID]
		percent := pe.Percentual
		standings = append(standings, Standing{
			RankedRow:       r,
			ParticipantName: pe.ParticipantName,
			ScoreMaxTotal:   pe.ScoreMaxTotal,
			Percentual:      &percent,
			Badge:           pe.Badge,
			BadgeKey:        pe.BadgeKey,
		})
	}
	return standings, nil
}

func (s *Service) EventWinners(ctx context.Context, eventID uuid.UUID) ([]Standing, error) {
	standings, err := s.EventRanking(ctx, eventID, 0)
	if err != nil {
		return nil, err
	}
	return winners(standings), nil
}

func winners(standings []Standing) []Standing {
	var out []Standing
	for _, st := range standings {
		if st.Position != 1 {
			break
		}
		out = append(out, st)
	}
	return out
}

func (s *Service) ParticipantSummary(ctx context.Context, eventID, participantID uuid.UUID) (*models.ParticipantEvent, error) {
	return s.Store.GetParticipantEvent(ctx, eventID, participantID)
}

// ParticipantResult compares a participant's evaluation with the round's key.
func (s *Service) ParticipantResult(ctx context.Context, roundID, participantID uuid.UUID) (*RoundBreakdown, error) {
	key, err := s.Store.GetAnswerKey(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("round %s: %w", roundID, recompute.ErrNoAnswerKey)
	}
	evaluation, err := s.Store.GetParticipantEvaluation(ctx, roundID, participantID)
	if err != nil {
		return nil, err
	}

	breakdown := &RoundBreakdown{
		RoundID:       roundID,
		ParticipantID: participantID,
		MaxScore:      s.calculator.CalculateMaxScore(key),
	}

	groupIndex := make(map[scoring.Group]int)
	for _, r := range s.calculator.Breakdown(evaluation, key) {
		i, ok := groupIndex[r.Group]
		if !ok {
			i = len(breakdown.Groups)
			groupIndex[r.Group] = i
			breakdown.Groups = append(breakdown.Groups, GroupResult{Group: r.Group})
		}
		breakdown.Groups[i].Points += r.Points
		breakdown.Groups[i].Attributes = append(breakdown.Groups[i].Attributes, r)
		breakdown.Score += r.Points
	}
	return breakdown, nil
}

// EventAnswerKeys lists the answer keys of an event in round order.
func (s *Service) EventAnswerKeys(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.Store.ListEventAnswerKeys(ctx, eventID)
}

func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.Store.ListEvents(ctx)
}

// EventRounds lists the rounds of an event in position order.
func (s *Service) EventRounds(ctx context.Context, eventID uuid.UUID) ([]models.Round, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.Store.ListEventRounds(ctx, eventID)
}

// OpenRound returns the lowest positioned open round of an event, or
// ErrNoOpenRound when every round is closed.
func (s *Service) OpenRound(ctx context.Context, eventID uuid.UUID) (*models.Round, error) {
	rounds, err := s.EventRounds(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		if rounds[i].IsOpen {
			return &rounds[i], nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", eventID, ErrNoOpenRound)
}

// AnsweredRounds lists the rounds of an event the participant already
// submitted an evaluation for.
func (s *Service) AnsweredRounds(ctx context.Context, eventID, participantID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	rounds, err := s.Store.ListAnsweredRounds(ctx, eventID, participantID)
	if err != nil {
		return nil, err
	}
	if rounds == nil {
		rounds = []uuid.UUID{}
	}
	return rounds, nil
}
