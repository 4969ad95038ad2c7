// Package storetest runs the same behavioural checks against every
// store.ScoreStore dialect.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
	"github.com/shrimpsizemoose/blindtaste/internal/store"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// RedEvaluation returns a complete red wine evaluation for round. A nil
// participant makes it an answer key.
func RedEvaluation(round uuid.UUID, participant *uuid.UUID) *models.Evaluation {
	e := &models.Evaluation{
		RoundID:         round,
		IsAnswerKey:     participant == nil,
		Limpidity:       models.LimpidityClear,
		VisualIntensity: 4,
		ColorType:       models.ColorRed,
		ColorTone:       models.ToneGarnet,
		Condition:       models.ConditionSound,
		AromaIntensity:  4,
		Aromas:          strPtr("cherry, vanilla, oak"),
		Sweetness:       models.SweetnessDry,
		Tannin:          intPtr(4),
		Alcohol:         4,
		Body:            4,
		Acidity:         3,
		Persistence:     4,
		Flavors:         strPtr("plum"),
		Quality:         models.QualityVeryGood,
		Grape:           strPtr("tempranillo"),
		Country:         strPtr("spain"),
		Vintage:         intPtr(2016),
	}
	if participant != nil {
		e.ParticipantID = uuid.NullUUID{UUID: *participant, Valid: true}
	}
	return e
}

type fixture struct {
	event   *models.Event
	rounds  []*models.Round
	players []*models.Participant
}

func seed(t *testing.T, s store.ScoreStore) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{event: &models.Event{Name: "Spring Flight", IsOpen: true}}
	require.NoError(t, s.CreateEvent(ctx, f.event))

	for pos, name := range []string{"Flight A", "Flight B"} {
		r := &models.Round{EventID: f.event.ID, Name: name, Position: pos + 1, IsOpen: true}
		require.NoError(t, s.CreateRound(ctx, r))
		f.rounds = append(f.rounds, r)
	}
	for _, name := range []string{"Ana", "Bruno"} {
		p := &models.Participant{Name: name}
		require.NoError(t, s.CreateParticipant(ctx, p))
		f.players = append(f.players, p)
	}
	return f
}

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.ScoreStore) {
	t.Run("events and rounds", func(t *testing.T) { testEventsAndRounds(t, s) })
	t.Run("evaluations", func(t *testing.T) { testEvaluations(t, s) })
	t.Run("uniqueness", func(t *testing.T) { testUniqueness(t, s) })
	t.Run("summaries", func(t *testing.T) { testSummaries(t, s) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, s) })
}

func testEventsAndRounds(t *testing.T, s store.ScoreStore) {
	ctx := context.Background()
	f := seed(t, s)

	got, err := s.GetEvent(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Flight", got.Name)
	assert.True(t, got.IsOpen)

	rounds, err := s.ListEventRounds(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, f.rounds[0].ID, rounds[0].ID)
	assert.Equal(t, 2, rounds[1].Position)

	require.NoError(t, s.CloseRound(ctx, f.rounds[0].ID))
	round, err := s.GetRound(ctx, f.rounds[0].ID)
	require.NoError(t, err)
	assert.False(t, round.IsOpen)

	require.NoError(t, s.CloseEvent(ctx, f.event.ID))
	got, err = s.GetEvent(ctx, f.event.ID)
	require.NoError(t, err)
	assert.False(t, got.IsOpen)

	_, err = s.GetEvent(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetRound(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.CloseRound(ctx, uuid.New()), store.ErrNotFound)

	p, err := s.GetParticipant(ctx, f.players[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", p.Name)

	later := &models.Event{Name: "Summer Flight", IsOpen: true, CreatedAt: f.event.CreatedAt.Add(time.Hour)}
	require.NoError(t, s.CreateEvent(ctx, later))
	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, later.ID, events[0].ID, "newest first")
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, f.event.ID)
}

func testEvaluations(t *testing.T, s store.ScoreStore) {
	ctx := context.Background()
	f := seed(t, s)
	round := f.rounds[0].ID

	key, err := s.GetAnswerKey(ctx, round)
	require.NoError(t, err)
	assert.Nil(t, key, "no key yet")

	require.NoError(t, s.CreateEvaluation(ctx, RedEvaluation(round, nil)))
	ana := RedEvaluation(round, &f.players[0].ID)
	ana.Grape = nil
	require.NoError(t, s.CreateEvaluation(ctx, ana))

	key, err = s.GetAnswerKey(ctx, round)
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.True(t, key.IsAnswerKey)
	assert.False(t, key.ParticipantID.Valid)
	assert.Nil(t, key.ScoredAt)
	require.NotNil(t, key.Tannin)
	assert.Equal(t, 4, *key.Tannin)
	assert.Equal(t, models.ToneGarnet, key.ColorTone)

	got, err := s.GetParticipantEvaluation(ctx, round, f.players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)
	assert.Nil(t, got.Grape)
	assert.Equal(t, "cherry, vanilla, oak", *got.Aromas)

	_, err = s.GetParticipantEvaluation(ctx, round, f.players[1].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListRoundEvaluations(ctx, round)
	require.NoError(t, err)
	require.Len(t, list, 1, "keys are not listed")

	scoredAt := time.Date(2024, 3, 2, 20, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveEvaluationScore(ctx, key.ID, 45, scoredAt))
	require.NoError(t, s.SaveEvaluationScore(ctx, ana.ID, 31, scoredAt))
	assert.ErrorIs(t, s.SaveEvaluationScore(ctx, uuid.New(), 1, scoredAt), store.ErrNotFound)

	key, err = s.GetAnswerKey(ctx, round)
	require.NoError(t, err)
	assert.Equal(t, 45, key.Score)
	require.NotNil(t, key.ScoredAt)
	assert.True(t, scoredAt.Equal(*key.ScoredAt))

	scores, err := s.ListRoundScores(ctx, round)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "Ana", scores[0].ParticipantName)
	assert.Equal(t, 31, scores[0].Score)

	all, err := s.ListEventEvaluations(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	keys, err := s.ListEventAnswerKeys(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)

	require.NoError(t, s.CreateEvaluation(ctx, RedEvaluation(f.rounds[1].ID, &f.players[0].ID)))
	answered, err := s.ListAnsweredRounds(ctx, f.event.ID, f.players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.rounds[0].ID, f.rounds[1].ID}, answered)

	answered, err = s.ListAnsweredRounds(ctx, f.event.ID, f.players[1].ID)
	require.NoError(t, err)
	assert.Empty(t, answered)
}

func testUniqueness(t *testing.T, s store.ScoreStore) {
	ctx := context.Background()
	f := seed(t, s)
	round := f.rounds[1].ID

	require.NoError(t, s.CreateEvaluation(ctx, RedEvaluation(round, nil)))
	err := s.CreateEvaluation(ctx, RedEvaluation(round, nil))
	assert.ErrorIs(t, err, store.ErrConflict, "second key in a round")

	require.NoError(t, s.CreateEvaluation(ctx, RedEvaluation(round, &f.players[0].ID)))
	err = s.CreateEvaluation(ctx, RedEvaluation(round, &f.players[0].ID))
	assert.ErrorIs(t, err, store.ErrConflict, "second evaluation by a participant")

	err = s.CreateRound(ctx, &models.Round{EventID: f.event.ID, Name: "dup", Position: 1, IsOpen: true})
	assert.ErrorIs(t, err, store.ErrConflict, "position taken")
}

func testSummaries(t *testing.T, s store.ScoreStore) {
	ctx := context.Background()
	f := seed(t, s)

	first := &models.ParticipantEvent{
		ParticipantID: f.players[0].ID,
		EventID:       f.event.ID,
		ScoreTotal:    30,
		ScoreMaxTotal: 40,
		Percentual:    75,
		Badge:         "Glass Reader",
		BadgeKey:      "specialist",
	}
	require.NoError(t, s.UpsertParticipantEvent(ctx, first))

	again := &models.ParticipantEvent{
		ParticipantID: f.players[0].ID,
		EventID:       f.event.ID,
		ScoreTotal:    20,
		ScoreMaxTotal: 40,
		Percentual:    50,
		Badge:         "Trained Nose",
		BadgeKey:      "experienced",
	}
	require.NoError(t, s.UpsertParticipantEvent(ctx, again))
	assert.Equal(t, first.ID, again.ID, "update reports the stored id")

	require.NoError(t, s.UpsertParticipantEvent(ctx, &models.ParticipantEvent{
		ParticipantID: f.players[1].ID,
		EventID:       f.event.ID,
		ScoreTotal:    33,
		ScoreMaxTotal: 40,
		Percentual:    82.5,
		Badge:         "Glass Reader",
		BadgeKey:      "specialist",
	}))

	got, err := s.GetParticipantEvent(ctx, f.event.ID, f.players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "upsert keeps the row")
	assert.Equal(t, 20, got.ScoreTotal)
	assert.Equal(t, 50.0, got.Percentual)
	assert.Equal(t, "experienced", got.BadgeKey)
	assert.Equal(t, "Ana", got.ParticipantName)

	all, err := s.ListParticipantEvents(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bruno", all[0].ParticipantName)
	assert.Equal(t, 82.5, all[0].Percentual)

	_, err = s.GetParticipantEvent(ctx, uuid.New(), f.players[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, s store.ScoreStore) {
	ctx := context.Background()
	f := seed(t, s)
	boom := errors.New("abort")

	err := s.InTx(ctx, func(repo store.Repository) error {
		if err := repo.CloseRound(ctx, f.rounds[0].ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	round, err := s.GetRound(ctx, f.rounds[0].ID)
	require.NoError(t, err)
	assert.True(t, round.IsOpen, "rolled back")

	err = s.InTx(ctx, func(repo store.Repository) error {
		return repo.CloseRound(ctx, f.rounds[0].ID)
	})
	require.NoError(t, err)

	round, err = s.GetRound(ctx, f.rounds[0].ID)
	require.NoError(t, err)
	assert.False(t, round.IsOpen, "committed")
}
