package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
)

// Queries implements Repository over anything sqlx can run queries on,
// a *sqlx.DB or a *sqlx.Tx. Queries are written with ? placeholders and
// passed through Converter for the dialect at hand.
type Queries struct {
	ext        sqlx.ExtContext
	Converter  func(string) string
	IsConflict func(error) bool
}

const evaluationColumns = `
	e.id, e.participant_id, e.round_id,
	e.limpidity, e.visual_intensity, e.color_type, e.color_tone,
	e.condition, e.aroma_intensity, e.aromas,
	e.sweetness, e.tannin, e.alcohol, e.body, e.acidity, e.persistence, e.flavors,
	e.quality, e.grape, e.country, e.vintage,
	e.is_answer_key, e.score, e.scored_at, e.submitted_at`

func (q *Queries) wrap(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if q.IsConflict != nil && q.IsConflict(err) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q.ext, dest, q.Converter(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.ext.ExecContext(ctx, q.Converter(query), args...)
}

// execOne fails with ErrNotFound unless exactly one row was touched.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO events (id, name, is_open, created_at)
		VALUES (:id, :name, :is_open, :created_at)
	`, event)
	if err != nil {
		return q.wrap(err, "failed to create event %q", event.Name)
	}
	return nil
}

func (q *Queries) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := q.get(ctx, &event, `
		SELECT id, name, is_open, created_at
		FROM events
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return &event, nil
}

func (q *Queries) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := sqlx.SelectContext(ctx, q.ext, &events, `
		SELECT id, name, is_open, created_at
		FROM events
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (q *Queries) CloseEvent(ctx context.Context, id uuid.UUID) error {
	if err := q.execOne(ctx, `UPDATE events SET is_open = ? WHERE id = ?`, false, id); err != nil {
		return fmt.Errorf("failed to close event %s: %w", id, err)
	}
	return nil
}

func (q *Queries) CreateRound(ctx context.Context, round *models.Round) error {
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO rounds (id, event_id, name, position, is_open, created_at)
		VALUES (:id, :event_id, :name, :position, :is_open, :created_at)
	`, round)
	if err != nil {
		return q.wrap(err, "failed to create round %q", round.Name)
	}
	return nil
}

func (q *Queries) GetRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	var round models.Round
	err := q.get(ctx, &round, `
		SELECT id, event_id, name, position, is_open, created_at
		FROM rounds
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %s: %w", id, err)
	}
	return &round, nil
}

func (q *Queries) ListEventRounds(ctx context.Context, eventID uuid.UUID) ([]models.Round, error) {
	var rounds []models.Round
	err := sqlx.SelectContext(ctx, q.ext, &rounds, q.Converter(`
		SELECT id, event_id, name, position, is_open, created_at
		FROM rounds
		WHERE event_id = ?
		ORDER BY position
	`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of event %s: %w", eventID, err)
	}
	return rounds, nil
}

func (q *Queries) CloseRound(ctx context.Context, id uuid.UUID) error {
	if err := q.execOne(ctx, `UPDATE rounds SET is_open = ? WHERE id = ?`, false, id); err != nil {
		return fmt.Errorf("failed to close round %s: %w", id, err)
	}
	return nil
}

func (q *Queries) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	if participant.CreatedAt.IsZero() {
		participant.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO participants (id, name, created_at)
		VALUES (:id, :name, :created_at)
	`, participant)
	if err != nil {
		return q.wrap(err, "failed to create participant %q", participant.Name)
	}
	return nil
}

func (q *Queries) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := q.get(ctx, &participant, `
		SELECT id, name, created_at
		FROM participants
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	return &participant, nil
}

func (q *Queries) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == uuid.Nil {
		evaluation.ID = uuid.New()
	}
	if evaluation.SubmittedAt.IsZero() {
		evaluation.SubmittedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO evaluations (
			id, participant_id, round_id,
			limpidity, visual_intensity, color_type, color_tone,
			condition, aroma_intensity, aromas,
			sweetness, tannin, alcohol, body, acidity, persistence, flavors,
			quality, grape, country, vintage,
			is_answer_key, score, scored_at, submitted_at
		) VALUES (
			:id, :participant_id, :round_id,
			:limpidity, :visual_intensity, :color_type, :color_tone,
			:condition, :aroma_intensity, :aromas,
			:sweetness, :tannin, :alcohol, :body, :acidity, :persistence, :flavors,
			:quality, :grape, :country, :vintage,
			:is_answer_key, :score, :scored_at, :submitted_at
		)
	`, evaluation)
	if err != nil {
		return q.wrap(err, "failed to create evaluation for round %s", evaluation.RoundID)
	}
	return nil
}

// GetAnswerKey returns nil, nil when the round has no key yet.
func (q *Queries) GetAnswerKey(ctx context.Context, roundID uuid.UUID) (*models.Evaluation, error) {
	var key models.Evaluation
	err := q.get(ctx, &key, `
		SELECT `+evaluationColumns+`
		FROM evaluations e
		WHERE e.round_id = ? AND e.is_answer_key = ?
	`, roundID, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer key of round %s: %w", roundID, err)
	}
	return &key, nil
}

func (q *Queries) GetParticipantEvaluation(ctx context.Context, roundID, participantID uuid.UUID) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := q.get(ctx, &evaluation, `
		SELECT `+evaluationColumns+`
		FROM evaluations e
		WHERE e.round_id = ? AND e.participant_id = ?
	`, roundID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation of participant %s in round %s: %w", participantID, roundID, err)
	}
	return &evaluation, nil
}

func (q *Queries) ListRoundEvaluations(ctx context.Context, roundID uuid.UUID) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := sqlx.SelectContext(ctx, q.ext, &evaluations, q.Converter(`
		SELECT `+evaluationColumns+`
		FROM evaluations e
		WHERE e.round_id = ? AND e.is_answer_key = ?
		ORDER BY e.submitted_at, e.id
	`), roundID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations of round %s: %w", roundID, err)
	}
	return evaluations, nil
}

// ListAnsweredRounds returns the rounds of an event the participant has
// submitted an evaluation for, in round order.
func (q *Queries) ListAnsweredRounds(ctx context.Context, eventID, participantID uuid.UUID) ([]uuid.UUID, error) {
	var rounds []uuid.UUID
	err := sqlx.SelectContext(ctx, q.ext, &rounds, q.Converter(`
		SELECT e.round_id
		FROM evaluations e
		JOIN rounds r ON r.id = e.round_id
		WHERE r.event_id = ? AND e.participant_id = ?
		ORDER BY r.position
	`), eventID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds answered by participant %s in event %s: %w", participantID, eventID, err)
	}
	return rounds, nil
}

func (q *Queries) ListEventEvaluations(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := sqlx.SelectContext(ctx, q.ext, &evaluations, q.Converter(`
		SELECT `+evaluationColumns+`
		FROM evaluations e
		JOIN rounds r ON r.id = e.round_id
		WHERE r.event_id = ?
		ORDER BY r.position, e.is_answer_key DESC, e.id
	`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations of event %s: %w", eventID, err)
	}
	return evaluations, nil
}

func (q *Queries) ListEventAnswerKeys(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error) {
	var keys []models.Evaluation
	err := sqlx.SelectContext(ctx, q.ext, &keys, q.Converter(`
		SELECT `+evaluationColumns+`
		FROM evaluations e
		JOIN rounds r ON r.id = e.round_id
		WHERE r.event_id = ? AND e.is_answer_key = ?
		ORDER BY r.position
	`), eventID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer keys of event %s: %w", eventID, err)
	}
	return keys, nil
}

func (q *Queries) SaveEvaluationScore(ctx context.Context, id uuid.UUID, score int, scoredAt time.Time) error {
	err := q.execOne(ctx, `
		UPDATE evaluations
		SET score = ?, scored_at = ?
		WHERE id = ?
	`, score, scoredAt, id)
	if err != nil {
		return fmt.Errorf("failed to save score of evaluation %s: %w", id, err)
	}
	return nil
}

// ListRoundScores lists scored participant evaluations of a round along with
// participant names.
func (q *Queries) ListRoundScores(ctx context.Context, roundID uuid.UUID) ([]RoundScore, error) {
	var scores []RoundScore
	err := sqlx.SelectContext(ctx, q.ext, &scores, q.Converter(`
		SELECT e.participant_id, p.name AS participant_name, e.score
		FROM evaluations e
		JOIN participants p ON p.id = e.participant_id
		WHERE e.round_id = ?
		AND e.is_answer_key = ?
		AND e.scored_at IS NOT NULL
	`), roundID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores of round %s: %w", roundID, err)
	}
	return scores, nil
}

// UpsertParticipantEvent inserts or refreshes the summary of a participant in
// an event. On return summary.ID holds the id of the stored row.
func (q *Queries) UpsertParticipantEvent(ctx context.Context, summary *models.ParticipantEvent) error {
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	if summary.UpdatedAt.IsZero() {
		summary.UpdatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO participant_events (
			id, participant_id, event_id,
			score_total, score_max_total, percentual, badge, badge_key, updated_at
		) VALUES (
			:id, :participant_id, :event_id,
			:score_total, :score_max_total, :percentual, :badge, :badge_key, :updated_at
		)
		ON CONFLICT (participant_id, event_id) DO UPDATE SET
		score_total = excluded.score_total,
		score_max_total = excluded.score_max_total,
		percentual = excluded.percentual,
		badge = excluded.badge,
		badge_key = excluded.badge_key,
		updated_at = excluded.updated_at
	`, summary)
	if err != nil {
		return q.wrap(err, "failed to save summary of participant %s in event %s", summary.ParticipantID, summary.EventID)
	}

	// the update path keeps the stored id
	err = q.get(ctx, &summary.ID, `
		SELECT id FROM participant_events
		WHERE participant_id = ? AND event_id = ?
	`, summary.ParticipantID, summary.EventID)
	if err != nil {
		return fmt.Errorf("failed to read summary id of participant %s in event %s: %w", summary.ParticipantID, summary.EventID, err)
	}
	return nil
}

const participantEventColumns = `
	pe.id, pe.participant_id, p.name AS participant_name, pe.event_id,
	pe.score_total, pe.score_max_total, pe.percentual, pe.badge, pe.badge_key, pe.updated_at`

func (q *Queries) GetParticipantEvent(ctx context.Context, eventID, participantID uuid.UUID) (*models.ParticipantEvent, error) {
	var summary models.ParticipantEvent
	err := q.get(ctx, &summary, `
		SELECT `+participantEventColumns+`
		FROM participant_events pe
		JOIN participants p ON p.id = pe.participant_id
		WHERE pe.event_id = ? AND pe.participant_id = ?
	`, eventID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary of participant %s in event %s: %w", participantID, eventID, err)
	}
	return &summary, nil
}

func (q *Queries) ListParticipantEvents(ctx context.Context, eventID uuid.UUID) ([]models.ParticipantEvent, error) {
	var summaries []models.ParticipantEvent
	err := sqlx.SelectContext(ctx, q.ext, &summaries, q.Converter(`
		SELECT `+participantEventColumns+`
		FROM participant_events pe
		JOIN participants p ON p.id = pe.participant_id
		WHERE pe.event_id = ?
		ORDER BY pe.score_total DESC, pe.participant_id
	`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries of event %s: %w", eventID, err)
	}
	return summaries, nil
}
