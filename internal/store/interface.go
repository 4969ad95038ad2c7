package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/blindtaste/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflicts with an existing record")
)

// Repository holds every query of the service. It is implemented both on the
// database handle and on a transaction, see ScoreStore.InTx.
type Repository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	CloseEvent(ctx context.Context, id uuid.UUID) error

	CreateRound(ctx context.Context, round *models.Round) error
	GetRound(ctx context.Context, id uuid.UUID) (*models.Round, error)
	ListEventRounds(ctx context.Context, eventID uuid.UUID) ([]models.Round, error)
	CloseRound(ctx context.Context, id uuid.UUID) error

	CreateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)

	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	GetAnswerKey(ctx context.Context, roundID uuid.UUID) (*models.Evaluation, error)
	GetParticipantEvaluation(ctx context.Context, roundID, participantID uuid.UUID) (*models.Evaluation, error)
	ListRoundEvaluations(ctx context.Context, roundID uuid.UUID) ([]models.Evaluation, error)
	ListEventEvaluations(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error)
	ListEventAnswerKeys(ctx context.Context, eventID uuid.UUID) ([]models.Evaluation, error)
	SaveEvaluationScore(ctx context.Context, id uuid.UUID, score int, scoredAt time.Time) error
	ListRoundScores(ctx context.Context, roundID uuid.UUID) ([]RoundScore, error)
	ListAnsweredRounds(ctx context.Context, eventID, participantID uuid.UUID) ([]uuid.UUID, error)

	UpsertParticipantEvent(ctx context.Context, summary *models.ParticipantEvent) error
	GetParticipantEvent(ctx context.Context, eventID, participantID uuid.UUID) (*models.ParticipantEvent, error)
	ListParticipantEvents(ctx context.Context, eventID uuid.UUID) ([]models.ParticipantEvent, error)
}

type ScoreStore interface {
	Repository

	Close() error
	ApplyMigrations(dir string) error
	// InTx runs fn against a transaction bound Repository. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	Queries
	DB *sqlx.DB
}

func NewBaseStore(db *sqlx.DB, converter func(string) string, isConflict func(error) bool) BaseStore {
	return BaseStore{
		Queries: Queries{ext: db, Converter: converter, IsConflict: isConflict},
		DB:      db,
	}
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) InTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	q := s.Queries
	q.ext = tx
	if err := fn(&q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
