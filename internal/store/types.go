package store

import "github.com/google/uuid"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
}

// RoundScore is a scored participant evaluation of one round.
type RoundScore struct {
	ParticipantID   uuid.UUID `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	Score           int       `db:"score"`
}
