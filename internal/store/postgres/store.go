package postgres

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrimpsizemoose/blindtaste/internal/store"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.NewBaseStore(
		db,
		func(query string) string {
			return sqlx.Rebind(sqlx.DOLLAR, query)
		},
		isUniqueViolation,
	)}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
