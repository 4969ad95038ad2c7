package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/blindtaste/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	// one connection: an in-memory database lives and dies with it, and
	// sqlite allows a single writer anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.NewBaseStore(
		db,
		func(query string) string {
			return query
		},
		isUniqueViolation,
	)}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"TIMESTAMPTZ", "TIMESTAMP"},
		{"UUID", "TEXT"},
		{"NUMERIC(5,2)", "REAL"},
		{"now()", "CURRENT_TIMESTAMP"},
		{"TRUE", "1"},
		{"FALSE", "0"},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
