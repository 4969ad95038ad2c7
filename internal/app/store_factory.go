package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/blindtaste/internal/store"
	"github.com/shrimpsizemoose/blindtaste/internal/store/postgres"
	"github.com/shrimpsizemoose/blindtaste/internal/store/sqlite"
)

func NewStore(config store.DBConfig) (store.ScoreStore, error) {
	dbType := config.Type
	if dbType == "" {
		dbType = store.DBTypeSQLite
		if strings.HasPrefix(config.DSN, "postgres") {
			dbType = store.DBTypePostgres
		}
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(config.DSN, config.MigrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(config.DSN, config.MigrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", config.DSN)
	}
}
