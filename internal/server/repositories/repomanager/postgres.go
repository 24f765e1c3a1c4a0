package repomanager

import (
	"context"
	"database/sql"

	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/migrations"
	"github.com/hevault-io/hevault/internal/server/repositories/dictionaries"
	"github.com/hevault-io/hevault/internal/server/repositories/files"
	"github.com/hevault-io/hevault/internal/server/repositories/folders"
	"github.com/hevault-io/hevault/internal/server/repositories/indexvectors"
	"github.com/hevault-io/hevault/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// PostgresManager is the Postgres-backed RepositoryManager.
type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (m *PostgresManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresManager) Folders(db dbx.DBTX) folders.Repository {
	return folders.NewPostgresRepository(db)
}

func (m *PostgresManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresManager) Dictionaries(db dbx.DBTX) dictionaries.Repository {
	return dictionaries.NewPostgresRepository(db)
}

func (m *PostgresManager) IndexVectors(db dbx.DBTX) indexvectors.Repository {
	return indexvectors.NewPostgresRepository(db)
}
