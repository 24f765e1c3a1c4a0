package repomanager

import (
	"context"
	"database/sql"

	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/repositories/dictionaries"
	"github.com/hevault-io/hevault/internal/server/repositories/files"
	"github.com/hevault-io/hevault/internal/server/repositories/folders"
	"github.com/hevault-io/hevault/internal/server/repositories/indexvectors"
	"github.com/hevault-io/hevault/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so services can
// run the same repository code on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	Dictionaries(db dbx.DBTX) dictionaries.Repository
	IndexVectors(db dbx.DBTX) indexvectors.Repository
}
