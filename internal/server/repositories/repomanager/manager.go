// Package repomanager vends repository implementations bound to a database
// handle, so services can run any repository against either a plain
// connection or an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/astrotechlabs/astrotech-api/internal/dbx"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/consultations"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/transactions"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Consultations(db dbx.DBTX) consultations.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
