package repomanager

import (
	"context"
	"database/sql"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/fakereports"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/products"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/scans"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works with the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Products(db dbx.DBTX) products.Repository
	Scans(db dbx.DBTX) scans.Repository
	FakeReports(db dbx.DBTX) fakereports.Repository
}
