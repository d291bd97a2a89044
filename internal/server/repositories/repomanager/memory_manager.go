package repomanager

import (
	"context"
	"database/sql"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/fakereports"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/memory"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/products"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/scans"
)

// InMemoryRepositoryManager hands out the same process-local stores no
// matter which DBTX is passed; pair it with a dbx.LockTransactor.
type InMemoryRepositoryManager struct {
	products    *memory.ProductRepository
	scans       *memory.ScanRepository
	fakeReports *memory.FakeReportRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		products:    memory.NewProductRepository(),
		scans:       memory.NewScanRepository(),
		fakeReports: memory.NewFakeReportRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Products(dbx.DBTX) products.Repository {
	return m.products
}

func (m *InMemoryRepositoryManager) Scans(dbx.DBTX) scans.Repository {
	return m.scans
}

func (m *InMemoryRepositoryManager) FakeReports(dbx.DBTX) fakereports.Repository {
	return m.fakeReports
}
