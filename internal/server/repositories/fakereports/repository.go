// Package fakereports stores counterfeit reports filed by consumers.
package fakereports

import (
	"context"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.FakeReport) error
	// FindRecentByReporter returns the newest report for productID filed
	// from sourceAddress at or after since, or common.ErrorNotFound.
	FindRecentByReporter(ctx context.Context, productID, sourceAddress string, since time.Time) (*models.FakeReport, error)
	// List returns reports newest first; an empty status lists all.
	List(ctx context.Context, status models.FakeReportStatus, limit, offset int) ([]*models.FakeReport, error)
	Count(ctx context.Context, status models.FakeReportStatus) (int, error)
	Update(ctx context.Context, id string, status models.FakeReportStatus, notes string, at time.Time) (*models.FakeReport, error)
}
