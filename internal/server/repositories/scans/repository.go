// Package scans stores the append-only scan history.
package scans

import (
	"context"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, e *models.ScanEntry) error
	// FindRecent returns entries for token scanned at or after since,
	// newest first, at most limit rows.
	FindRecent(ctx context.Context, token string, since time.Time, limit int) ([]*models.ScanEntry, error)
	// ListByProduct returns the newest entries for a product across all of
	// its past tokens.
	ListByProduct(ctx context.Context, productID string, limit int) ([]*models.ScanEntry, error)
	// ListByVendor returns the newest entries across a vendor's products;
	// an empty vendorID lists every vendor.
	ListByVendor(ctx context.Context, vendorID string, limit int) ([]*models.ScanEntry, error)
	// ListByToken returns the newest entries written under token, including
	// tokens that have since been rotated away.
	ListByToken(ctx context.Context, token string, limit int) ([]*models.ScanEntry, error)
	// Stats counts entries by outcome; an empty vendorID counts all.
	Stats(ctx context.Context, vendorID string) (models.ScanStats, error)
}
