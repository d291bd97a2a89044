// Package products stores token records: one row per physical product unit.
package products

import (
	"context"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

// Repository is the token record store. Token uniqueness is enforced by the
// store; Insert and ApplyPartialUpdate return common.ErrorConflict when a
// token is already taken and common.ErrorNotFound for a missing product.
// ApplyPartialUpdate returns common.ErrStateChanged when u.OnlyFrom does
// not admit the stored lifecycle state or u.OnlyToken no longer matches the
// stored token; nothing is written in that case.
type Repository interface {
	FindByToken(ctx context.Context, token string) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Insert(ctx context.Context, p *models.Product) error
	ApplyPartialUpdate(ctx context.Context, id string, u models.ProductUpdate) error
	// ListByVendor lists products newest first; an empty vendorID lists all.
	ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error)
	// Stats counts products by lifecycle state; an empty vendorID counts all.
	Stats(ctx context.Context, vendorID string) (models.ProductStats, error)
}
