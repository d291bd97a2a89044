// Package memory holds process-local implementations of the repositories.
// They are used when no database is configured and by engine tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

type ProductRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Product
	byToken map[string]string
	now     func() time.Time
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		byID:    make(map[string]*models.Product),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

func clone(p *models.Product) *models.Product {
	c := *p
	if p.LastVerifiedAt != nil {
		t := *p.LastVerifiedAt
		c.LastVerifiedAt = &t
	}
	if p.ManufactureDate != nil {
		t := *p.ManufactureDate
		c.ManufactureDate = &t
	}
	return &c
}

func (r *ProductRepository) FindByToken(ctx context.Context, token string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p), nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return fmt.Errorf("%w: product id", common.ErrorConflict)
	}
	if _, ok := r.byToken[p.Token]; ok {
		return fmt.Errorf("%w: token", common.ErrorConflict)
	}
	r.byID[p.ID] = clone(p)
	r.byToken[p.Token] = p.ID
	return nil
}

func (r *ProductRepository) ApplyPartialUpdate(ctx context.Context, id string, u models.ProductUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !u.Admits(p) {
		return common.ErrStateChanged
	}
	if u.Token != nil && *u.Token != p.Token {
		if _, taken := r.byToken[*u.Token]; taken {
			return fmt.Errorf("%w: token", common.ErrorConflict)
		}
		delete(r.byToken, p.Token)
		r.byToken[*u.Token] = id
	}
	u.Apply(p)
	p.UpdatedAt = r.now()
	return nil
}

func (r *ProductRepository) ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Product, 0)
	for _, p := range r.byID {
		if vendorID == "" || p.VendorID == vendorID {
			result = append(result, clone(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *ProductRepository) Stats(ctx context.Context, vendorID string) (models.ProductStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.ProductStats{ByState: make(map[models.LifecycleState]int64)}
	for _, p := range r.byID {
		if vendorID != "" && p.VendorID != vendorID {
			continue
		}
		stats.ByState[p.LifecycleState]++
		stats.Total++
		if p.IsFlagged {
			stats.Flagged++
		}
	}
	return stats, nil
}
