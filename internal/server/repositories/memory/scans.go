package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

// ScanRepository keeps every entry in append order. Reads copy out.
type ScanRepository struct {
	mu      sync.RWMutex
	entries []models.ScanEntry
}

func NewScanRepository() *ScanRepository {
	return &ScanRepository{}
}

func (r *ScanRepository) Append(ctx context.Context, e *models.ScanEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, *e)
	return nil
}

func (r *ScanRepository) FindRecent(ctx context.Context, token string, since time.Time, limit int) ([]*models.ScanEntry, error) {
	return r.collect(limit, func(e *models.ScanEntry) bool {
		return e.Token == token && !e.ScannedAt.Before(since)
	}), nil
}

func (r *ScanRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]*models.ScanEntry, error) {
	return r.collect(limit, func(e *models.ScanEntry) bool {
		return e.ProductID == productID
	}), nil
}

func (r *ScanRepository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]*models.ScanEntry, error) {
	return r.collect(limit, func(e *models.ScanEntry) bool {
		return vendorID == "" || e.VendorID == vendorID
	}), nil
}

func (r *ScanRepository) ListByToken(ctx context.Context, token string, limit int) ([]*models.ScanEntry, error) {
	return r.collect(limit, func(e *models.ScanEntry) bool {
		return e.Token == token
	}), nil
}

func (r *ScanRepository) Stats(ctx context.Context, vendorID string) (models.ScanStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.ScanStats{ByOutcome: make(map[models.Outcome]int64)}
	for i := range r.entries {
		if vendorID == "" || r.entries[i].VendorID == vendorID {
			stats.ByOutcome[r.entries[i].Outcome]++
			stats.Total++
		}
	}
	return stats, nil
}

func (r *ScanRepository) collect(limit int, match func(*models.ScanEntry) bool) []*models.ScanEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.ScanEntry, 0)
	for i := range r.entries {
		if match(&r.entries[i]) {
			e := r.entries[i]
			result = append(result, &e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ScannedAt.After(result[j].ScannedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
