package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

type FakeReportRepository struct {
	mu      sync.RWMutex
	reports []*models.FakeReport
}

func NewFakeReportRepository() *FakeReportRepository {
	return &FakeReportRepository{}
}

func (r *FakeReportRepository) Create(ctx context.Context, rep *models.FakeReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *rep
	r.reports = append(r.reports, &c)
	return nil
}

func (r *FakeReportRepository) FindRecentByReporter(ctx context.Context, productID, sourceAddress string, since time.Time) (*models.FakeReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.FakeReport
	for _, rep := range r.reports {
		if rep.ProductID != productID || rep.SourceAddress != sourceAddress || rep.CreatedAt.Before(since) {
			continue
		}
		if found == nil || rep.CreatedAt.After(found.CreatedAt) {
			found = rep
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	c := *found
	return &c, nil
}

func (r *FakeReportRepository) filtered(status models.FakeReportStatus) []*models.FakeReport {
	out := make([]*models.FakeReport, 0)
	for _, rep := range r.reports {
		if status == "" || rep.Status == status {
			c := *rep
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *FakeReportRepository) List(ctx context.Context, status models.FakeReportStatus, limit, offset int) ([]*models.FakeReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.filtered(status)
	if offset >= len(all) {
		return []*models.FakeReport{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *FakeReportRepository) Count(ctx context.Context, status models.FakeReportStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.filtered(status)), nil
}

func (r *FakeReportRepository) Update(ctx context.Context, id string, status models.FakeReportStatus, notes string, at time.Time) (*models.FakeReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rep := range r.reports {
		if rep.ID == id {
			rep.Status = status
			rep.AdminNotes = notes
			rep.UpdatedAt = at
			c := *rep
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}
