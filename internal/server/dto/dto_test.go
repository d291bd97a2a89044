package dto

import (
	"testing"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecision_PublicView(t *testing.T) {
	verified := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &verification.Decision{
		Outcome:  models.OutcomeAlreadyUsed,
		Message:  "seen before",
		Location: "Oslo, Norway",
		Product: &models.Product{
			ID: "p1", ProductName: "Oil", Token: "secret", VendorID: "v1",
			VerificationCount: 2, LastVerifiedAt: &verified,
		},
		Anomaly: &verification.AnomalyReport{},
	}

	got := Decision(d)
	assert.Equal(t, "AlreadyUsed", got.Outcome)
	assert.Empty(t, got.Reasons)
	require.NotNil(t, got.Product)
	assert.Equal(t, int64(2), got.Product.VerificationCount)
	assert.Equal(t, &verified, got.Product.LastVerifiedAt)
}

func TestDecision_InvalidWithholdsProduct(t *testing.T) {
	got := Decision(&verification.Decision{
		Outcome: models.OutcomeInvalid,
		Product: &models.Product{ID: "p1"},
	})
	assert.Nil(t, got.Product)
}

func TestProductAndScan(t *testing.T) {
	p := Product(&models.Product{ID: "p1", LifecycleState: models.StateConsumed, IsFlagged: true})
	assert.Equal(t, "consumed", p.LifecycleState)
	assert.True(t, p.IsFlagged)

	s := PublicScan(models.PublicScan{Outcome: models.OutcomeBlocked, Location: "Unknown"})
	assert.Equal(t, "Blocked", s.Outcome)

	list := Scans([]*models.ScanEntry{{ProductID: "p1", Token: "t1", Outcome: models.OutcomeValid}})
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ProductID)
	assert.Equal(t, "Valid", list[0].Outcome)
}

func TestDashboardStats(t *testing.T) {
	resp := DashboardStats("vendor-1", &models.DashboardStats{
		Products: models.ProductStats{
			Total:   3,
			Flagged: 1,
			ByState: map[models.LifecycleState]int64{models.StateActive: 2, models.StateBlocked: 1},
		},
		Scans: models.ScanStats{
			Total:     4,
			ByOutcome: map[models.Outcome]int64{models.OutcomeValid: 2, models.OutcomeAlreadyUsed: 2},
		},
	})

	assert.Equal(t, "vendor-1", resp.VendorID)
	assert.Equal(t, int64(3), resp.Products)
	assert.Equal(t, int64(1), resp.FlaggedProducts)
	assert.Equal(t, map[string]int64{"active": 2, "blocked": 1}, resp.ProductsByState)
	assert.Equal(t, int64(4), resp.Scans)
	assert.Equal(t, map[string]int64{"Valid": 2, "AlreadyUsed": 2}, resp.ScansByOutcome)
}
