// Package dto converts domain records into the wire messages of internal/api.
package dto

import (
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
)

func Product(p *models.Product) api.Product {
	return api.Product{
		ID:                p.ID,
		VendorID:          p.VendorID,
		VendorName:        p.VendorName,
		ProductName:       p.ProductName,
		Description:       p.Description,
		Category:          p.Category,
		BatchID:           p.BatchID,
		ManufactureDate:   p.ManufactureDate,
		ExpiresAt:         p.ExpiresAt,
		Token:             p.Token,
		QRImageURL:        p.QRImageURL,
		LifecycleState:    string(p.LifecycleState),
		VerificationCount: p.VerificationCount,
		LastVerifiedAt:    p.LastVerifiedAt,
		IsFlagged:         p.IsFlagged,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// Decision builds the anonymous verifier's view. The product is
// withheld for Invalid outcomes.
func Decision(d *verification.Decision) *api.VerifyResponse {
	resp := &api.VerifyResponse{
		Outcome:  string(d.Outcome),
		Message:  d.Message,
		Expired:  d.Expired,
		Flagged:  d.Flagged,
		Location: d.Location,
	}
	if d.Anomaly != nil {
		for _, r := range d.Anomaly.Reasons {
			resp.Reasons = append(resp.Reasons, string(r))
		}
	}
	if p := d.Product; p != nil && d.Outcome != models.OutcomeInvalid {
		resp.Product = &api.PublicProduct{
			ID:                p.ID,
			ProductName:       p.ProductName,
			VendorName:        p.VendorName,
			Category:          p.Category,
			BatchID:           p.BatchID,
			ManufactureDate:   p.ManufactureDate,
			ExpiresAt:         p.ExpiresAt,
			VerificationCount: p.VerificationCount,
			LastVerifiedAt:    p.LastVerifiedAt,
		}
	}
	return resp
}

func Scan(e *models.ScanEntry) api.Scan {
	return api.Scan{
		ProductID:     e.ProductID,
		Token:         e.Token,
		Outcome:       string(e.Outcome),
		SourceAddress: e.SourceAddress,
		Location:      e.Location,
		UserAgent:     e.UserAgent,
		ScannedAt:     e.ScannedAt,
	}
}

func Scans(list []*models.ScanEntry) []api.Scan {
	out := make([]api.Scan, 0, len(list))
	for _, e := range list {
		out = append(out, Scan(e))
	}
	return out
}

// DashboardStats flattens the typed counters to string keys.
func DashboardStats(vendorID string, st *models.DashboardStats) *api.DashboardStatsResponse {
	resp := &api.DashboardStatsResponse{
		VendorID:        vendorID,
		Products:        st.Products.Total,
		FlaggedProducts: st.Products.Flagged,
		ProductsByState: make(map[string]int64, len(st.Products.ByState)),
		Scans:           st.Scans.Total,
		ScansByOutcome:  make(map[string]int64, len(st.Scans.ByOutcome)),
	}
	for k, v := range st.Products.ByState {
		resp.ProductsByState[string(k)] = v
	}
	for k, v := range st.Scans.ByOutcome {
		resp.ScansByOutcome[string(k)] = v
	}
	return resp
}

func FakeReport(r *models.FakeReport) api.FakeReport {
	return api.FakeReport{
		ID:            r.ID,
		ProductID:     r.ProductID,
		VendorID:      r.VendorID,
		Token:         r.Token,
		Reason:        r.Reason,
		Details:       r.Details,
		ReporterName:  r.ReporterName,
		ReporterEmail: r.ReporterEmail,
		SourceAddress: r.SourceAddress,
		Status:        string(r.Status),
		AdminNotes:    r.AdminNotes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func PublicScan(s models.PublicScan) api.PublicScan {
	return api.PublicScan{
		Outcome:   string(s.Outcome),
		Location:  s.Location,
		ScannedAt: s.ScannedAt,
	}
}
