package models

import "time"

type FakeReportStatus string

const (
	ReportNew       FakeReportStatus = "new"
	ReportReviewed  FakeReportStatus = "reviewed"
	ReportDismissed FakeReportStatus = "dismissed"
	ReportActioned  FakeReportStatus = "actioned"
)

func (s FakeReportStatus) Valid() bool {
	switch s {
	case ReportNew, ReportReviewed, ReportDismissed, ReportActioned:
		return true
	}
	return false
}

// FakeReport is a counterfeit complaint filed by a consumer against a product.
type FakeReport struct {
	ID            string
	ProductID     string
	VendorID      string
	Token         string
	Reason        string
	Details       string
	ReporterName  string
	ReporterEmail string
	SourceAddress string
	UserAgent     string
	Status        FakeReportStatus
	AdminNotes    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
