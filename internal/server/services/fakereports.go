package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/geo"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/lifecycle"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	maxReasonLen   = 200
	maxDetailsLen  = 1200
	maxNameLen     = 80
	maxEmailLen    = 120
	maxAgentLen    = 300
	maxAdminNotes  = 2000
	reportDedupeIn = time.Hour

	defaultReportLimit = 50
	maxReportLimit     = 200
)

// FakeReportInput is a consumer's counterfeit report.
type FakeReportInput struct {
	ProductID     string
	Reason        string
	Details       string
	ReporterName  string
	ReporterEmail string
	SourceAddress string
	UserAgent     string
}

type FakeReportService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	machine     *lifecycle.Machine
	logger      logging.Logger

	now func() time.Time
}

func NewFakeReportService(tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *FakeReportService {
	return &FakeReportService{
		tx:          tx,
		repomanager: m,
		machine:     lifecycle.NewMachine(),
		logger:      logger.With("module", "fakereports"),
		now:         time.Now,
	}
}

func normalizeReport(in *FakeReportInput) error {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Details = strings.TrimSpace(in.Details)
	in.ReporterName = strings.TrimSpace(in.ReporterName)
	in.ReporterEmail = strings.ToLower(strings.TrimSpace(in.ReporterEmail))

	switch {
	case in.ProductID == "":
		return fmt.Errorf("%w: product id is required", common.ErrorValidation)
	case in.Reason == "":
		return fmt.Errorf("%w: reason is required", common.ErrorValidation)
	case len(in.Reason) > maxReasonLen:
		return fmt.Errorf("%w: reason is too long", common.ErrorValidation)
	case len(in.Details) > maxDetailsLen:
		return fmt.Errorf("%w: details are too long", common.ErrorValidation)
	case len(in.ReporterName) > maxNameLen:
		return fmt.Errorf("%w: name is too long", common.ErrorValidation)
	case len(in.ReporterEmail) > maxEmailLen:
		return fmt.Errorf("%w: email is too long", common.ErrorValidation)
	}
	if in.ReporterEmail != "" {
		if _, err := mail.ParseAddress(in.ReporterEmail); err != nil {
			return fmt.Errorf("%w: invalid email", common.ErrorValidation)
		}
	}

	in.SourceAddress = geo.NormalizeAddress(in.SourceAddress)
	in.UserAgent = common.ClampString(in.UserAgent, maxAgentLen)
	return nil
}

// Report files a counterfeit report and flags the product. A repeat report
// for the same product from the same address within an hour returns the
// earlier report with duplicate set.
func (s *FakeReportService) Report(ctx context.Context, in FakeReportInput) (report *models.FakeReport, duplicate bool, err error) {
	if err := normalizeReport(&in); err != nil {
		return nil, false, err
	}
	now := s.now()

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		productRepo := s.repomanager.Products(tx)
		reportRepo := s.repomanager.FakeReports(tx)

		p, err := productRepo.FindByID(ctx, in.ProductID)
		if err != nil {
			return err
		}

		existing, err := reportRepo.FindRecentByReporter(ctx, p.ID, in.SourceAddress, now.Add(-reportDedupeIn))
		if err == nil {
			report, duplicate = existing, true
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		r := &models.FakeReport{
			ID:            uuid.NewString(),
			ProductID:     p.ID,
			VendorID:      p.VendorID,
			Token:         p.Token,
			Reason:        in.Reason,
			Details:       in.Details,
			ReporterName:  in.ReporterName,
			ReporterEmail: in.ReporterEmail,
			SourceAddress: in.SourceAddress,
			UserAgent:     in.UserAgent,
			Status:        models.ReportNew,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := reportRepo.Create(ctx, r); err != nil {
			return err
		}

		update, err := s.machine.Apply(p, lifecycle.Report{})
		if err != nil {
			return err
		}
		if !update.IsEmpty() {
			if err := productRepo.ApplyPartialUpdate(ctx, p.ID, update); err != nil {
				return err
			}
		}

		report = r
		return nil
	})
	if err != nil {
		return nil, false, storeError("fake report", err)
	}

	if duplicate {
		s.logger.Info(ctx, "duplicate fake report", "report_id", report.ID, "product_id", report.ProductID)
	} else {
		s.logger.Warn(ctx, "fake report filed", "report_id", report.ID, "product_id", report.ProductID, "vendor_id", report.VendorID)
	}
	return report, duplicate, nil
}

// List returns one page of reports and the total count for the filter. An
// empty status lists all. page starts at 1.
func (s *FakeReportService) List(ctx context.Context, status models.FakeReportStatus, page, limit int) ([]*models.FakeReport, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown report status %q", common.ErrorValidation, status)
	}
	limit = clampLimit(limit, defaultReportLimit, maxReportLimit)
	if page < 1 {
		page = 1
	}

	var (
		list  []*models.FakeReport
		total int
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.FakeReports(tx)

		var err error
		if list, err = repo.List(ctx, status, limit, (page-1)*limit); err != nil {
			return err
		}
		total, err = repo.Count(ctx, status)
		return err
	})
	if err != nil {
		return nil, 0, storeError("fake report list", err)
	}
	return list, total, nil
}

// Update records an admin review of a report.
func (s *FakeReportService) Update(ctx context.Context, id string, status models.FakeReportStatus, notes string) (*models.FakeReport, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown report status %q", common.ErrorValidation, status)
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > maxAdminNotes {
		return nil, fmt.Errorf("%w: notes are too long", common.ErrorValidation)
	}

	var r *models.FakeReport
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		r, err = s.repomanager.FakeReports(tx).Update(ctx, id, status, notes, s.now())
		return err
	})
	if err != nil {
		return nil, storeError("fake report update", err)
	}

	s.logger.Info(ctx, "fake report reviewed", "report_id", r.ID, "status", r.Status)
	return r, nil
}
