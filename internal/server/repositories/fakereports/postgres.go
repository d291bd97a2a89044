package fakereports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

const selectColumns = `id, product_id, vendor_id, token, reason, details, reporter_name, reporter_email,
		source_address, user_agent, status, admin_notes, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.FakeReport, error) {
	var (
		r      models.FakeReport
		status string
	)
	if err := row.Scan(&r.ID, &r.ProductID, &r.VendorID, &r.Token, &r.Reason, &r.Details, &r.ReporterName,
		&r.ReporterEmail, &r.SourceAddress, &r.UserAgent, &status, &r.AdminNotes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.FakeReportStatus(status)
	return &r, nil
}

func (p *PostgresRepository) Create(ctx context.Context, r *models.FakeReport) error {
	query := `INSERT INTO fake_reports (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := p.db.ExecContext(ctx, query,
		r.ID, r.ProductID, r.VendorID, r.Token, r.Reason, r.Details, r.ReporterName, r.ReporterEmail,
		r.SourceAddress, r.UserAgent, string(r.Status), r.AdminNotes, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *PostgresRepository) FindRecentByReporter(ctx context.Context, productID, sourceAddress string, since time.Time) (*models.FakeReport, error) {
	query := `SELECT ` + selectColumns + ` FROM fake_reports
		WHERE product_id = $1 AND source_address = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`

	r, err := scanReport(p.db.QueryRowContext(ctx, query, productID, sourceAddress, since))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r, nil
}

func (p *PostgresRepository) List(ctx context.Context, status models.FakeReportStatus, limit, offset int) ([]*models.FakeReport, error) {
	query := `SELECT ` + selectColumns + ` FROM fake_reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := p.db.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	result := make([]*models.FakeReport, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *PostgresRepository) Count(ctx context.Context, status models.FakeReportStatus) (int, error) {
	query := `SELECT COUNT(*) FROM fake_reports WHERE ($1 = '' OR status = $1)`

	var n int
	if err := p.db.QueryRowContext(ctx, query, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (p *PostgresRepository) Update(ctx context.Context, id string, status models.FakeReportStatus, notes string, at time.Time) (*models.FakeReport, error) {
	query := `UPDATE fake_reports SET status = $1, admin_notes = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + selectColumns

	r, err := scanReport(p.db.QueryRowContext(ctx, query, string(status), notes, at, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r, nil
}
