package scans

import (
	"context"
	"fmt"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
)

const selectColumns = `id, product_id, vendor_id, token, outcome, source_address, location, user_agent, scanned_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.ScanEntry) error {
	query := `INSERT INTO scan_history (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ProductID, e.VendorID, e.Token, string(e.Outcome), e.SourceAddress, e.Location, e.UserAgent, e.ScannedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindRecent(ctx context.Context, token string, since time.Time, limit int) ([]*models.ScanEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM scan_history
		WHERE token = $1 AND scanned_at >= $2
		ORDER BY scanned_at DESC
		LIMIT $3`

	return r.list(ctx, query, token, since, limit)
}

func (r *PostgresRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]*models.ScanEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM scan_history
		WHERE product_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2`

	return r.list(ctx, query, productID, limit)
}

func (r *PostgresRepository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]*models.ScanEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM scan_history
		WHERE ($1 = '' OR vendor_id = $1)
		ORDER BY scanned_at DESC
		LIMIT $2`

	return r.list(ctx, query, vendorID, limit)
}

func (r *PostgresRepository) ListByToken(ctx context.Context, token string, limit int) ([]*models.ScanEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM scan_history
		WHERE token = $1
		ORDER BY scanned_at DESC
		LIMIT $2`

	return r.list(ctx, query, token, limit)
}

func (r *PostgresRepository) Stats(ctx context.Context, vendorID string) (models.ScanStats, error) {
	query := `SELECT outcome, COUNT(*) FROM scan_history
		WHERE ($1 = '' OR vendor_id = $1)
		GROUP BY outcome`

	stats := models.ScanStats{ByOutcome: make(map[models.Outcome]int64)}

	rows, err := r.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return stats, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return stats, err
		}
		stats.ByOutcome[models.Outcome(outcome)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScanEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select scans: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ScanEntry, 0)
	for rows.Next() {
		var (
			e       models.ScanEntry
			outcome string
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &e.VendorID, &e.Token, &outcome,
			&e.SourceAddress, &e.Location, &e.UserAgent, &e.ScannedAt); err != nil {
			return nil, err
		}
		e.Outcome = models.Outcome(outcome)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
