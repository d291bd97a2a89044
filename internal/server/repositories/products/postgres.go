package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectColumns = `id, vendor_id, vendor_name, product_name, description, category, batch_id,
		manufacture_date, expires_at, token, qr_image_url, lifecycle_state,
		verification_count, last_verified_at, is_flagged, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p              models.Product
		state          string
		manufactured   sql.NullTime
		lastVerifiedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.VendorID, &p.VendorName, &p.ProductName, &p.Description, &p.Category, &p.BatchID,
		&manufactured, &p.ExpiresAt, &p.Token, &p.QRImageURL, &state,
		&p.VerificationCount, &lastVerifiedAt, &p.IsFlagged, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.LifecycleState = models.LifecycleState(state)
	if manufactured.Valid {
		t := manufactured.Time
		p.ManufactureDate = &t
	}
	if lastVerifiedAt.Valid {
		t := lastVerifiedAt.Time
		p.LastVerifiedAt = &t
	}
	return &p, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.Product, error) {
	query := `SELECT ` + selectColumns + ` FROM products WHERE ` + where

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Product, error) {
	return r.findOne(ctx, `token = $1`, token)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) Insert(ctx context.Context, p *models.Product) error {
	query := `INSERT INTO products (id, vendor_id, vendor_name, product_name, description, category, batch_id,
		manufacture_date, expires_at, token, qr_image_url, lifecycle_state,
		verification_count, last_verified_at, is_flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.VendorID, p.VendorName, p.ProductName, p.Description, p.Category, p.BatchID,
		p.ManufactureDate, p.ExpiresAt, p.Token, p.QRImageURL, string(p.LifecycleState),
		p.VerificationCount, p.LastVerifiedAt, p.IsFlagged, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ApplyPartialUpdate writes only the fields set in u. The verification
// counter is advanced in SQL so concurrent reveals are never lost. A
// guarded update (u.OnlyFrom, u.OnlyToken) adds the state and token checks
// to the WHERE clause.
func (r *PostgresRepository) ApplyPartialUpdate(ctx context.Context, id string, u models.ProductUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	set := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if u.LifecycleState != nil {
		set("lifecycle_state = $%d", string(*u.LifecycleState))
	}
	if u.IsFlagged != nil {
		set("is_flagged = $%d", *u.IsFlagged)
	}
	if u.Token != nil {
		set("token = $%d", *u.Token)
	}
	if u.QRImageURL != nil {
		set("qr_image_url = $%d", *u.QRImageURL)
	}
	switch {
	case u.ResetVerification && u.RevealedAt != nil:
		sets = append(sets, "verification_count = 1")
		set("last_verified_at = $%d", *u.RevealedAt)
	case u.ResetVerification:
		sets = append(sets, "verification_count = 0", "last_verified_at = NULL")
	case u.RevealedAt != nil:
		sets = append(sets, "verification_count = verification_count + 1")
		set("last_verified_at = $%d", *u.RevealedAt)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if len(u.OnlyFrom) > 0 {
		marks := make([]string, 0, len(u.OnlyFrom))
		for _, st := range u.OnlyFrom {
			args = append(args, string(st))
			marks = append(marks, fmt.Sprintf("$%d", len(args)))
		}
		query += ` AND lifecycle_state IN (` + strings.Join(marks, ", ") + `)`
	}
	if u.OnlyToken != nil {
		args = append(args, *u.OnlyToken)
		query += fmt.Sprintf(` AND token = $%d`, len(args))
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n > 0 {
		return nil
	}
	if !u.Guarded() {
		return common.ErrorNotFound
	}

	// The guard or the id did not match; tell them apart.
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return common.ErrStateChanged
}

func (r *PostgresRepository) ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error) {
	query := `SELECT ` + selectColumns + ` FROM products
		WHERE ($1 = '' OR vendor_id = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, vendorID string) (models.ProductStats, error) {
	query := `SELECT lifecycle_state, COUNT(*), COUNT(*) FILTER (WHERE is_flagged) FROM products
		WHERE ($1 = '' OR vendor_id = $1)
		GROUP BY lifecycle_state`

	stats := models.ProductStats{ByState: make(map[models.LifecycleState]int64)}

	rows, err := r.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return stats, fmt.Errorf("failed to count products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			state      string
			n, flagged int64
		)
		if err := rows.Scan(&state, &n, &flagged); err != nil {
			return stats, err
		}
		stats.ByState[models.LifecycleState(state)] = n
		stats.Total += n
		stats.Flagged += flagged
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}
