package scans

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanColumns = []string{"id", "product_id", "vendor_id", "token", "outcome", "source_address", "location", "user_agent", "scanned_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestAppend(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := `(?s)^INSERT\s+INTO\s+scan_history\s*\(id,.*scanned_at\)\s*VALUES\s*\(\$1,.*\$9\)$`
	mock.ExpectExec(q).
		WithArgs("s-1", "p-1", "v-1", "tok", "Valid", "1.2.3.4", "Paris, France", "curl", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), &models.ScanEntry{
		ID: "s-1", ProductID: "p-1", VendorID: "v-1", Token: "tok", Outcome: models.OutcomeValid,
		SourceAddress: "1.2.3.4", Location: "Paris, France", UserAgent: "curl", ScannedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^INSERT`).WillReturnError(errors.New("disk full"))

	err := repo.Append(context.Background(), &models.ScanEntry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: disk full")
}

func TestFindRecent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	since := now.Add(-2 * time.Minute)

	q := `(?s)^SELECT\s+id,.*FROM\s+scan_history\s+WHERE\s+token\s*=\s*\$1\s+AND\s+scanned_at\s*>=\s*\$2\s+ORDER\s+BY\s+scanned_at\s+DESC\s+LIMIT\s+\$3$`
	rows := sqlmock.NewRows(scanColumns).
		AddRow("s-2", "p-1", "v-1", "tok", "AlreadyUsed", "1.1.1.1", "Unknown", "", now.Add(-10*time.Second)).
		AddRow("s-1", "p-1", "v-1", "tok", "Valid", "1.1.1.1", "Unknown", "", now.Add(-20*time.Second))
	mock.ExpectQuery(q).WithArgs("tok", since, 50).WillReturnRows(rows)

	got, err := repo.FindRecent(context.Background(), "tok", since, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.OutcomeAlreadyUsed, got[0].Outcome)
	assert.Equal(t, "s-1", got[1].ID)
}

func TestListByProduct(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+scan_history\s+WHERE\s+product_id\s*=\s*\$1\s+ORDER\s+BY\s+scanned_at\s+DESC\s+LIMIT\s+\$2$`
	mock.ExpectQuery(q).WithArgs("p-1", 8).WillReturnRows(sqlmock.NewRows(scanColumns))

	got, err := repo.ListByProduct(context.Background(), "p-1", 8)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestList_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT`).WillReturnError(errors.New("timeout"))

	_, err := repo.ListByProduct(context.Background(), "p-1", 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select scans")
}

func TestList_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(scanColumns).AddRow("s-1", "p-1", "v-1", "tok", "Valid", "", "", "", "not-a-time")
	mock.ExpectQuery(`^SELECT`).WillReturnRows(rows)

	_, err := repo.FindRecent(context.Background(), "tok", time.Now(), 5)
	require.Error(t, err)
}

func TestListByVendor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	q := `(?s)^SELECT\s+id,.*FROM\s+scan_history\s+WHERE\s+\(\$1\s*=\s*''\s+OR\s+vendor_id\s*=\s*\$1\)\s+ORDER\s+BY\s+scanned_at\s+DESC\s+LIMIT\s+\$2$`
	rows := sqlmock.NewRows(scanColumns).
		AddRow("s-2", "p-2", "v-1", "tok2", "Valid", "1.1.1.1", "Unknown", "", at).
		AddRow("s-1", "p-1", "v-1", "tok1", "Blocked", "2.2.2.2", "Unknown", "", at.Add(-time.Minute))
	mock.ExpectQuery(q).WithArgs("v-1", 100).WillReturnRows(rows)

	got, err := repo.ListByVendor(context.Background(), "v-1", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-2", got[0].ProductID)
	assert.Equal(t, models.OutcomeBlocked, got[1].Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+scan_history\s+WHERE\s+token\s*=\s*\$1\s+ORDER\s+BY\s+scanned_at\s+DESC\s+LIMIT\s+\$2$`
	rows := sqlmock.NewRows(scanColumns).AddRow("s-1", "p-1", "v-1", "old-tok", "Valid", "1.1.1.1", "Unknown", "", time.Now())
	mock.ExpectQuery(q).WithArgs("old-tok", 20).WillReturnRows(rows)

	got, err := repo.ListByToken(context.Background(), "old-tok", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old-tok", got[0].Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+outcome,\s+COUNT\(\*\)\s+FROM\s+scan_history\s+WHERE\s+\(\$1\s*=\s*''\s+OR\s+vendor_id\s*=\s*\$1\)\s+GROUP\s+BY\s+outcome$`
	rows := sqlmock.NewRows([]string{"outcome", "count"}).
		AddRow("Valid", int64(4)).
		AddRow("Blocked", int64(2))
	mock.ExpectQuery(q).WithArgs("").WillReturnRows(rows)

	got, err := repo.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Total)
	assert.Equal(t, int64(4), got.ByOutcome[models.OutcomeValid])
	assert.Equal(t, int64(2), got.ByOutcome[models.OutcomeBlocked])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT outcome`).WillReturnError(errors.New("timeout"))

	_, err := repo.Stats(context.Background(), "v-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count scans")
}
