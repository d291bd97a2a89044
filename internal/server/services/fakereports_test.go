package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeReportFixture(t *testing.T) (*FakeReportService, *ProductService, *models.Product) {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()

	ps, _ := newProductService(t, rm, &fakeRenderer{})
	p, err := ps.Create(context.Background(), validInput())
	require.NoError(t, err)

	s := NewFakeReportService(&dbx.LockTransactor{}, rm, nopLogger{})
	s.now = func() time.Time { return now }
	return s, ps, p
}

func TestFakeReportService_Report(t *testing.T) {
	ctx := context.Background()
	s, ps, p := newFakeReportFixture(t)

	r, dup, err := s.Report(ctx, FakeReportInput{
		ProductID:     p.ID,
		Reason:        " Seal was broken ",
		ReporterEmail: "Buyer@Example.COM",
		SourceAddress: "203.0.113.7:5123",
		UserAgent:     strings.Repeat("x", 400),
	})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, "Seal was broken", r.Reason)
	assert.Equal(t, "buyer@example.com", r.ReporterEmail)
	assert.Equal(t, "203.0.113.7", r.SourceAddress)
	assert.Len(t, r.UserAgent, maxAgentLen)
	assert.Equal(t, models.ReportNew, r.Status)
	assert.Equal(t, p.VendorID, r.VendorID)
	assert.Equal(t, p.Token, r.Token)

	stored, err := ps.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFlagged)
	assert.Equal(t, models.StateActive, stored.LifecycleState)
}

func TestFakeReportService_Report_Dedupe(t *testing.T) {
	ctx := context.Background()
	s, _, p := newFakeReportFixture(t)
	in := FakeReportInput{ProductID: p.ID, Reason: "fake", SourceAddress: "203.0.113.7"}

	first, _, err := s.Report(ctx, in)
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(30 * time.Minute) }
	again, dup, err := s.Report(ctx, in)
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first.ID, again.ID)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	later, dup, err := s.Report(ctx, in)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.NotEqual(t, first.ID, later.ID)

	in.SourceAddress = "198.51.100.1"
	s.now = func() time.Time { return now.Add(2*time.Hour + time.Minute) }
	_, dup, err = s.Report(ctx, in)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestFakeReportService_Report_LANReportersAreDistinct(t *testing.T) {
	ctx := context.Background()
	s, _, p := newFakeReportFixture(t)

	first, dup, err := s.Report(ctx, FakeReportInput{ProductID: p.ID, Reason: "fake", SourceAddress: "192.168.1.10:40000"})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, "192.168.1.10", first.SourceAddress)

	second, dup, err := s.Report(ctx, FakeReportInput{ProductID: p.ID, Reason: "fake", SourceAddress: "192.168.1.11"})
	require.NoError(t, err)
	assert.False(t, dup, "another machine on the same LAN is a new reporter")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFakeReportService_Report_Validation(t *testing.T) {
	s, _, p := newFakeReportFixture(t)

	tests := []struct {
		name string
		in   FakeReportInput
	}{
		{"no reason", FakeReportInput{ProductID: p.ID}},
		{"no product", FakeReportInput{Reason: "fake"}},
		{"long reason", FakeReportInput{ProductID: p.ID, Reason: strings.Repeat("r", maxReasonLen+1)}},
		{"long details", FakeReportInput{ProductID: p.ID, Reason: "fake", Details: strings.Repeat("d", maxDetailsLen+1)}},
		{"long name", FakeReportInput{ProductID: p.ID, Reason: "fake", ReporterName: strings.Repeat("n", maxNameLen+1)}},
		{"bad email", FakeReportInput{ProductID: p.ID, Reason: "fake", ReporterEmail: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Report(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestFakeReportService_Report_UnknownProduct(t *testing.T) {
	s, _, _ := newFakeReportFixture(t)

	_, _, err := s.Report(context.Background(), FakeReportInput{ProductID: "missing", Reason: "fake"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFakeReportService_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	s, _, p := newFakeReportFixture(t)

	for i, addr := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		s.now = func() time.Time { return now.Add(time.Duration(i) * time.Minute) }
		_, _, err := s.Report(ctx, FakeReportInput{ProductID: p.ID, Reason: "fake", SourceAddress: addr})
		require.NoError(t, err)
	}

	list, total, err := s.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "203.0.113.3", list[0].SourceAddress)

	page2, _, err := s.List(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)

	updated, err := s.Update(ctx, list[0].ID, models.ReportActioned, " counterfeit confirmed ")
	require.NoError(t, err)
	assert.Equal(t, models.ReportActioned, updated.Status)
	assert.Equal(t, "counterfeit confirmed", updated.AdminNotes)

	actioned, total, err := s.List(ctx, models.ReportActioned, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, actioned, 1)

	_, _, err = s.List(ctx, models.FakeReportStatus("closed"), 1, 10)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, list[0].ID, models.FakeReportStatus("closed"), "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, "missing", models.ReportDismissed, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFakeReportService_Report_RollsBackOnMissingProduct(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	s := NewFakeReportService(dbx.NewSQLTransactor(db, nil), repomanager.NewPostgresRepositoryManager(), nopLogger{})
	_, _, err = s.Report(context.Background(), FakeReportInput{ProductID: "p1", Reason: "fake"})

	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
