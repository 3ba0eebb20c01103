package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// insertReportArgs matches the 16-column report insert: the identifier
// pinned, everything else wildcarded.
func insertReportArgs(id string) []any {
	args := make([]any, 16)
	args[0] = id
	for i := 1; i < len(args); i++ {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresGetReportNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, submission, status`).
		WithArgs("WBS-2026-000000").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetReport(context.Background(), "WBS-2026-000000")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetReportDecodesColumns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	sub, _ := json.Marshal(model.Submission{What: "dugaan korupsi"})
	cls, _ := json.Marshal(model.ClassificationResult{ViolationType: model.ViolationKorupsi, ViolationCode: "V001"})
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, submission, status`).
		WithArgs("WBS-2026-101530").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "submission", "status", "classification", "routing", "investigation",
			"compliance", "assigned_to", "resolution_note", "created_at", "updated_at",
		}).AddRow(
			"WBS-2026-101530", sub, "new", cls, []byte(nil), []byte(nil),
			[]byte(nil), "", "", now, now,
		))

	got, err := s.GetReport(context.Background(), "WBS-2026-101530")
	require.NoError(t, err)
	assert.Equal(t, "dugaan korupsi", got.Submission.What)
	require.NotNil(t, got.Classification)
	assert.Equal(t, "V001", got.Classification.ViolationCode)
	assert.Nil(t, got.Routing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateReportRetriesOnCollision(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(insertReportArgs("WBS-2026-101530")...).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(insertReportArgs("WBS-2026-101530-2")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.CreateReport(context.Background(), sampleReport("WBS-2026-101530"), "hash")
	require.NoError(t, err)
	assert.Equal(t, "WBS-2026-101530-2", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateReportExhaustsRetries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	for _, id := range candidateIDs("WBS-2026-101530") {
		mock.ExpectExec(`INSERT INTO reports`).
			WithArgs(insertReportArgs(id)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})
	}

	_, err := s.CreateReport(context.Background(), sampleReport("WBS-2026-101530"), "hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status`).
		WithArgs("closed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateStatus(context.Background(), "missing", model.StatusClosed, "")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusRecordsMessage(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status`).
		WithArgs("investigation", pgxmock.AnyArg(), "WBS-2026-101530").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(pgxmock.AnyArg(), "WBS-2026-101530", "system",
			"Status diperbarui menjadi investigation", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpdateStatus(context.Background(), "WBS-2026-101530", model.StatusInvestigation, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddMessageUnknownReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(pgxmock.AnyArg(), "missing", "reporter", "halo", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := s.AddMessage(context.Background(), &model.Message{ReportID: "missing", Sender: "reporter", Content: "halo"})
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportReportsUsesCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_copy_reports"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_copy_reports"}, []string{
		"id", "submission", "status", "violation_type", "severity", "unit", "sla_deadline",
		"classification", "routing", "investigation", "compliance", "assigned_to",
		"resolution_note", "created_at", "updated_at",
	}).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "reports" .+ ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.ImportReports(context.Background(), []model.Report{
		*sampleReport("WBS-2025-080000"),
		*sampleReport("WBS-2025-080001"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An identifier that already exists must not abort the batch; the count
// reflects only the rows that landed.
func TestPostgresImportReportsSkipsExisting(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_copy_reports"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_copy_reports"}, []string{
		"id", "submission", "status", "violation_type", "severity", "unit", "sla_deadline",
		"classification", "routing", "investigation", "compliance", "assigned_to",
		"resolution_note", "created_at", "updated_at",
	}).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "reports" .+ ON CONFLICT \("id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := s.ImportReports(context.Background(), []model.Report{
		*sampleReport("WBS-2025-080000"),
		*sampleReport("WBS-2025-080001"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStatistics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports WHERE created_at >= date_trunc`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports WHERE status NOT IN`).
		WithArgs("resolved", "closed").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM reports GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("new", 1).AddRow("resolved", 2))
	mock.ExpectQuery(`SELECT violation_type, COUNT\(\*\) FROM reports`).
		WillReturnRows(pgxmock.NewRows([]string{"violation_type", "count"}).
			AddRow("Korupsi", 3))
	mock.ExpectQuery(`SELECT severity, COUNT\(\*\) FROM reports`).
		WillReturnRows(pgxmock.NewRows([]string{"severity", "count"}).
			AddRow("Critical", 3))

	stats, err := s.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ThisMonth)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.ByStatus[model.StatusNew])
	assert.Equal(t, 3, stats.ByCategory[model.ViolationKorupsi])
	assert.Equal(t, 3, stats.BySeverity[model.SeverityCritical])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrends(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT to_char\(created_at, 'YYYY-MM-DD'\) AS day`).
		WithArgs(7).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).
			AddRow("2026-03-14", 2).AddRow("2026-03-15", 5))

	points, err := s.Trends(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-14", points[0].Date)
	assert.Equal(t, 5, points[1].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
