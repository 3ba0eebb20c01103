package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// Timestamps are stored in SQLite's own text format so date() and friends
// can parse them; the driver's default Go time encoding cannot be queried.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if !strings.Contains(dsn, "_time_format") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id              TEXT PRIMARY KEY,
	submission      TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'new',
	violation_type  TEXT,
	severity        TEXT,
	unit            TEXT,
	sla_deadline    DATETIME,
	classification  TEXT,
	routing         TEXT,
	investigation   TEXT,
	compliance      TEXT,
	assigned_to     TEXT NOT NULL DEFAULT '',
	resolution_note TEXT NOT NULL DEFAULT '',
	pin_hash        TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	report_id  TEXT NOT NULL REFERENCES reports(id),
	sender     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_sla ON reports(status, sla_deadline);
CREATE INDEX IF NOT EXISTS idx_messages_report_id ON messages(report_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReport(ctx context.Context, report *model.Report, pinHash string) (string, error) {
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	cols, err := reportColumns(report)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: encode report")
	}

	for _, id := range candidateIDs(report.ID) {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO reports (id, submission, status, violation_type, severity, unit, sla_deadline,
			 classification, routing, investigation, compliance, assigned_to, resolution_note, pin_hash,
			 created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, cols.submission, string(report.Status), cols.violationType, cols.severity, cols.unit,
			cols.slaDeadline, cols.classification, cols.routing, cols.investigation, cols.compliance,
			report.AssignedTo, report.ResolutionNote, pinHash, now, now,
		)
		if err == nil {
			report.ID = id
			return id, nil
		}
		if !isSQLiteUniqueViolation(err) {
			return "", eris.Wrapf(err, "sqlite: insert report %s", id)
		}
	}
	return "", eris.Errorf("sqlite: report id exhausted after %d attempts: %s", maxIDRetries, report.ID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, submission, status, classification, routing, investigation, compliance,
		 assigned_to, resolution_note, created_at, updated_at FROM reports WHERE id = ?`,
		id,
	)
	r, err := scanReport(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) GetPINHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT pin_hash FROM reports WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", eris.Wrapf(ErrNotFound, "report %s", id)
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: get pin hash %s", id)
	}
	return hash, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT id, submission, status, classification, routing, investigation, compliance,
	 assigned_to, resolution_note, created_at, updated_at FROM reports WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ViolationType != "" {
		query += ` AND violation_type = ?`
		args = append(args, string(filter.ViolationType))
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	if filter.Unit != "" {
		query += ` AND unit = ?`
		args = append(args, string(filter.Unit))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.ReportStatus, note string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var res sql.Result
	if note != "" {
		res, err = tx.ExecContext(ctx,
			`UPDATE reports SET status = ?, resolution_note = ?, updated_at = ? WHERE id = ?`,
			string(status), note, now, id,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id,
		)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status %s", id)
	}
	if err := checkRowsAffected(res, id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, report_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), id, "system", "Status diperbarui menjadi "+string(status), now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record status message %s", id)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit status update")
}

func (s *SQLiteStore) AssignReport(ctx context.Context, id, assignee string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		assignee, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: assign report %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ListOverdue(ctx context.Context, now time.Time) ([]model.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission, status, classification, routing, investigation, compliance,
		 assigned_to, resolution_note, created_at, updated_at FROM reports
		 WHERE sla_deadline IS NOT NULL AND sla_deadline <= ?
		 AND status NOT IN (?, ?)
		 ORDER BY sla_deadline ASC`,
		now.UTC(), string(model.StatusResolved), string(model.StatusClosed),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overdue")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan overdue report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list overdue iterate")
}

func (s *SQLiteStore) ImportReports(ctx context.Context, reports []model.Report) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback()

	imported := 0
	for i := range reports {
		r := &reports[i]
		cols, err := reportColumns(r)
		if err != nil {
			return imported, eris.Wrapf(err, "sqlite: encode report %s", r.ID)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reports (id, submission, status, violation_type, severity, unit,
			 sla_deadline, classification, routing, investigation, compliance, assigned_to,
			 resolution_note, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, cols.submission, string(r.Status), cols.violationType, cols.severity, cols.unit,
			cols.slaDeadline, cols.classification, cols.routing, cols.investigation, cols.compliance,
			r.AssignedTo, r.ResolutionNote, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		)
		if err != nil {
			return imported, eris.Wrapf(err, "sqlite: import report %s", r.ID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	return imported, eris.Wrap(tx.Commit(), "sqlite: commit import")
}

func (s *SQLiteStore) AddMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	// The referenced report must exist; rely on the foreign key.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, report_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ReportID, msg.Sender, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return eris.Wrapf(ErrNotFound, "report %s", msg.ReportID)
		}
		return eris.Wrapf(err, "sqlite: add message to %s", msg.ReportID)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, reportID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_id, sender, content, created_at FROM messages
		 WHERE report_id = ? ORDER BY created_at ASC`,
		reportID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list messages %s", reportID)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ReportID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message")
		}
		msgs = append(msgs, m)
	}
	return msgs, eris.Wrap(rows.Err(), "sqlite: list messages iterate")
}

func (s *SQLiteStore) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{
		ByStatus:   make(map[model.ReportStatus]int),
		ByCategory: make(map[model.ViolationType]int),
		BySeverity: make(map[model.Severity]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count reports")
	}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE created_at >= ?`, monthStart,
	).Scan(&stats.ThisMonth); err != nil {
		return nil, eris.Wrap(err, "sqlite: count this month")
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE status NOT IN (?, ?)`,
		string(model.StatusResolved), string(model.StatusClosed),
	).Scan(&stats.Open); err != nil {
		return nil, eris.Wrap(err, "sqlite: count open")
	}

	if err := s.groupCount(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`, func(k string, n int) {
		stats.ByStatus[model.ReportStatus(k)] = n
	}); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT violation_type, COUNT(*) FROM reports WHERE violation_type IS NOT NULL GROUP BY violation_type`, func(k string, n int) {
		stats.ByCategory[model.ViolationType(k)] = n
	}); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT severity, COUNT(*) FROM reports WHERE severity IS NOT NULL GROUP BY severity`, func(k string, n int) {
		stats.BySeverity[model.Severity(k)] = n
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStore) groupCount(ctx context.Context, query string, add func(string, int)) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: group count")
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return eris.Wrap(err, "sqlite: scan group count")
		}
		add(k, n)
	}
	return eris.Wrap(rows.Err(), "sqlite: group count iterate")
}

func (s *SQLiteStore) Trends(ctx context.Context, days int) ([]model.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx,
		`SELECT date(created_at) AS day, COUNT(*) FROM reports
		 WHERE created_at >= ? GROUP BY day ORDER BY day ASC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: trends")
	}
	defer rows.Close()

	var points []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: trends iterate")
}

// helpers

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "report %s", id)
	}
	return nil
}

// candidateIDs yields the requested identifier followed by suffixed
// alternates for same-second collisions.
func candidateIDs(base string) []string {
	ids := make([]string, 0, maxIDRetries)
	ids = append(ids, base)
	for i := 2; i <= maxIDRetries; i++ {
		ids = append(ids, fmt.Sprintf("%s-%d", base, i))
	}
	return ids
}

// encodedReport holds the serialized column values shared by the insert
// paths.
type encodedReport struct {
	submission     string
	classification sql.NullString
	routing        sql.NullString
	investigation  sql.NullString
	compliance     sql.NullString
	violationType  sql.NullString
	severity       sql.NullString
	unit           sql.NullString
	slaDeadline    sql.NullTime
}

func reportColumns(r *model.Report) (*encodedReport, error) {
	subJSON, err := json.Marshal(r.Submission)
	if err != nil {
		return nil, eris.Wrap(err, "marshal submission")
	}
	enc := &encodedReport{submission: string(subJSON)}

	if r.Classification != nil {
		b, err := json.Marshal(r.Classification)
		if err != nil {
			return nil, eris.Wrap(err, "marshal classification")
		}
		enc.classification = sql.NullString{String: string(b), Valid: true}
		enc.violationType = sql.NullString{String: string(r.Classification.ViolationType), Valid: true}
		enc.severity = sql.NullString{String: string(r.Classification.Severity), Valid: true}
	}
	if r.Routing != nil {
		b, err := json.Marshal(r.Routing)
		if err != nil {
			return nil, eris.Wrap(err, "marshal routing")
		}
		enc.routing = sql.NullString{String: string(b), Valid: true}
		enc.unit = sql.NullString{String: string(r.Routing.Unit), Valid: true}
		enc.slaDeadline = sql.NullTime{Time: r.Routing.SLADeadline.UTC(), Valid: true}
	}
	if r.Investigation != nil {
		b, err := json.Marshal(r.Investigation)
		if err != nil {
			return nil, eris.Wrap(err, "marshal investigation")
		}
		enc.investigation = sql.NullString{String: string(b), Valid: true}
	}
	if r.Compliance != nil {
		b, err := json.Marshal(r.Compliance)
		if err != nil {
			return nil, eris.Wrap(err, "marshal compliance")
		}
		enc.compliance = sql.NullString{String: string(b), Valid: true}
	}
	return enc, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReport(row scannable) (*model.Report, error) {
	var r model.Report
	var subJSON string
	var clsJSON, routeJSON, invJSON, compJSON sql.NullString

	err := row.Scan(&r.ID, &subJSON, &r.Status, &clsJSON, &routeJSON, &invJSON, &compJSON,
		&r.AssignedTo, &r.ResolutionNote, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan report")
	}

	return decodeReport(&r, []byte(subJSON), nullBytes(clsJSON), nullBytes(routeJSON),
		nullBytes(invJSON), nullBytes(compJSON))
}

func nullBytes(ns sql.NullString) []byte {
	if !ns.Valid {
		return nil
	}
	return []byte(ns.String)
}

// decodeReport unmarshals the JSON columns shared by both backends.
func decodeReport(r *model.Report, sub, cls, route, inv, comp []byte) (*model.Report, error) {
	if err := json.Unmarshal(sub, &r.Submission); err != nil {
		return nil, eris.Wrap(err, "unmarshal submission")
	}
	if len(cls) > 0 {
		r.Classification = &model.ClassificationResult{}
		if err := json.Unmarshal(cls, r.Classification); err != nil {
			return nil, eris.Wrap(err, "unmarshal classification")
		}
	}
	if len(route) > 0 {
		r.Routing = &model.RoutingDecision{}
		if err := json.Unmarshal(route, r.Routing); err != nil {
			return nil, eris.Wrap(err, "unmarshal routing")
		}
	}
	if len(inv) > 0 {
		r.Investigation = &model.InvestigationPlan{}
		if err := json.Unmarshal(inv, r.Investigation); err != nil {
			return nil, eris.Wrap(err, "unmarshal investigation")
		}
	}
	if len(comp) > 0 {
		r.Compliance = &model.ComplianceResult{}
		if err := json.Unmarshal(comp, r.Compliance); err != nil {
			return nil, eris.Wrap(err, "unmarshal compliance")
		}
	}
	return r, nil
}
