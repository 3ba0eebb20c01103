package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mshadianto/wbs-bpkh-2026/internal/db"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_report": `SELECT id, submission, status, classification, routing, investigation, compliance,
	 assigned_to, resolution_note, created_at, updated_at FROM reports WHERE id = $1`,
	"get_pin_hash":  `SELECT pin_hash FROM reports WHERE id = $1`,
	"add_message":   `INSERT INTO messages (id, report_id, sender, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"list_messages": `SELECT id, report_id, sender, content, created_at FROM messages WHERE report_id = $1 ORDER BY created_at ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id              TEXT PRIMARY KEY,
	submission      JSONB NOT NULL,
	status          TEXT NOT NULL DEFAULT 'new',
	violation_type  TEXT,
	severity        TEXT,
	unit            TEXT,
	sla_deadline    TIMESTAMPTZ,
	classification  JSONB,
	routing         JSONB,
	investigation   JSONB,
	compliance      JSONB,
	assigned_to     TEXT NOT NULL DEFAULT '',
	resolution_note TEXT NOT NULL DEFAULT '',
	pin_hash        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	report_id  TEXT NOT NULL REFERENCES reports(id),
	sender     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_sla ON reports(status, sla_deadline);
CREATE INDEX IF NOT EXISTS idx_messages_report_id ON messages(report_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *model.Report, pinHash string) (string, error) {
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	cols, err := reportColumns(report)
	if err != nil {
		return "", eris.Wrap(err, "postgres: encode report")
	}

	for _, id := range candidateIDs(report.ID) {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO reports (id, submission, status, violation_type, severity, unit, sla_deadline,
			 classification, routing, investigation, compliance, assigned_to, resolution_note, pin_hash,
			 created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			id, cols.submission, string(report.Status), nullArg(cols.violationType), nullArg(cols.severity),
			nullArg(cols.unit), nullTimeArg(cols.slaDeadline), nullArg(cols.classification),
			nullArg(cols.routing), nullArg(cols.investigation), nullArg(cols.compliance),
			report.AssignedTo, report.ResolutionNote, pinHash, now, now,
		)
		if err == nil {
			report.ID = id
			return id, nil
		}
		if !isPostgresUniqueViolation(err) {
			return "", eris.Wrapf(err, "postgres: insert report %s", id)
		}
	}
	return "", eris.Errorf("postgres: report id exhausted after %d attempts: %s", maxIDRetries, report.ID)
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, submission, status, classification, routing, investigation, compliance,
		 assigned_to, resolution_note, created_at, updated_at FROM reports WHERE id = $1`,
		id,
	)
	r, err := scanPostgresReport(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", id)
	}
	return r, nil
}

func (s *PostgresStore) GetPINHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT pin_hash FROM reports WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", eris.Wrapf(ErrNotFound, "report %s", id)
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: get pin hash %s", id)
	}
	return hash, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT id, submission, status, classification, routing, investigation, compliance,
	 assigned_to, resolution_note, created_at, updated_at FROM reports WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.ViolationType != "" {
		query += ` AND violation_type = ` + arg(string(filter.ViolationType))
	}
	if filter.Severity != "" {
		query += ` AND severity = ` + arg(string(filter.Severity))
	}
	if filter.Unit != "" {
		query += ` AND unit = ` + arg(string(filter.Unit))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanPostgresReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.ReportStatus, note string) error {
	now := time.Now().UTC()

	var tag pgconn.CommandTag
	var err error
	if note != "" {
		tag, err = s.pool.Exec(ctx,
			`UPDATE reports SET status = $1, resolution_note = $2, updated_at = $3 WHERE id = $4`,
			string(status), note, now, id,
		)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE reports SET status = $1, updated_at = $2 WHERE id = $3`,
			string(status), now, id,
		)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: update status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "report %s", id)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO messages (id, report_id, sender, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), id, "system", "Status diperbarui menjadi "+string(status), now,
	)
	return eris.Wrapf(err, "postgres: record status message %s", id)
}

func (s *PostgresStore) AssignReport(ctx context.Context, id, assignee string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET assigned_to = $1, updated_at = $2 WHERE id = $3`,
		assignee, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: assign report %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "report %s", id)
	}
	return nil
}

func (s *PostgresStore) ListOverdue(ctx context.Context, now time.Time) ([]model.Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, submission, status, classification, routing, investigation, compliance,
		 assigned_to, resolution_note, created_at, updated_at FROM reports
		 WHERE sla_deadline IS NOT NULL AND sla_deadline <= $1
		 AND status NOT IN ($2, $3)
		 ORDER BY sla_deadline ASC`,
		now.UTC(), string(model.StatusResolved), string(model.StatusClosed),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overdue")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanPostgresReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan overdue report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list overdue iterate")
}

// ImportReports bulk-loads archived reports via the COPY protocol. Rows
// whose identifier already exists are skipped rather than aborting the
// batch; the returned count covers inserted rows only.
func (s *PostgresStore) ImportReports(ctx context.Context, reports []model.Report) (int, error) {
	columns := []string{
		"id", "submission", "status", "violation_type", "severity", "unit", "sla_deadline",
		"classification", "routing", "investigation", "compliance", "assigned_to",
		"resolution_note", "created_at", "updated_at",
	}

	rows := make([][]any, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		cols, err := reportColumns(r)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode report %s", r.ID)
		}
		rows = append(rows, []any{
			r.ID, cols.submission, string(r.Status), nullArg(cols.violationType),
			nullArg(cols.severity), nullArg(cols.unit), nullTimeArg(cols.slaDeadline),
			nullArg(cols.classification), nullArg(cols.routing), nullArg(cols.investigation),
			nullArg(cols.compliance), r.AssignedTo, r.ResolutionNote,
			r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		})
	}

	n, err := db.CopyInsertIgnore(ctx, s.pool, "reports", columns, []string{"id"}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import reports")
	}
	return int(n), nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, report_id, sender, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ReportID, msg.Sender, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return eris.Wrapf(ErrNotFound, "report %s", msg.ReportID)
		}
		return eris.Wrapf(err, "postgres: add message to %s", msg.ReportID)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, reportID string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, report_id, sender, content, created_at FROM messages WHERE report_id = $1 ORDER BY created_at ASC`,
		reportID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list messages %s", reportID)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ReportID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan message")
		}
		msgs = append(msgs, m)
	}
	return msgs, eris.Wrap(rows.Err(), "postgres: list messages iterate")
}

func (s *PostgresStore) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{
		ByStatus:   make(map[model.ReportStatus]int),
		ByCategory: make(map[model.ViolationType]int),
		BySeverity: make(map[model.Severity]int),
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "postgres: count reports")
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE created_at >= date_trunc('month', now())`,
	).Scan(&stats.ThisMonth); err != nil {
		return nil, eris.Wrap(err, "postgres: count this month")
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE status NOT IN ($1, $2)`,
		string(model.StatusResolved), string(model.StatusClosed),
	).Scan(&stats.Open); err != nil {
		return nil, eris.Wrap(err, "postgres: count open")
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

func (s *PostgresStore) groupCount(ctx context.Context, query string, add func(string, int)) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return eris.Wrap(err, "postgres: group count")
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return eris.Wrap(err, "postgres: scan group count")
		}
		add(k, n)
	}
	return eris.Wrap(rows.Err(), "postgres: group count iterate")
}

func (s *PostgresStore) Trends(ctx context.Context, days int) ([]model.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}

	rows, err := s.pool.Query(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*) FROM reports
		 WHERE created_at >= now() - make_interval(days => $1)
		 GROUP BY day ORDER BY day ASC`,
		days,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: trends")
	}
	defer rows.Close()

	var points []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: trends iterate")
}

// helpers

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func nullArg(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	return ns.String
}

func nullTimeArg(nt sql.NullTime) any {
	if !nt.Valid {
		return nil
	}
	return nt.Time
}

func scanPostgresReport(row pgx.Row) (*model.Report, error) {
	var r model.Report
	var subJSON []byte
	var clsJSON, routeJSON, invJSON, compJSON []byte

	err := row.Scan(&r.ID, &subJSON, &r.Status, &clsJSON, &routeJSON, &invJSON, &compJSON,
		&r.AssignedTo, &r.ResolutionNote, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan report")
	}

	return decodeReport(&r, subJSON, clsJSON, routeJSON, invJSON, compJSON)
}
