package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// ErrNotFound is returned when a report or message does not exist.
var ErrNotFound = eris.New("store: not found")

// maxIDRetries bounds the suffix retry loop for same-second identifier
// collisions: WBS-2026-101530, then WBS-2026-101530-2 up to -5.
const maxIDRetries = 5

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	Status        model.ReportStatus `json:"status,omitempty"`
	ViolationType model.ViolationType `json:"violation_type,omitempty"`
	Severity      model.Severity     `json:"severity,omitempty"`
	Unit          model.Unit         `json:"unit,omitempty"`
	Limit         int                `json:"limit,omitempty"`
	Offset        int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the intake and triage system.
type Store interface {
	// Reports. CreateReport persists the report and its access PIN hash
	// atomically and returns the final identifier, which may carry a
	// numeric suffix if the requested one collided.
	CreateReport(ctx context.Context, report *model.Report, pinHash string) (string, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	GetPINHash(ctx context.Context, id string) (string, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error)
	UpdateStatus(ctx context.Context, id string, status model.ReportStatus, note string) error
	AssignReport(ctx context.Context, id, assignee string) error
	ListOverdue(ctx context.Context, now time.Time) ([]model.Report, error)
	ImportReports(ctx context.Context, reports []model.Report) (int, error)

	// Conversation between reporter and case handlers.
	AddMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, reportID string) ([]model.Message, error)

	// Dashboard analytics.
	Statistics(ctx context.Context) (*model.Statistics, error)
	Trends(ctx context.Context, days int) ([]model.TrendPoint, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
