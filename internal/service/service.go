package service

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/auth"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/notify"
	"github.com/mshadianto/wbs-bpkh-2026/internal/pipeline"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

// ErrUnauthorized is returned when the supplied PIN does not match the
// report's stored hash.
var ErrUnauthorized = eris.New("service: invalid PIN")

// ErrBadStatus is returned for a status transition to an unknown status.
var ErrBadStatus = eris.New("service: unknown status")

// Service ties the processing pipeline, the store and notifications into
// the operations shared by the HTTP API and the CLI.
type Service struct {
	pipe   *pipeline.Pipeline
	store  store.Store
	sender notify.Sender
	now    func() time.Time
}

// New creates a Service.
func New(pipe *pipeline.Pipeline, st store.Store, sender notify.Sender) *Service {
	return &Service{pipe: pipe, store: st, sender: sender, now: time.Now}
}

// Receipt is returned to the reporter after a successful submission. The
// PIN is shown exactly once and never stored in clear.
type Receipt struct {
	ReportID string                `json:"report_id"`
	PIN      string                `json:"pin"`
	Result   *model.PipelineResult `json:"result"`
}

// Submit runs the full pipeline on a submission, persists the resulting
// report with a fresh access PIN and notifies the routed unit.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (*Receipt, error) {
	res, err := s.pipe.Process(ctx, sub)
	if err != nil {
		return nil, err
	}

	pin, err := auth.NewPIN()
	if err != nil {
		return nil, eris.Wrap(err, "service: generate PIN")
	}

	now := s.now().UTC()
	report := &model.Report{
		ID:             res.ReportID,
		Submission:     sub,
		Status:         model.StatusNew,
		Classification: &res.Classification,
		Routing:        &res.Routing,
		Investigation:  &res.Investigation,
		Compliance:     &res.Compliance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := s.store.CreateReport(ctx, report, auth.HashPIN(pin))
	if err != nil {
		return nil, eris.Wrap(err, "service: persist report")
	}
	// The store may have suffixed the identifier on collision.
	report.ID = id
	res.ReportID = id

	s.sender.Send(ctx, []notify.Notification{notify.ReportReceived(report)})
	zap.L().Info("service: report submitted",
		zap.String("report_id", id),
		zap.String("violation_type", string(report.Classification.ViolationType)),
		zap.String("unit", string(report.Routing.Unit)),
	)

	return &Receipt{ReportID: id, PIN: pin, Result: res}, nil
}

// Get returns the report after verifying the reporter's PIN.
func (s *Service) Get(ctx context.Context, id, pin string) (*model.Report, error) {
	hash, err := s.store.GetPINHash(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPIN(pin, hash) {
		return nil, eris.Wrapf(ErrUnauthorized, "report %s", id)
	}
	return s.store.GetReport(ctx, id)
}

// List returns reports matching the filter. Intended for case handlers,
// so no PIN check applies.
func (s *Service) List(ctx context.Context, filter store.ReportFilter) ([]model.Report, error) {
	return s.store.ListReports(ctx, filter)
}

// UpdateStatus transitions a report to the given status and notifies
// subscribers. An optional note is recorded for resolved/closed reports.
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.ReportStatus, note string) error {
	if !model.ValidStatus(status) {
		return eris.Wrapf(ErrBadStatus, "%q", status)
	}
	if err := s.store.UpdateStatus(ctx, id, status, note); err != nil {
		return err
	}
	s.sender.Send(ctx, []notify.Notification{notify.StatusUpdate(id, status)})
	return nil
}

// Assign hands a report to an investigator. A report still in intake
// review moves to investigation status.
func (s *Service) Assign(ctx context.Context, id, assignee string) error {
	if strings.TrimSpace(assignee) == "" {
		return eris.New("service: assignee required")
	}

	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.AssignReport(ctx, id, assignee); err != nil {
		return err
	}
	if r.Status == model.StatusNew || r.Status == model.StatusUnderReview {
		if err := s.store.UpdateStatus(ctx, id, model.StatusInvestigation, ""); err != nil {
			return err
		}
	}

	unit := model.UnitSPI
	if r.Routing != nil {
		unit = r.Routing.Unit
	}
	s.sender.Send(ctx, []notify.Notification{notify.InvestigationAssigned(id, assignee, unit)})
	return nil
}

// AddMessage appends a conversation entry to a report thread.
func (s *Service) AddMessage(ctx context.Context, id, sender, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, eris.New("service: empty message")
	}
	msg := &model.Message{ReportID: id, Sender: sender, Content: content}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns the conversation thread for a report.
func (s *Service) Messages(ctx context.Context, id string) ([]model.Message, error) {
	return s.store.ListMessages(ctx, id)
}

// Statistics returns dashboard aggregates.
func (s *Service) Statistics(ctx context.Context) (*model.Statistics, error) {
	return s.store.Statistics(ctx)
}

// Trends returns per-day report counts over the trailing window.
func (s *Service) Trends(ctx context.Context, days int) ([]model.TrendPoint, error) {
	return s.store.Trends(ctx, days)
}
