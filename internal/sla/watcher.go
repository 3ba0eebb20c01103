package sla

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/notify"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

// Watcher periodically scans for open reports past their SLA deadline,
// escalates them and emits breach notifications.
type Watcher struct {
	store  store.Store
	sender notify.Sender
	sched  cron.Schedule
	now    func() time.Time
}

// New creates a Watcher from a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func New(st store.Store, sender notify.Sender, schedule string) (*Watcher, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, eris.Wrapf(err, "sla: parse schedule %q", schedule)
	}
	return &Watcher{
		store:  st,
		sender: sender,
		sched:  sched,
		now:    time.Now,
	}, nil
}

// Run executes Check on the configured schedule until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		now := w.now()
		next := w.sched.Next(now)
		zap.L().Info("sla: next deadline check scheduled",
			zap.Time("at", next),
			zap.Duration("in", next.Sub(now).Round(time.Second)),
		)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		breached, err := w.Check(ctx, w.now())
		if err != nil {
			zap.L().Error("sla: deadline check failed", zap.Error(err))
			continue
		}
		if breached > 0 {
			zap.L().Warn("sla: deadlines breached", zap.Int("count", breached))
		}
	}
}

// Check escalates every open report whose SLA deadline has passed and
// sends one breach notification per newly escalated report. Reports
// already in escalated status are left alone, so repeated checks do not
// re-notify. Returns the number of reports escalated this pass.
func (w *Watcher) Check(ctx context.Context, now time.Time) (int, error) {
	overdue, err := w.store.ListOverdue(ctx, now)
	if err != nil {
		return 0, eris.Wrap(err, "sla: list overdue reports")
	}

	var notifications []notify.Notification
	escalated := 0
	for i := range overdue {
		r := &overdue[i]
		if r.Status == model.StatusEscalated {
			continue
		}

		if err := w.store.UpdateStatus(ctx, r.ID, model.StatusEscalated, ""); err != nil {
			zap.L().Error("sla: failed to escalate report",
				zap.String("report_id", r.ID),
				zap.Error(err),
			)
			continue
		}

		zap.L().Warn("sla: report past deadline, escalated",
			zap.String("report_id", r.ID),
			zap.String("status", string(r.Status)),
			zap.Time("deadline", r.Routing.SLADeadline),
		)
		notifications = append(notifications, notify.SLABreach(r, now))
		escalated++
	}

	if len(notifications) > 0 {
		w.sender.Send(ctx, notifications)
	}
	return escalated, nil
}
