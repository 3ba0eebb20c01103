package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// Kind identifies the kind of notification.
type Kind string

const (
	KindReportReceived        Kind = "report_received"
	KindStatusUpdate          Kind = "status_update"
	KindInvestigationAssigned Kind = "investigation_assigned"
	KindSLABreach             Kind = "sla_breach"
)

// Notification represents a single outbound notification.
type Notification struct {
	Kind       Kind           `json:"kind"`
	Severity   string         `json:"severity"`
	ReportID   string         `json:"report_id"`
	Recipients []string       `json:"recipients,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Sender delivers notifications. Implementations must tolerate partial
// failure: the return value is the number successfully delivered.
type Sender interface {
	Send(ctx context.Context, notifications []Notification) int
}

// Notifier delivers notifications via webhook when one is configured,
// and always records them to the log.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
}

// New creates a Notifier with the given notify config.
func New(cfg config.NotifyConfig) *Notifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// ReportReceived builds the notification sent when a report enters the system.
func ReportReceived(r *model.Report) Notification {
	n := Notification{
		Kind:      KindReportReceived,
		ReportID:  r.ID,
		Timestamp: time.Now().UTC(),
	}
	if r.Classification != nil && r.Routing != nil {
		n.Severity = string(r.Classification.Severity)
		n.Recipients = r.Routing.Notifications
		n.Message = fmt.Sprintf(
			"Laporan %s (%s, severity %s) diterima dan diteruskan ke %s, SLA %s",
			r.ID, r.Classification.ViolationType, r.Classification.Severity,
			r.Routing.Unit, r.Routing.SLADeadline.Format(time.RFC3339),
		)
		n.Details = map[string]any{
			"violation_type": string(r.Classification.ViolationType),
			"unit":           string(r.Routing.Unit),
			"escalated":      r.Routing.Escalated,
		}
		return n
	}
	n.Message = fmt.Sprintf("Laporan %s diterima", r.ID)
	return n
}

// StatusUpdate builds the notification sent when a report changes status.
func StatusUpdate(reportID string, status model.ReportStatus) Notification {
	return Notification{
		Kind:      KindStatusUpdate,
		ReportID:  reportID,
		Message:   fmt.Sprintf("Status laporan %s diperbarui menjadi %s", reportID, status),
		Details:   map[string]any{"status": string(status)},
		Timestamp: time.Now().UTC(),
	}
}

// InvestigationAssigned builds the notification sent when a report is
// assigned to an investigator.
func InvestigationAssigned(reportID, assignee string, unit model.Unit) Notification {
	return Notification{
		Kind:       KindInvestigationAssigned,
		ReportID:   reportID,
		Recipients: []string{assignee},
		Message:    fmt.Sprintf("Laporan %s ditugaskan kepada %s (%s)", reportID, assignee, unit),
		Details:    map[string]any{"assignee": assignee, "unit": string(unit)},
		Timestamp:  time.Now().UTC(),
	}
}

// SLABreach builds the notification sent when a report passes its SLA
// deadline without resolution.
func SLABreach(r *model.Report, now time.Time) Notification {
	n := Notification{
		Kind:      KindSLABreach,
		Severity:  string(model.SeverityHigh),
		ReportID:  r.ID,
		Timestamp: now.UTC(),
	}
	if r.Classification != nil && r.Classification.Severity != "" {
		n.Severity = string(r.Classification.Severity)
	}
	if r.Routing == nil {
		n.Message = fmt.Sprintf("Laporan %s melewati batas SLA", r.ID)
		return n
	}
	overdue := now.Sub(r.Routing.SLADeadline).Round(time.Minute)
	n.Recipients = append([]string{}, r.Routing.Notifications...)
	n.Message = fmt.Sprintf(
		"Laporan %s melewati batas SLA %s (terlambat %s), eskalasi ke %s",
		r.ID, r.Routing.SLADeadline.Format(time.RFC3339), overdue, r.Routing.Unit,
	)
	n.Details = map[string]any{
		"unit":         string(r.Routing.Unit),
		"sla_deadline": r.Routing.SLADeadline,
		"overdue":      overdue.String(),
	}
	return n
}

// Send delivers notifications to the configured webhook URL.
// Returns the number of notifications successfully sent. Without a
// webhook URL every notification is still logged and counted as sent.
func (n *Notifier) Send(ctx context.Context, notifications []Notification) int {
	sent := 0
	for _, notif := range notifications {
		if n.cfg.WebhookURL != "" {
			if err := n.sendWebhook(ctx, notif); err != nil {
				zap.L().Error("notify: failed to send notification",
					zap.String("kind", string(notif.Kind)),
					zap.String("report_id", notif.ReportID),
					zap.Error(err),
				)
				continue
			}
		}
		zap.L().Info("notify: notification sent",
			zap.String("kind", string(notif.Kind)),
			zap.String("report_id", notif.ReportID),
			zap.Strings("recipients", notif.Recipients),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single notification to the webhook URL.
func (n *Notifier) sendWebhook(ctx context.Context, notif Notification) error {
	payload, err := json.Marshal(notif)
	if err != nil {
		return eris.Wrap(err, "notify: marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
