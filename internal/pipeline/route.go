package pipeline

import (
	"time"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// Route derives the routing decision from a classification. Fully
// deterministic: unit comes from the fixed violation-to-unit mapping, the
// SLA deadline from the severity table. Critical and High reports escalate
// and fan out to the audit committee; the provenance flag carries over from
// the classification since routing adds no inference of its own.
func Route(cls model.ClassificationResult, submittedAt time.Time) model.RoutingDecision {
	unit := model.UnitFor(cls.ViolationType)
	meta := model.SeverityInfo(cls.Severity)

	escalated := cls.Severity == model.SeverityCritical || cls.Severity == model.SeverityHigh

	notifications := []string{string(unit)}
	if escalated {
		notifications = appendUnique(notifications, string(model.UnitKomiteAudit))
		notifications = appendUnique(notifications, meta.Escalation)
	}
	if cls.Severity == model.SeverityCritical {
		notifications = appendUnique(notifications, "Ketua BPKH")
	}

	decision := model.RoutingDecision{
		Unit:          unit,
		Escalated:     escalated,
		Notifications: notifications,
		SLADeadline:   model.SLADeadline(cls.Severity, submittedAt),
		Source:        cls.Source,
	}
	if escalated {
		decision.EscalationTo = meta.Escalation
	}
	return decision
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
