package model

import "time"

// Severity orders reports for triage and drives the SLA deadline.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// AllSeverities returns the severity levels from most to least urgent.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// ValidSeverity reports whether s is a known severity level.
func ValidSeverity(s Severity) bool {
	for _, v := range AllSeverities() {
		if v == s {
			return true
		}
	}
	return false
}

// SeverityMeta carries the fixed triage parameters for one severity level.
type SeverityMeta struct {
	Priority   string        `json:"priority"`
	SLA        time.Duration `json:"sla"`
	Escalation string        `json:"escalation"`
}

var severityTable = map[Severity]SeverityMeta{
	SeverityCritical: {Priority: "P1", SLA: 4 * time.Hour, Escalation: "Ketua BPKH"},
	SeverityHigh:     {Priority: "P2", SLA: 24 * time.Hour, Escalation: "Director Level"},
	SeverityMedium:   {Priority: "P3", SLA: 48 * time.Hour, Escalation: "Manager Level"},
	SeverityLow:      {Priority: "P4", SLA: 72 * time.Hour, Escalation: "Team Lead"},
}

// SeverityInfo returns the triage parameters for s. Unknown severities get
// the Low profile so a malformed value never tightens a deadline.
func SeverityInfo(s Severity) SeverityMeta {
	if m, ok := severityTable[s]; ok {
		return m
	}
	return severityTable[SeverityLow]
}

// SLADeadline derives the response deadline for a severity from a submission
// time. Pure function of its inputs.
func SLADeadline(s Severity, submittedAt time.Time) time.Time {
	return submittedAt.Add(SeverityInfo(s).SLA)
}
