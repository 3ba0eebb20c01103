package model

import "time"

// StageSource records which strategy produced a stage result, so callers can
// distinguish degraded-mode answers.
type StageSource string

const (
	SourceInference StageSource = "inference"
	SourceFallback  StageSource = "fallback"
)

// IntakeResult is the output of the intake stage.
type IntakeResult struct {
	ReportID          string      `json:"report_id"`
	CompletenessScore float64     `json:"completeness_score"`
	MissingFields     []string    `json:"missing_fields,omitempty"`
	Warnings          []string    `json:"warnings,omitempty"`
	Source            StageSource `json:"source"`
}

// Entities holds the free-text entities extracted during classification.
type Entities struct {
	Person   string `json:"person,omitempty"`
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

// ClassificationResult is produced exactly once per report and is immutable
// thereafter.
type ClassificationResult struct {
	ViolationType ViolationType `json:"violation_type"`
	ViolationCode string        `json:"violation_code"`
	LegalBasis    string        `json:"legal_basis"`
	Severity      Severity      `json:"severity"`
	Priority      string        `json:"priority"`
	Confidence    float64       `json:"confidence"`
	RiskScore     float64       `json:"risk_score"`
	Entities      Entities      `json:"entities"`
	KBReferences  []string      `json:"kb_references,omitempty"`
	Source        StageSource   `json:"source"`
}

// RoutingDecision assigns a report to a unit with an SLA deadline. Derived
// deterministically from the classification.
type RoutingDecision struct {
	Unit          Unit        `json:"unit"`
	Escalated     bool        `json:"escalated"`
	EscalationTo  string      `json:"escalation_to,omitempty"`
	Notifications []string    `json:"notifications"`
	SLADeadline   time.Time   `json:"sla_deadline"`
	Source        StageSource `json:"source"`
}

// InvestigationPlan outlines the follow-up work for the assigned unit.
type InvestigationPlan struct {
	Summary        string            `json:"summary"`
	Steps          []string          `json:"steps"`
	EvidenceNeeded []string          `json:"evidence_needed"`
	Witnesses      []string          `json:"witnesses"`
	Timeline       map[string]string `json:"timeline"`
	Resources      []string          `json:"resources"`
	KBReferences   []string          `json:"kb_references,omitempty"`
	Source         StageSource       `json:"source"`
}

// ComplianceBreakdown holds the four sub-scores, each on a 0-100 scale,
// combined at equal weight into the final score.
type ComplianceBreakdown struct {
	Completeness   float64 `json:"completeness"`
	Classification float64 `json:"classification"`
	Routing        float64 `json:"routing"`
	Documentation  float64 `json:"documentation"`
}

// ComplianceResult scores how well the processed report meets procedure.
type ComplianceResult struct {
	Score             float64             `json:"score"`
	Breakdown         ComplianceBreakdown `json:"breakdown"`
	RegulatoryStatus  string              `json:"regulatory_status"`
	RegulationsChecked []string           `json:"regulations_checked"`
	Risks             []string            `json:"risks,omitempty"`
	Recommendations   []string            `json:"recommendations"`
	Source            StageSource         `json:"source"`
}

// StageTiming records how long one stage took and which strategy served it.
type StageTiming struct {
	Name     string      `json:"name"`
	Duration int64       `json:"duration_ms"`
	Source   StageSource `json:"source"`
}

// PipelineResult aggregates all stage outputs for one submission.
type PipelineResult struct {
	ReportID       string               `json:"report_id"`
	Intake         IntakeResult         `json:"intake"`
	Classification ClassificationResult `json:"classification"`
	Routing        RoutingDecision      `json:"routing"`
	Investigation  InvestigationPlan    `json:"investigation"`
	Compliance     ComplianceResult     `json:"compliance"`
	Stages         []StageTiming        `json:"stages"`
	ProcessedAt    time.Time            `json:"processed_at"`
}
