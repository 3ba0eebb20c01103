package pipeline

import (
	"strings"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// complianceThreshold is the minimum score for Compliant regulatory status.
const complianceThreshold = 75

// baseRegulations are checked for every report in addition to the violation
// type's own legal basis.
var baseRegulations = []string{"PP 60/2008", "UU 34/2014"}

// Comply computes the final compliance score from four equally weighted
// sub-scores: field completeness, classification confidence, routing
// correctness against the fixed mapping, and documentation presence.
// Each sub-score is on a 0-100 scale; the result is clamped to [0,100].
// Deterministic given the prior stage outputs, so the provenance flag
// carries over from the classification.
func Comply(sub model.Submission, intake model.IntakeResult, cls model.ClassificationResult, routing model.RoutingDecision) model.ComplianceResult {
	breakdown := model.ComplianceBreakdown{
		Completeness:   clampScore(intake.CompletenessScore),
		Classification: clampScore(cls.Confidence * 100),
	}
	if routing.Unit == model.UnitFor(cls.ViolationType) {
		breakdown.Routing = 100
	}
	if strings.TrimSpace(sub.Evidence) != "" {
		breakdown.Documentation = 100
	}

	score := clampScore(0.25*breakdown.Completeness +
		0.25*breakdown.Classification +
		0.25*breakdown.Routing +
		0.25*breakdown.Documentation)

	status := "Non-Compliant"
	if score >= complianceThreshold {
		status = "Compliant"
	}

	var risks []string
	if score < complianceThreshold {
		risks = append(risks, "Skor kepatuhan rendah - perlu review")
	}
	if cls.Severity == model.SeverityCritical {
		risks = append(risks, "Severity kritis - potensi implikasi hukum")
	}

	return model.ComplianceResult{
		Score:              score,
		Breakdown:          breakdown,
		RegulatoryStatus:   status,
		RegulationsChecked: append([]string{cls.LegalBasis}, baseRegulations...),
		Risks:              risks,
		Recommendations:    recommendations(score, risks),
		Source:             cls.Source,
	}
}

func recommendations(score float64, risks []string) []string {
	var recs []string
	if score < 75 {
		recs = append(recs, "Lengkapi dokumentasi laporan")
	}
	if score < 90 {
		recs = append(recs, "Review kualitas evidence")
	}
	if len(risks) > 0 {
		recs = append(recs, "Eskalasi ke Komite Audit untuk review")
	}
	if len(recs) == 0 {
		recs = append(recs, "Pertahankan standar kepatuhan saat ini")
	}
	return recs
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
