package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

func TestComplyFullMarks(t *testing.T) {
	sub := validSubmission()
	intake := model.IntakeResult{CompletenessScore: 100}
	cls := classificationFor(model.ViolationKorupsi, model.SeverityMedium)
	cls.Confidence = 1.0
	routing := Route(cls, timeFixed())

	res := Comply(sub, intake, cls, routing)
	assert.InDelta(t, 100.0, res.Score, 0.001)
	assert.Equal(t, "Compliant", res.RegulatoryStatus)
	assert.Empty(t, res.Risks)
	assert.Equal(t, []string{"Pertahankan standar kepatuhan saat ini"}, res.Recommendations)
}

func TestComplyEqualWeights(t *testing.T) {
	sub := validSubmission()
	sub.Evidence = "" // documentation sub-score 0
	intake := model.IntakeResult{CompletenessScore: 80}
	cls := classificationFor(model.ViolationKorupsi, model.SeverityMedium)
	cls.Confidence = 0.6
	routing := Route(cls, timeFixed())

	res := Comply(sub, intake, cls, routing)
	// 0.25*80 + 0.25*60 + 0.25*100 + 0.25*0 = 60
	assert.InDelta(t, 60.0, res.Score, 0.001)
	assert.InDelta(t, 80.0, res.Breakdown.Completeness, 0.001)
	assert.InDelta(t, 60.0, res.Breakdown.Classification, 0.001)
	assert.InDelta(t, 100.0, res.Breakdown.Routing, 0.001)
	assert.InDelta(t, 0.0, res.Breakdown.Documentation, 0.001)
	assert.Equal(t, "Non-Compliant", res.RegulatoryStatus)
	assert.Contains(t, res.Risks, "Skor kepatuhan rendah - perlu review")
}

func TestComplyRoutingMismatchScoresZero(t *testing.T) {
	sub := validSubmission()
	intake := model.IntakeResult{CompletenessScore: 100}
	cls := classificationFor(model.ViolationKorupsi, model.SeverityMedium)
	cls.Confidence = 1.0
	routing := Route(cls, timeFixed())
	routing.Unit = model.UnitSDM // inconsistent with Korupsi -> SPI

	res := Comply(sub, intake, cls, routing)
	assert.InDelta(t, 0.0, res.Breakdown.Routing, 0.001)
	assert.InDelta(t, 75.0, res.Score, 0.001)
	assert.Equal(t, "Compliant", res.RegulatoryStatus)
}

func TestComplyScoreAlwaysClamped(t *testing.T) {
	sub := validSubmission()
	cls := classificationFor(model.ViolationKorupsi, model.SeverityMedium)
	routing := Route(cls, timeFixed())

	for _, completeness := range []float64{-50, 0, 50, 100, 250} {
		for _, confidence := range []float64{-1, 0, 0.5, 1, 3} {
			cls.Confidence = confidence
			res := Comply(sub, model.IntakeResult{CompletenessScore: completeness}, cls, routing)
			assert.GreaterOrEqual(t, res.Score, 0.0)
			assert.LessOrEqual(t, res.Score, 100.0)
		}
	}
}

func TestComplyCriticalSeverityRisk(t *testing.T) {
	sub := validSubmission()
	intake := model.IntakeResult{CompletenessScore: 100}
	cls := classificationFor(model.ViolationKorupsi, model.SeverityCritical)
	cls.Confidence = 1.0
	routing := Route(cls, timeFixed())

	res := Comply(sub, intake, cls, routing)
	assert.Contains(t, res.Risks, "Severity kritis - potensi implikasi hukum")
	assert.Contains(t, res.Recommendations, "Eskalasi ke Komite Audit untuk review")
}

func TestComplyChecksLegalBasis(t *testing.T) {
	sub := validSubmission()
	cls := classificationFor(model.ViolationPenggelapan, model.SeverityHigh)
	routing := Route(cls, timeFixed())

	res := Comply(sub, model.IntakeResult{CompletenessScore: 100}, cls, routing)
	assert.Equal(t, []string{"KUHP Pasal 372", "PP 60/2008", "UU 34/2014"}, res.RegulationsChecked)
}
