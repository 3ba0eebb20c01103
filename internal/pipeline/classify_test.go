package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

func TestFallbackClassifyKorupsiOnly(t *testing.T) {
	// Text matching only the single keyword "korupsi" must land on V001
	// with its Critical default severity and a 4-hour SLA.
	sub := model.Submission{What: "korupsi"}

	cls := FallbackClassify(sub)
	assert.Equal(t, model.ViolationKorupsi, cls.ViolationType)
	assert.Equal(t, "V001", cls.ViolationCode)
	assert.Equal(t, model.SeverityCritical, cls.Severity)
	assert.Equal(t, "P1", cls.Priority)
	assert.Equal(t, model.SourceFallback, cls.Source)

	submitted := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	deadline := model.SLADeadline(cls.Severity, submitted)
	assert.Equal(t, submitted.Add(4*time.Hour), deadline)
}

func TestFallbackClassifyStrictMaxWins(t *testing.T) {
	// Two keywords for V003 against one for V004.
	sub := model.Submission{What: "penggelapan dana dengan mark up harga", How: "manipulasi data pembelian"}

	cls := FallbackClassify(sub)
	assert.Equal(t, model.ViolationPenggelapan, cls.ViolationType)
	assert.Equal(t, "V003", cls.ViolationCode)
}

func TestFallbackClassifyTieLowestCodeWins(t *testing.T) {
	// One keyword each for V003 (penggelapan) and V004 (penipuan): the
	// lower code must win the tie.
	sub := model.Submission{What: "dugaan penggelapan dan penipuan oleh vendor"}

	cls := FallbackClassify(sub)
	assert.Equal(t, model.ViolationPenggelapan, cls.ViolationType)
	assert.Equal(t, "V003", cls.ViolationCode)
}

func TestFallbackClassifyNoMatchDefaults(t *testing.T) {
	sub := model.Submission{What: "ada kejadian aneh di kantor"}

	cls := FallbackClassify(sub)
	assert.Equal(t, model.ViolationTindakanCurang, cls.ViolationType)
	assert.Equal(t, "V009", cls.ViolationCode)
	assert.Equal(t, model.SeverityLow, cls.Severity)
	assert.InDelta(t, 0.5, cls.Confidence, 0.001)
	assert.InDelta(t, 30.0, cls.RiskScore, 0.001)
}

func TestFallbackClassifyRiskScore(t *testing.T) {
	// One match: 1*20 + 30 = 50.
	cls := FallbackClassify(model.Submission{What: "korupsi"})
	assert.InDelta(t, 50.0, cls.RiskScore, 0.001)

	// Risk score saturates at 100.
	cls = FallbackClassify(model.Submission{
		What: "korupsi suap gratifikasi ilegal penyalahgunaan wewenang korupsi",
	})
	assert.InDelta(t, 100.0, cls.RiskScore, 0.001)
}

func TestFallbackClassifyIdempotent(t *testing.T) {
	sub := model.Submission{
		What:  "Dugaan gratifikasi berupa hadiah tidak sah",
		Who:   "Manajer pengadaan",
		Where: "Jakarta",
	}

	first := FallbackClassify(sub)
	second := FallbackClassify(sub)
	assert.Equal(t, first, second)
}

func TestFallbackClassifyCaseInsensitive(t *testing.T) {
	cls := FallbackClassify(model.Submission{What: "KORUPSI Dana Haji"})
	assert.Equal(t, model.ViolationKorupsi, cls.ViolationType)
}

func TestExtractEntities(t *testing.T) {
	sub := model.Submission{
		What:  "Penyelewengan dana sebesar Rp 1.500.000.000 untuk proyek fiktif",
		Who:   " Budi Santoso ",
		When:  "12 Januari 2026",
		Where: "Kantor cabang Surabaya",
	}

	e := extractEntities(sub)
	assert.Equal(t, "Budi Santoso", e.Person)
	assert.Equal(t, "Kantor cabang Surabaya", e.Location)
	assert.Equal(t, "12 Januari 2026", e.Date)
	assert.Equal(t, "Rp 1.500.000.000", e.Amount)
}

func TestExtractEntitiesAmountVariants(t *testing.T) {
	e := extractEntities(model.Submission{What: "setoran Rp. 2,5 miliar ke rekening pribadi"})
	assert.Equal(t, "Rp. 2,5 miliar", e.Amount)

	e = extractEntities(model.Submission{What: "tidak ada nominal yang disebut"})
	assert.Empty(t, e.Amount)
}

func TestClassifyAttachesKBReferences(t *testing.T) {
	p := newTestPipeline(t, nil)

	cls := p.classify(context.Background(), model.Submission{What: "dugaan korupsi dana haji"})
	assert.NotEmpty(t, cls.KBReferences)
}
