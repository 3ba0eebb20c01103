package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

const classifySystemPrompt = `You classify whistleblowing reports for BPKH, the Indonesian hajj financial management agency. Pick exactly one violation type from the provided list and assess its severity. Respond with a valid JSON object:
{"violation_type": "<type>", "severity": "Critical|High|Medium|Low", "confidence": <0.0-1.0>, "risk_score": <0-100>, "entities": {"person": "", "location": "", "date": "", "amount": ""}}`

const classifyUserPrompt = `Laporan:
%s

Referensi regulasi:
%s

Jenis pelanggaran yang tersedia:
%s`

// fallbackConfidence is reported for rule-based classifications, which carry
// no model probability.
const fallbackConfidence = 0.5

// amountPattern matches Indonesian rupiah amounts like "Rp 1.500.000" or
// "Rp. 2,5 miliar".
var amountPattern = regexp.MustCompile(`(?i)Rp\.?\s*\d+(?:[.,]\d+)*\s*(?:juta|miliar|triliun)?`)

// kbCategory names the corpus category consulted for classification.
const kbCategory = "Jenis Pelanggaran"

// FallbackClassify matches report text against the fixed keyword tables.
// The violation type with the strict-maximum match count wins; ties keep the
// lowest code because the table is iterated in code order and only a
// strictly greater count replaces the candidate. No matches at all yield
// Tindakan Curang (V009) as the catch-all. Deterministic: same text, same
// result.
func FallbackClassify(sub model.Submission) model.ClassificationResult {
	text := sub.CombinedText()

	best := model.ViolationTindakanCurang
	bestCount := 0
	for _, vt := range model.AllViolationTypes() {
		meta, _ := model.ViolationInfo(vt)
		count := 0
		for _, kw := range meta.Keywords {
			if strings.Contains(text, kw) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = vt
		}
	}

	meta, _ := model.ViolationInfo(best)
	riskScore := float64(bestCount*20 + 30)
	if riskScore > 100 {
		riskScore = 100
	}

	return model.ClassificationResult{
		ViolationType: best,
		ViolationCode: meta.Code,
		LegalBasis:    meta.LegalBasis,
		Severity:      meta.DefaultSeverity,
		Priority:      model.SeverityInfo(meta.DefaultSeverity).Priority,
		Confidence:    fallbackConfidence,
		RiskScore:     riskScore,
		Entities:      extractEntities(sub),
		Source:        model.SourceFallback,
	}
}

// extractEntities pulls the named entities straight from the structured
// fields; only the monetary amount needs pattern matching over free text.
func extractEntities(sub model.Submission) model.Entities {
	e := model.Entities{
		Person:   strings.TrimSpace(sub.Who),
		Location: strings.TrimSpace(sub.Where),
		Date:     strings.TrimSpace(sub.When),
	}
	if m := amountPattern.FindString(sub.What + " " + sub.How); m != "" {
		e.Amount = strings.TrimSpace(m)
	}
	return e
}

func kbContext(results []knowledge.Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %s", r.ID, r.Content))
	}
	return strings.Join(lines, "\n\n")
}

func kbIDs(results []knowledge.Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}

// classify determines violation type and severity, preferring inference and
// degrading to keyword matching on any failure.
func (p *Pipeline) classify(ctx context.Context, sub model.Submission) model.ClassificationResult {
	kbResults := p.kb.Search(sub.CombinedText(), kbCategory, p.cfg.KBTopK)

	result, err := p.classifyInference(ctx, sub, kbResults)
	if err != nil {
		zap.L().Debug("classify: falling back to keyword matching", zap.Error(err))
		result = FallbackClassify(sub)
	}
	result.KBReferences = kbIDs(kbResults)
	return result
}

func (p *Pipeline) classifyInference(ctx context.Context, sub model.Submission, kbResults []knowledge.Result) (model.ClassificationResult, error) {
	types := model.AllViolationTypes()
	names := make([]string, len(types))
	for i, vt := range types {
		names[i] = string(vt)
	}

	user := fmt.Sprintf(classifyUserPrompt, sub.CombinedText(), kbContext(kbResults), strings.Join(names, "\n"))
	text, err := p.callModel(ctx, classifySystemPrompt, user)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	var parsed struct {
		ViolationType string  `json:"violation_type"`
		Severity      string  `json:"severity"`
		Confidence    float64 `json:"confidence"`
		RiskScore     float64 `json:"risk_score"`
		Entities      struct {
			Person   string `json:"person"`
			Location string `json:"location"`
			Date     string `json:"date"`
			Amount   string `json:"amount"`
		} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &parsed); err != nil {
		return model.ClassificationResult{}, eris.Wrap(err, "classify: parse response")
	}

	vt := model.ViolationType(parsed.ViolationType)
	meta, ok := model.ViolationInfo(vt)
	if !ok {
		return model.ClassificationResult{}, eris.Errorf("classify: unknown violation type %q", parsed.ViolationType)
	}
	severity := model.Severity(parsed.Severity)
	if !model.ValidSeverity(severity) {
		severity = meta.DefaultSeverity
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = fallbackConfidence
	}
	riskScore := parsed.RiskScore
	if riskScore < 0 {
		riskScore = 0
	}
	if riskScore > 100 {
		riskScore = 100
	}

	entities := extractEntities(sub)
	if parsed.Entities.Person != "" {
		entities.Person = parsed.Entities.Person
	}
	if parsed.Entities.Location != "" {
		entities.Location = parsed.Entities.Location
	}
	if parsed.Entities.Date != "" {
		entities.Date = parsed.Entities.Date
	}
	if parsed.Entities.Amount != "" {
		entities.Amount = parsed.Entities.Amount
	}

	return model.ClassificationResult{
		ViolationType: vt,
		ViolationCode: meta.Code,
		LegalBasis:    meta.LegalBasis,
		Severity:      severity,
		Priority:      model.SeverityInfo(severity).Priority,
		Confidence:    confidence,
		RiskScore:     riskScore,
		Entities:      entities,
		Source:        model.SourceInference,
	}, nil
}
