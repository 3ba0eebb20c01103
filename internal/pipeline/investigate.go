package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

const investigateSystemPrompt = `You plan internal investigations for BPKH, the Indonesian hajj financial management agency. Given a classified whistleblowing report and investigation guidelines, produce a concrete plan. Respond with a valid JSON object:
{"summary": "", "steps": [""], "evidence_needed": [""], "witnesses": [""], "timeline": {"preliminary": "", "investigation": "", "reporting": ""}, "resources": [""]}`

const investigateUserPrompt = `Jenis pelanggaran: %s
Severity: %s
Kronologi: %s

Pedoman investigasi:
%s`

const investigateKBQuery = "investigasi bukti pemeriksaan"
const investigateKBCategory = "Investigation"

// FallbackPlan builds the standard investigation plan for a violation type.
// The investigation window scales with the SLA: one day per 24 SLA hours,
// at least one day.
func FallbackPlan(cls model.ClassificationResult) model.InvestigationPlan {
	slaHours := int(model.SeverityInfo(cls.Severity).SLA.Hours())
	days := slaHours / 24
	if days < 1 {
		days = 1
	}

	return model.InvestigationPlan{
		Summary: fmt.Sprintf("Standard investigation untuk %s", cls.ViolationType),
		Steps: []string{
			"Review awal laporan dan bukti pendukung",
			"Pengumpulan dokumen dan data transaksi terkait",
			"Wawancara pelapor dan saksi",
			"Analisis temuan dan penyusunan kronologi",
			"Penyusunan laporan hasil investigasi",
		},
		EvidenceNeeded: []string{"Dokumen terkait", "Email korespondensi", "Bukti finansial"},
		Witnesses:      []string{"Pelapor", "Saksi mata", "Atasan terlapor"},
		Timeline: map[string]string{
			"preliminary":   "1-2 hari",
			"investigation": fmt.Sprintf("%d hari", days),
			"reporting":     "1-2 hari",
		},
		Resources: []string{"Investigator", "Legal advisor", "IT forensic"},
		Source:    model.SourceFallback,
	}
}

// investigate drafts the follow-up plan, preferring inference and falling
// back to the standard plan template.
func (p *Pipeline) investigate(ctx context.Context, sub model.Submission, cls model.ClassificationResult) model.InvestigationPlan {
	kbResults := p.kb.Search(investigateKBQuery, investigateKBCategory, p.cfg.KBTopK)

	plan, err := p.investigateInference(ctx, sub, cls, kbResults)
	if err != nil {
		zap.L().Debug("investigate: falling back to standard plan", zap.Error(err))
		plan = FallbackPlan(cls)
	}
	plan.KBReferences = kbIDs(kbResults)
	return plan
}

func (p *Pipeline) investigateInference(ctx context.Context, sub model.Submission, cls model.ClassificationResult, kbResults []knowledge.Result) (model.InvestigationPlan, error) {
	user := fmt.Sprintf(investigateUserPrompt, cls.ViolationType, cls.Severity, sub.What, kbContext(kbResults))
	text, err := p.callModel(ctx, investigateSystemPrompt, user)
	if err != nil {
		return model.InvestigationPlan{}, err
	}

	var parsed struct {
		Summary        string            `json:"summary"`
		Steps          []string          `json:"steps"`
		EvidenceNeeded []string          `json:"evidence_needed"`
		Witnesses      []string          `json:"witnesses"`
		Timeline       map[string]string `json:"timeline"`
		Resources      []string          `json:"resources"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &parsed); err != nil {
		return model.InvestigationPlan{}, eris.Wrap(err, "investigate: parse response")
	}
	if parsed.Summary == "" || len(parsed.Steps) == 0 {
		return model.InvestigationPlan{}, eris.New("investigate: incomplete plan in response")
	}

	return model.InvestigationPlan{
		Summary:        parsed.Summary,
		Steps:          parsed.Steps,
		EvidenceNeeded: parsed.EvidenceNeeded,
		Witnesses:      parsed.Witnesses,
		Timeline:       parsed.Timeline,
		Resources:      parsed.Resources,
		Source:         model.SourceInference,
	}, nil
}
