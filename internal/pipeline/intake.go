package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

const intakeSystemPrompt = `You review incoming whistleblowing reports for an Indonesian hajj fund agency. Flag content quality issues: vague narratives, contradictions, or text that reads like a test submission. Respond with a valid JSON object: {"warnings": ["<issue>", ...]}. Return an empty list when the report looks genuine.`

const intakeUserPrompt = `Apa yang terjadi: %s
Siapa yang terlibat: %s
Kapan kejadian: %s
Di mana kejadian: %s
Bagaimana kejadian: %s`

// fieldLabels names the five narrative fields in canonical order, matching
// Submission.Fields.
var fieldLabels = [5]string{"What", "Who", "When", "Where", "How"}

// Each empty narrative field costs 20 points of completeness.
const pointsPerField = 20

var (
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*test`),
		regexp.MustCompile(`(?i)^\s*xxx+`),
		regexp.MustCompile(`(?i)^\s*aaa+`),
		regexp.MustCompile(`^\s*123`),
		regexp.MustCompile(`(?i)^\s*asdf`),
		regexp.MustCompile(`(?i)^\s*qwerty`),
		regexp.MustCompile(`(?i)lorem ipsum`),
	}

	phonePattern = regexp.MustCompile(`\b08\d{8,11}\b`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	nikPattern   = regexp.MustCompile(`\b\d{16}\b`)
)

// NewReportID builds the public report identifier from a timestamp. The
// format WBS-YYYY-HHMMSS is an external contract; same-second collisions are
// resolved at persistence time with a numeric suffix.
func NewReportID(now time.Time) string {
	return fmt.Sprintf("WBS-%d-%02d%02d%02d", now.Year(), now.Hour(), now.Minute(), now.Second())
}

// Validate scores the 4W+1H fields and collects deterministic warnings.
// Pure function of the submission.
func Validate(sub model.Submission) (score float64, missing, warnings []string) {
	fields := sub.Fields()
	for i, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, fieldLabels[i])
			continue
		}
		score += pointsPerField
	}

	combined := sub.CombinedText()
	for _, re := range suspiciousPatterns {
		if re.MatchString(sub.What) || re.MatchString(sub.How) {
			warnings = append(warnings, "Narasi terindikasi sebagai laporan uji coba")
			break
		}
	}
	if sub.Contact == "" {
		if phonePattern.MatchString(combined) || emailPattern.MatchString(combined) {
			warnings = append(warnings, "Laporan anonim memuat kontak pribadi di dalam narasi")
		}
		if nikPattern.MatchString(combined) {
			warnings = append(warnings, "Laporan anonim memuat NIK di dalam narasi")
		}
	}

	return score, missing, warnings
}

// intake validates the submission and assigns the report identifier. The
// deterministic score always stands; inference only contributes extra
// quality warnings when available.
func (p *Pipeline) intake(ctx context.Context, sub model.Submission, submittedAt time.Time) model.IntakeResult {
	score, missing, warnings := Validate(sub)

	result := model.IntakeResult{
		ReportID:          NewReportID(submittedAt),
		CompletenessScore: score,
		MissingFields:     missing,
		Warnings:          warnings,
		Source:            model.SourceFallback,
	}

	fields := sub.Fields()
	user := fmt.Sprintf(intakeUserPrompt, fields[0], fields[1], fields[2], fields[3], fields[4])
	text, err := p.callModel(ctx, intakeSystemPrompt, user)
	if err != nil {
		zap.L().Debug("intake: inference unavailable, rule-based only", zap.Error(err))
		return result
	}

	var parsed struct {
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &parsed); err != nil {
		zap.L().Debug("intake: unparseable inference response", zap.Error(err))
		return result
	}

	result.Warnings = append(result.Warnings, parsed.Warnings...)
	result.Source = model.SourceInference
	return result
}
