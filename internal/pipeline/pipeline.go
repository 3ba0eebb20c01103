package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/pkg/anthropic"
)

// ErrValidation indicates a submission with an empty required field. The
// pipeline does not start when validation fails.
var ErrValidation = eris.New("pipeline: required field empty")

// Pipeline runs the five triage stages over one submission. A nil inference
// client disables the remote variant entirely; every stage then serves its
// rule-based fallback. Safe for concurrent use: runs share no mutable state.
type Pipeline struct {
	ai    anthropic.Client
	kb    *knowledge.Base
	aiCfg config.AnthropicConfig
	cfg   config.PipelineConfig
	now   func() time.Time
}

// New builds a pipeline. ai may be nil for fully offline operation.
func New(ai anthropic.Client, kb *knowledge.Base, aiCfg config.AnthropicConfig, cfg config.PipelineConfig) *Pipeline {
	if cfg.StageTimeoutSecs <= 0 {
		cfg.StageTimeoutSecs = 30
	}
	if cfg.KBTopK <= 0 {
		cfg.KBTopK = 3
	}
	return &Pipeline{ai: ai, kb: kb, aiCfg: aiCfg, cfg: cfg, now: time.Now}
}

// Process runs Intake, Classification, Routing, Investigation and Compliance
// strictly in order, threading each stage's output forward. A failed or
// unparseable inference call degrades that stage to its fallback; it never
// aborts the run.
func (p *Pipeline) Process(ctx context.Context, sub model.Submission) (*model.PipelineResult, error) {
	if strings.TrimSpace(sub.What) == "" {
		return nil, eris.Wrap(ErrValidation, "pipeline: what")
	}

	submittedAt := p.now()
	log := zap.L().With(zap.String("component", "pipeline"))

	res := &model.PipelineResult{ProcessedAt: submittedAt}
	track := func(name string, src model.StageSource, start time.Time) {
		d := time.Since(start)
		res.Stages = append(res.Stages, model.StageTiming{
			Name:     name,
			Duration: d.Milliseconds(),
			Source:   src,
		})
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.String("source", string(src)),
			zap.Duration("took", d))
	}

	start := time.Now()
	res.Intake = p.intake(ctx, sub, submittedAt)
	res.ReportID = res.Intake.ReportID
	track("intake", res.Intake.Source, start)

	start = time.Now()
	res.Classification = p.classify(ctx, sub)
	track("classification", res.Classification.Source, start)

	start = time.Now()
	res.Routing = Route(res.Classification, submittedAt)
	track("routing", res.Routing.Source, start)

	start = time.Now()
	res.Investigation = p.investigate(ctx, sub, res.Classification)
	track("investigation", res.Investigation.Source, start)

	start = time.Now()
	res.Compliance = Comply(sub, res.Intake, res.Classification, res.Routing)
	track("compliance", res.Compliance.Source, start)

	log.Info("pipeline: report processed",
		zap.String("report_id", res.ReportID),
		zap.String("violation_code", res.Classification.ViolationCode),
		zap.String("severity", string(res.Classification.Severity)),
		zap.String("unit", string(res.Routing.Unit)))

	return res, nil
}

// callModel performs a single bounded inference call and returns the raw
// text. One attempt, no retry: the caller falls back on any error.
func (p *Pipeline) callModel(ctx context.Context, system, user string) (string, error) {
	if p.ai == nil {
		return "", eris.New("pipeline: inference client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.StageTimeoutSecs)*time.Second)
	defer cancel()

	temp := p.aiCfg.Temperature
	resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.aiCfg.Model,
		MaxTokens:   int64(p.aiCfg.MaxTokens),
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: inference call")
	}
	text := resp.Text()
	if text == "" {
		return "", eris.New("pipeline: empty inference response")
	}
	return text, nil
}

// cleanJSON strips markdown fences and surrounding prose from a model
// response so it can be unmarshalled.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
