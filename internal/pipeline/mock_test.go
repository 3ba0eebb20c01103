package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/pkg/anthropic"
)

// --- Anthropic Mock ---

type mockInferenceClient struct {
	mock.Mock
}

func (m *mockInferenceClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s}},
	}
}

// systemIs matches a request by its system prompt.
func systemIs(system string) interface{} {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.System == system
	})
}

func newTestPipeline(t *testing.T, ai anthropic.Client) *Pipeline {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	return New(ai, kb, config.AnthropicConfig{Model: "test-model", MaxTokens: 1024}, config.PipelineConfig{StageTimeoutSecs: 5, KBTopK: 3})
}
