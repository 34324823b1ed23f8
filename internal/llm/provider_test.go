package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "first answer", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: "second answer"},
	)

	resp1, err := mock.Generate(context.Background(), UserPrompt("first"))
	require.NoError(t, err)
	assert.Equal(t, "first answer", resp1.Text)
	assert.Equal(t, 10, resp1.Usage.InputTokens)
	assert.Equal(t, "end", resp1.StopReason)

	resp2, err := mock.Generate(context.Background(), UserPrompt("second"))
	require.NoError(t, err)
	assert.Equal(t, "second answer", resp2.Text)
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})

	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail)
}

func TestMockProvider_Fallback(t *testing.T) {
	mock := &MockProvider{Fallback: "canned"}

	for range 2 {
		resp, err := mock.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "canned", resp.Text)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "ok"})

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	assert.Equal(t, 1, mock.CallCount())
	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "sys", last.System)
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: 0}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)
}

func TestMockProvider_HonorsCancellation(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "never"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserPrompt(t *testing.T) {
	req := UserPrompt("hi")
	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, "hi", req.Messages[0].Content)
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))

	ctx = WithPurpose(ctx, PurposeChat)
	assert.Equal(t, "ai-chat", PurposeFrom(ctx))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.ModelID())
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "k"}}, false},
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_MissingKeyNamesEnvVar(t *testing.T) {
	err := Config{Provider: "gemini"}.Validate()

	var missing *ErrMissingAPIKey
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "GEMINI_API_KEY", missing.EnvVar)
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "a")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)

	t.Setenv("GEMINI_API_KEY", "g")
	cfg, ok = DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "g", cfg.Gemini.APIKey)
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	resp, err := p.Generate(context.Background(), UserPrompt("hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
}

func TestNewProvider_RejectsMissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: ProviderGemini}, nil, nil)

	var missing *ErrMissingAPIKey
	assert.ErrorAs(t, err, &missing)
}

func TestNewOpenRouterProvider(t *testing.T) {
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey: "sk-or-test",
		Model:  "google/gemini-2.5-flash-lite",
	})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.5-flash-lite", p.ModelID())

	_, err = NewOpenRouterProvider(OpenRouterConfig{Model: "x"})
	assert.Error(t, err)
}

func TestModelMapping(t *testing.T) {
	tests := []struct {
		models   map[string]string
		input    string
		expected string
	}{
		{geminiModels, "gemini-flash-lite", "gemini-2.5-flash-lite"},
		{geminiModels, "gemini-2.5-flash-lite", "gemini-2.5-flash-lite"},
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{anthropicModels, "claude-sonnet-4-5", "claude-sonnet-4-5"},
		{openaiModels, "gpt-mini", "gpt-5-mini"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, resolveModel(tt.input, tt.models), tt.input)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gemini-2.5-flash-lite")
	require.NotNil(t, c)
	assert.InDelta(t, 0.14, c.Cost(1_000_000, 100_000), 1e-9)

	assert.NotNil(t, LookupCost("google/gemini-2.5-flash-lite"))
	assert.Nil(t, LookupCost("mock"))
}
