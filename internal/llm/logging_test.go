package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftcourse/swiftcourse/internal/store"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(MockResponse{
		Text:  "An answer.",
		Usage: Usage{InputTokens: 120, OutputTokens: 8, TotalTokens: 128},
	})
	p := WithLogging(mock, "gemini", repo, nil)

	ctx := WithPurpose(context.Background(), PurposeChat)
	_, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "question"}}})
	require.NoError(t, err)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "gemini", e.Provider)
	assert.Equal(t, "mock", e.Model)
	assert.Equal(t, "ai-chat", e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, 120, e.InputTokens)
	assert.Equal(t, 8, e.OutputTokens)
	assert.Equal(t, "[system]\nsys\n\n[user]\nquestion", e.RequestBody)
	assert.Equal(t, "An answer.", e.ResponseBody)
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("boom")}})
	p := WithLogging(mock, "gemini", repo, nil)

	_, err := p.Generate(context.Background(), UserPrompt("q"))
	require.Error(t, err)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "boom")
	assert.Equal(t, "unknown", events[0].Purpose)
}

func TestLogging_WithoutRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Text: "ok"}), "mock", nil, nil)

	resp, err := p.Generate(context.Background(), UserPrompt("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "mock", p.ModelID())
}
