// Package chat answers learner questions with an LLM, grounded in the
// course knowledge base.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kb "github.com/swiftcourse/swiftcourse/internal/knowledge"
	"github.com/swiftcourse/swiftcourse/internal/llm"
	"github.com/swiftcourse/swiftcourse/internal/logger"
)

// Roles accepted in Turn.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Messages shown to the learner when a reply cannot be produced.
const (
	NotConfiguredMessage = "AI service is not configured. Please add GEMINI_API_KEY to environment variables."
	FailedMessage        = "Failed to get response from AI. Please try again."
)

// ErrNotConfigured is returned when no provider credential is configured.
var ErrNotConfigured = errors.New("ai service is not configured")

// Knowledge supplies course material relevant to a question.
type Knowledge interface {
	Relevant(query string) string
}

// Request is one learner question with the preceding transcript.
type Request struct {
	Message string `json:"message"`
	History []Turn `json:"history"`
}

// Options tune generation.
type Options struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Purpose     string
}

// Service builds the grounded prompt and calls the provider. The provider
// can be swapped at runtime when configuration changes.
type Service struct {
	mu       sync.RWMutex
	provider llm.Provider

	knowledge Knowledge
	opts      Options
	log       *logger.Logger
}

// NewService creates a Service. provider may be nil, in which case every
// Reply fails with ErrNotConfigured until SetProvider is called.
func NewService(provider llm.Provider, knowledge Knowledge, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Purpose == "" {
		opts.Purpose = llm.PurposeChat
	}
	return &Service{
		provider:  provider,
		knowledge: knowledge,
		opts:      opts,
		log:       log.With("component", "ChatService"),
	}
}

// SetProvider replaces the provider. nil disables the service.
func (s *Service) SetProvider(p llm.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// Configured reports whether a provider is set.
func (s *Service) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}

// Reply answers req.Message. It returns ErrNotConfigured when no provider
// is set and a wrapped provider error when generation fails.
func (s *Service) Reply(ctx context.Context, req Request) (string, error) {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()

	if provider == nil {
		s.log.Error("Chat requested without a configured provider")
		return "", ErrNotConfigured
	}

	knowledge := kb.NoContent
	if s.knowledge != nil {
		knowledge = s.knowledge.Relevant(req.Message)
	}

	prompt := BuildPrompt(knowledge, req.History, req.Message)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, s.opts.Purpose)

	llmReq := llm.UserPrompt(prompt)
	llmReq.MaxTokens = s.opts.MaxTokens
	llmReq.Temperature = s.opts.Temperature

	resp, err := provider.Generate(ctx, llmReq)
	if err != nil {
		s.log.Error("Chat generation failed", "model", provider.ModelID(), "error", err)
		return "", fmt.Errorf("generate reply: %w", err)
	}

	s.log.Debug("Chat reply generated", "model", resp.Model, "history", len(req.History))
	return resp.Text, nil
}
