package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/logger"
)

// maxChatBody bounds the request body of POST /api/ai-chat.
const maxChatBody = 1 << 20

// chatRequestSchema describes the POST /api/ai-chat body. history may be
// omitted; an omitted history is treated as empty.
const chatRequestSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string"},
		"history": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["role", "content"],
				"properties": {
					"role": {"enum": ["user", "assistant"]},
					"content": {"type": "string"}
				}
			}
		}
	}
}`

// ChatHandler serves the AI assistant endpoint.
type ChatHandler struct {
	Chat   *chat.Service
	Log    *logger.Logger
	schema *jsonschema.Schema
}

// NewChatHandler compiles the request schema once.
func NewChatHandler(svc *chat.Service, log *logger.Logger) (*ChatHandler, error) {
	var def any
	if err := json.Unmarshal([]byte(chatRequestSchema), &def); err != nil {
		return nil, fmt.Errorf("parse chat request schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const url = "schema://ai-chat-request.json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile chat request schema: %w", err)
	}

	return &ChatHandler{Chat: svc, Log: log, schema: compiled}, nil
}

type chatResponse struct {
	Response string `json:"response"`
}

// AIChat answers POST /api/ai-chat. Every failure, including malformed
// input, is a 500 with {error, details}.
func (h *ChatHandler) AIChat(c *gin.Context) {
	req, err := h.decode(c.Request.Body)
	if err != nil {
		h.Log.Warn("Rejected chat request", "error", err)
		RespondError(c, http.StatusInternalServerError, chat.FailedMessage, err)
		return
	}

	text, err := h.Chat.Reply(c.Request.Context(), req)
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		RespondError(c, http.StatusInternalServerError, chat.NotConfiguredMessage, nil)
		return
	case err != nil:
		h.Log.Error("AI chat failed", "error", err)
		RespondError(c, http.StatusInternalServerError, chat.FailedMessage, err)
		return
	}

	RespondOK(c, chatResponse{Response: text})
}

// decode reads, validates and converts the request body.
func (h *ChatHandler) decode(body io.Reader) (chat.Request, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxChatBody))
	if err != nil {
		return chat.Request{}, fmt.Errorf("read body: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return chat.Request{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := h.schema.Validate(parsed); err != nil {
		return chat.Request{}, fmt.Errorf("invalid request: %w", err)
	}

	var req chat.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return chat.Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
