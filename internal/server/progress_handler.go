package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swiftcourse/swiftcourse/internal/logger"
	"github.com/swiftcourse/swiftcourse/internal/progress"
)

// ProgressHandler exposes the progress manager over HTTP.
type ProgressHandler struct {
	Progress  *progress.Manager
	Log       *logger.Logger
	Heartbeat time.Duration
}

// NewProgressHandler creates a handler. heartbeat is the keep-alive
// interval of the event stream; zero disables keep-alives.
func NewProgressHandler(m *progress.Manager, log *logger.Logger, heartbeat time.Duration) *ProgressHandler {
	return &ProgressHandler{Progress: m, Log: log, Heartbeat: heartbeat}
}

// persistContext detaches storage writes from the request so a client
// disconnect cannot leave memory and storage out of step.
func persistContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

type sectionRequest struct {
	ModuleID  string `json:"moduleId" binding:"required"`
	SectionID string `json:"sectionId" binding:"required"`
}

type markResponse struct {
	Updated         bool `json:"updated"`
	ModuleProgress  int  `json:"moduleProgress"`
	OverallProgress int  `json:"overallProgress"`
}

type nextResponse struct {
	ModuleID  string `json:"moduleId,omitempty"`
	SectionID string `json:"sectionId,omitempty"`
	Done      bool   `json:"done"`
}

// Course answers GET /api/course.
func (h *ProgressHandler) Course(c *gin.Context) {
	RespondOK(c, h.Progress.CourseStructure())
}

// Summary answers GET /api/progress.
func (h *ProgressHandler) Summary(c *gin.Context) {
	RespondOK(c, progress.Summarize(h.Progress))
}

// Complete answers POST /api/progress/complete.
func (h *ProgressHandler) Complete(c *gin.Context) {
	h.mark(c, h.Progress.MarkSectionComplete)
}

// Incomplete answers POST /api/progress/incomplete.
func (h *ProgressHandler) Incomplete(c *gin.Context) {
	h.mark(c, h.Progress.MarkSectionIncomplete)
}

func (h *ProgressHandler) mark(c *gin.Context, fn func(ctx context.Context, moduleID, sectionID string) bool) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "moduleId and sectionId are required", err)
		return
	}

	updated := fn(persistContext(c), req.ModuleID, req.SectionID)
	RespondOK(c, markResponse{
		Updated:         updated,
		ModuleProgress:  h.Progress.ModuleProgress(req.ModuleID),
		OverallProgress: h.Progress.OverallProgress(),
	})
}

// SetPosition answers PUT /api/progress/position.
func (h *ProgressHandler) SetPosition(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "moduleId and sectionId are required", err)
		return
	}

	h.Progress.SetCurrentPosition(persistContext(c), req.ModuleID, req.SectionID)
	RespondOK(c, h.Progress.Position())
}

// Next answers GET /api/progress/next.
func (h *ProgressHandler) Next(c *gin.Context) {
	loc, ok := h.Progress.NextSection()
	if !ok {
		RespondOK(c, nextResponse{Done: true})
		return
	}
	RespondOK(c, nextResponse{ModuleID: loc.ModuleID, SectionID: loc.SectionID})
}

// SaveQuiz answers PUT /api/progress/modules/:id/quiz.
func (h *ProgressHandler) SaveQuiz(c *gin.Context) {
	moduleID := c.Param("id")
	if h.Progress.CourseStructure().Module(moduleID) == nil {
		RespondError(c, http.StatusNotFound, fmt.Sprintf("unknown module %q", moduleID), nil)
		return
	}

	var results map[string]any
	if err := c.ShouldBindJSON(&results); err != nil {
		RespondError(c, http.StatusBadRequest, "quiz results must be a JSON object", err)
		return
	}

	h.Progress.SaveQuizResults(persistContext(c), moduleID, results)
	RespondOK(c, gin.H{"moduleId": moduleID, "results": h.Progress.QuizResults(moduleID)})
}

// Reset answers DELETE /api/progress.
func (h *ProgressHandler) Reset(c *gin.Context) {
	h.Progress.ResetProgress(persistContext(c))
	c.Status(http.StatusNoContent)
}

// Events answers GET /api/progress/events with a server-sent event stream.
// The current summary is sent on connect and again after every change.
func (h *ProgressHandler) Events(c *gin.Context) {
	hook := progress.NewHook(h.Progress)
	defer hook.Close()

	clientID := uuid.New()
	log := h.Log.With("sse_client_id", clientID.String())
	log.Info("Progress stream open")
	defer log.Info("Progress stream closed")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var heartbeat <-chan time.Time
	if h.Heartbeat > 0 {
		ticker := time.NewTicker(h.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	c.SSEvent("progress", progress.Summarize(h.Progress))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-hook.Changes():
			c.SSEvent("progress", progress.Summarize(h.Progress))
			return true
		case <-heartbeat:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
