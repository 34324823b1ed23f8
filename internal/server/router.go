package server

import (
	"github.com/gin-gonic/gin"

	"github.com/swiftcourse/swiftcourse/internal/logger"
)

// RouterConfig wires handlers into the engine. Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	ChatHandler     *ChatHandler
	ProgressHandler *ProgressHandler
	HealthHandler   *HealthHandler

	AllowedOrigins []string
	Log            *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Log))
	r.Use(CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// AI assistant
		if cfg.ChatHandler != nil {
			api.POST("/ai-chat", cfg.ChatHandler.AIChat)
		}

		// Course and progress
		if h := cfg.ProgressHandler; h != nil {
			api.GET("/course", h.Course)
			api.GET("/progress", h.Summary)
			api.DELETE("/progress", h.Reset)
			api.POST("/progress/complete", h.Complete)
			api.POST("/progress/incomplete", h.Incomplete)
			api.PUT("/progress/position", h.SetPosition)
			api.GET("/progress/next", h.Next)
			api.PUT("/progress/modules/:id/quiz", h.SaveQuiz)
			api.GET("/progress/events", h.Events)
		}
	}

	return r
}
