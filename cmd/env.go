package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/config"
	"github.com/swiftcourse/swiftcourse/internal/course"
	"github.com/swiftcourse/swiftcourse/internal/knowledge"
	"github.com/swiftcourse/swiftcourse/internal/llm"
	"github.com/swiftcourse/swiftcourse/internal/logger"
	"github.com/swiftcourse/swiftcourse/internal/progress"
	"github.com/swiftcourse/swiftcourse/internal/store"
)

// env holds the dependencies shared by every command.
type env struct {
	config *config.Manager
	log    *logger.Logger
	db     *store.Store
	kv     store.KV
	close  []func() error
}

// setupEnv loads configuration, builds the logger and opens storage. A
// quiet env logs nowhere, for the TUI.
func setupEnv(cmd *cobra.Command, quiet bool) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	log := logger.NewNop()
	if !quiet {
		if log, err = logger.New(cfg.Log.Mode); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	e := &env{config: cm, log: log}

	dbPath, err := resolveDBPath(cmd, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.db = db
	e.close = append(e.close, db.Close)

	e.kv = e.openKV(cmd.Context(), cfg.Storage)
	return e, nil
}

// openKV picks the progress backend. An unreachable redis leaves progress
// without persistent storage rather than failing the command.
func (e *env) openKV(ctx context.Context, sc config.StorageConfig) store.KV {
	switch sc.Backend {
	case config.BackendMemory:
		return store.NewMemoryKV()
	case config.BackendRedis:
		kv, err := store.OpenRedis(ctx, store.RedisOptions{
			Addr:     sc.Redis.Addr,
			Password: config.ResolveEnvVars(sc.Redis.Password),
			DB:       sc.Redis.DB,
			Prefix:   sc.Redis.Prefix,
		})
		if err != nil {
			e.log.Warn("Progress storage unavailable, changes will not persist", "backend", sc.Backend, "error", err)
			return nil
		}
		e.close = append(e.close, kv.Close)
		return kv
	default:
		return e.db.KV()
	}
}

// Close releases storage in reverse order of opening.
func (e *env) Close() {
	for i := len(e.close) - 1; i >= 0; i-- {
		if err := e.close[i](); err != nil {
			e.log.Warn("Close failed", "error", err)
		}
	}
	e.log.Sync()
}

func (e *env) progressManager(ctx context.Context) *progress.Manager {
	return progress.NewManager(ctx, course.MustDefault(), progress.NewStore(e.kv, e.log), e.log)
}

// newProvider builds the configured provider, or nil when it cannot be
// configured; the reason is logged.
func (e *env) newProvider(ctx context.Context, cfg *config.Config) llm.Provider {
	provider, err := llm.NewProvider(ctx, cfg.ToLLMConfig(), e.db.EventRepo(), e.log)
	if err != nil {
		e.log.Warn("AI assistant not configured", "provider", cfg.LLM.Provider, "error", err)
		return nil
	}
	return provider
}

// chatService builds the assistant. When watch is set, provider settings
// follow config file changes.
func (e *env) chatService(ctx context.Context, purpose string, watch bool) (*chat.Service, error) {
	kb, err := knowledge.Default(e.log)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	cfg := e.config.Get()
	svc := chat.NewService(e.newProvider(ctx, cfg), kb, chat.Options{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Purpose:     purpose,
	}, e.log)

	if watch {
		e.config.OnChange(func(c *config.Config) {
			svc.SetProvider(e.newProvider(context.WithoutCancel(ctx), c))
			e.log.Info("AI provider reloaded from config", "provider", c.LLM.Provider)
		})
		e.config.WatchConfig()
	}
	return svc, nil
}
