package cmd

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/llm"
	"github.com/swiftcourse/swiftcourse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the progress and AI chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := setupEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.chatService(ctx, llm.PurposeChat, true)
		if err != nil {
			return err
		}

		cfg := e.config.Get()
		if cfg.Log.Mode != "development" {
			gin.SetMode(gin.ReleaseMode)
		}
		addr := cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}

		srv, err := server.New(server.Config{
			Addr:            addr,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			Progress:        e.progressManager(ctx),
			Chat:            svc,
			Logger:          e.log,
		})
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
