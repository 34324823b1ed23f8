package cmd

import (
	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/app"
	"github.com/swiftcourse/swiftcourse/internal/llm"
)

// runApp opens storage, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	e, err := setupEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := e.chatService(ctx, llm.PurposeChat, true)
	if err != nil {
		return err
	}
	skip, _ := cmd.Flags().GetBool("no-welcome")

	return app.Run(app.Options{
		Progress:    e.progressManager(ctx),
		Chat:        svc,
		SkipWelcome: skip,
	})
}
