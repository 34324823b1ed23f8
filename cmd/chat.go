package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/chat"
	"github.com/swiftcourse/swiftcourse/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the AI assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setupEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.chatService(cmd.Context(), llm.PurposeCLI, false)
		if err != nil {
			return err
		}

		reply, err := svc.Reply(cmd.Context(), chat.Request{Message: strings.Join(args, " ")})
		if errors.Is(err, chat.ErrNotConfigured) {
			return errors.New(chat.NotConfiguredMessage)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", chat.FailedMessage, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}
