package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "swiftcourse",
	Short: "SwiftCourse learning journey tracker",
	Long:  "SwiftCourse tracks your progress through the course and answers questions about it with an AI assistant.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./config.yaml or $HOME/.swiftcourse/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SWIFTCOURSE_DB env var)")
	rootCmd.Flags().Bool("no-welcome", false, "Skip the welcome screen")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then storage.path from config, then SWIFTCOURSE_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
