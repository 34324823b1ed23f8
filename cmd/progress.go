package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swiftcourse/swiftcourse/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and update course progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show progress per module",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withProgress(cmd, func(m *progress.Manager) error {
			sum := progress.Summarize(m)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		})
	},
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <module-id> <section-id>",
	Short: "Mark a section complete",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProgress(cmd, func(m *progress.Manager) error {
			if !m.MarkSectionComplete(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("unknown section %s/%s", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s/%s complete. Module %d%%, overall %d%%.\n",
				args[0], args[1], m.ModuleProgress(args[0]), m.OverallProgress())
			return nil
		})
	},
}

var progressIncompleteCmd = &cobra.Command{
	Use:   "incomplete <module-id> <section-id>",
	Short: "Mark a section incomplete",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProgress(cmd, func(m *progress.Manager) error {
			if !m.MarkSectionIncomplete(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("unknown section %s/%s", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s/%s incomplete. Module %d%%, overall %d%%.\n",
				args[0], args[1], m.ModuleProgress(args[0]), m.OverallProgress())
			return nil
		})
	},
}

var progressPositionCmd = &cobra.Command{
	Use:   "position [<module-id> <section-id>]",
	Short: "Show or set the current position",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <module-id> <section-id>, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProgress(cmd, func(m *progress.Manager) error {
			if len(args) == 2 {
				m.SetCurrentPosition(cmd.Context(), args[0], args[1])
			}
			pos := m.Position()
			if !pos.IsSet() {
				fmt.Fprintln(cmd.OutOrStdout(), "No position recorded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", pos.ModuleID, pos.SectionID)
			return nil
		})
	},
}

var progressNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the section after the current position",
	RunE: func(cmd *cobra.Command, args []string) error {
		advance, _ := cmd.Flags().GetBool("advance")
		return withProgress(cmd, func(m *progress.Manager) error {
			loc, ok := m.NextSection()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "You have reached the end of the course.")
				return nil
			}
			if advance {
				m.SetCurrentPosition(cmd.Context(), loc.ModuleID, loc.SectionID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", loc.ModuleID, loc.SectionID)
			return nil
		})
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all progress, position and quiz results",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to reset without --yes")
		}
		return withProgress(cmd, func(m *progress.Manager) error {
			m.ResetProgress(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
			return nil
		})
	},
}

func init() {
	progressShowCmd.Flags().Bool("json", false, "Print the summary as JSON")
	progressNextCmd.Flags().Bool("advance", false, "Also move the current position to the next section")
	progressResetCmd.Flags().BoolP("yes", "y", false, "Confirm the reset")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressCompleteCmd)
	progressCmd.AddCommand(progressIncompleteCmd)
	progressCmd.AddCommand(progressPositionCmd)
	progressCmd.AddCommand(progressNextCmd)
	progressCmd.AddCommand(progressResetCmd)
}

func withProgress(cmd *cobra.Command, fn func(*progress.Manager) error) error {
	e, err := setupEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e.progressManager(cmd.Context()))
}

func printSummary(w io.Writer, sum progress.Summary) {
	fmt.Fprintf(w, "Overall: %d%%  (%d of %d modules complete)\n", sum.Overall, sum.CompletedModules, len(sum.Modules))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, mod := range sum.Modules {
		mark := " "
		if mod.Completed {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %-10s %-34s %3d%%  %d/%d\n",
			mark, mod.ID, truncate(mod.Title, 34), mod.Progress, len(mod.CompletedSections), mod.TotalSections)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	if sum.Position.IsSet() {
		fmt.Fprintf(w, "Position: %s/%s\n", sum.Position.ModuleID, sum.Position.SectionID)
	}
	if sum.Next != nil {
		fmt.Fprintf(w, "Next:     %s/%s\n", sum.Next.ModuleID, sum.Next.SectionID)
	}
}
