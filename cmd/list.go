package cmd

import (
	"fmt"

	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/cesto93/ai-agile-dev/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored stories in creation order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, _, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := storyApp.List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if isJSON() {
			if entries == nil {
				entries = []store.Entry{}
			}
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No stories found.")
			fmt.Fprintln(out, "Create some with: agiledev create --doc-path problem.txt")
			return nil
		}
		fmt.Fprint(out, ui.StoryTable(entries).Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
