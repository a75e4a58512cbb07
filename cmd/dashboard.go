package cmd

import (
	"github.com/cesto93/ai-agile-dev/internal/ui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse, edit, rename and remove stories in a terminal UI",
	Long: `Open an interactive dashboard over the story store.

The list refreshes when markdown files in the stories directory change, so
stories created from another terminal show up while the dashboard is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, s, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		return ui.RunDashboard(storyApp, s.StoriesDir())
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
