package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get TITLE",
	Short: "Print the markdown of a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, _, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		content, err := storyApp.Get(args[0])
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]string{"title": args[0], "content": content})
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
