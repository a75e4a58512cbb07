package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename a story, keeping its content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, _, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := storyApp.Rename(args[0], args[1]); err != nil {
			return err
		}
		if !isJSON() {
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
