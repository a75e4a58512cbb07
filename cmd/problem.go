package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var problemCmd = &cobra.Command{
	Use:   "problem",
	Short: "Print the problem description of the last full run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storyApp, _, closeStore, err := openStoryApp()
		if err != nil {
			return err
		}
		defer closeStore()

		text, ok, err := storyApp.ProblemDescription()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if isJSON() {
			return printJSON(out, map[string]any{"found": ok, "text": text})
		}
		if !ok {
			fmt.Fprintln(out, "No problem description stored yet.")
			return nil
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(problemCmd)
}
