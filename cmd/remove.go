package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [TITLE]",
	Aliases: []string{"rm"},
	Short:   "Remove one story, or all of them with --all",
	Long: `Remove a story by title, or every story with --all.

Removing a title that does not exist is not an error. --all asks for
confirmation on a terminal; pass --yes to skip it. The stored problem
description is kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().Bool("all", false, "remove every story")
	removeCmd.Flags().BoolP("yes", "y", false, "skip confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")

	if all == (len(args) == 1) {
		return errors.New("pass either a TITLE or --all")
	}

	storyApp, _, closeStore, err := openStoryApp()
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	if all {
		if !yes && !confirmOrAbort(cmd, "Remove ALL stories? [y/N]: ") {
			return nil
		}
		n, err := storyApp.RemoveAll()
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, map[string]int{"removed": n})
		}
		fmt.Fprintf(out, "Removed %d stories\n", n)
		return nil
	}

	removed, err := storyApp.Remove(args[0])
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, map[string]bool{"removed": removed})
	}
	if removed {
		fmt.Fprintf(out, "Removed %s\n", args[0])
	} else {
		fmt.Fprintf(out, "No story titled %s\n", args[0])
	}
	return nil
}
