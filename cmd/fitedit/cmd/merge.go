package cmd

import (
	"github.com/spf13/cobra"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge <id> <id>...",
	Short: "Merge stored activities into a new one",
	Long: `Concatenate stored activities in start-time order into a new activity.
The inputs are left untouched.

Example:
  fitedit merge 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX 2ooW5HBmQ0Xg4nFgC6s1ZWuZP8r`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		id, err := app.service.Merge(cmd.Context(), ids...)
		if err != nil {
			return err
		}
		cmd.Printf("Merged %d activities into %s\n", len(ids), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
