package cmd

import (
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete stored activities",
	Long: `Delete activities from the store.

Example:
  fitedit delete 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if err := app.service.Delete(cmd.Context(), ids...); err != nil {
			return err
		}
		cmd.Printf("Deleted %d activities\n", len(ids))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
