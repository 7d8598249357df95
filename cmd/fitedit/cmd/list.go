package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := app.service.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("No activities stored")
			return nil
		}
		cmd.Printf("%-27s  %-20s  %10s\n", "ID", "STORED", "BYTES")
		for _, e := range entries {
			cmd.Printf("%-27s  %-20s  %10d\n", e.ID, e.Created.UTC().Format(time.DateTime), e.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
