package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.fit>...",
	Short: "Import FIT files into the store",
	Long: `Decode FIT files, repair their cumulative distance and store them.
Each file gets a new activity id.

Example:
  fitedit import morning-run.fit evening-ride.fit`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			id, err := app.service.Import(cmd.Context(), f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			cmd.Printf("Imported %s as %s\n", path, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
