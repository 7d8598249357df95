package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a stored activity as a FIT file",
	Long: `Write the FIT bytes of a stored activity to a file, or to stdout.

Examples:
  fitedit export 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX -o run.fit
  fitedit export 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX > run.fit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return app.service.Export(cmd.Context(), ids[0], cmd.OutOrStdout())
		}

		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		if err := app.service.Export(cmd.Context(), ids[0], f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		cmd.Printf("Exported %s to %s\n", ids[0], output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
