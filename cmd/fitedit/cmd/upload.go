package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/fitedit/pkg/editor"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <id>...",
	Short: "Upload stored activities to an outbox directory",
	Long: `Hand stored activities to an uploader. The directory uploader writes
<id>.fit files that a sync client can pick up.

Example:
  fitedit upload 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX --dir ~/outbox`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		uploader := editor.DirUploader{Dir: dir}
		for _, id := range ids {
			if err := app.service.Upload(cmd.Context(), id, uploader); err != nil {
				return err
			}
			cmd.Printf("Uploaded %s to %s\n", id, dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().String("dir", "./outbox", "Outbox directory")
}
