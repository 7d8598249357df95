package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <id>",
	Short: "Split a stored activity by time or by lap",
	Long: `Split a stored activity into new activities. Every piece is rebuilt
with its own lap, session and activity.

Examples:
  fitedit split 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX --at 2024-06-01T07:15:00Z
  fitedit split 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX --laps`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		at, _ := cmd.Flags().GetString("at")
		byLap, _ := cmd.Flags().GetBool("laps")

		var pieces []ksuid.KSUID
		switch {
		case at != "" && byLap:
			return errors.New("--at and --laps are mutually exclusive")
		case at != "":
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at time: %w", err)
			}
			pieces, err = app.service.SplitAt(cmd.Context(), ids[0], t)
			if err != nil {
				return err
			}
		case byLap:
			pieces, err = app.service.SplitByLap(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
		default:
			return errors.New("one of --at or --laps is required")
		}

		cmd.Printf("Split %s into %d activities\n", ids[0], len(pieces))
		for _, id := range pieces {
			cmd.Printf("  %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().String("at", "", "Split time (RFC 3339)")
	splitCmd.Flags().Bool("laps", false, "Split into one activity per lap")
}
