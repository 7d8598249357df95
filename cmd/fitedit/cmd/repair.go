package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/fitedit/pkg/repair"
)

// repairCmd represents the repair command
var repairCmd = &cobra.Command{
	Use:   "repair <id>",
	Short: "Repair a stored activity",
	Long: `Repair a stored activity in place with one of the strategies:

  subtractive  keep only the message types consumers rely on
  additive     rebuild laps, session, activity and timer events from samples
  backfill     synthesize only the summaries that are missing

Examples:
  fitedit repair 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX
  fitedit repair 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX --strategy additive --max-speed 30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("strategy")
		if name == "" {
			name = app.cfg.Repair.DefaultStrategy
		}
		strategy, err := repair.ParseStrategy(name)
		if err != nil {
			return err
		}

		report, err := app.service.Repair(cmd.Context(), ids[0], strategy)
		if err != nil {
			return err
		}
		cmd.Printf("Repaired %s (%s)\n", ids[0], report.Strategy)
		cmd.Printf("  messages:          %d -> %d\n", report.Input, report.Output)
		cmd.Printf("  samples filtered:  %d\n", report.Filtered)
		cmd.Printf("  distance adjusted: %d\n", report.DistanceAdjusted)
		if len(report.Synthesized) > 0 {
			cmd.Printf("  synthesized:       %s\n", strings.Join(report.Synthesized, ", "))
		}
		if len(report.Unresolved) > 0 {
			cmd.Printf("  unresolved sessions: %v\n", report.Unresolved)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().Float64("max-speed", repair.DefaultMaxSpeed, "Drop samples faster than this speed in m/s (default from config)")
	repairCmd.Flags().StringP("strategy", "s", "", "Repair strategy (subtractive, additive, backfill; default from config)")
}
