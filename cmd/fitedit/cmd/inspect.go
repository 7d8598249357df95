package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ssargent/fitedit/pkg/editor"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#666666"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <id|file.fit>",
	Short: "Summarize a stored activity or a FIT file",
	Long: `Print the start time, sports, totals and message counts of a stored
activity. A path to an existing file is decoded directly without storing it.

Examples:
  fitedit inspect 2ooW4ZgZ4Uu8Y5Bm0X9vQY4F7fX
  fitedit inspect ./ride.fit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sum editor.Summary
		if _, err := os.Stat(args[0]); err == nil {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			rec, err := app.service.Decode(cmd.Context(), f)
			if err != nil {
				return err
			}
			sum = editor.Summarize(rec)
		} else {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if sum, err = app.service.Inspect(cmd.Context(), ids[0]); err != nil {
				return err
			}
		}
		printSummary(cmd.OutOrStdout(), args[0], sum)
		return nil
	},
}

func printSummary(w io.Writer, name string, sum editor.Summary) {
	line := func(label, value string) {
		fmt.Fprintln(w, labelStyle.Render(label)+value)
	}

	fmt.Fprintln(w, titleStyle.Render(name))
	if sum.HasStart {
		line("Start", sum.Start.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	line("State", sum.State)
	line("Messages", fmt.Sprint(sum.Messages))
	if len(sum.Sports) > 0 {
		line("Sessions", strings.Join(sum.Sports, ", "))
	}
	line("Distance", fmt.Sprintf("%.2f m", sum.Distance))
	line("Elapsed", sum.Elapsed.String())
	if sum.Degraded {
		fmt.Fprintln(w, warnStyle.Render("integrity check failed, decoded in degraded mode"))
	}
	fmt.Fprintln(w)
	for _, c := range sum.Counts {
		line(c.Name, fmt.Sprint(c.Count))
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
