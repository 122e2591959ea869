package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/shipgate/src/output"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Print the configured target matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		color := output.UseColor()
		s := output.NewSection(os.Stdout, "Targets", 0, color)
		defer s.Close()

		for _, t := range cfg.Targets {
			s.Row("%-12s %-34s %s", t.Name, t.Triple, output.Dimmed(t.Archive, color))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
