package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics",
		Run:   runStats,
	}

	cmd.Flags().Bool("all", false, "Count every workspace, not just the current one")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")

	var ws string
	if !all {
		var err error
		if ws, err = getWorkspace(nil); err != nil {
			exitErr("resolve workspace", err)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath(), ws)
	if err != nil {
		exitErr("stats", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		printJSON(out, stats)
		return
	}
	fmt.Fprintf(out, "ledger:    %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Fprintf(out, "runs:      %d (%d failed)\n", stats.TotalRuns, stats.FailedRuns)
	fmt.Fprintf(out, "artifacts: %d (%d -> %d bytes)\n", stats.TotalArtifacts, stats.BytesBefore, stats.BytesAfter)
	fmt.Fprintf(out, "sections:  %d\n", stats.IndexedSections)
	for _, c := range stats.Categories {
		fmt.Fprintf(out, "  %-12s %d\n", c.Category, c.Sections)
	}
	for _, w := range stats.Workflows {
		fmt.Fprintf(out, "  %-12s %d run(s), %d failed\n", w.Workflow, w.Runs, w.Failed)
	}
}
