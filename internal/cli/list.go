package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Run:   runList,
	}

	cmd.Flags().String("workflow", "", "Filter by workflow: memory, bootstrap or skills")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("all", false, "List runs of every workspace, not just the current one")
	cmd.Flags().Bool("ids-only", false, "Only output run IDs")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	workflow, _ := cmd.Flags().GetString("workflow")
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

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

	runs, err := s.List(cmd.Context(), store.ListParams{
		Workspace: ws,
		Workflow:  workflow,
		Limit:     limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	out := cmd.OutOrStdout()
	if idsOnly {
		for _, r := range runs {
			fmt.Fprintf(out, "%s/%s\n", r.RunID, r.Workflow)
		}
		return
	}
	if jsonOutput() {
		printJSON(out, runs)
		return
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-9s %-7s %s\n", r.FinishedAt.Local().Format(time.DateTime), r.Workflow, r.Status, r.Summary)
	}
}
