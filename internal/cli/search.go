package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search consolidated memory sections",
		Long:  "Full-text search over the sections of every detail file written by past runs.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("all", false, "Search every workspace, not just the current one")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")
	query := strings.Join(args, " ")

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

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Workspace: ws,
		Category:  category,
		Query:     query,
		Limit:     limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		if len(results) == 0 {
			fmt.Fprintln(out, "[]")
			return
		}
		printJSON(out, results)
		return
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s  %s  ## %s\n", r.Category.Tag(), r.Path, r.Header)
		if r.Snippet != "" {
			fmt.Fprintf(out, "    %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
	}
}
