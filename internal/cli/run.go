package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/compress"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run [workspace]",
		Short: "Consolidate memory, compress bootstrap files and index skills",
		Long: "Runs memory consolidation, bootstrap compression and skill indexing in that order. " +
			"A failing workflow does not stop the others; the command exits 1 if any failed.",
		Args: cobra.MaximumNArgs(1),
		Run:  runRun,
	}

	cmd.Flags().Bool("dry-run", false, "Parse and classify everything but write nothing")
	cmd.Flags().Bool("skip-memory", false, "Skip memory consolidation")
	cmd.Flags().Bool("skip-bootstrap", false, "Skip bootstrap compression")
	cmd.Flags().Bool("skip-skills", false, "Skip skill indexing")
	cmd.Flags().Bool("no-ledger", false, "Do not record the run in the ledger")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipMemory, _ := cmd.Flags().GetBool("skip-memory")
	skipBootstrap, _ := cmd.Flags().GetBool("skip-bootstrap")
	skipSkills, _ := cmd.Flags().GetBool("skip-skills")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	out := cmd.OutOrStdout()

	ws, err := getWorkspace(args)
	if err != nil {
		exitErr("resolve workspace", err)
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		exitErr("load config", err)
	}
	skip := compress.Skip{
		Memory:    skipMemory,
		Bootstrap: skipBootstrap,
		Skills:    skipSkills,
	}

	obs := newObserver(os.Stderr)

	fs, err := storage.NewOSStorage(ws)
	if errors.Is(err, os.ErrNotExist) {
		obs.Log().Info().Str("workspace", ws).Msg("workspace missing, nothing to do")
		printReport(out, missingWorkspace(cmd, skip, dryRun))
		return
	}
	if err != nil {
		exitErr("open workspace", err)
	}

	c, err := compress.New(fs, compress.Options{Config: cfg, Observer: obs, DryRun: dryRun})
	if err != nil {
		exitErr("configure", err)
	}

	rec := newRecorder(nil, obs.Log(), ws, cfg.MemoryDir, c.RunID())
	if !dryRun && !noLedger {
		s, err := openStore()
		if err != nil {
			obs.Log().Warn().Str("db", getDBPath()).Err(err).Msg("ledger unavailable")
		} else {
			defer s.Close()
			rec.ledger = s
		}
	}

	report, runErr := c.RunAll(cmd.Context(), skip, func(res *compress.Result, err error) {
		printResult(cmd, res, err)
		rec.record(cmd.Context(), res, err)
	})

	printReport(out, report)
	if runErr != nil {
		exitErr("run", runErr)
	}
}

func printResult(cmd *cobra.Command, res *compress.Result, err error) {
	if jsonOutput() {
		return
	}
	out := cmd.OutOrStdout()
	summary := res.Summary
	if summary == "" {
		summary = res.Workflow + ": failed"
	}
	fmt.Fprintln(out, summary)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(out, "  error: %v\n", err)
	}
}

// missingWorkspace reports every selected workflow as skipped. Nothing is
// read, written or recorded.
func missingWorkspace(cmd *cobra.Command, skip compress.Skip, dryRun bool) *compress.Report {
	report := &compress.Report{}
	for _, wf := range []struct {
		name    string
		skipped bool
	}{
		{compress.WorkflowMemory, skip.Memory},
		{compress.WorkflowBootstrap, skip.Bootstrap},
		{compress.WorkflowSkills, skip.Skills},
	} {
		if wf.skipped {
			continue
		}
		label := wf.name
		if dryRun {
			label += " (dry run)"
		}
		res := &compress.Result{
			Workflow: wf.name,
			Summary:  label + ": workspace not found",
			Skipped:  true,
			DryRun:   dryRun,
		}
		printResult(cmd, res, nil)
		report.Results = append(report.Results, res)
	}
	return report
}

func printReport(out io.Writer, report *compress.Report) {
	if jsonOutput() {
		printJSON(out, report)
		return
	}
	report.WriteTo(out)
}
