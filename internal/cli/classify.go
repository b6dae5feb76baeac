package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [header...]",
		Short: "Show the category each header is filed under",
		Long:  "Classifies section headers with the configured rule table. Each argument is one header.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClassify,
	}

	RootCmd.AddCommand(cmd)
}

type classification struct {
	Header   string `json:"header"`
	Category string `json:"category"`
	Tag      string `json:"tag"`
}

func runClassify(cmd *cobra.Command, args []string) {
	ws, err := getWorkspace(nil)
	if err != nil {
		exitErr("resolve workspace", err)
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		exitErr("load config", err)
	}
	c, err := cfg.Classifier()
	if err != nil {
		exitErr("build classifier", err)
	}

	results := make([]classification, 0, len(args))
	for _, h := range args {
		cat := c.Classify(h)
		results = append(results, classification{Header: h, Category: string(cat), Tag: cat.Tag()})
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		printJSON(out, results)
		return
	}
	for _, r := range results {
		fmt.Fprintf(out, "%-8s %s\n", r.Tag, strings.TrimSpace(r.Header))
	}
}
