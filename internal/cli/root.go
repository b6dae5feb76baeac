// Package cli implements the context-compress CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/observe"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/store"
)

var (
	dbPath        string
	workspacePath string
	configPath    string
	formatFlag    string
	verbose       bool
	jsonLog       bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "context-compress",
	Short: "Compact agent workspace notes into size-bounded blocks",
	Long: "Consolidates daily memory notes into per-category detail files and a compact index, " +
		"compresses bootstrap files in place and indexes installed skills.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "", "Workspace path (default: $CONTEXT_COMPRESS_WORKSPACE or current directory)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Ledger database path (default: $CONTEXT_COMPRESS_DB or ~/.context-compress/ledger.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/"+config.FileName+")")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress, not just warnings")
	RootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Write logs as JSON")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CONTEXT_COMPRESS_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".context-compress", "ledger.db")
}

// getWorkspace resolves the workspace: positional argument, then flag,
// then environment, then the current directory.
func getWorkspace(args []string) (string, error) {
	ws := workspacePath
	if len(args) > 0 && args[0] != "" {
		ws = args[0]
	}
	if ws == "" {
		ws = os.Getenv("CONTEXT_COMPRESS_WORKSPACE")
	}
	if ws == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		ws = wd
	}
	return filepath.Abs(ws)
}

func loadConfig(workspace string) (config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, config.FileName)
	}
	return config.Load(path)
}

func newObserver(out io.Writer) *observe.Observer {
	if jsonLog {
		return observe.NewJSON(out, verbose)
	}
	return observe.New(out, verbose)
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func jsonOutput() bool {
	return formatFlag == "json"
}

func printJSON(out io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(out, string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
