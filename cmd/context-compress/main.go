package main

import (
	"os"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
