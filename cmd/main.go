package main

import (
	"os"

	"tux/internal/cli"
	"tux/pkg/tuxerr"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(tuxerr.ExitCode(err))
	}
}
