package main

import (
	"os"

	"github.com/arx-os/svgx-behavior/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
