package main

import (
	"fmt"
	"os"

	"github.com/brimtide/vlesstund/internal/cli"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	cli.Version = Version
	cli.GitCommit = GitCommit

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
