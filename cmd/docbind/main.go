package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/docbind/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docbind:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
