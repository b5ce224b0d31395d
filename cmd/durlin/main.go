// Command durlin checks concurrent runs for linearizability and durable
// linearizability.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/durlin/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "durlin:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
