// Command dsimp simplifies expressions under rewrite rules declared in
// CUE programs.
package main

import (
	"fmt"
	"os"

	"github.com/ChrisHughes24/lean/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dsimp:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
