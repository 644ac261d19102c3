// Command iodicium is the compiler and VM entry point: it dispatches
// to the compile and run subcommands implemented in lang/in/cli.
package main

import (
	"os"

	"github.com/shadowCow/iodicium-go/lang/in/cli"
)

func main() {
	os.Exit(cli.Run(os.Args, os.Stdout))
}
