// Package cli wires the compile and run operations into a
// github.com/teris-io/cli command tree: `iodicium compile <project>`
// builds a project manifest into its declared container, and
// `iodicium run <executable>` loads a compiled .iode file onto the VM.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/memsize"
	"github.com/shadowCow/iodicium-go/lang/runner"

	"github.com/teris-io/cli"
)

var Description = "Iodicium compiles and runs programs written in the Iodicium language."

// Version is the toolchain version reported by -v/--version.
const Version = "0.1.0"

var compileCommand = cli.NewCommand("compile", "Compiles a project manifest into an executable or library container").
	WithArg(cli.NewArg("project", "Path to the project manifest file")).
	WithOption(cli.NewOption("obfuscate", "Renames global identifiers to opaque names in the compiled output").
		WithChar('o').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug", "Enables verbose diagnostic logging").
		WithChar('d').WithType(cli.TypeBool)).
	WithAction(compileAction)

var runCommand = cli.NewCommand("run", "Runs a compiled executable on the VM").
	WithArg(cli.NewArg("executable", "Path to the compiled executable")).
	WithOption(cli.NewOption("memory", "Advisory memory limit, e.g. 64M, 1G (no enforcement)").
		WithChar('m').WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Enables verbose diagnostic logging").
		WithChar('d').WithType(cli.TypeBool)).
	WithAction(runAction)

// Root is the complete command tree the cmd/iodicium binary runs.
var Root = cli.New(Description).
	WithCommand(compileCommand).
	WithCommand(runCommand)

// Run intercepts the top-level -v/--version flag (printed before any
// subcommand dispatch, per §6) and otherwise delegates to Root.
func Run(args []string, out io.Writer) int {
	for _, arg := range args[1:] {
		if arg == "-v" || arg == "--version" {
			fmt.Fprintln(out, "iodicium")
			fmt.Fprintln(out, "version "+Version)
			return 0
		}
	}
	return Root.Run(args, out)
}

func compileAction(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing required argument: project")
		return 1
	}

	_, obfuscate := options["obfuscate"]
	if err := runner.Compile(args[0], obfuscate, loggerFor(options)); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func runAction(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing required argument: executable")
		return 1
	}

	var memLimit uint64
	if raw, ok := options["memory"]; ok {
		n, err := memsize.Parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
		memLimit = n
	}

	if err := runner.Run(args[0], memLimit, os.Stdout, os.Stderr, loggerFor(options)); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func loggerFor(options map[string]string) *iodlog.Logger {
	logger := iodlog.New(os.Stderr)
	if _, debug := options["debug"]; debug {
		logger.SetLevel(iodlog.Debug)
	}
	return logger
}
