// Package runner drives the two top-level operations the CLI exposes:
// Compile (manifest → .iode/.iodl container) and Run (.iode container
// → observable effects on the VM).
package runner

import (
	"fmt"
	"io"

	"github.com/shadowCow/iodicium-go/lang/bytecode"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/linker"
	"github.com/shadowCow/iodicium-go/lang/manifest"
	"github.com/shadowCow/iodicium-go/lang/object"
	"github.com/shadowCow/iodicium-go/lang/vm"
)

// Compile reads the project manifest at manifestPath, links its
// sources, and writes the resulting container (named
// "<project-name>.iode" or ".iodl") according to the manifest's declared
// type. The container is written in the manifest file's directory, not
// in the current working directory.
func Compile(manifestPath string, obfuscate bool, logger *iodlog.Logger) error {
	if logger == nil {
		logger = iodlog.Discard()
	}

	proj, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	logger.Infof("runner: compiling project %q (%s)", proj.Name, proj.Type)

	result, err := linker.New(logger).Link(proj.SourcePaths(), obfuscate)
	if err != nil {
		return err
	}

	switch proj.Type {
	case manifest.Executable:
		outPath := proj.OutputPath(".iode")
		exe := &object.Executable{
			Imports:   result.Analyzer.Imports(),
			Constants: result.Chunk.Constants,
			Code:      result.Chunk.Code,
		}
		if err := object.WriteExecutable(outPath, exe); err != nil {
			return err
		}
		logger.Infof("runner: wrote executable %s", outPath)
		return nil
	case manifest.Library:
		outPath := proj.OutputPath(".iodl")
		exports := make(map[string]uint64, len(result.FunctionIPs))
		for name, sym := range result.Analyzer.Table().GlobalSymbols() {
			if !sym.Exported {
				continue
			}
			ip, ok := result.FunctionIPs[name]
			if !ok {
				continue // exported, non-function declarations carry no entry point
			}
			exports[name] = uint64(ip)
		}
		lib := &object.Library{
			Exports:   exports,
			Constants: result.Chunk.Constants,
			Code:      result.Chunk.Code,
		}
		if err := object.WriteLibrary(outPath, lib); err != nil {
			return err
		}
		logger.Infof("runner: wrote library %s (%d export(s))", outPath, len(exports))
		return nil
	default:
		return fmt.Errorf("runner: unrecognised project type %q", proj.Type)
	}
}

// Run reads the executable at path and runs it on a fresh VM,
// directing program output to stdout/stderr. memoryLimit is an
// advisory hint forwarded to the VM.
func Run(path string, memoryLimit uint64, stdout, stderr io.Writer, logger *iodlog.Logger) error {
	if logger == nil {
		logger = iodlog.Discard()
	}

	exe, err := object.ReadExecutable(path)
	if err != nil {
		return err
	}

	chunk := &bytecode.Chunk{
		Imports:   exe.Imports,
		Constants: exe.Constants,
		Code:      exe.Code,
	}
	machine := vm.New(logger, stdout, stderr, memoryLimit)
	return machine.Run(chunk)
}
