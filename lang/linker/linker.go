// Package linker composes the lexer, parser, semantic analyzer and
// bytecode generator over a list of source files, concatenating their
// ASTs before a single analysis and codegen pass so cross-file name
// resolution and forward calls work uniformly.
//
// Grounded on original_source/src/compiler/linker.cpp.
package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shadowCow/iodicium-go/lang/ast"
	"github.com/shadowCow/iodicium-go/lang/bytecode"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/lexer"
	"github.com/shadowCow/iodicium-go/lang/parser"
	"github.com/shadowCow/iodicium-go/lang/semantics"
)

// Result is everything a caller needs after a static link: the
// compiled chunk, the analyzer (for harvesting exported symbols when
// writing a library), and the map of function name to entry IP (for
// building a library's export table).
type Result struct {
	Chunk       *bytecode.Chunk
	Analyzer    *semantics.Analyzer
	FunctionIPs map[string]int
}

// Linker links a list of source file paths into one Result.
type Linker struct {
	logger *iodlog.Logger
}

// New creates a Linker.
func New(logger *iodlog.Logger) *Linker {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &Linker{logger: logger}
}

// Link parses every path, concatenates the resulting statements,
// analyzes and compiles them as one unit. obfuscate enables the
// generator's deterministic identifier renaming.
func (l *Linker) Link(sourcePaths []string, obfuscate bool) (*Result, error) {
	l.logger.Infof("linker: starting static link of %d source file(s)", len(sourcePaths))

	basePath := "."
	if len(sourcePaths) > 0 {
		basePath = filepath.Dir(sourcePaths[0])
	}

	var combined []ast.Statement
	for _, path := range sourcePaths {
		l.logger.Debugf("linker: parsing %s", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not open source file: %s: %w", path, err)
		}
		tokens, err := lexer.New(string(data), l.logger).Tokenize()
		if err != nil {
			return nil, err
		}
		statements, err := parser.New(tokens, l.logger).Parse()
		if err != nil {
			return nil, err
		}
		combined = append(combined, statements...)
	}

	l.logger.Infof("linker: performing semantic analysis")
	analyzer := semantics.New(l.logger, basePath)
	if err := analyzer.Analyze(combined); err != nil {
		return nil, err
	}

	l.logger.Infof("linker: generating bytecode")
	generator := bytecode.NewGenerator(l.logger, obfuscate)
	chunk, err := generator.Generate(combined)
	if err != nil {
		return nil, err
	}

	l.logger.Infof("linker: static link complete")
	return &Result{Chunk: chunk, Analyzer: analyzer, FunctionIPs: generator.FunctionIPs()}, nil
}
