// Package semantics implements the Iodicium semantic analyzer: name
// resolution, static type checking, multi-file import resolution with
// cycle prevention, and export visibility enforcement.
//
// Grounded on original_source/src/compiler/semantics.cpp, generalized
// to a lexically scoped SymbolTable (lang/types) and a single shared
// Analyzer instance that recurses into imported files rather than
// spawning a nested analyzer per import — the redesign spec.md
// documents for sharing one symbol table across the whole import
// graph.
package semantics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shadowCow/iodicium-go/lang/ast"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/lexer"
	"github.com/shadowCow/iodicium-go/lang/object"
	"github.com/shadowCow/iodicium-go/lang/parser"
	"github.com/shadowCow/iodicium-go/lang/token"
	"github.com/shadowCow/iodicium-go/lang/types"
)

// Analyzer walks a decorated AST, maintaining one SymbolTable across a
// whole import graph.
type Analyzer struct {
	logger   *iodlog.Logger
	basePath string

	table     *types.SymbolTable
	processed map[string]bool
	imports   []string

	isImporting       bool
	currentModuleIdx  int
}

// New creates an Analyzer. basePath is the directory relative imports
// resolve against.
func New(logger *iodlog.Logger, basePath string) *Analyzer {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &Analyzer{
		logger:           logger,
		basePath:         basePath,
		table:            types.NewSymbolTable(),
		processed:        map[string]bool{},
		currentModuleIdx: -1,
	}
}

// Analyze resolves and type-checks statements, the top-level entry
// point for a single compilation unit (or a linker's concatenated AST).
//
// Every top-level function signature is declared before any statement
// is resolved, so bodies and top-level code may call a function defined
// later in the source.
func (a *Analyzer) Analyze(statements []ast.Statement) error {
	for _, stmt := range statements {
		if def, ok := stmt.(*ast.FunctionDef); ok {
			decl := &ast.FunctionDecl{Keyword: def.Keyword, Name: def.Name, Params: def.Params, ReturnType: def.ReturnType, Exported: def.Exported}
			if err := a.visitFunctionDecl(decl); err != nil {
				return err
			}
		}
	}
	for _, stmt := range statements {
		if def, ok := stmt.(*ast.FunctionDef); ok {
			// visitFunctionDef declares the function again together with its body.
			delete(a.table.GlobalSymbols(), def.Name.Lexeme)
		}
		if err := a.resolveStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Imports returns the ordered list of import paths discovered while
// analyzing, indexed by module ordinal.
func (a *Analyzer) Imports() []string { return a.imports }

// Table exposes the resulting symbol table, e.g. so the generator's
// caller can inspect exported symbols when writing a library.
func (a *Analyzer) Table() *types.SymbolTable { return a.table }

func (a *Analyzer) resolveStatements(statements []ast.Statement) error {
	for _, stmt := range statements {
		if err := a.resolveStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) resolveStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Import:
		return a.visitImport(s)
	case *ast.VarDecl:
		return a.visitVarDecl(s)
	case *ast.FunctionDef:
		return a.visitFunctionDef(s)
	case *ast.FunctionDecl:
		return a.visitFunctionDecl(s)
	case *ast.Return:
		if s.Value != nil {
			_, err := a.typeOf(s.Value)
			return err
		}
		return nil
	case *ast.ExprStmt:
		_, err := a.typeOf(s.Expression)
		return err
	default:
		return fmt.Errorf("semantics: unsupported statement type %T", stmt)
	}
}

// ---- Imports ----

func (a *Analyzer) visitImport(stmt *ast.Import) error {
	relPath := stmt.Path.Lexeme
	resolvedName := relPath
	if !strings.HasSuffix(resolvedName, ".iodc") && !strings.HasSuffix(resolvedName, ".iodl") {
		resolvedName += ".iodc"
	}
	fullPath := filepath.Join(a.basePath, resolvedName)

	if a.processed[fullPath] {
		return nil
	}
	a.processed[fullPath] = true

	moduleIndex := len(a.imports)
	a.imports = append(a.imports, resolvedName)

	if strings.HasSuffix(fullPath, ".iodl") {
		return a.importLibrary(stmt, fullPath, moduleIndex)
	}
	return a.importSource(stmt, fullPath, moduleIndex)
}

func (a *Analyzer) importLibrary(stmt *ast.Import, fullPath string, moduleIndex int) error {
	a.logger.Debugf("semantics: importing library %s", fullPath)
	lib, err := object.ReadLibrary(fullPath)
	if err != nil {
		return &Error{Kind: ErrFileNotFound, Message: fmt.Sprintf("could not read imported library: %s: %v", fullPath, err), Line: stmt.Path.Line, Column: stmt.Path.Column}
	}

	names := make([]string, 0, len(lib.Exports))
	for name := range lib.Exports {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic iteration, per the reproducible-build ordering guarantee

	for _, name := range names {
		sym := types.Symbol{
			Type:        types.Function,
			ReturnType:  types.Unknown,
			Arity:       -1, // the .iodl export table carries no signature
			External:    true,
			ModuleIndex: moduleIndex,
		}
		if !a.table.Define(name, sym) {
			return &Error{Kind: ErrRedeclaration, Message: fmt.Sprintf("symbol %q is already declared, but is also exported by %q", name, fullPath), Line: stmt.Path.Line, Column: stmt.Path.Column}
		}
	}
	return nil
}

func (a *Analyzer) importSource(stmt *ast.Import, fullPath string, moduleIndex int) error {
	a.logger.Debugf("semantics: importing source %s", fullPath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return &Error{Kind: ErrFileNotFound, Message: fmt.Sprintf("could not open imported file: %s", fullPath), Line: stmt.Path.Line, Column: stmt.Path.Column}
	}

	tokens, err := lexer.New(string(data), a.logger).Tokenize()
	if err != nil {
		return err
	}
	statements, err := parser.New(tokens, a.logger).Parse()
	if err != nil {
		return err
	}

	savedBasePath, savedImporting, savedModuleIdx := a.basePath, a.isImporting, a.currentModuleIdx
	a.basePath = filepath.Dir(fullPath)
	a.isImporting = true
	a.currentModuleIdx = moduleIndex

	err = a.resolveStatements(statements)

	a.basePath, a.isImporting, a.currentModuleIdx = savedBasePath, savedImporting, savedModuleIdx
	return err
}

// ---- Declarations ----

func (a *Analyzer) visitFunctionDef(stmt *ast.FunctionDef) error {
	if a.isImporting && !stmt.Exported {
		return nil
	}

	paramTypes, err := a.resolveParamTypes(stmt.Params)
	if err != nil {
		return err
	}
	returnType, err := a.resolveReturnType(stmt.ReturnType)
	if err != nil {
		return err
	}

	sym := types.Symbol{
		Type:       types.Function,
		ReturnType: returnType,
		Arity:      len(stmt.Params),
		ParamTypes: paramTypes,
		Exported:   stmt.Exported,
	}
	if a.isImporting {
		sym.External = true
		sym.ModuleIndex = a.currentModuleIdx
	} else {
		sym.ModuleIndex = -1
	}

	if !a.table.Define(stmt.Name.Lexeme, sym) {
		return &Error{Kind: ErrRedeclaration, Message: fmt.Sprintf("symbol %q already declared in this scope", stmt.Name.Lexeme), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}

	// Imported function bodies are never compiled locally — only the
	// signature is captured (spec.md §4.3).
	if a.isImporting {
		return nil
	}

	a.table.BeginScope()
	for i, p := range stmt.Params {
		if !a.table.Define(p.Name.Lexeme, types.Symbol{Type: paramTypes[i], ModuleIndex: -1}) {
			a.table.EndScope()
			return &Error{Kind: ErrRedeclaration, Message: fmt.Sprintf("parameter %q already declared", p.Name.Lexeme), Line: p.Name.Line, Column: p.Name.Column}
		}
	}
	for _, bodyStmt := range stmt.Body {
		if err := a.resolveStmt(bodyStmt); err != nil {
			a.table.EndScope()
			return err
		}
	}
	a.table.EndScope()
	return nil
}

func (a *Analyzer) visitFunctionDecl(stmt *ast.FunctionDecl) error {
	if a.isImporting && !stmt.Exported {
		return nil
	}

	paramTypes, err := a.resolveParamTypes(stmt.Params)
	if err != nil {
		return err
	}
	returnType, err := a.resolveReturnType(stmt.ReturnType)
	if err != nil {
		return err
	}

	sym := types.Symbol{
		Type:       types.Function,
		ReturnType: returnType,
		Arity:      len(stmt.Params),
		ParamTypes: paramTypes,
		Exported:   stmt.Exported,
	}
	if a.isImporting {
		sym.External = true
		sym.ModuleIndex = a.currentModuleIdx
	} else {
		sym.ModuleIndex = -1
	}

	if !a.table.Define(stmt.Name.Lexeme, sym) {
		return &Error{Kind: ErrRedeclaration, Message: fmt.Sprintf("symbol %q already declared in this scope", stmt.Name.Lexeme), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}
	return nil
}

func (a *Analyzer) visitVarDecl(stmt *ast.VarDecl) error {
	if a.isImporting && !stmt.Exported {
		return nil
	}

	declaredType := types.Unknown
	if stmt.Type != nil {
		dt, err := a.resolveTypeExpr(stmt.Type)
		if err != nil {
			return err
		}
		declaredType = dt
	}

	initType := types.Unknown
	if stmt.Initializer != nil {
		t, err := a.typeOf(stmt.Initializer)
		if err != nil {
			return err
		}
		initType = t
	}

	finalType := declaredType
	if finalType == types.Unknown {
		finalType = initType
	}
	if finalType == types.Unknown {
		return &Error{Kind: ErrUnknownType, Message: fmt.Sprintf("cannot determine type for variable %q; provide a type annotation or an initializer", stmt.Name.Lexeme), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}
	if declaredType != types.Unknown && initType != types.Unknown && declaredType != initType && !(isNumeric(declaredType) && isNumeric(initType)) {
		return &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("initializer type %s does not match declared type %s for variable %q", initType, declaredType, stmt.Name.Lexeme), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}

	sym := types.Symbol{Type: finalType, Mutable: stmt.Mutable, Exported: stmt.Exported}
	if a.isImporting {
		sym.External = true
		sym.ModuleIndex = a.currentModuleIdx
	} else {
		sym.ModuleIndex = -1
	}

	if !a.table.Define(stmt.Name.Lexeme, sym) {
		return &Error{Kind: ErrRedeclaration, Message: fmt.Sprintf("variable %q already declared in this scope", stmt.Name.Lexeme), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}
	return nil
}

// ---- Types ----

func (a *Analyzer) resolveParamTypes(params []ast.Parameter) ([]types.DataType, error) {
	result := make([]types.DataType, len(params))
	for i, p := range params {
		if p.Type == nil {
			return nil, &Error{Kind: ErrUntypedParameter, Message: fmt.Sprintf("parameter %q must have a type", p.Name.Lexeme), Line: p.Name.Line, Column: p.Name.Column}
		}
		dt, err := a.resolveTypeExpr(p.Type)
		if err != nil {
			return nil, err
		}
		result[i] = dt
	}
	return result, nil
}

func (a *Analyzer) resolveReturnType(expr ast.Expression) (types.DataType, error) {
	if expr == nil {
		return types.Nil, nil
	}
	return a.resolveTypeExpr(expr)
}

func (a *Analyzer) resolveTypeExpr(expr ast.Expression) (types.DataType, error) {
	v, ok := expr.(*ast.Variable)
	if !ok {
		pos := expr.Pos()
		return types.Unknown, &Error{Kind: ErrUnknownType, Message: "invalid type expression", Line: pos.Line, Column: pos.Column}
	}
	dt := types.ParseDataType(v.Name.Lexeme)
	if dt == types.Unknown {
		return types.Unknown, &Error{Kind: ErrUnknownType, Message: fmt.Sprintf("unknown type %q", v.Name.Lexeme), Line: v.Name.Line, Column: v.Name.Column}
	}
	return dt, nil
}

func isNumeric(t types.DataType) bool { return t == types.Int || t == types.Double }

func (a *Analyzer) typeOf(expr ast.Expression) (types.DataType, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		if e.Token.Kind == token.StringLiteral {
			return types.String, nil
		}
		return types.Double, nil
	case *ast.Variable:
		sym, ok := a.table.Find(e.Name.Lexeme)
		if !ok {
			return types.Unknown, &Error{Kind: ErrUndefinedSymbol, Message: fmt.Sprintf("undefined variable %q", e.Name.Lexeme), Line: e.Name.Line, Column: e.Name.Column}
		}
		return sym.Type, nil
	case *ast.Grouping:
		return a.typeOf(e.Inner)
	case *ast.Binary:
		return a.typeOfBinary(e)
	case *ast.Assign:
		return a.typeOfAssign(e)
	case *ast.Call:
		return a.typeOfCall(e)
	default:
		return types.Unknown, fmt.Errorf("semantics: unsupported expression type %T", expr)
	}
}

func (a *Analyzer) typeOfBinary(expr *ast.Binary) (types.DataType, error) {
	left, err := a.typeOf(expr.Left)
	if err != nil {
		return types.Unknown, err
	}
	right, err := a.typeOf(expr.Right)
	if err != nil {
		return types.Unknown, err
	}

	switch expr.Op.Kind {
	case token.Plus:
		if left == types.String || right == types.String {
			return types.String, nil
		}
		if isNumeric(left) && isNumeric(right) {
			if left == types.Double || right == types.Double {
				return types.Double, nil
			}
			return types.Int, nil
		}
		return types.Unknown, &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("operator '+' cannot be applied to operands of type %s and %s", left, right), Line: expr.Op.Line, Column: expr.Op.Column}
	case token.Minus, token.Star, token.Slash:
		if isNumeric(left) && isNumeric(right) {
			if left == types.Double || right == types.Double {
				return types.Double, nil
			}
			return types.Int, nil
		}
		return types.Unknown, &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("operator %q cannot be applied to operands of type %s and %s", expr.Op.Lexeme, left, right), Line: expr.Op.Line, Column: expr.Op.Column}
	default:
		return types.Unknown, &Error{Kind: ErrUnsupportedOperator, Message: "unsupported binary operator", Line: expr.Op.Line, Column: expr.Op.Column}
	}
}

func (a *Analyzer) typeOfAssign(expr *ast.Assign) (types.DataType, error) {
	sym, ok := a.table.Find(expr.Name.Lexeme)
	if !ok {
		return types.Unknown, &Error{Kind: ErrUndefinedSymbol, Message: fmt.Sprintf("undefined variable %q", expr.Name.Lexeme), Line: expr.Name.Line, Column: expr.Name.Column}
	}
	if !sym.Mutable {
		return types.Unknown, &Error{Kind: ErrImmutableReassignment, Message: fmt.Sprintf("cannot assign to immutable variable %q", expr.Name.Lexeme), Line: expr.Equal.Line, Column: expr.Equal.Column}
	}
	valueType, err := a.typeOf(expr.Value)
	if err != nil {
		return types.Unknown, err
	}
	if sym.Type != valueType && !(isNumeric(sym.Type) && isNumeric(valueType)) {
		return types.Unknown, &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("cannot assign value of type %s to variable %q of type %s", valueType, expr.Name.Lexeme, sym.Type), Line: expr.Equal.Line, Column: expr.Equal.Column}
	}
	return sym.Type, nil
}

func (a *Analyzer) typeOfCall(expr *ast.Call) (types.DataType, error) {
	callee, ok := expr.Callee.(*ast.Variable)
	if !ok {
		pos := expr.Callee.Pos()
		return types.Unknown, &Error{Kind: ErrInvalidCallee, Message: "invalid callee expression", Line: pos.Line, Column: pos.Column}
	}

	if callee.Name.Lexeme == "convert" {
		if len(expr.Arguments) != 2 {
			return types.Unknown, &Error{Kind: ErrArityMismatch, Message: "convert() requires exactly 2 arguments", Line: expr.Paren.Line, Column: expr.Paren.Column}
		}
		if _, err := a.typeOf(expr.Arguments[0]); err != nil {
			return types.Unknown, err
		}
		typeArg, ok := expr.Arguments[1].(*ast.Variable)
		if !ok {
			return types.Unknown, &Error{Kind: ErrUnsupportedConversion, Message: "second argument to convert() must be a type name", Line: expr.Paren.Line, Column: expr.Paren.Column}
		}
		dt := types.ParseDataType(typeArg.Name.Lexeme)
		if dt == types.Unknown {
			return types.Unknown, &Error{Kind: ErrUnknownType, Message: fmt.Sprintf("unknown type %q", typeArg.Name.Lexeme), Line: typeArg.Name.Line, Column: typeArg.Name.Column}
		}
		return dt, nil
	}

	sym, ok := a.table.Find(callee.Name.Lexeme)
	if !ok {
		return types.Unknown, &Error{Kind: ErrUndefinedSymbol, Message: fmt.Sprintf("undefined function %q", callee.Name.Lexeme), Line: callee.Name.Line, Column: callee.Name.Column}
	}
	if sym.Type != types.Function {
		return types.Unknown, &Error{Kind: ErrInvalidCallee, Message: fmt.Sprintf("%q is not a function", callee.Name.Lexeme), Line: callee.Name.Line, Column: callee.Name.Column}
	}

	for _, arg := range expr.Arguments {
		if _, err := a.typeOf(arg); err != nil {
			return types.Unknown, err
		}
	}

	if sym.Arity >= 0 && sym.Arity != len(expr.Arguments) {
		return types.Unknown, &Error{Kind: ErrArityMismatch, Message: fmt.Sprintf("function %q expects %d argument(s) but got %d", callee.Name.Lexeme, sym.Arity, len(expr.Arguments)), Line: expr.Paren.Line, Column: expr.Paren.Column}
	}

	return sym.ReturnType, nil
}
