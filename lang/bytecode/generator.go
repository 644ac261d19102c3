package bytecode

import (
	"fmt"

	"github.com/shadowCow/iodicium-go/lang/ast"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/token"
	"github.com/shadowCow/iodicium-go/lang/types"
)

// Error is a code-generation error: too many constants, an unresolved
// forward call, or an unsupported operator reaching the generator.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	if e.Line == 0 && e.Column == 0 {
		return fmt.Sprintf("codegen error: %s", e.Message)
	}
	return fmt.Sprintf("codegen error at %d:%d: %s", e.Line, e.Column, e.Message)
}

type local struct {
	name  string
	depth int
}

// Generator lowers a decorated AST (a slice of top-level ast.Statement)
// into a Chunk, resolving forward-call addresses with a two-pass
// emit-then-backpatch scheme.
//
// Grounded on original_source/src/compiler/codegen.cpp, generalized to
// spec.md's fixed OP_CALL layout (arg-count byte, 16-bit address) and
// extended with an explicit POP per SPEC_FULL.md's Open Question
// decisions. Call arity is checked by lang/semantics, not here.
type Generator struct {
	logger     *iodlog.Logger
	obfuscate  bool

	chunk       *Chunk
	functionIPs map[string]int
	callFixups  map[string][]int
	locals      []local
	scopeDepth  int

	obfMap     map[string]string
	obfCounter int
}

// NewGenerator creates a Generator. obfuscate enables deterministic
// identifier renaming for global constant names (the compile command's
// --obfuscate/-o option in lang/in/cli).
func NewGenerator(logger *iodlog.Logger, obfuscate bool) *Generator {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &Generator{logger: logger, obfuscate: obfuscate}
}

// Generate compiles statements into a Chunk. The entry IP of every
// function it emits is available afterwards from FunctionIPs, which the
// caller uses to build a library's export table.
func (g *Generator) Generate(statements []ast.Statement) (*Chunk, error) {
	g.logger.Debugf("generator: starting compilation of %d top-level statements", len(statements))
	g.chunk = NewChunk()
	g.functionIPs = map[string]int{}
	g.callFixups = map[string][]int{}
	g.locals = nil
	g.scopeDepth = 0
	g.obfMap = map[string]string{}
	g.obfCounter = 0

	for _, stmt := range statements {
		if err := g.genStatement(stmt); err != nil {
			return nil, err
		}
	}

	g.logger.Debugf("generator: backpatching %d unresolved call sites", len(g.callFixups))
	for name, offsets := range g.callFixups {
		ip, ok := g.functionIPs[name]
		if !ok {
			return nil, &Error{Message: fmt.Sprintf("internal compiler error: undefined function %q in fixup pass", name)}
		}
		for _, offset := range offsets {
			g.patchShort(offset, uint16(ip))
		}
	}

	g.emitByte(byte(OpConst))
	idx, err := g.chunk.AddConstant("")
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	g.emitByte(idx)
	g.emitByte(byte(OpReturn))
	return g.chunk, nil
}

// FunctionIPs returns the entry instruction pointer of every top-level
// function defined in the most recent Generate call, keyed by name —
// used by the caller to build a library chunk's export table.
func (g *Generator) FunctionIPs() map[string]int {
	return g.functionIPs
}

// ---- Statements ----

func (g *Generator) genStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Import:
		return nil // imports carry no runtime code
	case *ast.FunctionDecl:
		return nil // signature only, no body to compile
	case *ast.FunctionDef:
		return g.genFunctionDef(s)
	case *ast.VarDecl:
		return g.genVarDecl(s)
	case *ast.Return:
		return g.genReturn(s)
	case *ast.ExprStmt:
		return g.genExprStmt(s)
	default:
		return &Error{Message: fmt.Sprintf("unsupported statement type %T reached the generator", stmt)}
	}
}

func (g *Generator) genFunctionDef(stmt *ast.FunctionDef) error {
	// Function bodies are emitted inline, in source order. Without this
	// jump, a program whose first top-level statement is a function
	// definition would start execution at ip=0 inside that function
	// instead of falling through to the code that follows it.
	g.emitByte(byte(OpJump))
	jumpOperand := len(g.chunk.Code)
	g.emitShort(0xFFFF)

	g.logger.Debugf("generator: defining function %q at ip %d", stmt.Name.Lexeme, len(g.chunk.Code))
	g.functionIPs[stmt.Name.Lexeme] = len(g.chunk.Code)

	g.beginScope()
	for _, param := range stmt.Params {
		g.locals = append(g.locals, local{name: param.Name.Lexeme, depth: g.scopeDepth})
	}

	for _, bodyStmt := range stmt.Body {
		if err := g.genStatement(bodyStmt); err != nil {
			return err
		}
	}

	idx, err := g.chunk.AddConstant("")
	if err != nil {
		return &Error{Message: err.Error(), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}
	g.emitBytes(byte(OpConst), idx)
	g.emitByte(byte(OpReturn))

	g.endScope()
	g.patchShort(jumpOperand, uint16(len(g.chunk.Code)))
	return nil
}

func (g *Generator) genVarDecl(stmt *ast.VarDecl) error {
	if stmt.Initializer != nil {
		if err := g.genExpression(stmt.Initializer); err != nil {
			return err
		}
	} else {
		idx, err := g.chunk.AddConstant("")
		if err != nil {
			return &Error{Message: err.Error(), Line: stmt.Name.Line, Column: stmt.Name.Column}
		}
		g.emitBytes(byte(OpConst), idx)
	}

	if g.scopeDepth > 0 {
		g.locals = append(g.locals, local{name: stmt.Name.Lexeme, depth: g.scopeDepth})
		return nil
	}

	idx, err := g.chunk.AddConstant(g.obfuscatedName(stmt.Name.Lexeme))
	if err != nil {
		return &Error{Message: err.Error(), Line: stmt.Name.Line, Column: stmt.Name.Column}
	}
	g.emitBytes(byte(OpDefineGlobal), idx)
	return nil
}

func (g *Generator) genReturn(stmt *ast.Return) error {
	if stmt.Value != nil {
		if err := g.genExpression(stmt.Value); err != nil {
			return err
		}
	} else {
		idx, err := g.chunk.AddConstant("")
		if err != nil {
			return &Error{Message: err.Error(), Line: stmt.Keyword.Line, Column: stmt.Keyword.Column}
		}
		g.emitBytes(byte(OpConst), idx)
	}
	g.emitByte(byte(OpReturn))
	return nil
}

// isVoidBuiltinCall reports whether expr is a call to a builtin that
// lowers to an opcode with no result value; an
// ExprStmt wrapping one of these needs no trailing POP (SPEC_FULL.md
// Open Question #1).
func isVoidBuiltinCall(expr ast.Expression) bool {
	call, ok := expr.(*ast.Call)
	if !ok {
		return false
	}
	callee, ok := call.Callee.(*ast.Variable)
	if !ok {
		return false
	}
	switch callee.Name.Lexeme {
	case "writeOut", "writeErr", "flush":
		return true
	default:
		return false
	}
}

func (g *Generator) genExprStmt(stmt *ast.ExprStmt) error {
	if err := g.genExpression(stmt.Expression); err != nil {
		return err
	}
	if !isVoidBuiltinCall(stmt.Expression) {
		g.emitByte(byte(OpPop))
	}
	return nil
}

// ---- Expressions ----

func (g *Generator) genExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.Literal:
		return g.genLiteral(e)
	case *ast.Variable:
		return g.genVariable(e)
	case *ast.Grouping:
		return g.genExpression(e.Inner)
	case *ast.Binary:
		return g.genBinary(e)
	case *ast.Assign:
		return g.genAssign(e)
	case *ast.Call:
		return g.genCall(e)
	default:
		return &Error{Message: fmt.Sprintf("unsupported expression type %T reached the generator", expr)}
	}
}

func (g *Generator) genLiteral(expr *ast.Literal) error {
	idx, err := g.chunk.AddConstant(expr.Token.Lexeme)
	if err != nil {
		return &Error{Message: err.Error(), Line: expr.Token.Line, Column: expr.Token.Column}
	}
	g.emitBytes(byte(OpConst), idx)
	return nil
}

func (g *Generator) genVariable(expr *ast.Variable) error {
	if slot, ok := g.resolveLocal(expr.Name.Lexeme); ok {
		g.emitBytes(byte(OpGetLocal), byte(slot))
		return nil
	}
	idx, err := g.chunk.AddConstant(g.obfuscatedName(expr.Name.Lexeme))
	if err != nil {
		return &Error{Message: err.Error(), Line: expr.Name.Line, Column: expr.Name.Column}
	}
	g.emitBytes(byte(OpGetGlobal), idx)
	return nil
}

func (g *Generator) genAssign(expr *ast.Assign) error {
	if err := g.genExpression(expr.Value); err != nil {
		return err
	}
	if slot, ok := g.resolveLocal(expr.Name.Lexeme); ok {
		g.emitBytes(byte(OpSetLocal), byte(slot))
		return nil
	}
	idx, err := g.chunk.AddConstant(g.obfuscatedName(expr.Name.Lexeme))
	if err != nil {
		return &Error{Message: err.Error(), Line: expr.Name.Line, Column: expr.Name.Column}
	}
	g.emitBytes(byte(OpSetGlobal), idx)
	return nil
}

func (g *Generator) genBinary(expr *ast.Binary) error {
	if err := g.genExpression(expr.Left); err != nil {
		return err
	}
	if err := g.genExpression(expr.Right); err != nil {
		return err
	}
	switch expr.Op.Kind {
	case token.Plus:
		g.emitByte(byte(OpAdd))
	case token.Minus:
		g.emitByte(byte(OpSub))
	case token.Star:
		g.emitByte(byte(OpMul))
	case token.Slash:
		g.emitByte(byte(OpDiv))
	default:
		return &Error{Message: fmt.Sprintf("unsupported binary operator %q", expr.Op.Lexeme), Line: expr.Op.Line, Column: expr.Op.Column}
	}
	return nil
}

func (g *Generator) genCall(expr *ast.Call) error {
	callee, ok := expr.Callee.(*ast.Variable)
	if !ok {
		pos := expr.Callee.Pos()
		return &Error{Message: "invalid callee expression", Line: pos.Line, Column: pos.Column}
	}

	switch callee.Name.Lexeme {
	case "writeOut", "writeErr":
		if err := g.genExpression(expr.Arguments[0]); err != nil {
			return err
		}
		if callee.Name.Lexeme == "writeOut" {
			g.emitByte(byte(OpWriteOut))
		} else {
			g.emitByte(byte(OpWriteErr))
		}
		return nil
	case "flush":
		g.emitByte(byte(OpFlush))
		return nil
	case "convert":
		if err := g.genExpression(expr.Arguments[0]); err != nil {
			return err
		}
		typeArg, ok := expr.Arguments[1].(*ast.Variable)
		if !ok {
			return &Error{Message: "second argument to convert() must be a type name", Line: expr.Paren.Line, Column: expr.Paren.Column}
		}
		g.emitBytes(byte(OpConvert), byte(types.ParseDataType(typeArg.Name.Lexeme)))
		return nil
	}

	for _, arg := range expr.Arguments {
		if err := g.genExpression(arg); err != nil {
			return err
		}
	}
	g.emitByte(byte(OpCall))
	g.emitByte(byte(len(expr.Arguments)))

	if ip, ok := g.functionIPs[callee.Name.Lexeme]; ok {
		g.emitShort(uint16(ip))
	} else {
		offset := len(g.chunk.Code)
		g.emitShort(0xFFFF)
		g.callFixups[callee.Name.Lexeme] = append(g.callFixups[callee.Name.Lexeme], offset)
	}
	return nil
}

// ---- Scope / locals ----

func (g *Generator) beginScope() { g.scopeDepth++ }

func (g *Generator) endScope() {
	g.scopeDepth--
	for len(g.locals) > 0 && g.locals[len(g.locals)-1].depth > g.scopeDepth {
		g.locals = g.locals[:len(g.locals)-1]
	}
}

func (g *Generator) resolveLocal(name string) (int, bool) {
	for i := len(g.locals) - 1; i >= 0; i-- {
		if g.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// ---- Emission helpers ----

func (g *Generator) emitByte(b byte) { g.chunk.Code = append(g.chunk.Code, b) }

func (g *Generator) emitBytes(b1, b2 byte) {
	g.emitByte(b1)
	g.emitByte(b2)
}

func (g *Generator) emitShort(value uint16) {
	g.emitByte(byte(value >> 8))
	g.emitByte(byte(value))
}

func (g *Generator) patchShort(offset int, value uint16) {
	g.chunk.Code[offset] = byte(value >> 8)
	g.chunk.Code[offset+1] = byte(value)
}

func (g *Generator) obfuscatedName(original string) string {
	if !g.obfuscate {
		return original
	}
	if name, ok := g.obfMap[original]; ok {
		return name
	}
	name := fmt.Sprintf("_o%d", g.obfCounter)
	g.obfCounter++
	g.obfMap[original] = name
	return name
}
