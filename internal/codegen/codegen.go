// Package codegen translates a type-checked, optimized internal/ast tree
// into a line-oriented textual assembly listing for the Target VM, via a
// Go type switch in place of the grounding source's generate_<Tag>
// dynamic dispatch.
package codegen

import (
	"fmt"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/symbols"
	"github.com/oaraujo/pasc/internal/token"
	"github.com/oaraujo/pasc/internal/types"
	"github.com/oaraujo/pasc/pkg/ident"
)

// Frame holds the addressing state for one block: the global program
// block, or a single subprogram body. It is pushed on subprogram entry
// and popped on exit, per §3.7.
type Frame struct {
	Offsets    map[string]int
	NextOffset int
}

func newFrame() *Frame {
	return &Frame{Offsets: make(map[string]int)}
}

// isLocal reports whether this frame is function-local: true iff the
// sentinel "$return" has been bound, matching §3.6 exactly (a procedure's
// own frame is therefore NOT "local" by this rule — only its negative
// parameter offsets route through FP; its own non-negative locals route
// through GP, preserved unchanged from the grounding source).
func (f *Frame) isLocal() bool {
	_, ok := f.Offsets["$return"]
	return ok
}

// Generator emits Target VM assembly for one compilation unit.
type Generator struct {
	diags  *diag.Bag
	lines  []string
	frame  *Frame
	labels map[string]string
	labelN int

	global       *symbols.Scope
	scopes       map[*ast.Block]*symbols.Scope
	currentScope *symbols.Scope

	aborted bool
}

// Generate compiles prog into an assembly listing. scopes and global are
// the analyzer's resolved scope tree, reused here instead of re-deriving
// name resolution from scratch. An internal panic is converted into a
// single internal-stage diagnostic and a nil listing.
func Generate(prog *ast.Program, scopes map[*ast.Block]*symbols.Scope, global *symbols.Scope, diags *diag.Bag) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			diags.Errorf(diag.StageInternal, token.Position{}, "internal error during code generation: %v", r)
			lines = nil
		}
	}()
	g := &Generator{
		diags:  diags,
		frame:  newFrame(),
		labels: make(map[string]string),
		global: global,
		scopes: scopes,
	}
	g.currentScope = global

	g.emit("PUSHI 0")
	g.emit("PUSHI 0")
	g.emit("START")
	if prog != nil && prog.Block != nil {
		g.genBlock(prog.Block)
	}
	g.emit("STOP")
	return g.lines
}

func (g *Generator) emit(s string) {
	if g.aborted {
		return
	}
	g.lines = append(g.lines, s)
}

func (g *Generator) emitf(format string, args ...any) {
	g.emit(fmt.Sprintf(format, args...))
}

func (g *Generator) createLabel() string {
	l := fmt.Sprintf("L%d", g.labelN)
	g.labelN++
	return l
}

func (g *Generator) abort(pos token.Position, format string, args ...any) {
	g.diags.Semantic(pos, format, args...)
	g.aborted = true
}

// ---- program structure ----

// genBlock lays out a block per §4.6: global allocation, jump over
// subprogram bodies, each subprogram body, the main label, then the body.
func (g *Generator) genBlock(b *ast.Block) {
	scope := g.scopes[b]
	if scope == nil {
		scope = g.currentScope
	}
	prevScope := g.currentScope
	g.currentScope = scope

	g.allocateDeclarations(b.Decls, scope)

	lblMain := g.createLabel()
	g.emitf("JUMP %s", lblMain)

	for _, sub := range b.Subprograms {
		g.genSubprogram(sub)
	}

	g.emitf("%s:", lblMain)
	if b.Body != nil {
		g.genStatement(b.Body)
	}

	g.currentScope = prevScope
}

func sizeOf(t ast.TypeNode) int {
	if arr, ok := t.(*ast.ArrayType); ok {
		return arr.Hi - arr.Lo + 1
	}
	return 1
}

// allocateDeclarations assigns each declared name an offset in the
// current frame and emits PUSHN for the total, per §4.6's block layout.
func (g *Generator) allocateDeclarations(decls []*ast.Declaration, scope *symbols.Scope) {
	total := 0
	for _, decl := range decls {
		size := sizeOf(decl.Type)
		for _, name := range decl.Names {
			g.frame.Offsets[ident.Normalize(name)] = g.frame.NextOffset
			if sym, ok := scope.ResolveLocal(name); ok {
				sym.Index = g.frame.NextOffset
				sym.IsGlobal = !g.frame.isLocal()
			}
			g.frame.NextOffset += size
			total += size
		}
	}
	if total > 0 {
		g.emitf("PUSHN %d", total)
	}
}

func (g *Generator) genSubprogram(sub ast.Subprogram) {
	switch s := sub.(type) {
	case *ast.FunctionDecl:
		g.genSubprogramBody(s.Name, s.Params, s.Body, true)
	case *ast.ProcedureDecl:
		g.genSubprogramBody(s.Name, s.Params, s.Body, false)
	}
}

// genSubprogramBody implements §4.6's 8-step subprogram compilation.
func (g *Generator) genSubprogramBody(name string, params []*ast.Parameter, body *ast.Block, isFunction bool) {
	lbl := g.createLabel()
	g.labels[ident.Normalize(name)] = lbl
	g.emitf("%s:", lbl)

	savedFrame := g.frame
	g.frame = newFrame()

	scope := g.scopes[body]

	var flatNames []string
	for _, p := range params {
		flatNames = append(flatNames, p.Names...)
	}
	offset := -1
	for i := len(flatNames) - 1; i >= 0; i-- {
		pname := flatNames[i]
		g.frame.Offsets[ident.Normalize(pname)] = offset
		if sym, ok := scope.ResolveLocal(pname); ok {
			sym.Index = offset
			sym.IsGlobal = false
		}
		offset--
	}

	g.frame.NextOffset = 0
	if isFunction {
		g.frame.Offsets["$return"] = g.frame.NextOffset
		g.frame.Offsets[ident.Normalize(name)] = g.frame.NextOffset
		if sym, ok := scope.ResolveLocal(name); ok {
			sym.Index = g.frame.NextOffset
			sym.IsGlobal = false
		}
		g.frame.NextOffset++
		g.emit("PUSHI 0")
	}

	g.genBlock(body)

	if isFunction {
		g.emitf("PUSHL %d", g.frame.Offsets["$return"])
	}
	g.emit("RETURN")

	g.frame = savedFrame
}

// ---- statements ----

func (g *Generator) genStatement(stmt ast.Statement) {
	if g.aborted || stmt == nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.CompoundStatement:
		for _, inner := range s.Statements {
			g.genStatement(inner)
		}

	case *ast.AssignmentStatement:
		g.genAssignment(s)

	case *ast.IfStatement:
		lblElse := g.createLabel()
		lblEnd := g.createLabel()
		g.genExpr(s.Cond)
		g.emitf("JZ %s", lblElse)
		g.genStatement(s.Then)
		g.emitf("JUMP %s", lblEnd)
		g.emitf("%s:", lblElse)
		g.genStatement(s.Else)
		g.emitf("%s:", lblEnd)

	case *ast.WhileStatement:
		lblStart := g.createLabel()
		lblEnd := g.createLabel()
		g.emitf("%s:", lblStart)
		g.genExpr(s.Cond)
		g.emitf("JZ %s", lblEnd)
		g.genStatement(s.Body)
		g.emitf("JUMP %s", lblStart)
		g.emitf("%s:", lblEnd)

	case *ast.ForStatement:
		g.genForStatement(s)

	case *ast.ReadStatement:
		g.genReadStatement(s)

	case *ast.WriteStatement:
		for _, e := range s.Exprs {
			g.genExpr(e)
			if _, ok := e.(*ast.StringConstant); ok {
				g.emit("WRITES")
			} else {
				g.emit("WRITEI")
			}
		}

	case *ast.ProcedureCallStatement:
		g.genCall(s.Name, s.Args, s.Pos_)

	default:
		// nil / unreachable statement kinds are no-ops, per §4.5's dead
		// branch rule ("handled by the code generator as emit nothing").
	}
}

func (g *Generator) genAssignment(s *ast.AssignmentStatement) {
	if arr, ok := s.LHS.(*ast.ArrayAccess); ok {
		if g.elemTypeOf(arr) == types.Real {
			g.abort(arr.Pos_, "real-valued code generation is not supported")
			return
		}
		g.genArrayAddr(arr)
		g.genExpr(s.RHS)
		g.emit("STORE 0")
		return
	}
	v := s.LHS.(*ast.VariableAccess)
	if g.typeOfName(v.Name) == types.Real {
		g.abort(v.Pos_, "real-valued code generation is not supported")
		return
	}
	g.genExpr(s.RHS)
	g.storeVariable(v.Name, v.Pos_)
}

func (g *Generator) genForStatement(s *ast.ForStatement) {
	if g.typeOfName(s.Var.Name) == types.Real {
		g.abort(s.Var.Pos_, "real-valued code generation is not supported")
		return
	}
	g.genExpr(s.Start)
	g.storeVariable(s.Var.Name, s.Var.Pos_)

	lblLoop := g.createLabel()
	lblEnd := g.createLabel()

	g.emitf("%s:", lblLoop)
	g.loadVariable(s.Var.Name, s.Var.Pos_)
	g.genExpr(s.End)
	if s.Down {
		g.emit("SUPEQ")
	} else {
		g.emit("INFEQ")
	}
	g.emitf("JZ %s", lblEnd)

	g.genStatement(s.Body)

	g.loadVariable(s.Var.Name, s.Var.Pos_)
	g.emit("PUSHI 1")
	if s.Down {
		g.emit("SUB")
	} else {
		g.emit("ADD")
	}
	g.storeVariable(s.Var.Name, s.Var.Pos_)
	g.emitf("JUMP %s", lblLoop)
	g.emitf("%s:", lblEnd)
}

func (g *Generator) genReadStatement(s *ast.ReadStatement) {
	for _, v := range s.Vars {
		switch target := v.(type) {
		case *ast.ArrayAccess:
			if g.elemTypeOf(target) == types.Real {
				g.abort(target.Pos_, "real-valued code generation is not supported")
				return
			}
			g.genArrayAddr(target)
			g.emit("READ")
			if g.elemTypeOf(target) == types.Integer {
				g.emit("ATOI")
			}
			g.emit("STORE 0")
		case *ast.VariableAccess:
			if g.typeOfName(target.Name) == types.Real {
				g.abort(target.Pos_, "real-valued code generation is not supported")
				return
			}
			g.emit("READ")
			if g.typeOfName(target.Name) == types.Integer {
				g.emit("ATOI")
			}
			g.storeVariable(target.Name, target.Pos_)
		}
	}
}

// ---- calls ----

var ioBuiltins = []string{"write", "writeln", "read", "readln"}

func (g *Generator) genCall(name string, args []ast.Expression, pos token.Position) {
	if ident.Equal(name, "length") {
		if len(args) > 0 {
			g.genExpr(args[0])
		}
		g.emit("STRLEN")
		return
	}
	if ident.Contains(ioBuiltins, name) {
		return
	}
	for _, arg := range args {
		g.genExpr(arg)
	}
	lbl, ok := g.labels[ident.Normalize(name)]
	if !ok {
		g.abort(pos, "undefined subprogram '%s'", name)
		return
	}
	g.emitf("PUSHA %s", lbl)
	g.emit("CALL")
}

// ---- expressions ----

func (g *Generator) genExpr(expr ast.Expression) {
	if g.aborted || expr == nil {
		return
	}
	if g.typeOf(expr) == types.Real {
		g.abort(expr.Pos(), "real-valued code generation is not supported")
		return
	}
	switch e := expr.(type) {
	case *ast.IntegerConstant:
		g.emitf("PUSHI %d", e.Value)

	case *ast.StringConstant:
		g.emitf("PUSHS \"%s\"", e.Value)

	case *ast.BooleanConstant:
		if e.Value {
			g.emit("PUSHI 1")
		} else {
			g.emit("PUSHI 0")
		}

	case *ast.VariableAccess:
		g.loadVariable(e.Name, e.Pos_)

	case *ast.ArrayAccess:
		g.genArrayRead(e)

	case *ast.FunctionCall:
		g.genCall(e.Name, e.Args, e.Pos_)

	case *ast.BinaryOp:
		g.genBinaryOp(e)

	case *ast.UnaryOp:
		g.genExpr(e.Operand)
		switch e.Op {
		case "not":
			g.emit("NOT")
		case "minus":
			g.emit("PUSHI -1")
			g.emit("MUL")
		}
	}
}

var binaryOps = map[string]string{
	"+": "ADD", "-": "SUB", "*": "MUL", "div": "DIV", "mod": "MOD",
	"=": "EQUAL", "<": "INF", ">": "SUP", "<=": "INFEQ", ">=": "SUPEQ",
	"and": "AND", "or": "OR",
}

// genBinaryOp implements the asymmetric string-equality fast path of
// §4.6 exactly: only `x = 'c'` / `x <> 'c'` with the one-character string
// literal on the right triggers it; 'c' = x does not.
func (g *Generator) genBinaryOp(e *ast.BinaryOp) {
	if e.Op == "=" || e.Op == "<>" {
		if lit, ok := e.Right.(*ast.StringConstant); ok && len(lit.Value) == 1 {
			g.genExpr(e.Left)
			g.emitf("PUSHI %d", lit.Value[0])
			g.emit("EQUAL")
			if e.Op == "<>" {
				g.emit("NOT")
			}
			return
		}
	}

	g.genExpr(e.Left)
	g.genExpr(e.Right)

	switch e.Op {
	case "<>":
		g.emit("EQUAL")
		g.emit("NOT")
	default:
		if instr, ok := binaryOps[e.Op]; ok {
			g.emit(instr)
		}
	}
}

// ---- addressing ----

func (g *Generator) emitVarAddr(offset int) {
	if offset < 0 || g.frame.isLocal() {
		g.emit("PUSHFP")
	} else {
		g.emit("PUSHGP")
	}
	g.emitf("PUSHI %d", offset)
	g.emit("PADD")
}

func (g *Generator) loadVariable(name string, pos token.Position) {
	offset, ok := g.resolveOffset(name, pos)
	if !ok {
		return
	}
	if offset < 0 || g.frame.isLocal() {
		g.emitf("PUSHL %d", offset)
	} else {
		g.emitf("PUSHG %d", offset)
	}
}

func (g *Generator) storeVariable(name string, pos token.Position) {
	offset, ok := g.resolveOffset(name, pos)
	if !ok {
		return
	}
	if offset < 0 || g.frame.isLocal() {
		g.emitf("STOREL %d", offset)
	} else {
		g.emitf("STOREG %d", offset)
	}
}

// resolveOffset implements §4.7's nested-subprogram guard: a name
// resolved neither in the current frame nor the global scope, but in an
// intermediate enclosing subprogram's scope, is diagnosed and aborts
// code generation rather than addressed against the wrong frame.
func (g *Generator) resolveOffset(name string, pos token.Position) (int, bool) {
	key := ident.Normalize(name)
	if off, ok := g.frame.Offsets[key]; ok {
		return off, true
	}
	if sym, ok := g.global.ResolveLocal(name); ok {
		return sym.Index, true
	}
	g.abort(pos, "access to an enclosing subprogram's local '%s' is not supported", name)
	return 0, false
}

// typeOf re-derives an expression's static type the same way the semantic
// analyzer does, so genExpr can diagnose a real-valued expression (§4.6)
// regardless of whether it reaches codegen as a literal, a variable, an
// array element, a function result, or an arithmetic operand — not only
// the literal *ast.RealConstant case.
func (g *Generator) typeOf(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case nil:
		return types.Unknown
	case *ast.IntegerConstant:
		return types.Integer
	case *ast.RealConstant:
		return types.Real
	case *ast.StringConstant:
		return types.String
	case *ast.BooleanConstant:
		return types.Boolean
	case *ast.VariableAccess:
		return g.typeOfName(e.Name)
	case *ast.ArrayAccess:
		if g.typeOfName(e.Name) == types.String {
			return types.String
		}
		return g.elemTypeOf(e)
	case *ast.FunctionCall:
		if ident.Equal(e.Name, "length") {
			return types.Integer
		}
		if sym, ok := g.currentScope.Resolve(e.Name); ok {
			return sym.ReturnType
		}
		return types.Unknown
	case *ast.UnaryOp:
		if e.Op == "not" {
			return types.Boolean
		}
		return g.typeOf(e.Operand)
	case *ast.BinaryOp:
		switch e.Op {
		case "+", "-", "*", "div", "mod":
			left, right := g.typeOf(e.Left), g.typeOf(e.Right)
			if left == types.Real || right == types.Real {
				return types.Real
			}
			return types.Integer
		default:
			return types.Boolean
		}
	default:
		return types.Unknown
	}
}

func (g *Generator) typeOfName(name string) types.Type {
	if sym, ok := g.currentScope.Resolve(name); ok {
		return sym.Type
	}
	return types.Unknown
}

func (g *Generator) elemTypeOf(arr *ast.ArrayAccess) types.Type {
	t := g.typeOfName(arr.Name)
	if a, ok := types.IsArray(t); ok {
		return a.Elem
	}
	return types.Unknown
}

// genArrayAddr computes the destination address of an array element,
// per §4.6's array-indexing rule (lower-bound normalization via PADD).
func (g *Generator) genArrayAddr(a *ast.ArrayAccess) {
	offset, ok := g.resolveOffset(a.Name, a.Pos_)
	if !ok {
		return
	}
	g.emitVarAddr(offset)
	g.genExpr(a.Index)

	t := g.typeOfName(a.Name)
	if arr, ok := types.IsArray(t); ok && arr.Lo != 0 {
		g.emitf("PUSHI %d", arr.Lo)
		g.emit("SUB")
	}
	g.emit("PADD")
}

// genArrayRead reads an array element, special-casing string indexing via
// CHARAT with a zero-based character index (Pascal strings are 1-based).
func (g *Generator) genArrayRead(a *ast.ArrayAccess) {
	t := g.typeOfName(a.Name)
	if t == types.String {
		offset, ok := g.resolveOffset(a.Name, a.Pos_)
		if !ok {
			return
		}
		if offset < 0 || g.frame.isLocal() {
			g.emitf("PUSHL %d", offset)
		} else {
			g.emitf("PUSHG %d", offset)
		}
		g.genExpr(a.Index)
		g.emit("PUSHI 1")
		g.emit("SUB")
		g.emit("CHARAT")
		return
	}
	g.genArrayAddr(a)
	g.emit("LOAD 0")
}

