// Package semantic resolves declarations, infers and checks types, and
// recognizes built-ins over a parsed internal/ast tree, accumulating
// diagnostics into a shared internal/diag.Bag.
package semantic

import (
	"fmt"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/symbols"
	"github.com/oaraujo/pasc/internal/token"
	"github.com/oaraujo/pasc/internal/types"
	"github.com/oaraujo/pasc/pkg/ident"
)

// exprContext and stmtContext carry the booleans the grounding source
// tracks as mutable analyzer fields (in_lhs_of_assignment, in_loop).
// Threading them as explicit parameters avoids mutable state shared
// across a recursive-descent walk.
type exprContext struct {
	inLHS bool
}

type stmtContext struct {
	inLoop bool
}

// Analyzer walks a program tree, building scopes and checking types.
type Analyzer struct {
	diags  *diag.Bag
	Global *symbols.Scope

	// Scopes maps each block to the scope active while it was analyzed,
	// so the code generator can re-resolve names with correct
	// global/local/enclosing-subprogram classification instead of
	// redoing name resolution from scratch.
	Scopes map[*ast.Block]*symbols.Scope
}

// NewAnalyzer constructs an Analyzer reporting into diags.
func NewAnalyzer(diags *diag.Bag) *Analyzer {
	return &Analyzer{diags: diags, Global: symbols.NewScope(), Scopes: make(map[*ast.Block]*symbols.Scope)}
}

// Analyze walks prog end to end. Internal panics are converted into a
// single internal-stage diagnostic rather than propagating.
func (a *Analyzer) Analyze(prog *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.diags.Add(&diag.Diagnostic{Severity: diag.SeverityError, Stage: diag.StageInternal, Message: fmt.Sprintf("internal error during semantic analysis: %v", r)})
			err = fmt.Errorf("internal error during semantic analysis: %v", r)
		}
	}()
	if prog == nil || prog.Block == nil {
		return nil
	}
	a.visitBlock(a.Global, prog.Block)
	if a.diags.HasErrors() {
		return fmt.Errorf("%d semantic error(s)", len(a.diags.Errors()))
	}
	return nil
}

// visitBlock visits declarations, then subprograms, then the body, per
// the grounding source's explicit comment on required visit order.
func (a *Analyzer) visitBlock(scope *symbols.Scope, block *ast.Block) {
	a.Scopes[block] = scope
	for _, decl := range block.Decls {
		a.visitDeclaration(scope, decl)
	}
	for _, sub := range block.Subprograms {
		a.visitSubprogram(scope, sub)
	}
	if block.Body != nil {
		a.checkStmt(scope, block.Body, stmtContext{})
	}
}

func (a *Analyzer) visitDeclaration(scope *symbols.Scope, decl *ast.Declaration) {
	t := typeFromNode(decl.Type)
	for _, name := range decl.Names {
		if _, exists := scope.ResolveLocal(name); exists {
			a.diags.Semantic(decl.Pos_, "variable '%s' already declared in this scope", name)
			continue
		}
		scope.Define(&symbols.Symbol{Name: name, Kind: symbols.Variable, Type: t})
	}
}

func typeFromNode(n ast.TypeNode) types.Type {
	switch t := n.(type) {
	case *ast.BasicType:
		switch t.Name {
		case "integer":
			return types.Integer
		case "boolean":
			return types.Boolean
		case "string":
			return types.String
		case "real":
			return types.Real
		default:
			return types.Unknown
		}
	case *ast.ArrayType:
		return types.Array{Lo: t.Lo, Hi: t.Hi, Elem: typeFromNode(t.Elem)}
	default:
		return types.Unknown
	}
}

func paramTypes(params []*ast.Parameter) []types.Type {
	var out []types.Type
	for _, p := range params {
		t := typeFromNode(p.Type)
		for range p.Names {
			out = append(out, t)
		}
	}
	return out
}

func (a *Analyzer) visitSubprogram(scope *symbols.Scope, sub ast.Subprogram) {
	switch s := sub.(type) {
	case *ast.FunctionDecl:
		retType := typeFromNode(s.ReturnType)
		if _, exists := scope.ResolveLocal(s.Name); exists {
			a.diags.Semantic(s.Pos_, "function '%s' already declared", s.Name)
		} else {
			scope.Define(&symbols.Symbol{Name: s.Name, Kind: symbols.Function, ParamTypes: paramTypes(s.Params), ReturnType: retType})
		}

		inner := symbols.NewChildScope(scope)
		// Pascal convention: assigning to the function's own name sets
		// the return value, so it is additionally bound as a variable.
		inner.Define(&symbols.Symbol{Name: s.Name, Kind: symbols.Variable, Type: retType})
		a.registerParams(inner, s.Params)
		if s.Body != nil {
			a.visitBlock(inner, s.Body)
		}

	case *ast.ProcedureDecl:
		if _, exists := scope.ResolveLocal(s.Name); exists {
			a.diags.Semantic(s.Pos_, "procedure '%s' already declared", s.Name)
		} else {
			scope.Define(&symbols.Symbol{Name: s.Name, Kind: symbols.Procedure, ParamTypes: paramTypes(s.Params)})
		}

		inner := symbols.NewChildScope(scope)
		a.registerParams(inner, s.Params)
		if s.Body != nil {
			a.visitBlock(inner, s.Body)
		}
	}
}

func (a *Analyzer) registerParams(scope *symbols.Scope, params []*ast.Parameter) {
	for _, p := range params {
		t := typeFromNode(p.Type)
		for _, name := range p.Names {
			scope.Define(&symbols.Symbol{Name: name, Kind: symbols.Parameter, Type: t, Initialized: true})
		}
	}
}

// ---- statements ----

func (a *Analyzer) checkStmt(scope *symbols.Scope, stmt ast.Statement, ctx stmtContext) {
	switch s := stmt.(type) {
	case nil:
		return
	case *ast.CompoundStatement:
		for _, inner := range s.Statements {
			a.checkStmt(scope, inner, ctx)
		}

	case *ast.AssignmentStatement:
		lhsType := a.checkExpr(scope, s.LHS, exprContext{inLHS: true})
		rhsType := a.checkExpr(scope, s.RHS, exprContext{})
		if !types.IsError(lhsType) && !types.IsError(rhsType) && !types.AssignableTo(rhsType, lhsType) {
			a.diags.Semantic(s.Pos_, "cannot assign '%s' to '%s'", rhsType, lhsType)
		}
		if v, ok := s.LHS.(*ast.VariableAccess); ok {
			if sym, found := scope.Resolve(v.Name); found {
				sym.Initialized = true
			}
		}

	case *ast.IfStatement:
		condType := a.checkExpr(scope, s.Cond, exprContext{})
		if condType != types.Boolean && !types.IsError(condType) {
			a.diags.Semantic(s.Pos_, "'if' condition must be boolean, found '%s'", condType)
		}
		a.checkStmt(scope, s.Then, ctx)
		a.checkStmt(scope, s.Else, ctx)

	case *ast.WhileStatement:
		condType := a.checkExpr(scope, s.Cond, exprContext{})
		if condType != types.Boolean && !types.IsError(condType) {
			a.diags.Semantic(s.Pos_, "'while' condition must be boolean, found '%s'", condType)
		}
		a.checkStmt(scope, s.Body, stmtContext{inLoop: true})

	case *ast.ForStatement:
		if sym, found := scope.Resolve(s.Var.Name); !found {
			a.diags.Semantic(s.Pos_, "control variable '%s' not declared", s.Var.Name)
		} else {
			sym.Initialized = true
		}
		startType := a.checkExpr(scope, s.Start, exprContext{})
		endType := a.checkExpr(scope, s.End, exprContext{})
		if (startType != types.Integer && !types.IsError(startType)) || (endType != types.Integer && !types.IsError(endType)) {
			a.diags.Semantic(s.Pos_, "'for' bounds must be integer")
		}
		a.checkStmt(scope, s.Body, stmtContext{inLoop: true})

	case *ast.ReadStatement:
		for _, v := range s.Vars {
			t := a.checkExpr(scope, v, exprContext{inLHS: true})
			if !types.IsError(t) && t != types.Integer && t != types.Real && t != types.String {
				a.diags.Semantic(s.Pos_, "cannot read into a value of type '%s'", t)
			}
			if va, ok := v.(*ast.VariableAccess); ok {
				if sym, found := scope.Resolve(va.Name); found {
					sym.Initialized = true
				}
			}
		}

	case *ast.WriteStatement:
		for _, e := range s.Exprs {
			a.checkExpr(scope, e, exprContext{})
		}

	case *ast.ProcedureCallStatement:
		a.checkProcedureCall(scope, s)

	default:
		// unreachable for a closed ast.Statement sum
	}
}

var ioBuiltins = []string{"write", "writeln", "read", "readln"}

func (a *Analyzer) checkProcedureCall(scope *symbols.Scope, call *ast.ProcedureCallStatement) {
	if ident.Contains(ioBuiltins, call.Name) {
		return
	}
	sym, found := scope.Resolve(call.Name)
	if !found {
		a.diags.Semantic(call.Pos_, "procedure '%s' not declared", call.Name)
		return
	}
	if sym.Kind != symbols.Procedure {
		a.diags.Semantic(call.Pos_, "'%s' is not a procedure", call.Name)
		return
	}
	a.checkArgs(scope, call.Pos_, call.Args, sym.ParamTypes, call.Name)
}

// ---- expressions ----

func (a *Analyzer) checkExpr(scope *symbols.Scope, expr ast.Expression, ctx exprContext) types.Type {
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
		sym, found := scope.Resolve(e.Name)
		if !found {
			a.diags.Semantic(e.Pos_, "identifier '%s' not declared", e.Name)
			return types.Error
		}
		return sym.Type

	case *ast.ArrayAccess:
		sym, found := scope.Resolve(e.Name)
		if !found {
			a.diags.Semantic(e.Pos_, "array '%s' not declared", e.Name)
			a.checkExpr(scope, e.Index, exprContext{})
			return types.Error
		}
		arr, isArray := types.IsArray(sym.Type)
		isString := sym.Type == types.String
		if !isArray && !isString {
			a.diags.Semantic(e.Pos_, "'%s' is not indexable (not an array or string)", e.Name)
			a.checkExpr(scope, e.Index, exprContext{})
			return types.Error
		}
		indexType := a.checkExpr(scope, e.Index, exprContext{})
		if indexType != types.Integer && !types.IsError(indexType) {
			a.diags.Semantic(e.Index.Pos(), "array index must be integer")
		}
		if isString {
			return types.String
		}
		return arr.Elem

	case *ast.BinaryOp:
		return a.checkBinaryOp(scope, e)

	case *ast.UnaryOp:
		operand := a.checkExpr(scope, e.Operand, exprContext{})
		if types.IsError(operand) {
			return types.Error
		}
		switch e.Op {
		case "not":
			if operand != types.Boolean {
				a.diags.Semantic(e.Pos_, "'not' requires a boolean operand")
				return types.Error
			}
			return types.Boolean
		case "minus":
			if !types.IsNumeric(operand) {
				a.diags.Semantic(e.Pos_, "unary minus requires a numeric operand")
				return types.Error
			}
			return operand
		}
		return types.Error

	case *ast.FunctionCall:
		return a.checkFunctionCall(scope, e)

	default:
		return types.Unknown
	}
}

func (a *Analyzer) checkBinaryOp(scope *symbols.Scope, e *ast.BinaryOp) types.Type {
	left := a.checkExpr(scope, e.Left, exprContext{})
	right := a.checkExpr(scope, e.Right, exprContext{})
	if types.IsError(left) || types.IsError(right) {
		return types.Error
	}

	switch e.Op {
	case "+", "-", "*", "div", "mod":
		if left == types.Integer && right == types.Integer {
			return types.Integer
		}
		if left == types.Real || right == types.Real {
			if types.IsNumeric(left) && types.IsNumeric(right) {
				return types.Real
			}
		}
		a.diags.Semantic(e.Pos_, "operator '%s' requires numeric operands, found '%s' and '%s'", e.Op, left, right)
		return types.Error

	case "=", "<>", "<", ">", "<=", ">=":
		if types.AssignableTo(left, right) || types.AssignableTo(right, left) {
			return types.Boolean
		}
		a.diags.Semantic(e.Pos_, "invalid comparison between '%s' and '%s'", left, right)
		return types.Error

	case "and", "or":
		if left == types.Boolean && right == types.Boolean {
			return types.Boolean
		}
		a.diags.Semantic(e.Pos_, "logical operator '%s' requires boolean operands", e.Op)
		return types.Error
	}
	return types.Error
}

func (a *Analyzer) checkFunctionCall(scope *symbols.Scope, call *ast.FunctionCall) types.Type {
	if ident.Equal(call.Name, "length") {
		for _, arg := range call.Args {
			a.checkExpr(scope, arg, exprContext{})
		}
		return types.Integer
	}

	sym, found := scope.Resolve(call.Name)
	if !found {
		a.diags.Semantic(call.Pos_, "function '%s' not declared", call.Name)
		for _, arg := range call.Args {
			a.checkExpr(scope, arg, exprContext{})
		}
		return types.Error
	}
	if sym.Kind != symbols.Function {
		a.diags.Semantic(call.Pos_, "'%s' is not a function", call.Name)
		return types.Error
	}
	a.checkArgs(scope, call.Pos_, call.Args, sym.ParamTypes, call.Name)
	return sym.ReturnType
}

func (a *Analyzer) checkArgs(scope *symbols.Scope, pos token.Position, args []ast.Expression, expected []types.Type, name string) {
	given := make([]types.Type, len(args))
	for i, arg := range args {
		given[i] = a.checkExpr(scope, arg, exprContext{})
	}
	if len(given) != len(expected) {
		a.diags.Semantic(pos, "'%s' expects %d argument(s), found %d", name, len(expected), len(given))
		return
	}
	for i, exp := range expected {
		if !types.AssignableTo(given[i], exp) {
			a.diags.Semantic(pos, "argument %d of '%s': expected '%s', found '%s'", i+1, name, exp, given[i])
		}
	}
}
