// Package optimizer performs a post-order constant-folding and
// dead-branch-elimination rewrite over a type-checked internal/ast tree,
// line-for-line grounded on the fold rules of the grounding source this
// specification was distilled from.
package optimizer

import "github.com/oaraujo/pasc/internal/ast"

// Stats tallies how many rewrites a Fold pass actually performed, reported
// by the CLI as "N simplifications".
type Stats struct {
	Count int
}

// Fold rewrites a whole program in place (by replacing child fields with
// folded results) and returns the accumulated rewrite count.
func Fold(prog *ast.Program) Stats {
	st := &Stats{}
	if prog != nil && prog.Block != nil {
		foldBlock(st, prog.Block)
	}
	return *st
}

func foldBlock(st *Stats, b *ast.Block) {
	for _, sub := range b.Subprograms {
		switch s := sub.(type) {
		case *ast.FunctionDecl:
			if s.Body != nil {
				foldBlock(st, s.Body)
			}
		case *ast.ProcedureDecl:
			if s.Body != nil {
				foldBlock(st, s.Body)
			}
		}
	}
	if b.Body != nil {
		b.Body = foldStatement(st, b.Body).(*ast.CompoundStatement)
	}
}

// foldStatement recurses into a statement's children, folding expressions
// first, then applies the statement-level rules (currently only
// dead-branch elimination on IfStatement). It returns nil for a statement
// that folds away entirely, matching §4.5's "an empty no-op statement
// (nil)" rule.
func foldStatement(st *Stats, stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case nil:
		return nil

	case *ast.CompoundStatement:
		for i, inner := range s.Statements {
			s.Statements[i] = foldStatement(st, inner)
		}
		out := s.Statements[:0]
		for _, inner := range s.Statements {
			if inner != nil {
				out = append(out, inner)
			}
		}
		s.Statements = out
		return s

	case *ast.AssignmentStatement:
		s.LHS = foldExpr(st, s.LHS)
		s.RHS = foldExpr(st, s.RHS)
		return s

	case *ast.IfStatement:
		s.Cond = foldExpr(st, s.Cond)
		s.Then = foldStatement(st, s.Then)
		s.Else = foldStatement(st, s.Else)
		if b, ok := s.Cond.(*ast.BooleanConstant); ok {
			st.Count++
			if b.Value {
				return s.Then
			}
			return s.Else
		}
		return s

	case *ast.WhileStatement:
		s.Cond = foldExpr(st, s.Cond)
		s.Body = foldStatement(st, s.Body)
		return s

	case *ast.ForStatement:
		s.Start = foldExpr(st, s.Start)
		s.End = foldExpr(st, s.End)
		s.Body = foldStatement(st, s.Body)
		return s

	case *ast.ReadStatement:
		for i, v := range s.Vars {
			s.Vars[i] = foldExpr(st, v)
		}
		return s

	case *ast.WriteStatement:
		for i, e := range s.Exprs {
			s.Exprs[i] = foldExpr(st, e)
		}
		return s

	case *ast.ProcedureCallStatement:
		for i, a := range s.Args {
			s.Args[i] = foldExpr(st, a)
		}
		return s

	default:
		return stmt
	}
}

// foldExpr recurses into an expression's children first, then attempts to
// fold the node itself, matching optimizer.py's optimize().
func foldExpr(st *Stats, expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case nil:
		return nil

	case *ast.BinaryOp:
		e.Left = foldExpr(st, e.Left)
		e.Right = foldExpr(st, e.Right)
		return foldBinaryOp(st, e)

	case *ast.UnaryOp:
		e.Operand = foldExpr(st, e.Operand)
		return foldUnaryOp(st, e)

	case *ast.ArrayAccess:
		e.Index = foldExpr(st, e.Index)
		return e

	case *ast.FunctionCall:
		for i, a := range e.Args {
			e.Args[i] = foldExpr(st, a)
		}
		return e

	default:
		return expr
	}
}

// foldBinaryOp implements optimizer.py's fold_binary_op: integer constant
// folding for +,-,*,div,mod (div/mod floor-divide via floorDiv/floorMod
// rather than Go's truncating / and %; division
// by zero leaves the node unfolded rather than diagnosing, mirroring the
// grounding source's try/except ZeroDivisionError), plus the "extra" rule
// folding '=' of two integer constants into a boolean constant.
func foldBinaryOp(st *Stats, e *ast.BinaryOp) ast.Expression {
	li, lok := e.Left.(*ast.IntegerConstant)
	ri, rok := e.Right.(*ast.IntegerConstant)
	if !lok || !rok {
		return e
	}

	switch e.Op {
	case "+":
		st.Count++
		return &ast.IntegerConstant{Value: li.Value + ri.Value, Pos_: e.Pos_}
	case "-":
		st.Count++
		return &ast.IntegerConstant{Value: li.Value - ri.Value, Pos_: e.Pos_}
	case "*":
		st.Count++
		return &ast.IntegerConstant{Value: li.Value * ri.Value, Pos_: e.Pos_}
	case "div":
		if ri.Value == 0 {
			return e
		}
		st.Count++
		return &ast.IntegerConstant{Value: floorDiv(li.Value, ri.Value), Pos_: e.Pos_}
	case "mod":
		if ri.Value == 0 {
			return e
		}
		st.Count++
		return &ast.IntegerConstant{Value: floorMod(li.Value, ri.Value), Pos_: e.Pos_}
	case "=":
		st.Count++
		return &ast.BooleanConstant{Value: li.Value == ri.Value, Pos_: e.Pos_}
	default:
		return e
	}
}

// floorDiv and floorMod implement Python's // and % for integers, as used
// by the grounding source (Python's integer division floors toward
// negative infinity; Go's / truncates toward zero).
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func foldUnaryOp(st *Stats, e *ast.UnaryOp) ast.Expression {
	if e.Op == "minus" {
		if i, ok := e.Operand.(*ast.IntegerConstant); ok {
			st.Count++
			return &ast.IntegerConstant{Value: -i.Value, Pos_: e.Pos_}
		}
	}
	return e
}
