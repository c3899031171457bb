package optimizer

import (
	"testing"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
	"github.com/oaraujo/pasc/internal/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	bag := &diag.Bag{}
	l := lexer.New(src, bag)
	p := parser.New(l, bag)
	prog, _ := p.ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Errors())
	}
	return prog
}

func TestFoldsIntegerArithmetic(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := 2 + 3 * 4 end.`)
	st := Fold(prog)
	if st.Count == 0 {
		t.Fatal("expected at least one fold")
	}
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	lit, ok := assign.RHS.(*ast.IntegerConstant)
	if !ok || lit.Value != 14 {
		t.Fatalf("expected folded constant 14, got %#v", assign.RHS)
	}
}

func TestDivFloorsTowardNegativeInfinity(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := -7 div 2 end.`)
	Fold(prog)
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	lit, ok := assign.RHS.(*ast.IntegerConstant)
	if !ok || lit.Value != -4 {
		t.Fatalf("expected floor-divided -4, got %#v", assign.RHS)
	}
}

func TestModMatchesFloorDivQuotient(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := -7 mod 2 end.`)
	Fold(prog)
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	lit, ok := assign.RHS.(*ast.IntegerConstant)
	if !ok || lit.Value != 1 {
		t.Fatalf("expected floor-mod 1, got %#v", assign.RHS)
	}
}

func TestDivisionByZeroLeavesNodeUnfolded(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := 5 div 0 end.`)
	Fold(prog)
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	if _, ok := assign.RHS.(*ast.BinaryOp); !ok {
		t.Fatalf("expected division by zero to leave a BinaryOp unfolded, got %#v", assign.RHS)
	}
}

func TestEqualityFoldsToBoolean(t *testing.T) {
	prog := parseProgram(t, `program P; var x: boolean; begin x := 1 = 1 end.`)
	Fold(prog)
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	lit, ok := assign.RHS.(*ast.BooleanConstant)
	if !ok || !lit.Value {
		t.Fatalf("expected folded true, got %#v", assign.RHS)
	}
}

func TestUnaryMinusFolds(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := -(5) end.`)
	Fold(prog)
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	lit, ok := assign.RHS.(*ast.IntegerConstant)
	if !ok || lit.Value != -5 {
		t.Fatalf("expected folded -5, got %#v", assign.RHS)
	}
}

func TestDeadBranchEliminationTrue(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin if 1 = 1 then x := 1 else x := 2 end.`)
	Fold(prog)
	assign, ok := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	if !ok {
		t.Fatalf("expected the if to fold away to its then-branch, got %#v", prog.Block.Body.Statements[0])
	}
	lit := assign.RHS.(*ast.IntegerConstant)
	if lit.Value != 1 {
		t.Fatalf("expected then-branch (x := 1) to survive, got %#v", assign)
	}
}

func TestDeadBranchEliminationFalseNoElse(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin if 1 = 2 then x := 1 end.`)
	Fold(prog)
	if prog.Block.Body.Statements != nil && len(prog.Block.Body.Statements) != 0 {
		t.Fatalf("expected the if with no else to fold away entirely, got %#v", prog.Block.Body.Statements)
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	prog := parseProgram(t, `program P; var x: integer; begin x := 2 + 3 end.`)
	Fold(prog)
	second := Fold(prog)
	if second.Count != 0 {
		t.Fatalf("expected second Fold pass to find nothing left to fold, counted %d", second.Count)
	}
}
