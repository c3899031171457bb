package parser

import (
	"testing"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
)

func parse(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	bag := &diag.Bag{}
	l := lexer.New(src, bag)
	p := New(l, bag)
	prog, _ := p.ParseProgram()
	return prog, p.Diagnostics()
}

func TestParseMinimalProgram(t *testing.T) {
	prog, bag := parse(t, `program Hello; begin end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	if prog.Name != "hello" {
		t.Fatalf("expected normalized program name hello, got %s", prog.Name)
	}
	if prog.Block.Body == nil || len(prog.Block.Body.Statements) != 0 {
		t.Fatalf("expected empty body, got %v", prog.Block.Body)
	}
}

func TestProgramBlockNormalizationOrderings(t *testing.T) {
	srcs := []string{
		`program P; var x: integer; function f(): integer; begin f := 1; end; begin end.`,
		`program P; function f(): integer; begin f := 1; end; var x: integer; begin end.`,
		`program P; var x: integer; begin end.`,
		`program P; function f(): integer; begin f := 1; end; begin end.`,
		`program P; begin end.`,
	}
	for _, src := range srcs {
		prog, bag := parse(t, src)
		if bag.HasErrors() {
			t.Errorf("%s: unexpected errors: %v", src, bag.Errors())
			continue
		}
		if prog.Block == nil || prog.Block.Body == nil {
			t.Errorf("%s: expected normalized block with a body", src)
		}
	}
}

func TestArrayDeclaration(t *testing.T) {
	prog, bag := parse(t, `program P; var a: array[1..10] of integer; begin end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	decl := prog.Block.Decls[0]
	arr, ok := decl.Type.(*ast.ArrayType)
	if !ok {
		t.Fatalf("expected ArrayType, got %T", decl.Type)
	}
	if arr.Lo != 1 || arr.Hi != 10 {
		t.Fatalf("expected bounds 1..10, got %d..%d", arr.Lo, arr.Hi)
	}
}

func TestRealDeclarationParsesAsBasicType(t *testing.T) {
	prog, bag := parse(t, `program P; var r: real; begin end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	decl := prog.Block.Decls[0]
	basic, ok := decl.Type.(*ast.BasicType)
	if !ok {
		t.Fatalf("expected BasicType, got %T", decl.Type)
	}
	if basic.Name != "real" {
		t.Fatalf("expected type name 'real', got %q", basic.Name)
	}
}

func TestAssignmentAndIfElse(t *testing.T) {
	prog, bag := parse(t, `program P; var x: integer; begin if x > 0 then x := 1 else x := 2 end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	ifStmt, ok := prog.Block.Body.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected IfStatement, got %T", prog.Block.Body.Statements[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("expected else branch")
	}
}

func TestDanglingElseAttachesToNearestIf(t *testing.T) {
	prog, bag := parse(t, `program P; var x: integer; begin if x > 0 then if x > 1 then x := 1 else x := 2 end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	outer := prog.Block.Body.Statements[0].(*ast.IfStatement)
	inner, ok := outer.Then.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected nested IfStatement, got %T", outer.Then)
	}
	if inner.Else == nil {
		t.Fatal("expected dangling else to attach to the nearest if")
	}
	if outer.Else != nil {
		t.Fatal("expected outer if to have no else")
	}
}

func TestExpressionPrecedence(t *testing.T) {
	prog, bag := parse(t, `program P; var x: integer; begin x := 1 + 2 * 3 end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	assign := prog.Block.Body.Statements[0].(*ast.AssignmentStatement)
	bin, ok := assign.RHS.(*ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level +, got %#v", assign.RHS)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "*" {
		t.Fatalf("expected right side to be 2 * 3, got %#v", bin.Right)
	}
}

func TestForDowntoParsed(t *testing.T) {
	prog, bag := parse(t, `program P; var i: integer; begin for i := 10 downto 1 do i := i end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	forStmt := prog.Block.Body.Statements[0].(*ast.ForStatement)
	if !forStmt.Down {
		t.Fatal("expected downto loop")
	}
}

func TestProcedureCallWithAndWithoutArgs(t *testing.T) {
	prog, bag := parse(t, `program P; procedure p(); begin end; begin p; p() end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	for _, s := range prog.Block.Body.Statements {
		if _, ok := s.(*ast.ProcedureCallStatement); !ok {
			t.Errorf("expected ProcedureCallStatement, got %T", s)
		}
	}
}

func TestInvalidDeclarationRecoversAtSemicolon(t *testing.T) {
	prog, bag := parse(t, `program P; var x: integer; y ; z: integer; begin end.`)
	if len(bag.Warnings()) == 0 {
		t.Fatal("expected a recovery warning for the malformed declaration")
	}
	names := map[string]bool{}
	for _, d := range prog.Block.Decls {
		for _, n := range d.Names {
			names[n] = true
		}
	}
	if !names["x"] || !names["z"] {
		t.Fatalf("expected surrounding declarations x and z to survive recovery, got %v", names)
	}
}

func TestSyntaxErrorHintsForStraySemicolon(t *testing.T) {
	_, bag := parse(t, `program P; var x: integer; begin x := ; end.`)
	found := false
	for _, d := range bag.All() {
		if d.Hint == "check for a stray ';'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a stray ';' hint on the syntax error, got %v", bag.All())
	}
}
