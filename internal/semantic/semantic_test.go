package semantic

import (
	"testing"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
	"github.com/oaraujo/pasc/internal/parser"
)

func analyze(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	bag := &diag.Bag{}
	l := lexer.New(src, bag)
	p := parser.New(l, bag)
	prog, _ := p.ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Errors())
	}
	a := NewAnalyzer(bag)
	a.Analyze(prog)
	return prog, bag
}

func TestValidProgramHasNoErrors(t *testing.T) {
	_, bag := analyze(t, `program P; var x: integer; begin x := 1 end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestUndeclaredIdentifierIsError(t *testing.T) {
	_, bag := analyze(t, `program P; begin x := 1 end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for undeclared identifier")
	}
}

func TestDuplicateDeclarationIsError(t *testing.T) {
	_, bag := analyze(t, `program P; var x: integer; x: boolean; begin end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for duplicate declaration")
	}
}

func TestRealWidensFromInteger(t *testing.T) {
	_, bag := analyze(t, `program P; var x: real; begin x := 1 end.`)
	if bag.HasErrors() {
		t.Fatalf("expected integer to widen to real, got errors: %v", bag.Errors())
	}
}

func TestIncompatibleAssignmentIsError(t *testing.T) {
	_, bag := analyze(t, `program P; var x: boolean; begin x := 1 end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error assigning integer to boolean")
	}
}

func TestIfConditionMustBeBoolean(t *testing.T) {
	_, bag := analyze(t, `program P; var x: integer; begin if x then x := 1 end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for a non-boolean if condition")
	}
}

func TestForBoundsMustBeInteger(t *testing.T) {
	_, bag := analyze(t, `program P; var i: integer; b: boolean; begin for i := b to 10 do i := i end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for non-integer for-loop bound")
	}
}

func TestFunctionCallArgumentCountMismatch(t *testing.T) {
	_, bag := analyze(t, `program P;
function f(a: integer): integer;
begin f := a end;
var x: integer;
begin x := f(1, 2) end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for argument count mismatch")
	}
}

func TestFunctionNameActsAsReturnVariable(t *testing.T) {
	_, bag := analyze(t, `program P;
function square(n: integer): integer;
begin square := n * n end;
var x: integer;
begin x := square(4) end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestBuiltinLengthReturnsInteger(t *testing.T) {
	_, bag := analyze(t, `program P; var s: string; n: integer; begin n := length(s) end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestArrayIndexMustBeInteger(t *testing.T) {
	_, bag := analyze(t, `program P; var a: array[1..10] of integer; b: boolean; begin a[b] := 1 end.`)
	if !bag.HasErrors() {
		t.Fatal("expected an error for a non-integer array index")
	}
}

func TestWriteAcceptsIOBuiltinsWithoutDeclaration(t *testing.T) {
	_, bag := analyze(t, `program P; var x: integer; begin read(x); write(x); writeln(x) end.`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestOuterScopeShadowingIsAllowed(t *testing.T) {
	_, bag := analyze(t, `program P;
var x: integer;
procedure p();
var x: boolean;
begin x := true end;
begin x := 1 end.`)
	if bag.HasErrors() {
		t.Fatalf("expected shadowing to be allowed silently, got: %v", bag.Errors())
	}
}
