// Package ast defines the typed abstract syntax tree for the Pascal-standard
// subset: one concrete Go struct per node tag named in SPEC_FULL.md §4.2,
// in place of the distilled design's single untyped {type, children, leaf,
// line} node. List tags (Declarations, IDList, FunctionDeclarations,
// FormalParameters, ArgList) are slice fields on their parent. Absence of an optional child (e.g. an IfStatement with no
// else-branch) is a nil field, not a zero-length children slice.
package ast

import (
	"fmt"
	"strings"

	"github.com/oaraujo/pasc/internal/token"
)

// Node is the base interface every AST node implements.
type Node interface {
	Pos() token.Position
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// TypeNode is either a BasicType or an ArrayType, as written in a
// declaration or parameter list.
type TypeNode interface {
	Node
	typeNode()
}

// Subprogram is either a FunctionDecl or a ProcedureDecl.
type Subprogram interface {
	Node
	SubprogramName() string
	subprogramNode()
}

// ---- Program & Block ----

// Program is the root node: PROGRAM <Name> ; <Block> .
type Program struct {
	Name  string
	Block *Block
	Pos_  token.Position
}

func (p *Program) Pos() token.Position { return p.Pos_ }
func (p *Program) String() string      { return fmt.Sprintf("program %s;\n%s.", p.Name, p.Block) }

// Block holds the three normalized children described in §4.3: function
// declarations, variable declarations, and the body. Order here is the
// named-field order, not positional — matching §4.2's "order is semantic,
// not positional" invariant directly instead of by convention.
type Block struct {
	Subprograms []Subprogram
	Decls       []*Declaration
	Body        *CompoundStatement
	Pos_        token.Position
}

func (b *Block) Pos() token.Position { return b.Pos_ }
func (b *Block) String() string {
	var sb strings.Builder
	for _, s := range b.Subprograms {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	for _, d := range b.Decls {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	sb.WriteString(b.Body.String())
	return sb.String()
}

// Declaration is "id-list : type ;".
type Declaration struct {
	Names []string
	Type  TypeNode
	Pos_  token.Position
}

func (d *Declaration) Pos() token.Position { return d.Pos_ }
func (d *Declaration) String() string {
	return fmt.Sprintf("%s: %s;", strings.Join(d.Names, ", "), d.Type)
}

// BasicType is one of integer|boolean|string|real.
type BasicType struct {
	Name string
	Pos_ token.Position
}

func (t *BasicType) Pos() token.Position { return t.Pos_ }
func (t *BasicType) String() string      { return t.Name }
func (*BasicType) typeNode()             {}

// ArrayType is "array[Lo..Hi] of Elem".
type ArrayType struct {
	Lo, Hi int
	Elem   TypeNode
	Pos_   token.Position
}

func (t *ArrayType) Pos() token.Position { return t.Pos_ }
func (t *ArrayType) String() string      { return fmt.Sprintf("array[%d..%d] of %s", t.Lo, t.Hi, t.Elem) }
func (*ArrayType) typeNode()             {}

// Parameter is "id-list : type" inside a formal parameter list.
type Parameter struct {
	Names []string
	Type  TypeNode
	Pos_  token.Position
}

func (p *Parameter) Pos() token.Position { return p.Pos_ }
func (p *Parameter) String() string {
	return fmt.Sprintf("%s: %s", strings.Join(p.Names, ", "), p.Type)
}

// FunctionDecl is "function Name(params): ReturnType; Body;".
type FunctionDecl struct {
	Name       string
	Params     []*Parameter
	ReturnType TypeNode
	Body       *Block
	Pos_       token.Position
}

func (f *FunctionDecl) Pos() token.Position    { return f.Pos_ }
func (f *FunctionDecl) SubprogramName() string { return f.Name }
func (*FunctionDecl) subprogramNode()          {}
func (f *FunctionDecl) String() string {
	return fmt.Sprintf("function %s(...): %s;\n%s", f.Name, f.ReturnType, f.Body)
}

// ProcedureDecl is "procedure Name(params); Body;".
type ProcedureDecl struct {
	Name   string
	Params []*Parameter
	Body   *Block
	Pos_   token.Position
}

func (p *ProcedureDecl) Pos() token.Position    { return p.Pos_ }
func (p *ProcedureDecl) SubprogramName() string { return p.Name }
func (*ProcedureDecl) subprogramNode()          {}
func (p *ProcedureDecl) String() string {
	return fmt.Sprintf("procedure %s(...);\n%s", p.Name, p.Body)
}

// ---- Statements ----

// CompoundStatement is "begin ... end".
type CompoundStatement struct {
	Statements []Statement
	Pos_       token.Position
}

func (c *CompoundStatement) Pos() token.Position { return c.Pos_ }
func (*CompoundStatement) statementNode()         {}
func (c *CompoundStatement) String() string {
	var sb strings.Builder
	sb.WriteString("begin\n")
	for _, s := range c.Statements {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	sb.WriteString("end")
	return sb.String()
}

// AssignmentStatement is "LHS := RHS".
type AssignmentStatement struct {
	LHS  Expression
	RHS  Expression
	Pos_ token.Position
}

func (a *AssignmentStatement) Pos() token.Position { return a.Pos_ }
func (*AssignmentStatement) statementNode()         {}
func (a *AssignmentStatement) String() string       { return fmt.Sprintf("%s := %s", a.LHS, a.RHS) }

// IfStatement is "if Cond then Then [else Else]". Else is nil when absent.
type IfStatement struct {
	Cond Expression
	Then Statement
	Else Statement
	Pos_ token.Position
}

func (i *IfStatement) Pos() token.Position { return i.Pos_ }
func (*IfStatement) statementNode()         {}
func (i *IfStatement) String() string {
	if i.Else != nil {
		return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("if %s then %s", i.Cond, i.Then)
}

// WhileStatement is "while Cond do Body".
type WhileStatement struct {
	Cond Expression
	Body Statement
	Pos_ token.Position
}

func (w *WhileStatement) Pos() token.Position { return w.Pos_ }
func (*WhileStatement) statementNode()         {}
func (w *WhileStatement) String() string       { return fmt.Sprintf("while %s do %s", w.Cond, w.Body) }

// ForStatement is "for Var := Start to|downto End do Body".
type ForStatement struct {
	Var   *VariableAccess
	Start Expression
	End   Expression
	Down  bool
	Body  Statement
	Pos_  token.Position
}

func (f *ForStatement) Pos() token.Position { return f.Pos_ }
func (*ForStatement) statementNode()         {}
func (f *ForStatement) String() string {
	dir := "to"
	if f.Down {
		dir = "downto"
	}
	return fmt.Sprintf("for %s := %s %s %s do %s", f.Var, f.Start, dir, f.End, f.Body)
}

// ReadStatement is "read(Vars)" or "readln(Vars)".
type ReadStatement struct {
	Ln   bool
	Vars []Expression
	Pos_ token.Position
}

func (r *ReadStatement) Pos() token.Position { return r.Pos_ }
func (*ReadStatement) statementNode()         {}
func (r *ReadStatement) String() string {
	name := "read"
	if r.Ln {
		name = "readln"
	}
	return fmt.Sprintf("%s(...)", name)
}

// WriteStatement is "write(Exprs)" or "writeln(Exprs)".
type WriteStatement struct {
	Ln    bool
	Exprs []Expression
	Pos_  token.Position
}

func (w *WriteStatement) Pos() token.Position { return w.Pos_ }
func (*WriteStatement) statementNode()         {}
func (w *WriteStatement) String() string {
	name := "write"
	if w.Ln {
		name = "writeln"
	}
	return fmt.Sprintf("%s(...)", name)
}

// ProcedureCallStatement is "Name(Args)" used as a statement.
type ProcedureCallStatement struct {
	Name string
	Args []Expression
	Pos_ token.Position
}

func (c *ProcedureCallStatement) Pos() token.Position { return c.Pos_ }
func (*ProcedureCallStatement) statementNode()         {}
func (c *ProcedureCallStatement) String() string       { return fmt.Sprintf("%s(...)", c.Name) }

// ---- Expressions ----

// BinaryOp is "Left Op Right".
type BinaryOp struct {
	Op    string
	Left  Expression
	Right Expression
	Pos_  token.Position
}

func (b *BinaryOp) Pos() token.Position { return b.Pos_ }
func (*BinaryOp) expressionNode()        {}
func (b *BinaryOp) String() string       { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// UnaryOp is "Op Operand" (NOT or unary MINUS).
type UnaryOp struct {
	Op      string
	Operand Expression
	Pos_    token.Position
}

func (u *UnaryOp) Pos() token.Position { return u.Pos_ }
func (*UnaryOp) expressionNode()        {}
func (u *UnaryOp) String() string       { return fmt.Sprintf("(%s %s)", u.Op, u.Operand) }

// VariableAccess is a bare identifier reference.
type VariableAccess struct {
	Name string
	Pos_ token.Position
}

func (v *VariableAccess) Pos() token.Position { return v.Pos_ }
func (*VariableAccess) expressionNode()        {}
func (v *VariableAccess) String() string       { return v.Name }

// ArrayAccess is "Name[Index]".
type ArrayAccess struct {
	Name  string
	Index Expression
	Pos_  token.Position
}

func (a *ArrayAccess) Pos() token.Position { return a.Pos_ }
func (*ArrayAccess) expressionNode()        {}
func (a *ArrayAccess) String() string       { return fmt.Sprintf("%s[%s]", a.Name, a.Index) }

// FunctionCall is "Name(Args)" used as an expression.
type FunctionCall struct {
	Name string
	Args []Expression
	Pos_ token.Position
}

func (c *FunctionCall) Pos() token.Position { return c.Pos_ }
func (*FunctionCall) expressionNode()        {}
func (c *FunctionCall) String() string       { return fmt.Sprintf("%s(...)", c.Name) }

// IntegerConstant is a literal integer value.
type IntegerConstant struct {
	Value int64
	Pos_  token.Position
}

func (i *IntegerConstant) Pos() token.Position { return i.Pos_ }
func (*IntegerConstant) expressionNode()        {}
func (i *IntegerConstant) String() string       { return fmt.Sprintf("%d", i.Value) }

// RealConstant is a literal real value.
type RealConstant struct {
	Value float64
	Pos_  token.Position
}

func (r *RealConstant) Pos() token.Position { return r.Pos_ }
func (*RealConstant) expressionNode()        {}
func (r *RealConstant) String() string       { return fmt.Sprintf("%g", r.Value) }

// StringConstant is a literal string value (quotes already resolved).
type StringConstant struct {
	Value string
	Pos_  token.Position
}

func (s *StringConstant) Pos() token.Position { return s.Pos_ }
func (*StringConstant) expressionNode()        {}
func (s *StringConstant) String() string       { return fmt.Sprintf("%q", s.Value) }

// BooleanConstant is a literal true/false.
type BooleanConstant struct {
	Value bool
	Pos_  token.Position
}

func (b *BooleanConstant) Pos() token.Position { return b.Pos_ }
func (*BooleanConstant) expressionNode()        {}
func (b *BooleanConstant) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}
