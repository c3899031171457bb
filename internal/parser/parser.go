// Package parser builds a typed internal/ast tree from a internal/lexer
// token stream using precedence-climbing (Pratt) expression parsing, with
// single-token panic-mode recovery for malformed declarations and
// statements.
package parser

import (
	"fmt"
	"strconv"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
	"github.com/oaraujo/pasc/internal/token"
)

// precedence levels, low to high. Relational is declared nonassoc in the
// grammar this parser is grounded on; this implementation approximates
// nonassoc as left-associative chaining rather than rejecting a = b = c
// outright, consistent with the "no type-aware repair" recovery posture.
const (
	lowest = iota
	relational
	orPrec
	andPrec
	additive
	multiplicative
	unary
)

var precedences = map[token.Kind]int{
	token.EQ:    relational,
	token.NEQ:   relational,
	token.LT:    relational,
	token.GT:    relational,
	token.LTE:   relational,
	token.GTE:   relational,
	token.OR:    orPrec,
	token.AND:   andPrec,
	token.PLUS:  additive,
	token.MINUS: additive,
	token.STAR:  multiplicative,
	token.DIV:   multiplicative,
	token.MOD:   multiplicative,
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// Parser consumes tokens from a Lexer and produces an *ast.Program.
type Parser struct {
	l     *lexer.Lexer
	diags *diag.Bag

	cur  token.Token
	peek token.Token

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

// New constructs a Parser over l, recording diagnostics into diags.
func New(l *lexer.Lexer, diags *diag.Bag) *Parser {
	p := &Parser{l: l, diags: diags}

	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.IDENT:      p.parseIdentifierExpr,
		token.INT_LIT:    p.parseIntegerLiteral,
		token.REAL_LIT:   p.parseRealLiteral,
		token.STRING_LIT: p.parseStringLiteral,
		token.TRUE:       p.parseBooleanLiteral,
		token.FALSE:      p.parseBooleanLiteral,
		token.NOT:        p.parseUnaryExpr,
		token.MINUS:      p.parseUnaryExpr,
		token.LPAREN:     p.parseGroupedExpr,
	}

	p.infixParseFns = map[token.Kind]infixParseFn{
		token.PLUS:  p.parseBinaryExpr,
		token.MINUS: p.parseBinaryExpr,
		token.STAR:  p.parseBinaryExpr,
		token.DIV:   p.parseBinaryExpr,
		token.MOD:   p.parseBinaryExpr,
		token.EQ:    p.parseBinaryExpr,
		token.NEQ:   p.parseBinaryExpr,
		token.LT:    p.parseBinaryExpr,
		token.GT:    p.parseBinaryExpr,
		token.LTE:   p.parseBinaryExpr,
		token.GTE:   p.parseBinaryExpr,
		token.AND:   p.parseBinaryExpr,
		token.OR:    p.parseBinaryExpr,
	}

	p.next()
	p.next()
	return p
}

// Diagnostics returns the accumulated diagnostic bag.
func (p *Parser) Diagnostics() *diag.Bag { return p.diags }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) bool {
	if p.curIs(k) {
		p.next()
		return true
	}
	p.errorHere(fmt.Sprintf("expected %s, found %s", k, p.cur.Kind))
	return false
}

func (p *Parser) errorHere(msg string) {
	d := &diag.Diagnostic{Severity: diag.SeverityError, Stage: diag.StageSyntax, Pos: p.cur.Pos, Message: msg, Token: p.cur.Literal}
	d.Hint = p.hintFor()
	p.diags.Add(d)
}

// hintFor implements §4.3's two heuristic hints: a stray ';' and a
// misplaced 'var'.
func (p *Parser) hintFor() string {
	if p.curIs(token.SEMICOLON) {
		return "check for a stray ';'"
	}
	if p.curIs(token.VAR) {
		return "'var' is only allowed at the start of a declaration block"
	}
	return ""
}

// synchronize implements the "resync to next ';'" recovery productions:
// it consumes tokens (including the terminating ';', if found) and stops
// at EOF otherwise.
func (p *Parser) synchronize() {
	for !p.curIs(token.SEMICOLON) && !p.curIs(token.EOF) {
		p.next()
	}
	if p.curIs(token.SEMICOLON) {
		p.next()
	}
}

// ParseProgram parses a full compilation unit.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	defer func() {
		if r := recover(); r != nil {
			p.diags.Errorf(diag.StageInternal, p.cur.Pos, "internal error: %v", r)
		}
	}()

	pos := p.cur.Pos
	if !p.expect(token.PROGRAM) {
		return nil, fmt.Errorf("expected program header")
	}
	name := p.cur.Literal
	if !p.expect(token.IDENT) {
		return nil, fmt.Errorf("expected program name")
	}
	p.expect(token.SEMICOLON)

	block := p.parseBlock()
	p.expect(token.DOT)

	prog := &ast.Program{Name: name, Block: block, Pos_: pos}
	if p.diags.HasErrors() {
		return prog, fmt.Errorf("%d syntax error(s)", len(p.diags.Errors()))
	}
	return prog, nil
}

// parseBlock implements §4.3's flexible program_block normalization: any
// ordering/presence of function declarations and variable declarations
// ahead of the body is accepted and folded into one canonical Block.
func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur.Pos
	block := &ast.Block{Pos_: pos}

	for {
		switch {
		case p.curIs(token.VAR):
			block.Decls = append(block.Decls, p.parseDeclarations()...)
		case p.curIs(token.FUNCTION) || p.curIs(token.PROCEDURE):
			block.Subprograms = append(block.Subprograms, p.parseSubprogram())
		default:
			block.Body = p.parseCompoundStatement()
			return block
		}
	}
}

// ---- declarations ----

func (p *Parser) parseDeclarations() []*ast.Declaration {
	p.next() // consume VAR
	var decls []*ast.Declaration
	for p.curIs(token.IDENT) {
		d, ok := p.parseOneDeclaration()
		if ok {
			decls = append(decls, d)
		} else {
			p.diags.Warnf(diag.StageSyntax, p.cur.Pos, "invalid declaration ignored, resuming at ';'")
			p.synchronize()
		}
	}
	return decls
}

func (p *Parser) parseOneDeclaration() (*ast.Declaration, bool) {
	pos := p.cur.Pos
	names := p.parseIDList()
	if !p.expect(token.COLON) {
		return nil, false
	}
	typ := p.parseType()
	if typ == nil {
		return nil, false
	}
	if !p.expect(token.SEMICOLON) {
		return nil, false
	}
	return &ast.Declaration{Names: names, Type: typ, Pos_: pos}, true
}

func (p *Parser) parseIDList() []string {
	var names []string
	if p.curIs(token.IDENT) {
		names = append(names, p.cur.Literal)
		p.next()
	}
	for p.curIs(token.COMMA) {
		p.next()
		if p.curIs(token.IDENT) {
			names = append(names, p.cur.Literal)
			p.next()
		}
	}
	return names
}

func (p *Parser) parseType() ast.TypeNode {
	pos := p.cur.Pos
	switch p.cur.Kind {
	case token.INTEGER, token.BOOLEAN, token.STRING, token.REAL:
		name := p.cur.Literal
		p.next()
		return &ast.BasicType{Name: name, Pos_: pos}
	case token.ARRAY:
		p.next()
		if !p.expect(token.LBRACKET) {
			return nil
		}
		lo := p.parseIntLiteralValue()
		if !p.expect(token.DOTDOT) {
			return nil
		}
		hi := p.parseIntLiteralValue()
		if !p.expect(token.RBRACKET) {
			return nil
		}
		if !p.expect(token.OF) {
			return nil
		}
		elem := p.parseType()
		if elem == nil {
			return nil
		}
		return &ast.ArrayType{Lo: lo, Hi: hi, Elem: elem, Pos_: pos}
	default:
		p.errorHere(fmt.Sprintf("expected a type, found %s", p.cur.Kind))
		return nil
	}
}

func (p *Parser) parseIntLiteralValue() int {
	neg := false
	if p.curIs(token.MINUS) {
		neg = true
		p.next()
	}
	v := 0
	if p.curIs(token.INT_LIT) {
		n, _ := strconv.Atoi(p.cur.Literal)
		v = n
		p.next()
	} else {
		p.errorHere("expected an integer literal")
	}
	if neg {
		return -v
	}
	return v
}

// ---- subprograms ----

func (p *Parser) parseSubprogram() ast.Subprogram {
	if p.curIs(token.FUNCTION) {
		return p.parseFunctionDecl()
	}
	return p.parseProcedureDecl()
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	pos := p.cur.Pos
	p.next() // consume FUNCTION
	name := p.cur.Literal
	p.expect(token.IDENT)
	params := p.parseFormalParameters()
	p.expect(token.COLON)
	retType := p.parseType()
	p.expect(token.SEMICOLON)
	body := p.parseBlock()
	p.expect(token.SEMICOLON)
	return &ast.FunctionDecl{Name: name, Params: params, ReturnType: retType, Body: body, Pos_: pos}
}

func (p *Parser) parseProcedureDecl() *ast.ProcedureDecl {
	pos := p.cur.Pos
	p.next() // consume PROCEDURE
	name := p.cur.Literal
	p.expect(token.IDENT)
	params := p.parseFormalParameters()
	p.expect(token.SEMICOLON)
	body := p.parseBlock()
	p.expect(token.SEMICOLON)
	return &ast.ProcedureDecl{Name: name, Params: params, Body: body, Pos_: pos}
}

func (p *Parser) parseFormalParameters() []*ast.Parameter {
	var params []*ast.Parameter
	if !p.curIs(token.LPAREN) {
		return params
	}
	p.next()
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		pos := p.cur.Pos
		names := p.parseIDList()
		p.expect(token.COLON)
		typ := p.parseType()
		params = append(params, &ast.Parameter{Names: names, Type: typ, Pos_: pos})
		if p.curIs(token.SEMICOLON) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return params
}

// ---- statements ----

func (p *Parser) parseCompoundStatement() *ast.CompoundStatement {
	pos := p.cur.Pos
	p.expect(token.BEGIN)
	cs := &ast.CompoundStatement{Pos_: pos}
	for !p.curIs(token.END) && !p.curIs(token.EOF) {
		stmt, ok := p.parseStatement()
		if ok && stmt != nil {
			cs.Statements = append(cs.Statements, stmt)
		} else if !ok {
			p.diags.Warnf(diag.StageSyntax, p.cur.Pos, "invalid statement ignored, resuming at ';'")
			p.synchronize()
			continue
		}
		if p.curIs(token.SEMICOLON) {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.END)
	return cs
}

func (p *Parser) parseStatement() (ast.Statement, bool) {
	switch p.cur.Kind {
	case token.BEGIN:
		return p.parseCompoundStatement(), true
	case token.IF:
		return p.parseIfStatement(), true
	case token.WHILE:
		return p.parseWhileStatement(), true
	case token.FOR:
		return p.parseForStatement(), true
	case token.READ, token.READLN:
		return p.parseReadStatement(), true
	case token.WRITE, token.WRITELN:
		return p.parseWriteStatement(), true
	case token.IDENT:
		return p.parseIdentLedStatement()
	case token.END, token.SEMICOLON:
		// empty statement
		return nil, true
	default:
		p.errorHere(fmt.Sprintf("unexpected token %s in statement", p.cur.Kind))
		return nil, false
	}
}

func (p *Parser) parseIdentLedStatement() (ast.Statement, bool) {
	pos := p.cur.Pos
	name := p.cur.Literal
	p.next()

	switch p.cur.Kind {
	case token.LBRACKET:
		p.next()
		idx := p.parseExpression(lowest)
		if !p.expect(token.RBRACKET) {
			return nil, false
		}
		lhs := &ast.ArrayAccess{Name: name, Index: idx, Pos_: pos}
		if !p.expect(token.ASSIGN) {
			return nil, false
		}
		rhs := p.parseExpression(lowest)
		return &ast.AssignmentStatement{LHS: lhs, RHS: rhs, Pos_: pos}, true
	case token.ASSIGN:
		p.next()
		lhs := &ast.VariableAccess{Name: name, Pos_: pos}
		rhs := p.parseExpression(lowest)
		return &ast.AssignmentStatement{LHS: lhs, RHS: rhs, Pos_: pos}, true
	case token.LPAREN:
		args := p.parseArgList()
		return &ast.ProcedureCallStatement{Name: name, Args: args, Pos_: pos}, true
	default:
		return &ast.ProcedureCallStatement{Name: name, Pos_: pos}, true
	}
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	pos := p.cur.Pos
	p.next() // IF
	cond := p.parseExpression(lowest)
	p.expect(token.THEN)
	then, _ := p.parseStatement()
	stmt := &ast.IfStatement{Cond: cond, Then: then, Pos_: pos}
	if p.curIs(token.ELSE) {
		p.next()
		elseStmt, _ := p.parseStatement()
		stmt.Else = elseStmt
	}
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	pos := p.cur.Pos
	p.next() // WHILE
	cond := p.parseExpression(lowest)
	p.expect(token.DO)
	body, _ := p.parseStatement()
	return &ast.WhileStatement{Cond: cond, Body: body, Pos_: pos}
}

func (p *Parser) parseForStatement() *ast.ForStatement {
	pos := p.cur.Pos
	p.next() // FOR
	varPos := p.cur.Pos
	varName := p.cur.Literal
	p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	start := p.parseExpression(lowest)

	down := false
	if p.curIs(token.DOWNTO) {
		down = true
		p.next()
	} else {
		p.expect(token.TO)
	}

	end := p.parseExpression(lowest)
	p.expect(token.DO)
	body, _ := p.parseStatement()

	return &ast.ForStatement{
		Var:   &ast.VariableAccess{Name: varName, Pos_: varPos},
		Start: start, End: end, Down: down, Body: body, Pos_: pos,
	}
}

func (p *Parser) parseReadStatement() *ast.ReadStatement {
	pos := p.cur.Pos
	ln := p.curIs(token.READLN)
	p.next()
	p.expect(token.LPAREN)
	var vars []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		vars = append(vars, p.parseExpression(lowest))
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return &ast.ReadStatement{Ln: ln, Vars: vars, Pos_: pos}
}

func (p *Parser) parseWriteStatement() *ast.WriteStatement {
	pos := p.cur.Pos
	ln := p.curIs(token.WRITELN)
	p.next()
	var exprs []ast.Expression
	if p.curIs(token.LPAREN) {
		p.next()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			exprs = append(exprs, p.parseExpression(lowest))
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	return &ast.WriteStatement{Ln: ln, Exprs: exprs, Pos_: pos}
}

func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	if !p.curIs(token.LPAREN) {
		return args
	}
	p.next()
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(lowest))
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return args
}

// ---- expressions ----

// curPrecedence returns the binding power of the current token. Prefix
// parse functions leave cur on the first token after the operand, so that
// is where a following infix operator sits.
func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parseExpression(prec int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.cur.Kind]
	if !ok {
		p.errorHere(fmt.Sprintf("unexpected token %s in expression", p.cur.Kind))
		return nil
	}
	left := prefix()

	for prec < p.curPrecedence() {
		infix, ok := p.infixParseFns[p.cur.Kind]
		if !ok {
			return left
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifierExpr() ast.Expression {
	pos := p.cur.Pos
	name := p.cur.Literal
	p.next()

	switch p.cur.Kind {
	case token.LPAREN:
		args := p.parseArgList()
		return &ast.FunctionCall{Name: name, Args: args, Pos_: pos}
	case token.LBRACKET:
		p.next()
		idx := p.parseExpression(lowest)
		p.expect(token.RBRACKET)
		return &ast.ArrayAccess{Name: name, Index: idx, Pos_: pos}
	default:
		return &ast.VariableAccess{Name: name, Pos_: pos}
	}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	pos := p.cur.Pos
	v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		p.errorHere(fmt.Sprintf("invalid integer literal %q", p.cur.Literal))
	}
	p.next()
	return &ast.IntegerConstant{Value: v, Pos_: pos}
}

func (p *Parser) parseRealLiteral() ast.Expression {
	pos := p.cur.Pos
	v, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.errorHere(fmt.Sprintf("invalid real literal %q", p.cur.Literal))
	}
	p.next()
	return &ast.RealConstant{Value: v, Pos_: pos}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	pos := p.cur.Pos
	v := p.cur.Literal
	p.next()
	return &ast.StringConstant{Value: v, Pos_: pos}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	pos := p.cur.Pos
	v := p.curIs(token.TRUE)
	p.next()
	return &ast.BooleanConstant{Value: v, Pos_: pos}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	pos := p.cur.Pos
	op := p.cur.Literal
	if p.curIs(token.NOT) {
		op = "not"
	} else {
		op = "minus"
	}
	p.next()
	operand := p.parseExpression(unary)
	return &ast.UnaryOp{Op: op, Operand: operand, Pos_: pos}
}

func (p *Parser) parseGroupedExpr() ast.Expression {
	p.next() // consume (
	expr := p.parseExpression(lowest)
	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parseBinaryExpr(left ast.Expression) ast.Expression {
	pos := p.cur.Pos
	op := p.cur.Literal
	prec := precedences[p.cur.Kind]
	p.next()
	right := p.parseExpression(prec)
	return &ast.BinaryOp{Op: op, Left: left, Right: right, Pos_: pos}
}
