package lexer

import (
	"testing"

	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/token"
)

func collect(t *testing.T, input string) ([]token.Token, *diag.Bag) {
	t.Helper()
	bag := &diag.Bag{}
	l := New(input, bag)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, bag
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	cases := []string{"PROGRAM", "Program", "program", "pRoGrAm"}
	for _, src := range cases {
		toks, bag := collect(t, src)
		if bag.HasErrors() {
			t.Fatalf("%s: unexpected errors: %v", src, bag.Errors())
		}
		if toks[0].Kind != token.PROGRAM {
			t.Errorf("%s: expected PROGRAM, got %s", src, toks[0].Kind)
		}
		if toks[0].Literal != "program" {
			t.Errorf("%s: expected normalized literal %q, got %q", src, "program", toks[0].Literal)
		}
	}
}

func TestIdentifierNotKeyword(t *testing.T) {
	toks, _ := collect(t, "myVar")
	if toks[0].Kind != token.IDENT || toks[0].Literal != "myvar" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestRealBeforeInteger(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"123", token.INT_LIT},
		{"1.5", token.REAL_LIT},
		{"1.5e10", token.REAL_LIT},
		{"1e10", token.REAL_LIT},
		{"1e-10", token.REAL_LIT},
	}
	for _, tt := range tests {
		toks, _ := collect(t, tt.src)
		if toks[0].Kind != tt.kind {
			t.Errorf("%s: expected %s, got %s", tt.src, tt.kind, toks[0].Kind)
		}
	}
}

func TestDotDotBeforeDot(t *testing.T) {
	toks, _ := collect(t, "1..5")
	if toks[0].Kind != token.INT_LIT || toks[1].Kind != token.DOTDOT || toks[2].Kind != token.INT_LIT {
		t.Fatalf("got %v %v %v", toks[0], toks[1], toks[2])
	}
}

func TestOperatorLongestMatch(t *testing.T) {
	tests := []struct {
		src   string
		kinds []token.Kind
	}{
		{":=", []token.Kind{token.ASSIGN}},
		{":", []token.Kind{token.COLON}},
		{"<=", []token.Kind{token.LTE}},
		{"<>", []token.Kind{token.NEQ}},
		{"<", []token.Kind{token.LT}},
	}
	for _, tt := range tests {
		toks, _ := collect(t, tt.src)
		for i, k := range tt.kinds {
			if toks[i].Kind != k {
				t.Errorf("%s: token %d expected %s, got %s", tt.src, i, k, toks[i].Kind)
			}
		}
	}
}

func TestStringLiteralEscapedQuote(t *testing.T) {
	toks, _ := collect(t, "'it''s'")
	if toks[0].Kind != token.STRING_LIT || toks[0].Literal != "it's" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestCommentsIgnored(t *testing.T) {
	toks, _ := collect(t, "x { comment } := (* another *) 1")
	kinds := []token.Kind{token.IDENT, token.ASSIGN, token.INT_LIT, token.EOF}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: expected %s, got %s", i, k, toks[i].Kind)
		}
	}
}

func TestInvalidCharacterSkippedOnce(t *testing.T) {
	toks, bag := collect(t, "x @ y")
	if !bag.HasErrors() {
		t.Fatal("expected an error for '@'")
	}
	if len(bag.Errors()) != 1 {
		t.Fatalf("expected exactly one error, got %d", len(bag.Errors()))
	}
	kinds := []token.Kind{token.IDENT, token.IDENT, token.EOF}
	var nonIllegal []token.Token
	for _, tok := range toks {
		if tok.Kind != token.ILLEGAL {
			nonIllegal = append(nonIllegal, tok)
		}
	}
	for i, k := range kinds {
		if nonIllegal[i].Kind != k {
			t.Errorf("token %d: expected %s, got %s", i, k, nonIllegal[i].Kind)
		}
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	toks, _ := collect(t, "x\ny")
	if toks[0].Pos.Line != 1 {
		t.Errorf("expected line 1, got %d", toks[0].Pos.Line)
	}
	if toks[1].Pos.Line != 2 {
		t.Errorf("expected line 2, got %d", toks[1].Pos.Line)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	bag := &diag.Bag{}
	l := New("a b c", bag)
	peeked := l.Peek(1)
	if peeked.Literal != "b" {
		t.Fatalf("expected peek(1)=b, got %s", peeked.Literal)
	}
	first := l.NextToken()
	if first.Literal != "a" {
		t.Fatalf("expected first token a, got %s", first.Literal)
	}
	second := l.NextToken()
	if second.Literal != "b" {
		t.Fatalf("expected second token b, got %s", second.Literal)
	}
}

func TestSaveRestoreState(t *testing.T) {
	bag := &diag.Bag{}
	l := New("a b c", bag)
	_ = l.NextToken() // a
	state := l.SaveState()
	second := l.NextToken() // b
	l.RestoreState(state)
	again := l.NextToken()
	if again.Literal != second.Literal {
		t.Fatalf("expected restore to replay %q, got %q", second.Literal, again.Literal)
	}
}
