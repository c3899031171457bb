package cmd

import (
	"testing"

	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/token"
	"github.com/tidwall/gjson"
)

func TestTokensJSONRoundTrips(t *testing.T) {
	toks := []token.Token{
		{Kind: token.PROGRAM, Literal: "program", Pos: token.Position{Line: 1, Column: 1}},
		{Kind: token.EOF, Literal: "", Pos: token.Position{Line: 1, Column: 8}},
	}
	out, err := tokensJSON("p.pas", toks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gjson.Get(out, "file").String(); got != "p.pas" {
		t.Fatalf("expected file=p.pas, got %q", got)
	}
	if got := gjson.Get(out, "tokens.0.kind").String(); got != "PROGRAM" {
		t.Fatalf("expected first token kind PROGRAM, got %q", got)
	}
	if n := gjson.Get(out, "tokens.#").Int(); n != 2 {
		t.Fatalf("expected 2 tokens, got %d", n)
	}
}

func TestDiagnosticsJSONRoundTrips(t *testing.T) {
	bag := &diag.Bag{}
	bag.Semantic(token.Position{Line: 5, Column: 1}, "something went wrong")
	out := string(diagnosticsJSON(bag))
	if got := gjson.Get(out, "diagnostics.0.severity").String(); got != "error" {
		t.Fatalf("expected severity=error, got %q", got)
	}
	if got := gjson.Get(out, "diagnostics.0.message").String(); got == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestShouldColorRespectsExplicitModes(t *testing.T) {
	if !shouldColor("always") {
		t.Fatal("expected always to force color on")
	}
	if shouldColor("never") {
		t.Fatal("expected never to force color off")
	}
}
