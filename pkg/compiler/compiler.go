// Package compiler is the small embeddable surface over the lexer, parser,
// semantic analyzer, optimizer, and code generator: the seam cmd/pasc is
// built on top of, modeled on the teacher's own pkg/dwscript wrapping its
// internal packages.
package compiler

import (
	"context"
	"log/slog"

	"github.com/oaraujo/pasc/internal/ast"
	"github.com/oaraujo/pasc/internal/codegen"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
	"github.com/oaraujo/pasc/internal/optimizer"
	"github.com/oaraujo/pasc/internal/parser"
	"github.com/oaraujo/pasc/internal/semantic"
	"github.com/oaraujo/pasc/internal/token"
)

// Options controls one Compile call.
type Options struct {
	// Optimize enables constant folding and dead-branch elimination.
	Optimize bool
	// NoCode skips code generation, stopping after semantic analysis.
	NoCode bool
	// KeepTokens retains the full token stream on Result.Tokens.
	KeepTokens bool
	// KeepAST retains the parsed program on Result.Program.
	KeepAST bool
	// Logger receives stage entry/exit and diagnostic-count messages at
	// debug level; a nil Logger disables ambient logging.
	Logger *slog.Logger
}

// Result carries everything one Compile call produced.
type Result struct {
	Instructions  []string
	Diagnostics   *diag.Bag
	Unstable      bool
	Tokens        []token.Token
	Program       *ast.Program
	Optimizations int
}

// Compile runs the full pipeline over source. ctx is checked only between
// stages; it is never polled inside a tight inner loop. A non-nil error is
// returned only for a context cancellation — every other failure mode is
// reported through Result.Diagnostics, matching this package's "no panic,
// no hard error for a malformed program" policy.
func Compile(ctx context.Context, source, filename string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	bag := &diag.Bag{}
	result := &Result{Diagnostics: bag}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Debug("stage start", "stage", "lex", "file", filename)
	if opts.KeepTokens {
		// Tokenized on a throwaway bag: the lexer that actually drives the
		// parser below reports the diagnostics that count.
		result.Tokens = collectTokens(lexer.New(source, &diag.Bag{}))
	}
	l := lexer.New(source, bag)
	log.Debug("stage end", "stage", "lex", "diagnostics", len(bag.All()))

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Debug("stage start", "stage", "parse", "file", filename)
	p := parser.New(l, bag)
	prog, parseErr := p.ParseProgram()
	if opts.KeepAST {
		result.Program = prog
	}
	result.Unstable = parseErr != nil && prog != nil
	log.Debug("stage end", "stage", "parse", "diagnostics", len(bag.All()))

	if prog == nil {
		return result, nil
	}
	if bag.HasErrors() {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Debug("stage start", "stage", "semantic", "file", filename)
	analyzer := semantic.NewAnalyzer(bag)
	analyzer.Analyze(prog)
	log.Debug("stage end", "stage", "semantic", "diagnostics", len(bag.All()))

	if bag.HasErrors() {
		return result, nil
	}

	if opts.Optimize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log.Debug("stage start", "stage", "optimize", "file", filename)
		stats := optimizer.Fold(prog)
		result.Optimizations = stats.Count
		log.Debug("stage end", "stage", "optimize", "simplifications", stats.Count)
	}

	if opts.NoCode {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Debug("stage start", "stage", "codegen", "file", filename)
	result.Instructions = codegen.Generate(prog, analyzer.Scopes, analyzer.Global, bag)
	log.Debug("stage end", "stage", "codegen", "instructions", len(result.Instructions), "diagnostics", len(bag.All()))

	if bag.HasErrors() {
		result.Instructions = nil
	}

	return result, nil
}

func collectTokens(l *lexer.Lexer) []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}
