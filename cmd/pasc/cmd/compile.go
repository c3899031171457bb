package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/natural"
	"github.com/oaraujo/pasc/internal/config"
	"github.com/oaraujo/pasc/internal/diag"
	"github.com/oaraujo/pasc/internal/lexer"
	"github.com/oaraujo/pasc/internal/parser"
	"github.com/oaraujo/pasc/internal/token"
	"github.com/oaraujo/pasc/pkg/compiler"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var (
	outputFile     string
	outdir         string
	tokensOnly     bool
	astOnly        bool
	compileVerbose bool
	noCode         bool
	noOpt          bool
	outputFormat   string
	colorMode      string
)

var compileCmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile one or more Pascal-standard source files",
	Long: `compile runs a source file (or several) through the full
lex -> parse -> semantic-analyze -> optimize -> generate pipeline and
writes a Target VM assembly listing for each.

Examples:
  pasc compile program.pas
  pasc compile a.pas b.pas c.pas --outdir build
  pasc compile program.pas --tokens-only --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (only valid with exactly one source argument)")
	compileCmd.Flags().StringVar(&outdir, "outdir", "", "default output directory (default \"../outputs\")")
	compileCmd.Flags().BoolVarP(&tokensOnly, "tokens-only", "t", false, "print the token stream and stop before parsing")
	compileCmd.Flags().BoolVarP(&astOnly, "ast-only", "a", false, "print the AST and stop before semantic analysis")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose diagnostics (stage timings, counts)")
	compileCmd.Flags().BoolVar(&noCode, "no-code", false, "run every stage except code generation")
	compileCmd.Flags().BoolVar(&noOpt, "no-opt", false, "skip the optimizer stage")
	compileCmd.Flags().StringVar(&outputFormat, "format", "", "output format for dumps and diagnostics: text|json")
	compileCmd.Flags().StringVar(&colorMode, "color", "", "diagnostic coloring: auto|always|never")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("pasc.yaml")
	if err != nil {
		return fmt.Errorf("loading pasc.yaml: %w", err)
	}

	if !cmd.Flags().Changed("outdir") && outdir == "" {
		outdir = cfg.Outdir
	}
	if !cmd.Flags().Changed("format") && outputFormat == "" {
		outputFormat = cfg.Format
	}
	if !cmd.Flags().Changed("color") && colorMode == "" {
		colorMode = cfg.Color
	}
	optimize := cfg.Optimize == nil || *cfg.Optimize
	if cmd.Flags().Changed("no-opt") {
		optimize = !noOpt
	}

	if outputFile != "" && len(args) > 1 {
		return fmt.Errorf("-o/--output is only valid with exactly one source file")
	}

	paths := append([]string(nil), args...)
	natural.Sort(paths)

	var logger *slog.Logger
	if compileVerbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	useColor := shouldColor(colorMode)

	compiled, failed := 0, 0
	for _, path := range paths {
		ok, err := compileOne(cmd, path, logger, optimize, useColor)
		if err != nil {
			return err
		}
		if ok {
			compiled++
		} else {
			failed++
		}
	}

	if len(paths) > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "compiled %d file(s), %d failed\n", compiled, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to compile", failed)
	}
	return nil
}

func compileOne(cmd *cobra.Command, path string, logger *slog.Logger, optimize, useColor bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	source := string(data)

	if tokensOnly {
		return dumpTokens(cmd, path, source)
	}
	if astOnly {
		return dumpAST(cmd, path, source)
	}

	res, err := compiler.Compile(context.Background(), source, path, compiler.Options{
		Optimize: optimize,
		NoCode:   noCode,
		Logger:   logger,
	})
	if err != nil {
		return false, fmt.Errorf("compiling %s: %w", path, err)
	}

	if res.Diagnostics.HasErrors() {
		printDiagnostics(cmd, res.Diagnostics, source, path, useColor)
		return false, nil
	}
	for _, w := range res.Diagnostics.Warnings() {
		fmt.Fprint(cmd.ErrOrStderr(), diag.Format(w, source, path, useColor))
	}

	if noCode {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no errors\n", path)
		return true, nil
	}

	out := outputFile
	if out == "" {
		if err := os.MkdirAll(outdir, 0o755); err != nil {
			return false, fmt.Errorf("creating outdir %s: %w", outdir, err)
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out = filepath.Join(outdir, base+".ewvm")
	}

	listing := strings.Join(res.Instructions, "\n") + "\n"
	if err := os.WriteFile(out, []byte(listing), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, out)
	return true, nil
}

func dumpTokens(cmd *cobra.Command, path, source string) (bool, error) {
	bag := &diag.Bag{}
	l := lexer.New(source, bag)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	if outputFormat == "json" {
		out, err := tokensJSON(path, tokens)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	} else {
		for _, tok := range tokens {
			fmt.Fprintln(cmd.OutOrStdout(), tok.String())
		}
	}

	if bag.HasErrors() {
		printDiagnostics(cmd, bag, source, path, shouldColor(colorMode))
		return false, nil
	}
	return true, nil
}

func dumpAST(cmd *cobra.Command, path, source string) (bool, error) {
	bag := &diag.Bag{}
	l := lexer.New(source, bag)
	p := parser.New(l, bag)
	prog, _ := p.ParseProgram()

	if bag.HasErrors() || prog == nil {
		printDiagnostics(cmd, bag, source, path, shouldColor(colorMode))
		return false, nil
	}

	if outputFormat == "json" {
		raw, err := json.Marshal(prog.String())
		if err != nil {
			return false, err
		}
		doc, err := sjson.Set("{}", "file", path)
		if err != nil {
			return false, err
		}
		doc, err = sjson.SetRaw(doc, "ast", string(raw))
		if err != nil {
			return false, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON(doc)))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), prog.String())
	}
	return true, nil
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, source, path string, useColor bool) {
	if outputFormat == "json" {
		fmt.Fprintln(cmd.ErrOrStderr(), string(diagnosticsJSON(bag)))
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), diag.FormatAll(bag, source, path, useColor))
}

type tokenDump struct {
	Kind    string `json:"kind"`
	Literal string `json:"literal"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

func tokensJSON(path string, tokens []token.Token) (string, error) {
	dumps := make([]tokenDump, len(tokens))
	for i, tok := range tokens {
		dumps[i] = tokenDump{Kind: tok.Kind.String(), Literal: tok.Literal, Line: tok.Pos.Line, Column: tok.Pos.Column}
	}
	raw, err := json.Marshal(dumps)
	if err != nil {
		return "", err
	}
	doc, err := sjson.Set("{}", "file", path)
	if err != nil {
		return "", err
	}
	doc, err = sjson.SetRaw(doc, "tokens", string(raw))
	if err != nil {
		return "", err
	}
	return string(prettyJSON(doc)), nil
}

type diagnosticDump struct {
	Severity string `json:"severity"`
	Stage    string `json:"stage"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
}

func diagnosticsJSON(bag *diag.Bag) []byte {
	dumps := make([]diagnosticDump, len(bag.All()))
	for i, d := range bag.All() {
		dumps[i] = diagnosticDump{
			Severity: d.Severity.String(),
			Stage:    d.Stage.String(),
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Message:  d.Message,
			Hint:     d.Hint,
		}
	}
	raw, err := json.Marshal(dumps)
	if err != nil {
		return []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	doc, _ := sjson.SetRaw("{}", "diagnostics", string(raw))
	return prettyJSON(doc)
}

func prettyJSON(doc string) []byte {
	if isTerminal(os.Stdout) {
		return pretty.Color(pretty.Pretty([]byte(doc)), nil)
	}
	return pretty.Ugly([]byte(doc))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func shouldColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
