// Package diag provides the diagnostic record shared by every compiler
// stage (lexical, syntactic, semantic, internal) plus a source-context
// pretty-printer used by the CLI front end.
package diag

import (
	"fmt"
	"strings"

	"github.com/oaraujo/pasc/internal/token"
)

// Severity distinguishes hard errors from warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Stage identifies which pipeline phase raised a diagnostic.
type Stage int

const (
	StageLexical Stage = iota
	StageSyntax
	StageSemantic
	StageInternal
)

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "lexical"
	case StageSyntax:
		return "syntax"
	case StageSemantic:
		return "semantic"
	default:
		return "internal"
	}
}

// Diagnostic is one reported condition.
type Diagnostic struct {
	Severity Severity
	Stage    Stage
	Pos      token.Position
	Message  string
	Token    string // optional: offending token literal
	Hint     string // optional
}

// Error implements the error interface so a Diagnostic can be returned
// directly where a single error value is expected.
func (d *Diagnostic) Error() string {
	return d.Message
}

// Bag accumulates diagnostics for one compilation.
type Bag struct {
	items []*Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf records an error-severity diagnostic at pos.
func (b *Bag) Errorf(stage Stage, pos token.Position, format string, args ...any) {
	b.Add(&Diagnostic{Severity: SeverityError, Stage: stage, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning-severity diagnostic at pos.
func (b *Bag) Warnf(stage Stage, pos token.Position, format string, args ...any) {
	b.Add(&Diagnostic{Severity: SeverityWarning, Stage: stage, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// All returns every diagnostic recorded so far, in order.
func (b *Bag) All() []*Diagnostic {
	return b.items
}

// Errors returns only error-severity diagnostics.
func (b *Bag) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.items {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only warning-severity diagnostics.
func (b *Bag) Warnings() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.items {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Semantic records a semantic-stage error, rendering the message with the
// literal "Linha <n>: " prefix the wire format (SPEC_FULL.md §6.6) requires.
func (b *Bag) Semantic(pos token.Position, format string, args ...any) {
	msg := fmt.Sprintf("Linha %d: %s", pos.Line, fmt.Sprintf(format, args...))
	b.Add(&Diagnostic{Severity: SeverityError, Stage: StageSemantic, Pos: pos, Message: msg})
}

// Format renders a diagnostic with a source-context line and caret
// indicator, optionally with ANSI coloring. Grounded on the teacher's
// internal/errors.CompilerError.Format.
func Format(d *Diagnostic, source, file string, color bool) string {
	var sb strings.Builder

	if file != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d: %s\n", strings.ToUpper(d.Severity.String())[:1]+d.Severity.String()[1:], file, d.Pos.Line, d.Pos.Column, d.Message)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d: %s\n", d.Severity, d.Pos.Line, d.Pos.Column, d.Message)
	}

	if line := sourceLine(source, d.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(d.Pos.Column-1, 0)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if d.Hint != "" {
		fmt.Fprintf(&sb, "hint: %s\n", d.Hint)
	}

	return sb.String()
}

// FormatAll formats every diagnostic in the bag.
func FormatAll(b *Bag, source, file string, color bool) string {
	var sb strings.Builder
	for _, d := range b.All() {
		sb.WriteString(Format(d, source, file, color))
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
