package main

import (
	"fmt"
	"io"
	"strings"

	"kidblocks/internal/blocks"
	"kidblocks/internal/script"
)

const rule = "─────────────────────────────────────────────────────────────────"

func (e *env) lexDebug(code string) int {
	fmt.Fprintf(e.stdout, "📄 Lexing: %s\n", script.DefaultFilename)
	fmt.Fprintln(e.stdout, rule)
	if showRawTokens(e.stdout, code) {
		return 0
	}
	return 1
}

func (e *env) astDebug(code string) int {
	program, err := script.Parse(script.DefaultFilename, code)
	if err != nil {
		reportScriptError(e.stdout, err, code)

		fmt.Fprintln(e.stdout, "\n📄 Raw Tokens (for debugging):")
		fmt.Fprintln(e.stdout, rule)
		showRawTokens(e.stdout, code)
		return 1
	}

	fmt.Fprintf(e.stdout, "🌲 Abstract Syntax Tree: %s\n", script.DefaultFilename)
	fmt.Fprintln(e.stdout, "═════════════════════════════════════════════════════════════════")
	printStatements(e.stdout, program.Statements, "  ")
	fmt.Fprintln(e.stdout, "═════════════════════════════════════════════════════════════════")
	fmt.Fprintf(e.stdout, "✅ Parsed successfully into %d top-level statements\n", len(program.Statements))
	return 0
}

func printStatements(w io.Writer, stmts []*script.Statement, indent string) {
	for i, s := range stmts {
		fmt.Fprintf(w, "%s%d. ", indent, i+1)
		printStatement(w, s, indent)
	}
}

func printStatement(w io.Writer, s *script.Statement, indent string) {
	switch {
	case s.Let != nil:
		value := "undefined"
		if s.Let.Value != nil {
			value = s.Let.Value.String()
		}
		fmt.Fprintf(w, "LET %s = %s\n", s.Let.Name, value)
	case s.If != nil:
		fmt.Fprintf(w, "IF %s\n", s.If.Cond)
		fmt.Fprintf(w, "%s   then: ", indent)
		printStatement(w, s.If.Then, indent+"   ")
		if s.If.Else != nil {
			fmt.Fprintf(w, "%s   else: ", indent)
			printStatement(w, s.If.Else, indent+"   ")
		}
	case s.Block != nil:
		fmt.Fprintf(w, "BLOCK (%d statements)\n", len(s.Block.Statements))
		printStatements(w, s.Block.Statements, indent+"    ")
	case s.Expr != nil:
		fmt.Fprintf(w, "EXPR %s\n", s.Expr.Expr)
	default:
		fmt.Fprintln(w, "EMPTY")
	}
}

// showRawTokens lists every token of code and reports whether lexing
// succeeded.
func showRawTokens(w io.Writer, code string) bool {
	lexer, err := script.NewLexerForDebug(code, script.DefaultFilename)
	if err != nil {
		fmt.Fprintf(w, "Error creating lexer: %v\n", err)
		return false
	}

	fmt.Fprintf(w, "%-4s %-3s %-15s %s\n", "Line", "Col", "Kind", "Value")
	fmt.Fprintln(w, rule)

	tokenCount := 0
	ok := true
	for {
		token, err := lexer.NextToken()
		if err != nil {
			fmt.Fprintf(w, "Lexer error: %v\n", err)
			ok = false
			break
		}
		if token.EOF {
			break
		}
		if token.Type == "Whitespace" {
			continue
		}
		tokenCount++

		displayValue := token.Value
		if len(displayValue) > 50 {
			displayValue = displayValue[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d %-3d %-15s %s\n", token.Line, token.Column, token.Type, displayValue)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "✅ Lexed %d tokens\n", tokenCount)
	return ok
}

// printTree draws every chain on the workspace with its sockets.
func printTree(w io.Writer, ws *blocks.Workspace) {
	top := ws.TopBlocks()
	if len(top) == 0 {
		fmt.Fprintln(w, "(empty workspace)")
		return
	}
	for _, b := range top {
		fmt.Fprintf(w, "@ (%g, %g)\n", b.X, b.Y)
		printChain(w, b, "  ")
	}

	var total, statements int
	ws.Walk(func(b *blocks.Block) bool {
		total++
		if b.Definition().IsStatement() {
			statements++
		}
		return true
	})
	fmt.Fprintf(w, "%d blocks, %d statements\n", total, statements)
}

func printChain(w io.Writer, b *blocks.Block, indent string) {
	for ; b != nil; b = b.Next() {
		fmt.Fprintf(w, "%s%s%s\n", indent, b.Kind, describeFields(b))
		for _, in := range b.Sockets() {
			if in.Kind == blocks.DummyInput {
				continue
			}
			child := b.Input(in.Name)
			if child == nil {
				fmt.Fprintf(w, "%s  %s: (empty)\n", indent, in.Name)
				continue
			}
			fmt.Fprintf(w, "%s  %s:\n", indent, in.Name)
			printChain(w, child, indent+"    ")
		}
	}
}

func describeFields(b *blocks.Block) string {
	var parts []string
	for _, f := range b.Definition().Fields() {
		parts = append(parts, f.Name+"="+b.Field(f.Name))
	}
	out := ""
	if len(parts) > 0 {
		out = " [" + strings.Join(parts, " ") + "]"
	}
	if b.Disabled {
		out += " (disabled)"
	}
	return out
}

func printToolbox(w io.Writer, tb blocks.Toolbox) {
	for _, c := range tb.Categories {
		names := make([]string, len(c.Blocks))
		for i, k := range c.Blocks {
			names[i] = k.String()
		}
		fmt.Fprintf(w, "%-10s %s  %s\n", c.Name, c.Colour, strings.Join(names, ", "))
	}
}
