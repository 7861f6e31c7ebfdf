package script

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// DefaultFilename labels generated workspace scripts in diagnostics.
const DefaultFilename = "workspace.js"

var programParser = participle.MustBuild[Program](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

type Parser struct {
	filename string
}

func NewParticleParser(filename string) *Parser {
	if filename == "" {
		filename = DefaultFilename
	}
	return &Parser{filename: filename}
}

// ParseString parses src and runs the early-error checks.
func (p *Parser) ParseString(src string) (*Program, error) {
	prog, err := programParser.ParseString(p.filename, src)
	if err != nil {
		return nil, syntaxErrorFrom(err)
	}
	if err := check(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

func Parse(filename, src string) (*Program, error) {
	return NewParticleParser(filename).ParseString(src)
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true, "let": true, "static": true,
	"implements": true, "interface": true, "package": true, "private": true,
	"protected": true, "public": true, "await": true,
}

func locationOf(pos lexer.Position) Location {
	return Location{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}

// check reports the errors a JavaScript engine raises before running
// anything: redeclared or reserved bindings and declarations used as the
// sole body of an if.
func check(prog *Program) error {
	return checkBlock(prog.Statements, true)
}

// Non-configurable globals cannot be shadowed by a top-level let.
var restrictedGlobals = map[string]bool{"undefined": true, "NaN": true, "Infinity": true}

func checkBlock(stmts []*Statement, top bool) error {
	declared := map[string]bool{}
	for _, s := range stmts {
		if s.Let != nil {
			if reservedWords[s.Let.Name] {
				return errorAt(SyntaxError, locationOf(s.Let.Pos), "Unexpected token '%s'", s.Let.Name)
			}
			if declared[s.Let.Name] || (top && restrictedGlobals[s.Let.Name]) {
				return errorAt(SyntaxError, locationOf(s.Let.Pos), "Identifier '%s' has already been declared", s.Let.Name)
			}
			declared[s.Let.Name] = true
		}
		if err := checkStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func checkStatement(s *Statement) error {
	switch {
	case s.Block != nil:
		return checkBlock(s.Block.Statements, false)
	case s.If != nil:
		for _, branch := range []*Statement{s.If.Then, s.If.Else} {
			if branch == nil {
				continue
			}
			if branch.Let != nil {
				return errorAt(SyntaxError, locationOf(branch.Pos), "Lexical declaration cannot appear in a single-statement context")
			}
			if err := checkStatement(branch); err != nil {
				return err
			}
		}
	}
	return nil
}
