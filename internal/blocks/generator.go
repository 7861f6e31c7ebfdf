package blocks

import (
	"fmt"
	"regexp"
	"strings"
)

// Leniency decides what a disconnected socket means at generation time.
type Leniency int

const (
	// Lenient substitutes the socket's default literal.
	Lenient Leniency = iota
	// Strict reports every disconnected socket and emits nothing.
	Strict
)

const DefaultIndent = "  "

// Fragment is the code emitted for one block. Expression blocks carry the
// precedence of their outermost operator; statement blocks end in "\n".
type Fragment struct {
	Code       string
	Order      Order
	Expression bool
}

// MissingInputError names a socket left empty under Strict leniency.
type MissingInputError struct {
	BlockID string
	Kind    Kind
	Input   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s block %s: input %s is not connected", e.Kind, e.BlockID, e.Input)
}

type GenerationErrors []*MissingInputError

func (errs GenerationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

type Generator struct {
	leniency Leniency
	indent   string
}

type GeneratorOption func(*Generator)

func WithLeniency(l Leniency) GeneratorOption {
	return func(g *Generator) { g.leniency = l }
}

func WithIndent(indent string) GeneratorOption {
	return func(g *Generator) { g.indent = indent }
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{leniency: Lenient, indent: DefaultIndent}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// emitter holds the state of one generation pass.
type emitter struct {
	*Generator
	missing GenerationErrors
}

var (
	leadingBlank  = regexp.MustCompile(`^\s+\n`)
	trailingSpace = regexp.MustCompile(`\n\s+$`)
	lineTrailing  = regexp.MustCompile(`[ \t]+\n`)
)

// WorkspaceToCode generates one script from every top-level block in
// reading order. Chains are joined by a blank line.
func (g *Generator) WorkspaceToCode(w *Workspace) (string, error) {
	e := &emitter{Generator: g}
	var chunks []string
	for _, b := range w.TopBlocks() {
		frag := e.blockToCode(b)
		line := frag.Code
		if frag.Expression && line != "" {
			line += ";\n"
		}
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	if len(e.missing) > 0 {
		return "", e.missing
	}
	code := strings.Join(chunks, "\n")
	code = leadingBlank.ReplaceAllString(code, "")
	code = trailingSpace.ReplaceAllString(code, "\n")
	code = lineTrailing.ReplaceAllString(code, "\n")
	return code, nil
}

// BlockToCode generates a single block and whatever follows it.
func (g *Generator) BlockToCode(b *Block) (Fragment, error) {
	e := &emitter{Generator: g}
	frag := e.blockToCode(b)
	if len(e.missing) > 0 {
		return Fragment{}, e.missing
	}
	return frag, nil
}

func (e *emitter) blockToCode(b *Block) Fragment {
	if b == nil {
		return Fragment{}
	}
	if b.Disabled {
		return e.blockToCode(b.next)
	}
	frag := e.generate(b)
	if frag.Expression {
		return frag
	}
	next := e.blockToCode(b.next)
	frag.Code += next.Code
	return frag
}

// valueToCode generates the block in a value socket, parenthesised if its
// precedence is looser than the substitution site. An empty socket yields "".
func (e *emitter) valueToCode(b *Block, name string, outer Order) string {
	target := b.Input(name)
	if target == nil {
		return ""
	}
	frag := e.blockToCode(target)
	if frag.Code == "" {
		return ""
	}
	if needsParens(outer, frag.Order) {
		return "(" + frag.Code + ")"
	}
	return frag.Code
}

// valueOr is valueToCode with the socket's default literal.
func (e *emitter) valueOr(b *Block, name string, outer Order, fallback string) string {
	if code := e.valueToCode(b, name, outer); code != "" {
		return code
	}
	e.missingInput(b, name)
	return fallback
}

func (e *emitter) missingInput(b *Block, name string) {
	if e.leniency == Strict {
		e.missing = append(e.missing, &MissingInputError{BlockID: b.ID, Kind: b.Kind, Input: name})
	}
}

// statementToCode generates the chain in a statement socket, indented.
func (e *emitter) statementToCode(b *Block, name string) string {
	code := e.blockToCode(b.Input(name)).Code
	if code == "" {
		return ""
	}
	return prefixLines(code, e.indent)
}

// prefixLines indents every line except an empty final one.
func prefixLines(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString(prefix)
		sb.WriteString(line)
	}
	return sb.String()
}

func statement(code string) Fragment {
	return Fragment{Code: code}
}

func expression(code string, order Order) Fragment {
	return Fragment{Code: code, Order: order, Expression: true}
}

var arithmeticSymbols = map[string]string{
	"ADD":      "+",
	"SUBTRACT": "-",
	"MULTIPLY": "*",
	"DIVIDE":   "/",
}

func (e *emitter) generate(b *Block) Fragment {
	switch b.Kind {
	case SetVariable:
		value := e.valueOr(b, "VALUE", OrderAssignment, "0")
		return statement(fmt.Sprintf("let %s = %s;\n", b.Field("VAR"), value))
	case GetVariable:
		return expression(b.Field("VAR"), OrderAtomic)
	case Arithmetic:
		a := e.valueOr(b, "A", OrderAtomic, "0")
		c := e.valueOr(b, "B", OrderAtomic, "0")
		return expression(fmt.Sprintf("(%s %s %s)", a, arithmeticSymbols[b.Field("OP")], c), OrderAtomic)
	case Print:
		text := e.valueOr(b, "TEXT", OrderNone, `""`)
		return statement(fmt.Sprintf("console.log(%s);\n", text))
	case IfElse:
		cond := e.valueOr(b, "CONDITION", OrderNone, "false")
		doCode := e.statementToCode(b, "DO")
		elseCode := e.statementToCode(b, "ELSE")
		return statement(fmt.Sprintf("if (%s) {\n%s} else {\n%s}\n", cond, doCode, elseCode))
	case ControlsIf:
		return e.controlsIf(b)
	case LogicCompare:
		return e.logicCompare(b)
	case LogicOperation:
		return e.logicOperation(b)
	case MathNumber:
		return e.mathNumber(b)
	case Text:
		return expression(quote(b.Field("TEXT")), OrderAtomic)
	case MathArithmetic:
		return e.mathArithmetic(b)
	case Invalid, kindCount:
	}
	panic(fmt.Sprintf("blocks: no generator for %s", b.Kind))
}
