package script

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar below covers the JavaScript subset the block generators emit:
// let declarations, if/else, blocks and expression statements over a
// conventional precedence ladder.

type Program struct {
	Pos        lexer.Position
	Statements []*Statement `@@*`
}

type Statement struct {
	Pos   lexer.Position
	Let   *LetStatement   `  @@`
	If    *IfStatement    `| @@`
	Block *BlockStatement `| @@`
	Empty bool            `| @";"`
	Expr  *ExprStatement  `| @@`
}

type LetStatement struct {
	Pos   lexer.Position
	Name  string `"let" @Ident`
	Value *Expr  `( "=" @@ )? ";"`
}

type IfStatement struct {
	Pos  lexer.Position
	Cond *Expr      `"if" "(" @@ ")"`
	Then *Statement `@@`
	Else *Statement `( "else" @@ )?`
}

type BlockStatement struct {
	Pos        lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type ExprStatement struct {
	Pos  lexer.Position
	Expr *Expr `@@ ";"`
}

type Expr struct {
	Pos   lexer.Position
	Left  *AndExpr `@@`
	Right []*OrOp  `@@*`
}

type OrOp struct {
	Pos      lexer.Position
	Operator string   `@"||"`
	Operand  *AndExpr `@@`
}

type AndExpr struct {
	Pos   lexer.Position
	Left  *Equality `@@`
	Right []*AndOp  `@@*`
}

type AndOp struct {
	Pos      lexer.Position
	Operator string    `@"&&"`
	Operand  *Equality `@@`
}

type Equality struct {
	Pos   lexer.Position
	Left  *Relational   `@@`
	Right []*EqualityOp `@@*`
}

type EqualityOp struct {
	Pos      lexer.Position
	Operator string      `@("===" | "!==" | "==" | "!=")`
	Operand  *Relational `@@`
}

type Relational struct {
	Pos   lexer.Position
	Left  *Additive       `@@`
	Right []*RelationalOp `@@*`
}

type RelationalOp struct {
	Pos      lexer.Position
	Operator string    `@("<=" | ">=" | "<" | ">")`
	Operand  *Additive `@@`
}

type Additive struct {
	Pos   lexer.Position
	Left  *Multiplicative `@@`
	Right []*AdditiveOp   `@@*`
}

type AdditiveOp struct {
	Pos      lexer.Position
	Operator string          `@("+" | "-")`
	Operand  *Multiplicative `@@`
}

type Multiplicative struct {
	Pos   lexer.Position
	Left  *Unary              `@@`
	Right []*MultiplicativeOp `@@*`
}

type MultiplicativeOp struct {
	Pos      lexer.Position
	Operator string `@("*" | "/" | "%")`
	Operand  *Unary `@@`
}

type Unary struct {
	Pos      lexer.Position
	Operator string   `  ( @("!" | "-" | "+")`
	Operand  *Unary   `    @@ )`
	Postfix  *Postfix `| @@`
}

type Postfix struct {
	Pos     lexer.Position
	Primary *Primary     `@@`
	Ops     []*PostfixOp `@@*`
}

type PostfixOp struct {
	Pos      lexer.Position
	Property *string    `  "." @Ident`
	Call     *Arguments `| @@`
}

type Arguments struct {
	Pos    lexer.Position
	Values []*Expr `"(" ( @@ ( "," @@ )* )? ")"`
}

type Primary struct {
	Pos    lexer.Position
	Number *float64 `  @Number`
	Str    *string  `| @String`
	Bool   *Boolean `| @("true" | "false")`
	Null   bool     `| @"null"`
	Ident  *string  `| @Ident`
	Sub    *Expr    `| "(" @@ ")"`
}

type Boolean bool

func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// String methods render nodes back to normalised source text.

func (s *Statement) String() string {
	switch {
	case s.Let != nil:
		if s.Let.Value == nil {
			return "let " + s.Let.Name + ";"
		}
		return "let " + s.Let.Name + " = " + s.Let.Value.String() + ";"
	case s.If != nil:
		out := "if (" + s.If.Cond.String() + ") " + s.If.Then.String()
		if s.If.Else != nil {
			out += " else " + s.If.Else.String()
		}
		return out
	case s.Block != nil:
		parts := make([]string, len(s.Block.Statements))
		for i, st := range s.Block.Statements {
			parts[i] = st.String()
		}
		if len(parts) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(parts, " ") + " }"
	case s.Expr != nil:
		return s.Expr.Expr.String() + ";"
	default:
		return ";"
	}
}

func (e *Expr) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (e *AndExpr) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (e *Equality) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (e *Relational) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (e *Additive) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (e *Multiplicative) String() string {
	out := e.Left.String()
	for _, op := range e.Right {
		out += " " + op.Operator + " " + op.Operand.String()
	}
	return out
}

func (u *Unary) String() string {
	if u.Postfix != nil {
		return u.Postfix.String()
	}
	return u.Operator + u.Operand.String()
}

func (p *Postfix) String() string {
	return p.describe(len(p.Ops))
}

// describe renders the primary followed by the first n postfix operations.
func (p *Postfix) describe(n int) string {
	out := p.Primary.String()
	for _, op := range p.Ops[:n] {
		if op.Property != nil {
			out += "." + *op.Property
			continue
		}
		args := make([]string, len(op.Call.Values))
		for i, v := range op.Call.Values {
			args[i] = v.String()
		}
		out += "(" + strings.Join(args, ", ") + ")"
	}
	return out
}

func (p *Primary) String() string {
	switch {
	case p.Number != nil:
		return FormatNumber(*p.Number)
	case p.Str != nil:
		return strconv.Quote(*p.Str)
	case p.Bool != nil:
		return strconv.FormatBool(bool(*p.Bool))
	case p.Null:
		return "null"
	case p.Ident != nil:
		return *p.Ident
	case p.Sub != nil:
		return "(" + p.Sub.String() + ")"
	}
	return ""
}
