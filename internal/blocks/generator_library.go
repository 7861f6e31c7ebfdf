package blocks

import (
	"strconv"
	"strings"

	"kidblocks/internal/script"
)

// Generators for the stock editor blocks offered in the toolbox. Output
// matches the editor's own JavaScript generator.

func (e *emitter) controlsIf(b *Block) Fragment {
	var sb strings.Builder
	for n := 0; n <= b.mutation.ElseIfCount; n++ {
		idx := strconv.Itoa(n)
		cond := e.valueOr(b, "IF"+idx, OrderNone, "false")
		branch := e.statementToCode(b, "DO"+idx)
		if n > 0 {
			sb.WriteString(" else ")
		}
		sb.WriteString("if (" + cond + ") {\n" + branch + "}")
	}
	if b.mutation.HasElse {
		sb.WriteString(" else {\n" + e.statementToCode(b, "ELSE") + "}")
	}
	sb.WriteString("\n")
	return statement(sb.String())
}

var compareOperators = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LT":  "<",
	"LTE": "<=",
	"GT":  ">",
	"GTE": ">=",
}

func (e *emitter) logicCompare(b *Block) Fragment {
	op := compareOperators[b.Field("OP")]
	order := OrderRelational
	if op == "==" || op == "!=" {
		order = OrderEquality
	}
	a := e.valueOr(b, "A", order, "0")
	c := e.valueOr(b, "B", order, "0")
	return expression(a+" "+op+" "+c, order)
}

func (e *emitter) logicOperation(b *Block) Fragment {
	op, order := "||", OrderLogicalOr
	if b.Field("OP") == "AND" {
		op, order = "&&", OrderLogicalAnd
	}
	a := e.valueToCode(b, "A", order)
	c := e.valueToCode(b, "B", order)
	if a == "" {
		e.missingInput(b, "A")
	}
	if c == "" {
		e.missingInput(b, "B")
	}
	switch {
	case a == "" && c == "":
		a, c = "false", "false"
	default:
		fallback := "false"
		if op == "&&" {
			fallback = "true"
		}
		if a == "" {
			a = fallback
		}
		if c == "" {
			c = fallback
		}
	}
	return expression(a+" "+op+" "+c, order)
}

func (e *emitter) mathNumber(b *Block) Fragment {
	n, err := strconv.ParseFloat(b.Field("NUM"), 64)
	if err != nil {
		n = 0
	}
	order := OrderAtomic
	if n < 0 {
		order = OrderUnaryNegation
	}
	return expression(script.FormatNumber(n), order)
}

var mathOperators = map[string]struct {
	symbol string
	order  Order
}{
	"ADD":      {" + ", OrderAddition},
	"MINUS":    {" - ", OrderSubtraction},
	"MULTIPLY": {" * ", OrderMultiplication},
	"DIVIDE":   {" / ", OrderDivision},
	"POWER":    {"", OrderComma},
}

func (e *emitter) mathArithmetic(b *Block) Fragment {
	op := mathOperators[b.Field("OP")]
	a := e.valueOr(b, "A", op.order, "0")
	c := e.valueOr(b, "B", op.order, "0")
	if op.symbol == "" {
		return expression("Math.pow("+a+", "+c+")", OrderFunctionCall)
	}
	return expression(a+op.symbol+c, op.order)
}

// quote renders a single-quoted script string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}
