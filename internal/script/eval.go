package script

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

const (
	DefaultMaxSteps       = 100000
	DefaultMaxOutputLines = 1000
)

// ctxCheckInterval is how many steps pass between context polls.
const ctxCheckInterval = 256

type binding struct {
	value       Value
	initialized bool
}

type scope struct {
	parent *scope
	vars   map[string]*binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]*binding{}}
}

func (s *scope) lookup(name string) (*binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Interpreter evaluates parsed programs under a step budget, an output cap
// and the deadline of the context passed to Run.
type Interpreter struct {
	stdout         io.Writer
	stderr         io.Writer
	maxSteps       int
	maxOutputLines int

	ctx     context.Context
	globals *scope
	steps   int
	lines   int
}

type Option func(*Interpreter)

func WithStdout(w io.Writer) Option {
	return func(it *Interpreter) { it.stdout = w }
}

// WithStderr routes console.warn and console.error.
func WithStderr(w io.Writer) Option {
	return func(it *Interpreter) { it.stderr = w }
}

// WithMaxSteps bounds the statements and operations one Run may execute.
// Zero or less disables the budget.
func WithMaxSteps(n int) Option {
	return func(it *Interpreter) { it.maxSteps = n }
}

// WithMaxOutputLines bounds the console lines one Run may print. Zero or
// less disables the cap.
func WithMaxOutputLines(n int) Option {
	return func(it *Interpreter) { it.maxOutputLines = n }
}

func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		stdout:         io.Discard,
		maxSteps:       DefaultMaxSteps,
		maxOutputLines: DefaultMaxOutputLines,
	}
	for _, opt := range opts {
		opt(it)
	}
	if it.stderr == nil {
		it.stderr = it.stdout
	}
	return it
}

// Run executes prog in a fresh global environment. Script failures are
// returned as *ScriptError.
func (it *Interpreter) Run(ctx context.Context, prog *Program) error {
	it.ctx = ctx
	it.steps = 0
	it.lines = 0
	it.globals = newScope(nil)
	installGlobals(it.globals)
	return it.execBlock(newScope(it.globals), prog.Statements)
}

// Steps reports how many steps the last Run consumed.
func (it *Interpreter) Steps() int {
	return it.steps
}

func (it *Interpreter) step(pos lexer.Position) error {
	it.steps++
	if it.maxSteps > 0 && it.steps > it.maxSteps {
		return errorAt(RangeError, locationOf(pos), "step limit of %d exceeded", it.maxSteps)
	}
	if it.steps%ctxCheckInterval == 1 {
		if err := it.ctx.Err(); err != nil {
			return errorAt(RangeError, locationOf(pos), "execution stopped: %v", err)
		}
	}
	return nil
}

// print writes one console line, enforcing the output cap.
func (it *Interpreter) print(w io.Writer, text string) error {
	it.lines += strings.Count(text, "\n") + 1
	if it.maxOutputLines > 0 && it.lines > it.maxOutputLines {
		return &ScriptError{Kind: RangeError, Message: fmt.Sprintf("output limit of %d lines exceeded", it.maxOutputLines)}
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}

// execBlock runs stmts in sc after placing every let of the block in its
// temporal dead zone.
func (it *Interpreter) execBlock(sc *scope, stmts []*Statement) error {
	for _, s := range stmts {
		if s.Let != nil {
			sc.vars[s.Let.Name] = &binding{}
		}
	}
	for _, s := range stmts {
		if err := it.exec(sc, s); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) exec(sc *scope, s *Statement) error {
	if err := it.step(s.Pos); err != nil {
		return err
	}
	switch {
	case s.Let != nil:
		var v Value = Undefined
		if s.Let.Value != nil {
			var err error
			if v, err = it.eval(sc, s.Let.Value); err != nil {
				return err
			}
		}
		b := sc.vars[s.Let.Name]
		b.value, b.initialized = v, true
		return nil
	case s.If != nil:
		cond, err := it.eval(sc, s.If.Cond)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return it.exec(sc, s.If.Then)
		}
		if s.If.Else != nil {
			return it.exec(sc, s.If.Else)
		}
		return nil
	case s.Block != nil:
		return it.execBlock(newScope(sc), s.Block.Statements)
	case s.Expr != nil:
		_, err := it.eval(sc, s.Expr.Expr)
		return err
	}
	return nil
}

func (it *Interpreter) eval(sc *scope, e *Expr) (Value, error) {
	v, err := it.evalAnd(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if Truthy(v) {
			return v, nil
		}
		if v, err = it.evalAnd(sc, op.Operand); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (it *Interpreter) evalAnd(sc *scope, e *AndExpr) (Value, error) {
	v, err := it.evalEquality(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if !Truthy(v) {
			return v, nil
		}
		if v, err = it.evalEquality(sc, op.Operand); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (it *Interpreter) evalEquality(sc *scope, e *Equality) (Value, error) {
	v, err := it.evalRelational(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if err := it.step(op.Pos); err != nil {
			return nil, err
		}
		rhs, err := it.evalRelational(sc, op.Operand)
		if err != nil {
			return nil, err
		}
		switch op.Operator {
		case "==":
			v = LooseEquals(v, rhs)
		case "!=":
			v = !LooseEquals(v, rhs)
		case "===":
			v = StrictEquals(v, rhs)
		default:
			v = !StrictEquals(v, rhs)
		}
	}
	return v, nil
}

func (it *Interpreter) evalRelational(sc *scope, e *Relational) (Value, error) {
	v, err := it.evalAdditive(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if err := it.step(op.Pos); err != nil {
			return nil, err
		}
		rhs, err := it.evalAdditive(sc, op.Operand)
		if err != nil {
			return nil, err
		}
		v = compare(op.Operator, v, rhs)
	}
	return v, nil
}

func (it *Interpreter) evalAdditive(sc *scope, e *Additive) (Value, error) {
	v, err := it.evalMultiplicative(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if err := it.step(op.Pos); err != nil {
			return nil, err
		}
		rhs, err := it.evalMultiplicative(sc, op.Operand)
		if err != nil {
			return nil, err
		}
		if op.Operator == "+" {
			v = add(v, rhs)
		} else {
			v = arithmetic(op.Operator, v, rhs)
		}
	}
	return v, nil
}

func (it *Interpreter) evalMultiplicative(sc *scope, e *Multiplicative) (Value, error) {
	v, err := it.evalUnary(sc, e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Right {
		if err := it.step(op.Pos); err != nil {
			return nil, err
		}
		rhs, err := it.evalUnary(sc, op.Operand)
		if err != nil {
			return nil, err
		}
		v = arithmetic(op.Operator, v, rhs)
	}
	return v, nil
}

func (it *Interpreter) evalUnary(sc *scope, u *Unary) (Value, error) {
	if u.Postfix != nil {
		return it.evalPostfix(sc, u.Postfix)
	}
	if err := it.step(u.Pos); err != nil {
		return nil, err
	}
	v, err := it.evalUnary(sc, u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Operator {
	case "!":
		return !Truthy(v), nil
	case "-":
		return -ToNumber(v), nil
	default:
		return ToNumber(v), nil
	}
}

func (it *Interpreter) evalPostfix(sc *scope, p *Postfix) (Value, error) {
	v, err := it.evalPrimary(sc, p.Primary)
	if err != nil {
		return nil, err
	}
	for i, op := range p.Ops {
		if op.Property != nil {
			if v, err = getProperty(v, *op.Property, op.Pos); err != nil {
				return nil, err
			}
			continue
		}
		fn, ok := v.(*Function)
		if !ok {
			return nil, errorAt(TypeError, locationOf(op.Pos), "%s is not a function", p.describe(i))
		}
		if err := it.step(op.Pos); err != nil {
			return nil, err
		}
		args := make([]Value, len(op.Call.Values))
		for j, a := range op.Call.Values {
			if args[j], err = it.eval(sc, a); err != nil {
				return nil, err
			}
		}
		if v, err = fn.Call(it, args); err != nil {
			if se, ok := err.(*ScriptError); ok && se.Location.Line == 0 {
				se.Location = locationOf(op.Pos)
			}
			return nil, err
		}
	}
	return v, nil
}

func getProperty(v Value, name string, pos lexer.Position) (Value, error) {
	switch x := v.(type) {
	case undefinedValue, nullValue:
		return nil, errorAt(TypeError, locationOf(pos), "Cannot read properties of %s (reading '%s')", ToString(v), name)
	case string:
		if name == "length" {
			return float64(stringLength(x)), nil
		}
	case *Object:
		return x.Get(name), nil
	case *Function:
		if name == "name" {
			return x.Name, nil
		}
	}
	return Undefined, nil
}

func (it *Interpreter) evalPrimary(sc *scope, p *Primary) (Value, error) {
	switch {
	case p.Number != nil:
		return *p.Number, nil
	case p.Str != nil:
		return *p.Str, nil
	case p.Bool != nil:
		return bool(*p.Bool), nil
	case p.Null:
		return Null, nil
	case p.Ident != nil:
		b, ok := sc.lookup(*p.Ident)
		if !ok {
			return nil, errorAt(ReferenceError, locationOf(p.Pos), "%s is not defined", *p.Ident)
		}
		if !b.initialized {
			return nil, errorAt(ReferenceError, locationOf(p.Pos), "Cannot access '%s' before initialization", *p.Ident)
		}
		return b.value, nil
	case p.Sub != nil:
		return it.eval(sc, p.Sub)
	}
	return Undefined, nil
}

func installGlobals(sc *scope) {
	define := func(name string, v Value) {
		sc.vars[name] = &binding{value: v, initialized: true}
	}
	define("undefined", Undefined)
	define("NaN", math.NaN())
	define("Infinity", math.Inf(1))
	define("console", newConsole())
	define("Math", newMath())
}
