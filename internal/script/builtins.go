package script

import (
	"math"
	"strings"
)

func native(name string, fn NativeFunc) *Function {
	return &Function{Name: name, Call: fn}
}

func newConsole() *Object {
	console := NewObject("console")
	out := func(name string, stderr bool) *Function {
		return native(name, func(it *Interpreter, args []Value) (Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = Inspect(a)
			}
			w := it.stdout
			if stderr {
				w = it.stderr
			}
			return Undefined, it.print(w, strings.Join(parts, " "))
		})
	}
	console.Set("log", out("log", false))
	console.Set("info", out("info", false))
	console.Set("warn", out("warn", true))
	console.Set("error", out("error", true))
	return console
}

func arg(args []Value, i int) float64 {
	if i < len(args) {
		return ToNumber(args[i])
	}
	return math.NaN()
}

func unaryMath(name string, fn func(float64) float64) *Function {
	return native(name, func(_ *Interpreter, args []Value) (Value, error) {
		return fn(arg(args, 0)), nil
	})
}

func newMath() *Object {
	m := NewObject("Math")
	m.Set("PI", math.Pi)
	m.Set("E", math.E)
	m.Set("abs", unaryMath("abs", math.Abs))
	m.Set("sqrt", unaryMath("sqrt", math.Sqrt))
	m.Set("floor", unaryMath("floor", math.Floor))
	m.Set("ceil", unaryMath("ceil", math.Ceil))
	m.Set("round", unaryMath("round", round))
	m.Set("pow", native("pow", func(_ *Interpreter, args []Value) (Value, error) {
		return pow(arg(args, 0), arg(args, 1)), nil
	}))
	m.Set("min", native("min", func(_ *Interpreter, args []Value) (Value, error) {
		return extremum(args, math.Inf(1), func(v, cur float64) bool {
			return v < cur || (v == 0 && cur == 0 && math.Signbit(v))
		}), nil
	}))
	m.Set("max", native("max", func(_ *Interpreter, args []Value) (Value, error) {
		return extremum(args, math.Inf(-1), func(v, cur float64) bool {
			return v > cur || (v == 0 && cur == 0 && !math.Signbit(v))
		}), nil
	}))
	return m
}

// pow differs from math.Pow where JavaScript answers NaN.
func pow(x, y float64) float64 {
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

// round rounds half up, keeping the sign of negative zero results.
func round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 && math.Signbit(x) {
		return math.Copysign(0, -1)
	}
	return r
}

func extremum(args []Value, start float64, better func(v, cur float64) bool) float64 {
	cur := start
	for i := range args {
		v := arg(args, i)
		if math.IsNaN(v) {
			return math.NaN()
		}
		if better(v, cur) {
			cur = v
		}
	}
	return cur
}
