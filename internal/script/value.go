package script

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a script value: Undefined, Null, bool, float64, string, *Object
// or *Function.
type Value any

type undefinedValue struct{}

type nullValue struct{}

var (
	Undefined Value = undefinedValue{}
	Null      Value = nullValue{}
)

// Object is a host object such as console or Math.
type Object struct {
	Name  string
	props map[string]Value
}

func NewObject(name string) *Object {
	return &Object{Name: name, props: map[string]Value{}}
}

func (o *Object) Set(key string, v Value) {
	o.props[key] = v
}

func (o *Object) Get(key string) Value {
	if v, ok := o.props[key]; ok {
		return v
	}
	return Undefined
}

// Enumerable reports whether the object's properties show when inspected.
// Math keeps its constants non-enumerable, like a real engine.
func (o *Object) Enumerable() bool {
	return o.Name != "Math"
}

func (o *Object) keys() []string {
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type NativeFunc func(it *Interpreter, args []Value) (Value, error)

type Function struct {
	Name string
	Call NativeFunc
}

func TypeOf(v Value) string {
	switch v.(type) {
	case undefinedValue:
		return "undefined"
	case nullValue:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	}
	return "object"
}

func Truthy(v Value) bool {
	switch x := v.(type) {
	case undefinedValue, nullValue:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case undefinedValue:
		return math.NaN()
	case nullValue:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		return stringToNumber(x)
	}
	return stringToNumber(ToString(v))
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeError(err) {
		return math.NaN()
	}
	return n
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func ToString(v Value) string {
	switch x := v.(type) {
	case undefinedValue:
		return "undefined"
	case nullValue:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case *Function:
		return "function " + x.Name + "() { [native code] }"
	case *Object:
		return "[object " + x.Name + "]"
	}
	return ""
}

// FormatNumber renders f the way JavaScript's Number#toString does: the
// shortest digits that round-trip, in plain notation for decimal exponents
// from -7 to 20 and exponent notation otherwise.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f < 0:
		return "-" + FormatNumber(-f)
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k := len(digits)
	n := e + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}
	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	mag := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + mag
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + mag
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Inspect formats v the way a console prints an argument.
func Inspect(v Value) string {
	return inspect(v, false)
}

func inspect(v Value, nested bool) string {
	switch x := v.(type) {
	case float64:
		if x == 0 && math.Signbit(x) {
			return "-0"
		}
		return FormatNumber(x)
	case string:
		if nested {
			return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
		}
		return x
	case *Function:
		return "[Function: " + x.Name + "]"
	case *Object:
		if !x.Enumerable() || len(x.props) == 0 {
			return "Object [" + x.Name + "] {}"
		}
		parts := make([]string, 0, len(x.props))
		for _, k := range x.keys() {
			parts = append(parts, k+": "+inspect(x.props[k], true))
		}
		return "Object [" + x.Name + "] { " + strings.Join(parts, ", ") + " }"
	}
	return ToString(v)
}

// toPrimitive maps host objects to their string form; primitives pass through.
func toPrimitive(v Value) Value {
	switch v.(type) {
	case *Object, *Function:
		return ToString(v)
	}
	return v
}

func StrictEquals(a, b Value) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case *Object:
		y, ok := b.(*Object)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	}
	return a == b
}

func LooseEquals(a, b Value) bool {
	if TypeOf(a) == TypeOf(b) && isNullish(a) == isNullish(b) {
		return StrictEquals(a, b)
	}
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	switch x := a.(type) {
	case bool:
		return LooseEquals(ToNumber(x), b)
	case *Object, *Function:
		return LooseEquals(toPrimitive(x), b)
	case string:
		if _, ok := b.(float64); ok {
			return StrictEquals(ToNumber(x), b)
		}
	}
	switch y := b.(type) {
	case bool:
		return LooseEquals(a, ToNumber(y))
	case *Object, *Function:
		return LooseEquals(a, toPrimitive(y))
	case string:
		if _, ok := a.(float64); ok {
			return StrictEquals(a, ToNumber(y))
		}
	}
	return false
}

func isNullish(v Value) bool {
	switch v.(type) {
	case undefinedValue, nullValue:
		return true
	}
	return false
}

// compare implements the relational operators. NaN operands make every
// comparison false.
func compare(op string, a, b Value) bool {
	a, b = toPrimitive(a), toPrimitive(b)
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			c := compareUTF16(x, y)
			switch op {
			case "<":
				return c < 0
			case "<=":
				return c <= 0
			case ">":
				return c > 0
			default:
				return c >= 0
			}
		}
	}
	x, y := ToNumber(a), ToNumber(b)
	switch op {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	default:
		return x >= y
	}
}

// compareUTF16 orders strings by UTF-16 code units.
func compareUTF16(a, b string) int {
	x, y := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(x) && i < len(y); i++ {
		if x[i] != y[i] {
			if x[i] < y[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	return 0
}

// stringLength counts UTF-16 code units.
func stringLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func add(a, b Value) Value {
	a, b = toPrimitive(a), toPrimitive(b)
	_, as := a.(string)
	_, bs := b.(string)
	if as || bs {
		return ToString(a) + ToString(b)
	}
	return ToNumber(a) + ToNumber(b)
}

func arithmetic(op string, a, b Value) Value {
	x, y := ToNumber(a), ToNumber(b)
	switch op {
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		return x / y
	default:
		return math.Mod(x, y)
	}
}
