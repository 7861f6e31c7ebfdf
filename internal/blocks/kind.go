package blocks

// Kind identifies a block type. The set is closed: every Kind has a
// definition in the registry and a case in the generator switch.
type Kind int

const (
	Invalid Kind = iota

	// Custom blocks
	SetVariable
	GetVariable
	Arithmetic
	Print
	IfElse

	// Library blocks offered by the toolbox
	ControlsIf
	LogicCompare
	LogicOperation
	MathNumber
	Text
	MathArithmetic

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:        "invalid",
	SetVariable:    "setVariable",
	GetVariable:    "getVariable",
	Arithmetic:     "arithmetic",
	Print:          "print",
	IfElse:         "ifElse",
	ControlsIf:     "controls_if",
	LogicCompare:   "logic_compare",
	LogicOperation: "logic_operation",
	MathNumber:     "math_number",
	Text:           "text",
	MathArithmetic: "math_arithmetic",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := Invalid + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind maps an editor block type identifier to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k := Invalid + 1; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return Invalid, false
}
