package blocks

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Socket type checks understood by the editor's connection checker.
const (
	CheckNumber  = "Number"
	CheckBoolean = "Boolean"
	CheckString  = "String"
)

type InputKind int

const (
	ValueInput InputKind = iota
	StatementInput
	DummyInput
)

type FieldKind int

const (
	TextField FieldKind = iota
	DropdownField
	NumberField
)

// Option is one dropdown entry: what the child sees and what the generator reads.
type Option struct {
	Label string
	Value string
}

type Field struct {
	Name    string
	Kind    FieldKind
	Default string
	Options []Option
}

// Item is a label or a field rendered on an input row ahead of its socket.
type Item struct {
	Label string
	Field *Field
}

type Input struct {
	Name  string
	Kind  InputKind
	Check []string // nil accepts any output
	Items []Item
}

// Definition is the static shape of a block type.
type Definition struct {
	Kind         Kind
	Inputs       []Input
	HasOutput    bool
	Output       []string // output type checks, nil for untyped
	Previous     bool
	Next         bool
	InputsInline bool
	Colour       int
	Tooltip      string

	// Library blocks ship with the editor; only custom blocks are exported
	// to it as JSON definitions.
	Library bool
}

// Type returns the editor identifier of the block.
func (d *Definition) Type() string {
	return d.Kind.String()
}

// IsStatement reports whether the block chains through previous/next links.
func (d *Definition) IsStatement() bool {
	return d.Previous || d.Next
}

func (d *Definition) Input(name string) (*Input, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

func (d *Definition) Field(name string) (*Field, bool) {
	for i := range d.Inputs {
		for _, item := range d.Inputs[i].Items {
			if item.Field != nil && item.Field.Name == name {
				return item.Field, true
			}
		}
	}
	return nil, false
}

// Fields lists every field in render order.
func (d *Definition) Fields() []*Field {
	var fields []*Field
	for i := range d.Inputs {
		for _, item := range d.Inputs[i].Items {
			if item.Field != nil {
				fields = append(fields, item.Field)
			}
		}
	}
	return fields
}

func label(text string) Item { return Item{Label: text} }

func field(f Field) Item { return Item{Field: &f} }

var operatorOptions = []Option{
	{"+", "ADD"},
	{"-", "SUBTRACT"},
	{"×", "MULTIPLY"},
	{"÷", "DIVIDE"},
}

var definitions = []Definition{
	{
		Kind: SetVariable,
		Inputs: []Input{
			{Name: "VALUE", Kind: ValueInput, Items: []Item{
				label("set"),
				field(Field{Name: "VAR", Kind: TextField, Default: "variable"}),
				label("to"),
			}},
		},
		Previous: true,
		Next:     true,
		Colour:   230,
		Tooltip:  "Store a value under a name.",
	},
	{
		Kind: GetVariable,
		Inputs: []Input{
			{Name: "", Kind: DummyInput, Items: []Item{
				label("get"),
				field(Field{Name: "VAR", Kind: TextField, Default: "variable"}),
			}},
		},
		HasOutput: true,
		Colour:    330,
		Tooltip:   "Read the value stored under a name.",
	},
	{
		Kind: Arithmetic,
		Inputs: []Input{
			{Name: "A", Kind: ValueInput, Check: []string{CheckNumber}},
			{Name: "", Kind: DummyInput, Items: []Item{
				field(Field{Name: "OP", Kind: DropdownField, Default: "ADD", Options: operatorOptions}),
			}},
			{Name: "B", Kind: ValueInput, Check: []string{CheckNumber}},
		},
		HasOutput: true,
		Output:    []string{CheckNumber},
		Colour:    160,
		Tooltip:   "Add, subtract, multiply or divide two numbers.",
	},
	{
		Kind: Print,
		Inputs: []Input{
			{Name: "TEXT", Kind: ValueInput, Items: []Item{label("print")}},
		},
		Previous: true,
		Next:     true,
		Colour:   290,
		Tooltip:  "Show a value.",
	},
	{
		Kind: IfElse,
		Inputs: []Input{
			{Name: "CONDITION", Kind: ValueInput, Check: []string{CheckBoolean}, Items: []Item{label("if")}},
			{Name: "DO", Kind: StatementInput, Items: []Item{label("do")}},
			{Name: "ELSE", Kind: StatementInput, Items: []Item{label("else")}},
		},
		Previous: true,
		Next:     true,
		Colour:   210,
		Tooltip:  "Do one thing or the other.",
	},
	{
		Kind: ControlsIf,
		Inputs: []Input{
			{Name: "IF0", Kind: ValueInput, Check: []string{CheckBoolean}, Items: []Item{label("if")}},
			{Name: "DO0", Kind: StatementInput, Items: []Item{label("do")}},
		},
		Previous: true,
		Next:     true,
		Colour:   210,
		Library:  true,
	},
	{
		Kind: LogicCompare,
		Inputs: []Input{
			{Name: "A", Kind: ValueInput},
			{Name: "B", Kind: ValueInput, Items: []Item{
				field(Field{Name: "OP", Kind: DropdownField, Default: "EQ", Options: []Option{
					{"=", "EQ"}, {"≠", "NEQ"}, {"<", "LT"}, {"≤", "LTE"}, {">", "GT"}, {"≥", "GTE"},
				}}),
			}},
		},
		HasOutput:    true,
		Output:       []string{CheckBoolean},
		InputsInline: true,
		Colour:       210,
		Library:      true,
	},
	{
		Kind: LogicOperation,
		Inputs: []Input{
			{Name: "A", Kind: ValueInput, Check: []string{CheckBoolean}},
			{Name: "B", Kind: ValueInput, Check: []string{CheckBoolean}, Items: []Item{
				field(Field{Name: "OP", Kind: DropdownField, Default: "AND", Options: []Option{
					{"and", "AND"}, {"or", "OR"},
				}}),
			}},
		},
		HasOutput:    true,
		Output:       []string{CheckBoolean},
		InputsInline: true,
		Colour:       210,
		Library:      true,
	},
	{
		Kind: MathNumber,
		Inputs: []Input{
			{Name: "", Kind: DummyInput, Items: []Item{
				field(Field{Name: "NUM", Kind: NumberField, Default: "0"}),
			}},
		},
		HasOutput: true,
		Output:    []string{CheckNumber},
		Colour:    230,
		Library:   true,
	},
	{
		Kind: Text,
		Inputs: []Input{
			{Name: "", Kind: DummyInput, Items: []Item{
				field(Field{Name: "TEXT", Kind: TextField, Default: ""}),
			}},
		},
		HasOutput: true,
		Output:    []string{CheckString},
		Colour:    160,
		Library:   true,
	},
	{
		Kind: MathArithmetic,
		Inputs: []Input{
			{Name: "A", Kind: ValueInput, Check: []string{CheckNumber}},
			{Name: "B", Kind: ValueInput, Check: []string{CheckNumber}, Items: []Item{
				field(Field{Name: "OP", Kind: DropdownField, Default: "ADD", Options: []Option{
					{"+", "ADD"}, {"-", "MINUS"}, {"×", "MULTIPLY"}, {"÷", "DIVIDE"}, {"^", "POWER"},
				}}),
			}},
		},
		HasOutput:    true,
		Output:       []string{CheckNumber},
		InputsInline: true,
		Colour:       230,
		Library:      true,
	},
}

var registry = map[Kind]*Definition{}

func init() {
	for i := range definitions {
		registry[definitions[i].Kind] = &definitions[i]
	}
	for _, k := range Kinds() {
		if _, ok := registry[k]; !ok {
			panic(fmt.Sprintf("blocks: no definition registered for %s", k))
		}
	}
}

// DefinitionOf returns the registered shape of a kind.
func DefinitionOf(k Kind) *Definition {
	return registry[k]
}

// Lookup resolves an editor type identifier.
func Lookup(typeName string) (*Definition, bool) {
	k, ok := ParseKind(typeName)
	if !ok {
		return nil, false
	}
	return registry[k], true
}

// Definitions returns every registered definition in kind order.
func Definitions() []*Definition {
	defs := make([]*Definition, 0, len(registry))
	for _, k := range Kinds() {
		defs = append(defs, registry[k])
	}
	return defs
}

type jsonArg struct {
	Type    string     `json:"type"`
	Name    string     `json:"name,omitempty"`
	Text    *string    `json:"text,omitempty"`
	Value   *float64   `json:"value,omitempty"`
	Options [][]string `json:"options,omitempty"`
	Check   []string   `json:"check,omitempty"`
}

type jsonDefinition struct {
	Type              string          `json:"type"`
	Message0          string          `json:"message0"`
	Args0             []jsonArg       `json:"args0,omitempty"`
	InputsInline      bool            `json:"inputsInline,omitempty"`
	PreviousStatement json.RawMessage `json:"previousStatement,omitempty"`
	NextStatement     json.RawMessage `json:"nextStatement,omitempty"`
	Output            json.RawMessage `json:"output,omitempty"`
	Colour            int             `json:"colour"`
	Tooltip           string          `json:"tooltip,omitempty"`
}

// DefinitionsJSON renders the custom block shapes in the editor's JSON
// block-definition format, ready for Blockly.defineBlocksWithJsonArray.
func DefinitionsJSON() ([]byte, error) {
	var out []jsonDefinition
	for _, d := range Definitions() {
		if d.Library {
			continue
		}
		out = append(out, d.toJSON())
	}
	return json.MarshalIndent(out, "", "  ")
}

func (d *Definition) toJSON() jsonDefinition {
	jd := jsonDefinition{
		Type:         d.Type(),
		InputsInline: d.InputsInline,
		Colour:       d.Colour,
		Tooltip:      d.Tooltip,
	}

	var message []string
	for _, in := range d.Inputs {
		for _, item := range in.Items {
			if item.Field == nil {
				message = append(message, item.Label)
				continue
			}
			jd.Args0 = append(jd.Args0, fieldArg(item.Field))
			message = append(message, "%"+strconv.Itoa(len(jd.Args0)))
		}
		arg := jsonArg{Name: in.Name, Check: in.Check}
		switch in.Kind {
		case ValueInput:
			arg.Type = "input_value"
		case StatementInput:
			arg.Type = "input_statement"
		case DummyInput:
			arg.Type = "input_dummy"
		}
		jd.Args0 = append(jd.Args0, arg)
		message = append(message, "%"+strconv.Itoa(len(jd.Args0)))
	}
	jd.Message0 = strings.Join(message, " ")

	if d.Previous {
		jd.PreviousStatement = json.RawMessage("null")
	}
	if d.Next {
		jd.NextStatement = json.RawMessage("null")
	}
	if d.HasOutput {
		jd.Output = checkJSON(d.Output)
	}
	return jd
}

func fieldArg(f *Field) jsonArg {
	switch f.Kind {
	case DropdownField:
		opts := make([][]string, 0, len(f.Options))
		for _, o := range f.Options {
			opts = append(opts, []string{o.Label, o.Value})
		}
		return jsonArg{Type: "field_dropdown", Name: f.Name, Options: opts}
	case NumberField:
		v, _ := strconv.ParseFloat(f.Default, 64)
		return jsonArg{Type: "field_number", Name: f.Name, Value: &v}
	default:
		text := f.Default
		return jsonArg{Type: "field_input", Name: f.Name, Text: &text}
	}
}

func checkJSON(check []string) json.RawMessage {
	var v any
	switch len(check) {
	case 0:
		v = nil
	case 1:
		v = check[0]
	default:
		v = check
	}
	data, _ := json.Marshal(v)
	return data
}
