package blocks

import (
	"encoding/json"
	"testing"
)

func TestToolboxCoversEveryKind(t *testing.T) {
	offered := map[Kind]bool{}
	for _, k := range DefaultToolbox().Kinds() {
		if offered[k] {
			t.Errorf("%s appears twice in the toolbox", k)
		}
		offered[k] = true
	}
	for _, k := range Kinds() {
		if !offered[k] {
			t.Errorf("%s is registered but not offered", k)
		}
	}
}

func TestEveryToolboxBlockGenerates(t *testing.T) {
	g := NewGenerator()
	for _, k := range DefaultToolbox().Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			def, ok := Lookup(k.String())
			if !ok || def.Kind != k {
				t.Fatalf("Lookup(%q) failed", k.String())
			}
			w := NewWorkspace()
			frag, err := g.BlockToCode(w.NewBlock(k))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if frag.Code == "" {
				t.Error("expected code for a fresh block")
			}
			if frag.Expression != def.HasOutput {
				t.Errorf("expression = %v, but output = %v", frag.Expression, def.HasOutput)
			}
		})
	}
}

func TestLookupUnknownType(t *testing.T) {
	if _, ok := Lookup("rocket"); ok {
		t.Error("expected rocket to be unknown")
	}
	if _, ok := ParseKind("invalid"); ok {
		t.Error("expected the invalid kind to be unparseable")
	}
}

func TestCustomBlockShapes(t *testing.T) {
	set := DefinitionOf(SetVariable)
	if set.Colour != 230 || !set.Previous || !set.Next || set.HasOutput {
		t.Errorf("setVariable shape: %+v", set)
	}
	if f, ok := set.Field("VAR"); !ok || f.Default != "variable" || f.Kind != TextField {
		t.Errorf("setVariable VAR field: %+v", f)
	}

	arith := DefinitionOf(Arithmetic)
	if arith.Colour != 160 || !arith.HasOutput || len(arith.Output) != 1 || arith.Output[0] != CheckNumber {
		t.Errorf("arithmetic shape: %+v", arith)
	}
	for _, name := range []string{"A", "B"} {
		in, ok := arith.Input(name)
		if !ok || len(in.Check) != 1 || in.Check[0] != CheckNumber {
			t.Errorf("arithmetic input %s: %+v", name, in)
		}
	}
	op, _ := arith.Field("OP")
	labels := ""
	for _, o := range op.Options {
		labels += o.Label
	}
	if labels != "+-×÷" {
		t.Errorf("arithmetic operator labels = %q", labels)
	}

	if p := DefinitionOf(Print); p.Colour != 290 || !p.Previous || !p.Next {
		t.Errorf("print shape: %+v", p)
	}

	ifElse := DefinitionOf(IfElse)
	if ifElse.Colour != 210 {
		t.Errorf("ifElse colour = %d", ifElse.Colour)
	}
	if in, ok := ifElse.Input("CONDITION"); !ok || in.Kind != ValueInput || in.Check[0] != CheckBoolean {
		t.Errorf("ifElse CONDITION: %+v", in)
	}
	for _, name := range []string{"DO", "ELSE"} {
		if in, ok := ifElse.Input(name); !ok || in.Kind != StatementInput {
			t.Errorf("ifElse %s: %+v", name, in)
		}
	}
}

func TestDefinitionsJSON(t *testing.T) {
	data, err := DefinitionsJSON()
	if err != nil {
		t.Fatal(err)
	}
	var defs []map[string]any
	if err := json.Unmarshal(data, &defs); err != nil {
		t.Fatal(err)
	}
	if len(defs) != 5 {
		t.Fatalf("expected 5 custom definitions, got %d", len(defs))
	}

	byType := map[string]map[string]any{}
	for _, d := range defs {
		byType[d["type"].(string)] = d
	}
	set := byType["setVariable"]
	if set["message0"] != "set %1 to %2" {
		t.Errorf("setVariable message0 = %v", set["message0"])
	}
	if _, ok := set["previousStatement"]; !ok {
		t.Error("setVariable should have a previous connection")
	}
	if _, ok := set["output"]; ok {
		t.Error("setVariable should not have an output")
	}
	if byType["arithmetic"]["output"] != "Number" {
		t.Errorf("arithmetic output = %v", byType["arithmetic"]["output"])
	}
	if _, ok := byType["math_number"]; ok {
		t.Error("library blocks should not be exported")
	}
}

func TestToolboxJSON(t *testing.T) {
	data, err := DefaultToolbox().JSON()
	if err != nil {
		t.Fatal(err)
	}
	var tb struct {
		Kind     string `json:"kind"`
		Contents []struct {
			Name     string `json:"name"`
			Colour   string `json:"colour"`
			Contents []struct {
				Type string `json:"type"`
			} `json:"contents"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(data, &tb); err != nil {
		t.Fatal(err)
	}
	if tb.Kind != "categoryToolbox" || len(tb.Contents) != 4 {
		t.Fatalf("unexpected toolbox %+v", tb)
	}
	want := []struct{ name, colour string }{
		{"Logic", "#5C81A6"},
		{"Variables", "#A65C81"},
		{"Math", "#5CA681"},
		{"Output", "#A6815C"},
	}
	for i, w := range want {
		if tb.Contents[i].Name != w.name || tb.Contents[i].Colour != w.colour {
			t.Errorf("category %d = %s %s, want %s %s", i, tb.Contents[i].Name, tb.Contents[i].Colour, w.name, w.colour)
		}
	}
	if tb.Contents[3].Contents[0].Type != "print" {
		t.Errorf("Output category should hold print, got %+v", tb.Contents[3].Contents)
	}
}
