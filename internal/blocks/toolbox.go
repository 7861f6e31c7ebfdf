package blocks

import "encoding/json"

// Category is one palette section of the toolbox.
type Category struct {
	Name   string
	Colour string
	Blocks []Kind
}

type Toolbox struct {
	Categories []Category
}

// DefaultToolbox is the palette shown next to the workspace.
func DefaultToolbox() Toolbox {
	return Toolbox{Categories: []Category{
		{Name: "Logic", Colour: "#5C81A6", Blocks: []Kind{IfElse, ControlsIf, LogicCompare, LogicOperation}},
		{Name: "Variables", Colour: "#A65C81", Blocks: []Kind{SetVariable, GetVariable, MathNumber, Text}},
		{Name: "Math", Colour: "#5CA681", Blocks: []Kind{Arithmetic, MathArithmetic}},
		{Name: "Output", Colour: "#A6815C", Blocks: []Kind{Print}},
	}}
}

// Kinds lists every block offered, in palette order.
func (t Toolbox) Kinds() []Kind {
	var kinds []Kind
	for _, c := range t.Categories {
		kinds = append(kinds, c.Blocks...)
	}
	return kinds
}

type toolboxItem struct {
	Kind     string        `json:"kind"`
	Name     string        `json:"name,omitempty"`
	Colour   string        `json:"colour,omitempty"`
	Type     string        `json:"type,omitempty"`
	Contents []toolboxItem `json:"contents,omitempty"`
}

// JSON renders the toolbox in the editor's categoryToolbox format.
func (t Toolbox) JSON() ([]byte, error) {
	root := toolboxItem{Kind: "categoryToolbox"}
	for _, c := range t.Categories {
		cat := toolboxItem{Kind: "category", Name: c.Name, Colour: c.Colour}
		for _, k := range c.Blocks {
			cat.Contents = append(cat.Contents, toolboxItem{Kind: "block", Type: k.String()})
		}
		root.Contents = append(root.Contents, cat)
	}
	return json.MarshalIndent(root, "", "  ")
}
