package blocks

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"kidblocks/internal/script"
)

// ErrConnection is returned when two blocks cannot be joined.
var ErrConnection = errors.New("connection refused")

// scanAngle skews top-block ordering so blocks laid out on a slight
// diagonal still read top to bottom, as the editor does.
const scanAngle = 3.0

// MaxElseIfCount caps the else-if arms of one controls_if block.
const MaxElseIfCount = 256

// Mutation carries the extra shape of a controls_if block.
type Mutation struct {
	ElseIfCount int  `json:"elseIfCount,omitempty" cbor:"1,keyasint,omitempty"`
	HasElse     bool `json:"hasElse,omitempty" cbor:"2,keyasint,omitempty"`
}

// Block is one instance placed on a workspace.
type Block struct {
	ID       string
	Kind     Kind
	X, Y     float64
	Disabled bool
	Shadow   bool

	mutation    Mutation
	fields      map[string]string
	inputs      map[string]*Block
	next        *Block
	parent      *Block
	parentInput string // "" when attached through the parent's next link
}

func (b *Block) Definition() *Definition {
	return DefinitionOf(b.Kind)
}

// Field returns the field value, or the definition's default when unset.
func (b *Block) Field(name string) string {
	if v, ok := b.fields[name]; ok {
		return v
	}
	if f, ok := b.Definition().Field(name); ok {
		return f.Default
	}
	return ""
}

func (b *Block) SetField(name, value string) error {
	f, ok := b.Definition().Field(name)
	if !ok {
		return fmt.Errorf("%s has no field %q", b.Kind, name)
	}
	switch f.Kind {
	case DropdownField:
		valid := false
		for _, o := range f.Options {
			if o.Value == value {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%s field %s: %q is not an option", b.Kind, name, value)
		}
	case NumberField:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s field %s: %q is not a number", b.Kind, name, value)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("%s field %s: %q is not a finite number", b.Kind, name, value)
		}
		// Script notation is always a valid JSON number literal.
		value = script.FormatNumber(n)
	}
	if b.fields == nil {
		b.fields = make(map[string]string)
	}
	b.fields[name] = value
	return nil
}

// Input returns the block plugged into the named socket, or nil.
func (b *Block) Input(name string) *Block {
	return b.inputs[name]
}

func (b *Block) Next() *Block   { return b.next }
func (b *Block) Parent() *Block { return b.parent }

func (b *Block) Mutation() Mutation { return b.mutation }

// Sockets lists the inputs the block currently exposes. controls_if grows
// else-if and else sockets from its mutation.
func (b *Block) Sockets() []Input {
	def := b.Definition()
	if b.Kind != ControlsIf {
		return def.Inputs
	}
	sockets := append([]Input(nil), def.Inputs...)
	for i := 1; i <= b.mutation.ElseIfCount; i++ {
		n := strconv.Itoa(i)
		sockets = append(sockets,
			Input{Name: "IF" + n, Kind: ValueInput, Check: []string{CheckBoolean}, Items: []Item{label("else if")}},
			Input{Name: "DO" + n, Kind: StatementInput, Items: []Item{label("do")}},
		)
	}
	if b.mutation.HasElse {
		sockets = append(sockets, Input{Name: "ELSE", Kind: StatementInput, Items: []Item{label("else")}})
	}
	return sockets
}

func (b *Block) socket(name string) (Input, bool) {
	for _, in := range b.Sockets() {
		if in.Name == name && in.Kind != DummyInput {
			return in, true
		}
	}
	return Input{}, false
}

// last follows next links to the end of the chain.
func (b *Block) last() *Block {
	for b.next != nil {
		b = b.next
	}
	return b
}

func (b *Block) isAncestorOf(other *Block) bool {
	for p := other; p != nil; p = p.parent {
		if p == b {
			return true
		}
	}
	return false
}

// Workspace is the graph of block instances a child has arranged.
type Workspace struct {
	top  []*Block
	byID map[string]*Block
}

func NewWorkspace() *Workspace {
	return &Workspace{byID: make(map[string]*Block)}
}

// NewBlock places a fresh top-level block of the given kind.
func (w *Workspace) NewBlock(k Kind) *Block {
	b, _ := w.newBlockWithID(k, "")
	return b
}

func (w *Workspace) newBlockWithID(k Kind, id string) (*Block, error) {
	if DefinitionOf(k) == nil {
		return nil, fmt.Errorf("unknown block kind %d", int(k))
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := w.byID[id]; exists {
		return nil, fmt.Errorf("duplicate block id %q", id)
	}
	b := &Block{ID: id, Kind: k}
	w.byID[id] = b
	w.top = append(w.top, b)
	return b, nil
}

// Block finds an instance by id.
func (w *Workspace) Block(id string) (*Block, bool) {
	b, ok := w.byID[id]
	return b, ok
}

// Count returns the number of block instances, nested ones included.
func (w *Workspace) Count() int {
	return len(w.byID)
}

// Clear discards every block instance.
func (w *Workspace) Clear() {
	w.top = nil
	w.byID = make(map[string]*Block)
}

// TopBlocks returns the unparented blocks in reading order.
func (w *Workspace) TopBlocks() []*Block {
	blocks := append([]*Block(nil), w.top...)
	offset := math.Sin(scanAngle * math.Pi / 180)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Y+offset*blocks[i].X < blocks[j].Y+offset*blocks[j].X
	})
	return blocks
}

// Walk visits every block depth-first: a block, its sockets in shape
// order, then its next block. Returning false stops the walk.
func (w *Workspace) Walk(fn func(*Block) bool) {
	var visit func(b *Block) bool
	visit = func(b *Block) bool {
		for ; b != nil; b = b.next {
			if !fn(b) {
				return false
			}
			for _, in := range b.Sockets() {
				if child := b.inputs[in.Name]; child != nil && !visit(child) {
					return false
				}
			}
		}
		return true
	}
	for _, b := range w.TopBlocks() {
		if !visit(b) {
			return
		}
	}
}

// Connect plugs child into the named socket of parent. A block already in
// that socket is bumped: statement chains are re-attached below the new
// child when possible, anything else returns to the top level.
func (w *Workspace) Connect(parent *Block, input string, child *Block) error {
	in, ok := parent.socket(input)
	if !ok {
		return fmt.Errorf("%w: %s has no input %q", ErrConnection, parent.Kind, input)
	}
	if child.isAncestorOf(parent) {
		return fmt.Errorf("%w: %s would contain itself", ErrConnection, child.Kind)
	}
	cdef := child.Definition()
	switch in.Kind {
	case ValueInput:
		if !cdef.HasOutput {
			return fmt.Errorf("%w: %s has no output for %s.%s", ErrConnection, child.Kind, parent.Kind, input)
		}
		if !checksCompatible(cdef.Output, in.Check) {
			return fmt.Errorf("%w: %s output %v does not fit %s.%s %v",
				ErrConnection, child.Kind, cdef.Output, parent.Kind, input, in.Check)
		}
	case StatementInput:
		if !cdef.Previous {
			return fmt.Errorf("%w: %s cannot go inside %s.%s", ErrConnection, child.Kind, parent.Kind, input)
		}
	}

	w.detach(child)
	displaced := parent.inputs[input]
	if displaced != nil {
		w.detach(displaced)
	}
	if parent.inputs == nil {
		parent.inputs = make(map[string]*Block)
	}
	parent.inputs[input] = child
	child.parent = parent
	child.parentInput = input
	w.removeTop(child)

	if displaced != nil && in.Kind == StatementInput {
		if tail := child.last(); tail.Definition().Next {
			return w.SetNext(tail, displaced)
		}
	}
	return nil
}

// SetNext chains next below prev. Whatever followed prev is moved to the end
// of the inserted chain, or bumped to the top level if it cannot attach.
func (w *Workspace) SetNext(prev, next *Block) error {
	if !prev.Definition().Next {
		return fmt.Errorf("%w: nothing can follow %s", ErrConnection, prev.Kind)
	}
	if !next.Definition().Previous {
		return fmt.Errorf("%w: %s cannot follow another block", ErrConnection, next.Kind)
	}
	if next.isAncestorOf(prev) {
		return fmt.Errorf("%w: %s would follow itself", ErrConnection, next.Kind)
	}

	w.detach(next)
	displaced := prev.next
	if displaced != nil {
		w.detach(displaced)
	}
	prev.next = next
	next.parent = prev
	next.parentInput = ""
	w.removeTop(next)

	if displaced != nil {
		if tail := next.last(); tail.Definition().Next {
			return w.SetNext(tail, displaced)
		}
	}
	return nil
}

// Disconnect unplugs a block (and everything below it) to the top level.
func (w *Workspace) Disconnect(b *Block) {
	w.detach(b)
}

// SetMutation reshapes a controls_if block. Children left in sockets that no
// longer exist are bumped to the top level.
func (w *Workspace) SetMutation(b *Block, m Mutation) error {
	if b.Kind != ControlsIf {
		return fmt.Errorf("%s does not take a mutation", b.Kind)
	}
	if m.ElseIfCount < 0 || m.ElseIfCount > MaxElseIfCount {
		return fmt.Errorf("controls_if: elseIfCount %d outside 0..%d", m.ElseIfCount, MaxElseIfCount)
	}
	b.mutation = m
	for name, child := range b.inputs {
		if _, ok := b.socket(name); !ok {
			w.detach(child)
		}
	}
	return nil
}

func (w *Workspace) detach(b *Block) {
	p := b.parent
	if p == nil {
		return
	}
	if b.parentInput != "" {
		delete(p.inputs, b.parentInput)
	} else {
		p.next = nil
	}
	b.parent = nil
	b.parentInput = ""
	w.top = append(w.top, b)
}

func (w *Workspace) removeTop(b *Block) {
	for i, t := range w.top {
		if t == b {
			w.top = append(w.top[:i], w.top[i+1:]...)
			return
		}
	}
}

// checksCompatible mirrors the editor's connection checker: an untyped side
// accepts anything, otherwise the two check lists must share a type.
func checksCompatible(output, input []string) bool {
	if len(output) == 0 || len(input) == 0 {
		return true
	}
	for _, o := range output {
		for _, i := range input {
			if o == i {
				return true
			}
		}
	}
	return false
}
