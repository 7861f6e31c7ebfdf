package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LoadError reports a block that could not be rebuilt from a saved workspace.
type LoadError struct {
	BlockID string
	Type    string
	Message string
}

func (e *LoadError) Error() string {
	if e.BlockID != "" {
		return fmt.Sprintf("block %s (%s): %s", e.BlockID, e.Type, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("block %s: %s", e.Type, e.Message)
	}
	return e.Message
}

// The structs below follow the editor's JSON serialisation. The cbor tags
// give share codes a compact integer-keyed layout of the same tree.

type savedWorkspace struct {
	Blocks *savedBlocks `json:"blocks,omitempty" cbor:"1,keyasint,omitempty"`
}

type savedBlocks struct {
	LanguageVersion int           `json:"languageVersion" cbor:"1,keyasint"`
	Blocks          []*savedBlock `json:"blocks" cbor:"2,keyasint"`
}

type savedBlock struct {
	Type            string                      `json:"type" cbor:"1,keyasint"`
	ID              string                      `json:"id,omitempty" cbor:"2,keyasint,omitempty"`
	X               *float64                    `json:"x,omitempty" cbor:"3,keyasint,omitempty"`
	Y               *float64                    `json:"y,omitempty" cbor:"4,keyasint,omitempty"`
	Enabled         *bool                       `json:"enabled,omitempty" cbor:"5,keyasint,omitempty"`
	DisabledReasons []string                    `json:"disabledReasons,omitempty" cbor:"-"`
	ExtraState      *Mutation                   `json:"extraState,omitempty" cbor:"6,keyasint,omitempty"`
	Fields          map[string]any              `json:"fields,omitempty" cbor:"7,keyasint,omitempty"`
	Inputs          map[string]*savedConnection `json:"inputs,omitempty" cbor:"8,keyasint,omitempty"`
	Next            *savedConnection            `json:"next,omitempty" cbor:"9,keyasint,omitempty"`
}

type savedConnection struct {
	Block  *savedBlock `json:"block,omitempty" cbor:"1,keyasint,omitempty"`
	Shadow *savedBlock `json:"shadow,omitempty" cbor:"2,keyasint,omitempty"`
}

// Load rebuilds a workspace from the editor's JSON serialisation.
func Load(data []byte) (*Workspace, error) {
	var saved savedWorkspace
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&saved); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("invalid workspace JSON: %v", err)}
	}
	return fromSaved(&saved)
}

// Save serialises the workspace in the editor's JSON format.
func Save(w *Workspace) ([]byte, error) {
	return json.MarshalIndent(toSaved(w, true), "", "  ")
}

func fromSaved(saved *savedWorkspace) (*Workspace, error) {
	w := NewWorkspace()
	if saved.Blocks == nil {
		return w, nil
	}
	for _, sb := range saved.Blocks.Blocks {
		b, err := w.build(sb, false)
		if err != nil {
			return nil, err
		}
		if sb.X != nil {
			b.X = *sb.X
		}
		if sb.Y != nil {
			b.Y = *sb.Y
		}
	}
	return w, nil
}

func (w *Workspace) build(sb *savedBlock, shadow bool) (*Block, error) {
	if sb == nil {
		return nil, &LoadError{Message: "empty block entry"}
	}
	kind, ok := ParseKind(sb.Type)
	if !ok {
		return nil, &LoadError{BlockID: sb.ID, Type: sb.Type, Message: "unknown block type"}
	}
	b, err := w.newBlockWithID(kind, sb.ID)
	if err != nil {
		return nil, &LoadError{BlockID: sb.ID, Type: sb.Type, Message: err.Error()}
	}
	b.Shadow = shadow
	if sb.Enabled != nil && !*sb.Enabled || len(sb.DisabledReasons) > 0 {
		b.Disabled = true
	}
	fail := func(err error) error {
		return &LoadError{BlockID: b.ID, Type: sb.Type, Message: err.Error()}
	}

	if sb.ExtraState != nil {
		if err := w.SetMutation(b, *sb.ExtraState); err != nil {
			return nil, fail(err)
		}
	}
	for name, raw := range sb.Fields {
		if _, known := b.Definition().Field(name); !known {
			continue
		}
		value, err := fieldString(raw)
		if err != nil {
			return nil, fail(fmt.Errorf("field %s: %w", name, err))
		}
		if err := b.SetField(name, value); err != nil {
			return nil, fail(err)
		}
	}
	for _, in := range b.Sockets() {
		conn := sb.Inputs[in.Name]
		if conn == nil {
			continue
		}
		child, err := w.buildConnection(conn)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := w.Connect(b, in.Name, child); err != nil {
			return nil, fail(err)
		}
	}
	for name := range sb.Inputs {
		if _, ok := b.socket(name); !ok {
			return nil, fail(fmt.Errorf("no input named %q", name))
		}
	}
	if sb.Next != nil {
		next, err := w.buildConnection(sb.Next)
		if err != nil {
			return nil, err
		}
		if next != nil {
			if err := w.SetNext(b, next); err != nil {
				return nil, fail(err)
			}
		}
	}
	return b, nil
}

// buildConnection prefers the real block over its shadow.
func (w *Workspace) buildConnection(c *savedConnection) (*Block, error) {
	if c.Block != nil {
		return w.build(c.Block, false)
	}
	if c.Shadow != nil {
		return w.build(c.Shadow, true)
	}
	return nil, nil
}

func fieldString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}

func toSaved(w *Workspace, withIDs bool) *savedWorkspace {
	saved := &savedWorkspace{Blocks: &savedBlocks{}}
	for _, b := range w.TopBlocks() {
		sb := saveBlock(b, withIDs)
		x, y := b.X, b.Y
		sb.X, sb.Y = &x, &y
		saved.Blocks.Blocks = append(saved.Blocks.Blocks, sb)
	}
	return saved
}

func saveBlock(b *Block, withIDs bool) *savedBlock {
	sb := &savedBlock{Type: b.Kind.String()}
	if withIDs {
		sb.ID = b.ID
	}
	if b.Disabled {
		enabled := false
		sb.Enabled = &enabled
	}
	if b.Kind == ControlsIf && b.mutation != (Mutation{}) {
		m := b.mutation
		sb.ExtraState = &m
	}
	for name, value := range b.fields {
		if sb.Fields == nil {
			sb.Fields = make(map[string]any)
		}
		if f, ok := b.Definition().Field(name); ok && f.Kind == NumberField {
			sb.Fields[name] = json.Number(value)
		} else {
			sb.Fields[name] = value
		}
	}
	for _, in := range b.Sockets() {
		child := b.inputs[in.Name]
		if child == nil {
			continue
		}
		if sb.Inputs == nil {
			sb.Inputs = make(map[string]*savedConnection)
		}
		sb.Inputs[in.Name] = connectionOf(child, withIDs)
	}
	if b.next != nil {
		sb.Next = connectionOf(b.next, withIDs)
	}
	return sb
}

func connectionOf(b *Block, withIDs bool) *savedConnection {
	if b.Shadow {
		return &savedConnection{Shadow: saveBlock(b, withIDs)}
	}
	return &savedConnection{Block: saveBlock(b, withIDs)}
}
