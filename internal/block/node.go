// Package block models the visual program tree and decodes it from the
// editor's JSON workspace format.
package block

import (
	"sort"
	"strings"
)

// Node is one block of the program tree. A Node is never mutated once a
// generation pass has started.
type Node struct {
	ID       string
	Type     string
	X, Y     int
	Disabled bool
	Shadow   bool

	Fields map[string]string
	// VarRefs maps a field name to the variable id it references.
	VarRefs    map[string]string
	Inputs     map[string]*Node
	Statements map[string]*Node
	Next       *Node
	Extra      Extra
}

// Extra is the mutation state some blocks carry (if/else arms, procedure
// parameters, join item counts).
type Extra struct {
	ElseIfCount int
	HasElse     bool
	ItemCount   int
	Name        string
	Params      []string
	HasReturn   bool
}

// Field returns the literal value of a field, or "".
func (n *Node) Field(name string) string {
	if n == nil {
		return ""
	}
	return n.Fields[name]
}

// FieldOr returns the trimmed field value or def when it is blank.
func (n *Node) FieldOr(name, def string) string {
	v := strings.TrimSpace(n.Field(name))
	if v == "" {
		return def
	}
	return v
}

// Input returns the block plugged into a value slot.
func (n *Node) Input(name string) *Node {
	if n == nil {
		return nil
	}
	return n.Inputs[name]
}

// Statement returns the head of a statement slot. The editor serialises
// statement slots under "inputs" too, so both maps are consulted.
func (n *Node) Statement(name string) *Node {
	if n == nil {
		return nil
	}
	if s, ok := n.Statements[name]; ok {
		return s
	}
	return n.Inputs[name]
}

// Children returns every direct child (value slots, statement slots, next)
// in a deterministic order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, k := range sortedKeys(n.Inputs) {
		out = append(out, n.Inputs[k])
	}
	for _, k := range sortedKeys(n.Statements) {
		out = append(out, n.Statements[k])
	}
	if n.Next != nil {
		out = append(out, n.Next)
	}
	return out
}

// Label is a short identification for diagnostics.
func (n *Node) Label() string {
	if n == nil {
		return "<nil>"
	}
	if n.ID == "" {
		return n.Type
	}
	return n.Type + "#" + n.ID
}

func sortedKeys(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Variable is a workspace-level variable declaration.
type Variable struct {
	ID   string
	Name string
	Type string
}

// Workspace is a decoded program: top-level blocks plus variables.
type Workspace struct {
	Roots     []*Node
	Variables []Variable
}

// VariableName resolves a variable id.
func (w *Workspace) VariableName(id string) (string, bool) {
	if w == nil {
		return "", false
	}
	for _, v := range w.Variables {
		if v.ID == id {
			return v.Name, true
		}
	}
	return "", false
}

// VariableType returns the declared type of a variable name, if any.
func (w *Workspace) VariableType(name string) string {
	if w == nil {
		return ""
	}
	for _, v := range w.Variables {
		if v.Name == name {
			return v.Type
		}
	}
	return ""
}

// Ordered returns the roots sorted by editor position, top to bottom then
// left to right. Ties keep file order.
func (w *Workspace) Ordered() []*Node {
	if w == nil {
		return nil
	}
	out := make([]*Node, len(w.Roots))
	copy(out, w.Roots)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
