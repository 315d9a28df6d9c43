package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"
)

// MaxDepth bounds nesting of value and statement slots.
const MaxDepth = 512

type wireWorkspace struct {
	Blocks    json.RawMessage `json:"blocks"`
	Variables []wireVariable  `json:"variables"`
}

type wireTop struct {
	LanguageVersion int         `json:"languageVersion"`
	Blocks          []wireBlock `json:"blocks"`
}

type wireVariable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireBlock struct {
	Type            string                     `json:"type"`
	ID              string                     `json:"id"`
	X               float64                    `json:"x"`
	Y               float64                    `json:"y"`
	Enabled         *bool                      `json:"enabled"`
	DisabledReasons []string                   `json:"disabledReasons"`
	Fields          map[string]json.RawMessage `json:"fields"`
	Inputs          map[string]wireLink        `json:"inputs"`
	Statements      map[string]wireLink        `json:"statements"`
	Next            *wireLink                  `json:"next"`
	ExtraState      json.RawMessage            `json:"extraState"`
}

type wireLink struct {
	Block  *wireBlock `json:"block"`
	Shadow *wireBlock `json:"shadow"`
}

type wireExtra struct {
	ElseIfCount int               `json:"elseIfCount"`
	HasElse     bool              `json:"hasElse"`
	ItemCount   int               `json:"itemCount"`
	Name        string            `json:"name"`
	Params      []json.RawMessage `json:"params"`
	HasReturn   *bool             `json:"hasReturn"`
}

type wireVarRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Decode parses a workspace document. Both the editor form
// {"blocks": {"blocks": [...]}} and the short form {"blocks": [...]} are
// accepted. Any error is a *StructuralError.
func Decode(data []byte) (*Workspace, error) {
	var ws wireWorkspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, structural(ErrMalformed, "", "", err)
	}
	var roots []wireBlock
	raw := bytes.TrimSpace(ws.Blocks)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &roots); err != nil {
			return nil, structural(ErrMalformed, "", "blocks", err)
		}
	default:
		var top wireTop
		if err := json.Unmarshal(raw, &top); err != nil {
			return nil, structural(ErrMalformed, "", "blocks", err)
		}
		roots = top.Blocks
	}

	out := &Workspace{}
	for _, v := range ws.Variables {
		out.Variables = append(out.Variables, Variable(v))
	}
	for i := range roots {
		n, err := convert(&roots[i], fmt.Sprintf("blocks[%d]", i), 0)
		if err != nil {
			return nil, err
		}
		out.Roots = append(out.Roots, n)
	}
	return out, nil
}

func convert(w *wireBlock, path string, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, structural(ErrTooDeep, w.ID, path, fmt.Errorf("nesting exceeds %d", MaxDepth))
	}
	n := &Node{
		ID:       w.ID,
		Type:     w.Type,
		X:        coord(w.X),
		Y:        coord(w.Y),
		Disabled: (w.Enabled != nil && !*w.Enabled) || len(w.DisabledReasons) > 0,
	}
	if err := decodeFields(n, w.Fields, path); err != nil {
		return nil, err
	}
	if len(w.ExtraState) > 0 {
		extra, err := decodeExtra(w.ExtraState)
		if err != nil {
			return nil, structural(ErrMalformed, w.ID, pathJoin(path, "extraState"), err)
		}
		n.Extra = extra
	}

	var err error
	if n.Inputs, err = convertLinks(w, w.Inputs, pathJoin(path, "inputs"), depth); err != nil {
		return nil, err
	}
	if n.Statements, err = convertLinks(w, w.Statements, pathJoin(path, "statements"), depth); err != nil {
		return nil, err
	}

	// next-цепочки разворачиваем итеративно: длинная программа не должна
	// упираться в MaxDepth.
	cur, curWire, curPath := n, w, path
	for curWire.Next != nil {
		target, shadow, ok := curWire.Next.target()
		if !ok {
			return nil, structural(ErrDangling, curWire.ID, pathJoin(curPath, "next"), nil)
		}
		nextPath := pathJoin(curPath, "next")
		next, err := convertShallow(target, nextPath, depth)
		if err != nil {
			return nil, err
		}
		next.Shadow = shadow
		cur.Next = next
		cur, curWire, curPath = next, target, nextPath
	}
	return n, nil
}

// convertShallow converts a block without following its next link; the
// caller continues the chain.
func convertShallow(w *wireBlock, path string, depth int) (*Node, error) {
	next := w.Next
	w.Next = nil
	n, err := convert(w, path, depth)
	w.Next = next
	return n, err
}

func convertLinks(owner *wireBlock, links map[string]wireLink, path string, depth int) (map[string]*Node, error) {
	if len(links) == 0 {
		return nil, nil
	}
	out := make(map[string]*Node, len(links))
	for name, link := range links {
		target, shadow, ok := link.target()
		if !ok {
			return nil, structural(ErrDangling, owner.ID, pathJoin(path, name), nil)
		}
		child, err := convert(target, pathJoin(path, name), depth+1)
		if err != nil {
			return nil, err
		}
		child.Shadow = shadow
		out[name] = child
	}
	return out, nil
}

// target prefers the real block over the shadow.
func (l *wireLink) target() (*wireBlock, bool, bool) {
	switch {
	case l.Block != nil:
		return l.Block, false, true
	case l.Shadow != nil:
		return l.Shadow, true, true
	}
	return nil, false, false
}

func decodeFields(n *Node, fields map[string]json.RawMessage, path string) error {
	if len(fields) == 0 {
		return nil
	}
	n.Fields = make(map[string]string, len(fields))
	for name, raw := range fields {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return structural(ErrMalformed, n.ID, pathJoin(path, "fields/"+name), err)
			}
			n.Fields[name] = s
		case '{':
			var ref wireVarRef
			if err := json.Unmarshal(raw, &ref); err != nil {
				return structural(ErrMalformed, n.ID, pathJoin(path, "fields/"+name), err)
			}
			if n.VarRefs == nil {
				n.VarRefs = make(map[string]string)
			}
			n.VarRefs[name] = ref.ID
			n.Fields[name] = ref.Name
		case 't', 'f':
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return structural(ErrMalformed, n.ID, pathJoin(path, "fields/"+name), err)
			}
			n.Fields[name] = "FALSE"
			if b {
				n.Fields[name] = "TRUE"
			}
		case 'n':
			n.Fields[name] = ""
		default:
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return structural(ErrMalformed, n.ID, pathJoin(path, "fields/"+name), err)
			}
			n.Fields[name] = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return nil
}

func decodeExtra(raw json.RawMessage) (Extra, error) {
	var w wireExtra
	if err := json.Unmarshal(raw, &w); err != nil {
		return Extra{}, err
	}
	e := Extra{
		ElseIfCount: w.ElseIfCount,
		HasElse:     w.HasElse,
		ItemCount:   w.ItemCount,
		Name:        w.Name,
		HasReturn:   w.HasReturn == nil || *w.HasReturn,
	}
	for _, p := range w.Params {
		p = bytes.TrimSpace(p)
		if len(p) > 0 && p[0] == '{' {
			var ref wireVarRef
			if err := json.Unmarshal(p, &ref); err != nil {
				return Extra{}, err
			}
			e.Params = append(e.Params, ref.Name)
			continue
		}
		var s string
		if err := json.Unmarshal(p, &s); err != nil {
			return Extra{}, err
		}
		e.Params = append(e.Params, s)
	}
	return e, nil
}

func coord(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	v, err := safecast.Round[int](f)
	if err != nil {
		return 0
	}
	return v
}
