package emit

import (
	"fmt"
	"slices"

	"blockgen/internal/block"
	"blockgen/internal/diag"
)

// Visit calls fn for every enabled block reachable from the roots, in
// editor order, parents before children.
func Visit(ws *block.Workspace, fn func(*block.Node)) {
	if ws == nil {
		return
	}
	roots := ws.Ordered()
	stack := make([]*block.Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if !n.Disabled {
			fn(n)
		}
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Proc is the signature of a user procedure.
type Proc struct {
	Name    string
	Params  []string
	Returns bool
	Type    ValueType
	Block   string
}

// DeclareProc records a procedure. The first definition of a name wins.
func (s *Session) DeclareProc(pr Proc) bool {
	if s.procs == nil {
		s.procs = make(map[string]Proc)
	}
	if _, ok := s.procs[pr.Name]; ok {
		return false
	}
	s.procs[pr.Name] = pr
	return true
}

// Proc returns the signature of a procedure.
func (s *Session) Proc(name string) (Proc, bool) {
	pr, ok := s.procs[name]
	return pr, ok
}

// ProcName returns the sanitised name of a procedure definition or call.
func (p *Pass) ProcName(b *block.Node) string {
	name := b.Field("NAME")
	if name == "" {
		name = b.Extra.Name
	}
	return p.Ident(name)
}

// scan declares procedures and variable types before any rule runs, so
// the emitted declarations do not depend on walk order.
func (p *Pass) scan(ws *block.Workspace) {
	s := p.Session
	var defs []*block.Node
	Visit(ws, func(n *block.Node) {
		switch n.Type {
		case "procedures_defnoreturn", "procedures_defreturn":
			defs = append(defs, n)
		case "variables_set":
			if name, ok := p.lookupVar(n, "VAR"); ok {
				t := p.InferType(n.Input("VALUE"))
				if t == TypeUnknown {
					t = ParseValueType(ws.VariableType(name))
				}
				if t == TypeUnknown {
					t = TypeInt
				}
				s.DeclareVar(p.Ident(name), t)
			}
		case "controls_for":
			if name, ok := p.lookupVar(n, "VAR"); ok {
				t := Promote(Promote(p.InferType(n.Input("FROM")), p.InferType(n.Input("TO"))), p.InferType(n.Input("BY")))
				if !t.Numeric() {
					t = TypeInt
				}
				s.DeclareVar(p.Ident(name), t)
			}
		case "math_change":
			if name, ok := p.lookupVar(n, "VAR"); ok {
				t := p.InferType(n.Input("DELTA"))
				if !t.Numeric() {
					t = TypeInt
				}
				s.DeclareVar(p.Ident(name), t)
			}
		}
	})
	for _, v := range ws.Variables {
		t := ParseValueType(v.Type)
		if t == TypeUnknown {
			t = TypeInt
		}
		s.DeclareVar(p.Ident(v.Name), t)
	}

	for _, d := range defs {
		params := make([]string, 0, len(d.Extra.Params))
		for _, prm := range d.Extra.Params {
			params = append(params, p.Ident(prm))
		}
		pr := Proc{
			Name:    p.ProcName(d),
			Params:  params,
			Returns: d.Type == "procedures_defreturn",
			Block:   d.ID,
		}
		if pr.Returns {
			pr.Type = p.InferType(d.Input("RETURN"))
		}
		if !s.DeclareProc(pr) {
			prev, _ := s.Proc(pr.Name)
			s.Warn(diag.GenUnresolvedCall, d.ID, fmt.Sprintf("procedure %s is defined twice; the definition in block %s is used", pr.Name, prev.Block),
				diag.Note{Block: prev.Block, Msg: "first definition"})
		}
	}
}

// GlobalsFor lists declared variables that are not parameters of proc.
func (p *Pass) GlobalsFor(pr Proc) []string {
	out := make([]string, 0, len(p.Session.varOrder))
	for _, v := range p.Session.varOrder {
		if !slices.Contains(pr.Params, v) {
			out = append(out, v)
		}
	}
	return out
}
