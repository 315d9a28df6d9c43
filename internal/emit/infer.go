package emit

import (
	"strings"

	"blockgen/internal/block"
)

// InferType guesses the type of a value block without emitting it.
// Variables resolve through the session, then through the workspace
// declaration.
func (p *Pass) InferType(n *block.Node) ValueType {
	if n == nil || n.Disabled {
		return TypeUnknown
	}
	switch n.Type {
	case "math_number":
		if strings.ContainsAny(n.Field("NUM"), ".eE") {
			return TypeFloat
		}
		return TypeInt
	case "math_arithmetic":
		if n.Field("OP") == "POWER" {
			return TypeFloat
		}
		return Promote(p.InferType(n.Input("A")), p.InferType(n.Input("B")))
	case "math_single":
		switch n.Field("OP") {
		case "ABS", "NEG":
			if t := p.InferType(n.Input("NUM")); t != TypeUnknown {
				return t
			}
			return TypeInt
		}
		return TypeFloat
	case "math_constrain":
		if t := p.InferType(n.Input("VALUE")); t != TypeUnknown {
			return t
		}
		return TypeInt
	case "math_modulo", "math_random_int", "math_map", "io_analogread", "io_digitalread",
		"io_highlow", "time_millis", "text_length":
		return TypeInt
	case "logic_compare", "logic_operation", "logic_negate", "logic_boolean":
		return TypeBool
	case "text", "text_join":
		return TypeString
	case "dht_read", "ultrasonic_distance":
		return TypeFloat
	case "logic_ternary":
		a, b := p.InferType(n.Input("THEN")), p.InferType(n.Input("ELSE"))
		switch {
		case a == b:
			return a
		case a.Numeric() && b.Numeric():
			return Promote(a, b)
		case a == TypeUnknown:
			return b
		}
		return a
	case "variables_get":
		return p.varType(n)
	case "procedures_callreturn":
		if pr, ok := p.Session.Proc(p.ProcName(n)); ok {
			return pr.Type
		}
	}
	return TypeUnknown
}

func (p *Pass) varType(n *block.Node) ValueType {
	name, _ := p.lookupVar(n, "VAR")
	if t, ok := p.Session.VarType(p.Ident(name)); ok {
		return t
	}
	return ParseValueType(p.Session.Workspace.VariableType(name))
}
