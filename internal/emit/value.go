package emit

import "strings"

// Precedence is the binding strength of an emitted expression.
// Smaller values bind tighter.
type Precedence int

const (
	// PrecAtomic never needs parentheses.
	PrecAtomic Precedence = 0
	// PrecNone accepts any expression without parentheses.
	PrecNone Precedence = 99
)

// ValueType is the static type the generator infers for an expression.
type ValueType uint8

const (
	TypeUnknown ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseValueType maps editor variable types ("Number", "String", ...) and
// the generator's own names to a ValueType.
func ParseValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "int", "integer", "long":
		return TypeInt
	case "float", "double", "decimal":
		return TypeFloat
	case "boolean", "bool":
		return TypeBool
	case "string", "text":
		return TypeString
	default:
		return TypeUnknown
	}
}

// Numeric reports whether t is int or float.
func (t ValueType) Numeric() bool { return t == TypeInt || t == TypeFloat }

// Promote returns the result type of an arithmetic operation on a and b.
func Promote(a, b ValueType) ValueType {
	switch {
	case a == TypeFloat || b == TypeFloat:
		return TypeFloat
	case a == TypeUnknown && b == TypeUnknown:
		return TypeUnknown
	default:
		return TypeInt
	}
}

// Expr is an emitted expression with its precedence and inferred type.
type Expr struct {
	Code string
	Prec Precedence
	Type ValueType
}

// Atom builds an expression that never needs parentheses.
func Atom(code string, t ValueType) Expr {
	return Expr{Code: code, Prec: PrecAtomic, Type: t}
}

// Op builds an operator expression.
func Op(code string, prec Precedence, t ValueType) Expr {
	return Expr{Code: code, Prec: prec, Type: t}
}
