package micropython

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/emit"
)

func registerMath(t *emit.Table) {
	t.Expr("math_number", mathNumber)
	t.Expr("math_arithmetic", mathArithmetic)
	t.Expr("math_single", mathSingle)
	t.Expr("math_modulo", mathModulo)
	t.Expr("math_constrain", mathConstrain)
	t.Expr("math_random_int", mathRandomInt)
	t.Expr("math_map", mathMap)
	t.Expr("text", text)
	t.Expr("text_join", textJoin)
	t.Expr("text_length", textLength)
	t.Stmt("text_print", textPrint)
	t.Expr("variables_get", variablesGet)
	t.Stmt("variables_set", variablesSet)
	t.Stmt("math_change", mathChange)
}

func mathNumber(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	raw := b.FieldOr("NUM", "0")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return emit.Expr{}, fmt.Errorf("%q is not a number", raw)
	}
	t := emit.TypeInt
	if strings.ContainsAny(raw, ".eE") {
		t = emit.TypeFloat
	}
	if f < 0 {
		return emit.Op(raw, orderUnarySign, t), nil
	}
	return emit.Atom(raw, t), nil
}

var arithmetic = map[string]struct {
	op    string
	prec  emit.Precedence
	assoc bool
}{
	"ADD":      {"+", orderAdditive, true},
	"MINUS":    {"-", orderAdditive, false},
	"MULTIPLY": {"*", orderMultiplicative, true},
	"DIVIDE":   {"/", orderMultiplicative, false},
}

func mathArithmetic(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	t := p.InferType(b)
	if b.Field("OP") == "POWER" {
		// ** is right-associative and binds tighter than a unary minus on its left
		base := p.Value(b, "A", orderExponent-1, emit.TypeInt)
		exp := p.Value(b, "B", orderExponent, emit.TypeInt)
		return emit.Op(base+" ** "+exp, orderExponent, emit.TypeFloat), nil
	}
	op, ok := arithmetic[b.Field("OP")]
	if !ok {
		return emit.Expr{}, fmt.Errorf("unknown arithmetic operator %q", b.Field("OP"))
	}
	if b.Field("OP") == "DIVIDE" {
		t = emit.TypeFloat
	}
	rightPrec := op.prec
	if !op.assoc {
		rightPrec--
	}
	left := p.Value(b, "A", op.prec, emit.TypeInt)
	right := p.Value(b, "B", rightPrec, emit.TypeInt)
	return emit.Op(left+" "+op.op+" "+right, op.prec, t), nil
}

var singleFuncs = map[string]string{
	"ROOT":      "math.sqrt",
	"LN":        "math.log",
	"LOG10":     "math.log10",
	"EXP":       "math.exp",
	"ROUNDUP":   "math.ceil",
	"ROUNDDOWN": "math.floor",
	"SIN":       "math.sin",
	"COS":       "math.cos",
	"TAN":       "math.tan",
}

func mathSingle(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	t := p.InferType(b)
	switch op := b.Field("OP"); op {
	case "NEG":
		return emit.Op("-"+p.Value(b, "NUM", orderUnarySign, emit.TypeInt), orderUnarySign, t), nil
	case "ABS":
		return emit.Atom("abs("+p.Value(b, "NUM", orderNone, emit.TypeInt)+")", t), nil
	case "ROUND":
		return emit.Atom("round("+p.Value(b, "NUM", orderNone, emit.TypeInt)+")", t), nil
	case "POW10":
		return emit.Op("10 ** "+p.Value(b, "NUM", orderExponent, emit.TypeInt), orderExponent, t), nil
	case "SIN", "COS", "TAN":
		p.Session.AddInclude("math", "import math")
		arg := p.Value(b, "NUM", orderNone, emit.TypeFloat)
		return emit.Atom(singleFuncs[op]+"(math.radians("+arg+"))", t), nil
	default:
		fn, ok := singleFuncs[op]
		if !ok {
			return emit.Expr{}, fmt.Errorf("unknown math function %q", op)
		}
		p.Session.AddInclude("math", "import math")
		return emit.Atom(fn+"("+p.Value(b, "NUM", orderNone, emit.TypeInt)+")", t), nil
	}
}

func mathModulo(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	left := p.Value(b, "DIVIDEND", orderMultiplicative, emit.TypeInt)
	right := p.Value(b, "DIVISOR", orderMultiplicative-1, emit.TypeInt)
	return emit.Op(left+" % "+right, orderMultiplicative, emit.TypeInt), nil
}

func mathConstrain(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Atom(fmt.Sprintf("min(max(%s, %s), %s)",
		p.Value(b, "VALUE", orderNone, emit.TypeInt),
		p.Value(b, "LOW", orderNone, emit.TypeInt),
		p.Value(b, "HIGH", orderNone, emit.TypeInt)), p.InferType(b)), nil
}

func mathRandomInt(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	p.Session.AddInclude("random", "import random")
	return emit.Atom("random.randint("+p.Value(b, "FROM", orderNone, emit.TypeInt)+", "+
		p.Value(b, "TO", orderNone, emit.TypeInt)+")", emit.TypeInt), nil
}

const mapHelper = `def map_range(x, in_min, in_max, out_min, out_max):
    return (x - in_min) * (out_max - out_min) // (in_max - in_min) + out_min
`

func mathMap(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	p.Session.AddHelper("map_range", mapHelper)
	args := make([]string, 0, 5)
	for _, in := range []string{"VALUE", "FROM_LOW", "FROM_HIGH", "TO_LOW", "TO_HIGH"} {
		args = append(args, p.Value(b, in, orderNone, emit.TypeInt))
	}
	return emit.Atom("map_range("+strings.Join(args, ", ")+")", emit.TypeInt), nil
}

func text(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Atom(quote(b.Field("TEXT")), emit.TypeString), nil
}

func textJoin(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	var parts []string
	for i := 0; i < b.Extra.ItemCount || b.Input("ADD"+strconv.Itoa(i)) != nil; i++ {
		in := b.Input("ADD" + strconv.Itoa(i))
		if in == nil || in.Disabled {
			continue
		}
		e := p.Expr(in)
		if e.Type == emit.TypeString {
			parts = append(parts, emit.Wrap(e, orderAdditive))
		} else {
			parts = append(parts, "str("+e.Code+")")
		}
	}
	switch len(parts) {
	case 0:
		return emit.Atom(`""`, emit.TypeString), nil
	case 1:
		return emit.Op(parts[0], orderAdditive, emit.TypeString), nil
	}
	return emit.Op(strings.Join(parts, " + "), orderAdditive, emit.TypeString), nil
}

func textLength(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Atom("len(str("+p.Value(b, "VALUE", orderNone, emit.TypeString)+"))", emit.TypeInt), nil
}

func textPrint(p *emit.Pass, b *block.Node) (string, error) {
	return "print(" + p.Value(b, "TEXT", orderNone, emit.TypeString) + ")\n", nil
}

// declareVar gives a workspace variable its module-level initial value.
func declareVar(p *emit.Pass, name string) emit.ValueType {
	t, ok := p.Session.VarType(name)
	if !ok {
		t = p.Session.DeclareVar(name, emit.TypeInt)
	}
	p.Session.AddGlobal("var_"+name, name+" = "+(*Target)(nil).Default(t))
	return t
}

func variablesGet(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	name := p.VarName(b, "VAR")
	if isParam(p, name) {
		t, _ := p.Session.VarType(name)
		return emit.Atom(name, t), nil
	}
	return emit.Atom(name, declareVar(p, name)), nil
}

func variablesSet(p *emit.Pass, b *block.Node) (string, error) {
	name := p.VarName(b, "VAR")
	t, _ := p.Session.VarType(name)
	if !isParam(p, name) {
		t = declareVar(p, name)
	}
	return name + " = " + p.Value(b, "VALUE", orderNone, t) + "\n", nil
}

func mathChange(p *emit.Pass, b *block.Node) (string, error) {
	name := p.VarName(b, "VAR")
	if !isParam(p, name) {
		declareVar(p, name)
	}
	return name + " += " + p.Value(b, "DELTA", orderNone, emit.TypeInt) + "\n", nil
}
