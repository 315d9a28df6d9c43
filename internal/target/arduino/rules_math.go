package arduino

import (
	"fmt"
	"math"
	"slices"
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
		return emit.Op(raw, orderUnaryPrefix, t), nil
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
		base := p.Value(b, "A", orderNone, emit.TypeInt)
		exp := p.Value(b, "B", orderNone, emit.TypeInt)
		return emit.Atom("pow("+base+", "+exp+")", emit.TypeFloat), nil
	}
	op, ok := arithmetic[b.Field("OP")]
	if !ok {
		return emit.Expr{}, fmt.Errorf("unknown arithmetic operator %q", b.Field("OP"))
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
	"ROOT":      "sqrt",
	"ABS":       "abs",
	"LN":        "log",
	"LOG10":     "log10",
	"EXP":       "exp",
	"ROUND":     "round",
	"ROUNDUP":   "ceil",
	"ROUNDDOWN": "floor",
	"SIN":       "sin",
	"COS":       "cos",
	"TAN":       "tan",
}

func mathSingle(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	t := p.InferType(b)
	switch op := b.Field("OP"); op {
	case "NEG":
		arg := p.Value(b, "NUM", orderUnaryPrefix, emit.TypeInt)
		if strings.HasPrefix(arg, "-") {
			// "--x" would be a decrement
			arg = "(" + arg + ")"
		}
		return emit.Op("-"+arg, orderUnaryPrefix, t), nil
	case "POW10":
		return emit.Atom("pow(10, "+p.Value(b, "NUM", orderNone, emit.TypeInt)+")", t), nil
	case "SIN", "COS", "TAN":
		// blocks take degrees
		arg := p.Value(b, "NUM", orderMultiplicative, emit.TypeFloat)
		return emit.Atom(singleFuncs[op]+"("+arg+" * DEG_TO_RAD)", t), nil
	default:
		fn, ok := singleFuncs[op]
		if !ok {
			return emit.Expr{}, fmt.Errorf("unknown math function %q", op)
		}
		return emit.Atom(fn+"("+p.Value(b, "NUM", orderNone, emit.TypeInt)+")", t), nil
	}
}

func mathModulo(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	left := p.Value(b, "DIVIDEND", orderMultiplicative, emit.TypeInt)
	right := p.Value(b, "DIVISOR", orderMultiplicative-1, emit.TypeInt)
	return emit.Op(left+" % "+right, orderMultiplicative, emit.TypeInt), nil
}

func mathConstrain(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Atom(fmt.Sprintf("constrain(%s, %s, %s)",
		p.Value(b, "VALUE", orderNone, emit.TypeInt),
		p.Value(b, "LOW", orderNone, emit.TypeInt),
		p.Value(b, "HIGH", orderNone, emit.TypeInt)), p.InferType(b)), nil
}

// mathRandomInt is inclusive on both ends; random() excludes the upper bound.
func mathRandomInt(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	from := p.Value(b, "FROM", orderNone, emit.TypeInt)
	to := p.Value(b, "TO", orderAdditive, emit.TypeInt)
	if n, err := strconv.Atoi(to); err == nil {
		to = strconv.Itoa(n + 1)
	} else {
		to += " + 1"
	}
	return emit.Atom("random("+from+", "+to+")", emit.TypeInt), nil
}

func mathMap(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	args := make([]string, 0, 5)
	for _, in := range []string{"VALUE", "FROM_LOW", "FROM_HIGH", "TO_LOW", "TO_HIGH"} {
		args = append(args, p.Value(b, in, orderNone, emit.TypeInt))
	}
	return emit.Atom("map("+strings.Join(args, ", ")+")", emit.TypeInt), nil
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
		code, _ := p.Expression(in, orderNone)
		parts = append(parts, "String("+code+")")
	}
	switch len(parts) {
	case 0:
		return emit.Atom(`""`, emit.TypeString), nil
	case 1:
		return emit.Atom(parts[0], emit.TypeString), nil
	}
	return emit.Op(strings.Join(parts, " + "), orderAdditive, emit.TypeString), nil
}

func textLength(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Atom("String("+p.Value(b, "VALUE", orderNone, emit.TypeString)+").length()", emit.TypeInt), nil
}

func textPrint(p *emit.Pass, b *block.Node) (string, error) {
	ensureSerial(p)
	return "Serial.println(" + p.Value(b, "TEXT", orderNone, emit.TypeString) + ");\n", nil
}

const (
	markSerial  = "serial"
	defaultBaud = "115200"
)

// ensureSerial opens the port with the default speed unless a
// serial_begin block does it.
func ensureSerial(p *emit.Pass) {
	if !p.Session.Marked(markSerial) {
		p.Session.PushInit("Serial.begin(" + defaultBaud + ");")
	}
}

// declareVar adds the global declaration of a workspace variable.
// Parameters of the enclosing procedure stay local.
func declareVar(p *emit.Pass, name string) emit.ValueType {
	t, ok := p.Session.VarType(name)
	if !ok {
		t = p.Session.DeclareVar(name, emit.TypeInt)
	}
	if proc, in := p.CurrentProcedure(); in {
		if pr, ok := p.Session.Proc(proc); ok && slices.Contains(pr.Params, name) {
			return t
		}
	}
	p.Session.AddGlobal("var_"+name, fmt.Sprintf("%s %s = %s;", CType(t), name, (*Target)(nil).Default(t)))
	return t
}

func variablesGet(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	name := p.VarName(b, "VAR")
	return emit.Atom(name, declareVar(p, name)), nil
}

func variablesSet(p *emit.Pass, b *block.Node) (string, error) {
	name := p.VarName(b, "VAR")
	t := declareVar(p, name)
	return name + " = " + p.Value(b, "VALUE", orderAssignment, t) + ";\n", nil
}

func mathChange(p *emit.Pass, b *block.Node) (string, error) {
	name := p.VarName(b, "VAR")
	declareVar(p, name)
	return name + " += " + p.Value(b, "DELTA", orderAssignment, emit.TypeInt) + ";\n", nil
}
