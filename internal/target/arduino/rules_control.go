package arduino

import (
	"fmt"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
)

const markProgram = "program"

func registerControl(t *emit.Table) {
	t.Stmt("program_setup_loop", programSetupLoop)
	t.Stmt("controls_if", controlsIf)
	t.Stmt("controls_repeat_ext", controlsRepeat)
	t.Stmt("controls_whileUntil", controlsWhileUntil)
	t.Stmt("controls_for", controlsFor)
	t.Stmt("controls_flow_statements", controlsFlow)
	t.Expr("logic_compare", logicCompare)
	t.Expr("logic_operation", logicOperation)
	t.Expr("logic_negate", logicNegate)
	t.Expr("logic_boolean", logicBoolean)
	t.Expr("logic_ternary", logicTernary)
}

// programSetupLoop sends the setup chain to setup() as one init entry and
// returns the loop chain, which ends up in loop().
func programSetupLoop(p *emit.Pass, b *block.Node) (string, error) {
	if p.Session.Marked(markProgram) {
		p.Session.Warn(diag.GenInfo, b.ID, "more than one setup/loop block; their bodies are merged")
	}
	p.Session.Mark(markProgram)
	if setup := strings.TrimRight(p.StatementChain(b.Statement("SETUP")), "\n"); setup != "" {
		p.Session.PushInit(setup)
	}
	return p.StatementChain(b.Statement("LOOP")), nil
}

func controlsIf(p *emit.Pass, b *block.Node) (string, error) {
	var sb strings.Builder
	for i := 0; i <= b.Extra.ElseIfCount || b.Input("IF"+strconv.Itoa(i)) != nil; i++ {
		n := strconv.Itoa(i)
		if i > 0 {
			sb.WriteString(" else ")
		}
		cond := p.Value(b, "IF"+n, orderNone, emit.TypeBool)
		fmt.Fprintf(&sb, "if (%s) {\n%s}", cond, p.Body(b, "DO"+n))
	}
	if b.Extra.HasElse || b.Statement("ELSE") != nil {
		fmt.Fprintf(&sb, " else {\n%s}", p.Body(b, "ELSE"))
	}
	sb.WriteString("\n")
	return sb.String(), nil
}

// loopCounter names the counter of a repeat block; nested loops get
// distinct names.
func loopCounter(p *emit.Pass) string {
	if d := p.LoopDepth(); d > 0 {
		return "count" + strconv.Itoa(d+1)
	}
	return "count"
}

func controlsRepeat(p *emit.Pass, b *block.Node) (string, error) {
	times := p.Value(b, "TIMES", orderRelational-1, emit.TypeInt)
	counter := loopCounter(p)
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("for (int %s = 0; %s < %s; %s++) {\n%s}\n", counter, counter, times, counter, body), nil
}

func controlsWhileUntil(p *emit.Pass, b *block.Node) (string, error) {
	var cond string
	if b.Field("MODE") == "UNTIL" {
		cond = "!" + p.Value(b, "BOOL", orderUnaryPrefix, emit.TypeBool)
	} else {
		cond = p.Value(b, "BOOL", orderNone, emit.TypeBool)
	}
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("while (%s) {\n%s}\n", cond, body), nil
}

// controlsFor counts VAR from FROM to TO inclusive. A literal negative
// step counts down; any other step is assumed positive.
func controlsFor(p *emit.Pass, b *block.Node) (string, error) {
	v := p.VarName(b, "VAR")
	declareVar(p, v)
	from := p.Value(b, "FROM", orderAssignment, emit.TypeInt)
	to := p.Value(b, "TO", orderRelational-1, emit.TypeInt)
	step := "1"
	if _, ok := p.ValueExpr(b, "BY"); ok {
		step = p.Value(b, "BY", orderAssignment, emit.TypeInt)
	}
	cmp, update := "<=", v+" += "+step
	if f, err := strconv.ParseFloat(step, 64); err == nil {
		switch {
		case f < 0:
			cmp, update = ">=", v+" -= "+strings.TrimPrefix(step, "-")
		case f == 1:
			update = v + "++"
		}
	}
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("for (%s = %s; %s %s %s; %s) {\n%s}\n", v, from, v, cmp, to, update, body), nil
}

func controlsFlow(p *emit.Pass, b *block.Node) (string, error) {
	kw := "break"
	if b.Field("FLOW") == "CONTINUE" {
		kw = "continue"
	}
	if !p.InLoop() {
		msg := fmt.Sprintf("%s outside of a loop is ignored", kw)
		p.Session.Warn(diag.GenFlowOutsideLoop, b.ID, msg)
		return p.Target.Comment(msg) + "\n", nil
	}
	return kw + ";\n", nil
}

var compareOps = map[string]struct {
	op   string
	prec emit.Precedence
}{
	"EQ":  {"==", orderEquality},
	"NEQ": {"!=", orderEquality},
	"LT":  {"<", orderRelational},
	"LTE": {"<=", orderRelational},
	"GT":  {">", orderRelational},
	"GTE": {">=", orderRelational},
}

func logicCompare(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	op, ok := compareOps[b.Field("OP")]
	if !ok {
		return emit.Expr{}, fmt.Errorf("unknown comparison %q", b.Field("OP"))
	}
	left := p.Value(b, "A", op.prec, emit.TypeInt)
	right := p.Value(b, "B", op.prec-1, emit.TypeInt)
	return emit.Op(left+" "+op.op+" "+right, op.prec, emit.TypeBool), nil
}

func logicOperation(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	op, prec := "&&", orderLogicalAnd
	if b.Field("OP") == "OR" {
		op, prec = "||", orderLogicalOr
	}
	left := p.Value(b, "A", prec, emit.TypeBool)
	right := p.Value(b, "B", prec, emit.TypeBool)
	return emit.Op(left+" "+op+" "+right, prec, emit.TypeBool), nil
}

func logicNegate(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Op("!"+p.Value(b, "BOOL", orderUnaryPrefix, emit.TypeBool), orderUnaryPrefix, emit.TypeBool), nil
}

func logicBoolean(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	if b.Field("BOOL") == "FALSE" {
		return emit.Atom("false", emit.TypeBool), nil
	}
	return emit.Atom("true", emit.TypeBool), nil
}

func logicTernary(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	t := p.InferType(b)
	cond := p.Value(b, "IF", orderConditional-1, emit.TypeBool)
	then := p.Value(b, "THEN", orderConditional, t)
	els := p.Value(b, "ELSE", orderConditional, t)
	return emit.Op(cond+" ? "+then+" : "+els, orderConditional, t), nil
}
