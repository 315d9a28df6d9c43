package micropython

import (
	"fmt"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
)

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

func programSetupLoop(p *emit.Pass, b *block.Node) (string, error) {
	if p.Session.Marked(markLoop) {
		p.Session.Warn(diag.GenInfo, b.ID, "more than one setup/loop block; their bodies are merged")
	}
	p.Session.Mark(markLoop)
	if setup := strings.TrimRight(p.StatementChain(b.Statement("SETUP")), "\n"); setup != "" {
		p.Session.PushInit(setup)
	}
	return p.StatementChain(b.Statement("LOOP")), nil
}

func controlsIf(p *emit.Pass, b *block.Node) (string, error) {
	var sb strings.Builder
	for i := 0; i <= b.Extra.ElseIfCount || b.Input("IF"+strconv.Itoa(i)) != nil; i++ {
		n := strconv.Itoa(i)
		kw := "if"
		if i > 0 {
			kw = "elif"
		}
		fmt.Fprintf(&sb, "%s %s:\n%s", kw, p.Value(b, "IF"+n, orderNone, emit.TypeBool), p.Body(b, "DO"+n))
	}
	if b.Extra.HasElse || b.Statement("ELSE") != nil {
		fmt.Fprintf(&sb, "else:\n%s", p.Body(b, "ELSE"))
	}
	return sb.String(), nil
}

func controlsRepeat(p *emit.Pass, b *block.Node) (string, error) {
	times := p.Value(b, "TIMES", orderNone, emit.TypeInt)
	counter := "count"
	if d := p.LoopDepth(); d > 0 {
		counter += strconv.Itoa(d + 1)
	}
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("for %s in range(%s):\n%s", counter, times, body), nil
}

func controlsWhileUntil(p *emit.Pass, b *block.Node) (string, error) {
	var cond string
	if b.Field("MODE") == "UNTIL" {
		cond = "not " + p.Value(b, "BOOL", orderLogicalNot, emit.TypeBool)
	} else {
		cond = p.Value(b, "BOOL", orderNone, emit.TypeBool)
	}
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("while %s:\n%s", cond, body), nil
}

// controlsFor counts VAR from FROM to TO inclusive with range(). Integer
// literal bounds are folded; a literal negative step counts down.
func controlsFor(p *emit.Pass, b *block.Node) (string, error) {
	v := p.VarName(b, "VAR")
	if !isParam(p, v) {
		declareVar(p, v)
	}
	from := p.Value(b, "FROM", orderNone, emit.TypeInt)
	to := p.Value(b, "TO", orderAdditive, emit.TypeInt)
	step := "1"
	if _, ok := p.ValueExpr(b, "BY"); ok {
		step = p.Value(b, "BY", orderNone, emit.TypeInt)
	}
	down := strings.HasPrefix(step, "-")
	end := to + " + 1"
	if down {
		end = to + " - 1"
	}
	if n, err := strconv.Atoi(to); err == nil {
		if down {
			end = strconv.Itoa(n - 1)
		} else {
			end = strconv.Itoa(n + 1)
		}
	}
	args := from + ", " + end
	if step != "1" {
		args += ", " + step
	}
	body := p.Loop(func() string { return p.Body(b, "DO") })
	return fmt.Sprintf("for %s in range(%s):\n%s", v, args, body), nil
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
	return kw + "\n", nil
}

var compareOps = map[string]string{
	"EQ": "==", "NEQ": "!=", "LT": "<", "LTE": "<=", "GT": ">", "GTE": ">=",
}

// logicCompare keeps both operands tighter than a comparison so Python
// does not chain them.
func logicCompare(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	op, ok := compareOps[b.Field("OP")]
	if !ok {
		return emit.Expr{}, fmt.Errorf("unknown comparison %q", b.Field("OP"))
	}
	left := p.Value(b, "A", orderRelational-1, emit.TypeInt)
	right := p.Value(b, "B", orderRelational-1, emit.TypeInt)
	return emit.Op(left+" "+op+" "+right, orderRelational, emit.TypeBool), nil
}

func logicOperation(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	op, prec := "and", orderLogicalAnd
	if b.Field("OP") == "OR" {
		op, prec = "or", orderLogicalOr
	}
	left := p.Value(b, "A", prec, emit.TypeBool)
	right := p.Value(b, "B", prec, emit.TypeBool)
	return emit.Op(left+" "+op+" "+right, prec, emit.TypeBool), nil
}

func logicNegate(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	return emit.Op("not "+p.Value(b, "BOOL", orderLogicalNot, emit.TypeBool), orderLogicalNot, emit.TypeBool), nil
}

func logicBoolean(_ *emit.Pass, b *block.Node) (emit.Expr, error) {
	if b.Field("BOOL") == "FALSE" {
		return emit.Atom("False", emit.TypeBool), nil
	}
	return emit.Atom("True", emit.TypeBool), nil
}

func logicTernary(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	t := p.InferType(b)
	cond := p.Value(b, "IF", orderConditional-1, emit.TypeBool)
	then := p.Value(b, "THEN", orderConditional-1, t)
	els := p.Value(b, "ELSE", orderConditional, t)
	return emit.Op(then+" if "+cond+" else "+els, orderConditional, t), nil
}
