package micropython

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
)

func registerProcedures(t *emit.Table) {
	t.Stmt("procedures_defnoreturn", procedureDef)
	t.Stmt("procedures_defreturn", procedureDef)
	t.Stmt("procedures_callnoreturn", procedureCallStmt)
	t.Expr("procedures_callreturn", procedureCall)
	t.Stmt("procedures_ifreturn", procedureIfReturn)
}

// isParam reports whether name is a parameter of the procedure being emitted.
func isParam(p *emit.Pass, name string) bool {
	proc, in := p.CurrentProcedure()
	if !in {
		return false
	}
	pr, ok := p.Session.Proc(proc)
	return ok && slices.Contains(pr.Params, name)
}

// procedureDef emits the function as a helper. Module variables are listed
// in a global statement so assignments inside the body reach them.
func procedureDef(p *emit.Pass, b *block.Node) (string, error) {
	name := p.ProcName(b)
	pr, ok := p.Session.Proc(name)
	if !ok {
		return "", fmt.Errorf("procedure %s was not declared", name)
	}
	if pr.Block != b.ID {
		return "", nil
	}
	body := p.Procedure(name, func() string {
		code := p.StatementChain(b.Statement("STACK"))
		if pr.Returns {
			code += "return " + p.Value(b, "RETURN", orderNone, pr.Type) + "\n"
		}
		return code
	})
	if emit.Inert(body, "#") {
		body += "pass\n"
	}
	if globals := p.GlobalsFor(pr); len(globals) > 0 {
		body = "global " + strings.Join(globals, ", ") + "\n" + body
	}
	def := fmt.Sprintf("def %s(%s):\n%s", pr.Name, strings.Join(pr.Params, ", "), p.Indent(body))
	p.Session.AddHelper("proc_"+name, def)
	return "", nil
}

func callArgs(p *emit.Pass, b *block.Node) (string, emit.Proc, bool) {
	name := p.ProcName(b)
	pr, ok := p.Session.Proc(name)
	if !ok {
		p.Session.Warn(diag.GenUnresolvedCall, b.ID, fmt.Sprintf("call to undefined procedure %s", name))
		pr = emit.Proc{Name: name, Params: b.Extra.Params}
	}
	args := make([]string, 0, len(pr.Params))
	for i := range pr.Params {
		t, _ := p.Session.VarType(pr.Params[i])
		args = append(args, p.Value(b, "ARG"+strconv.Itoa(i), orderNone, t))
	}
	return pr.Name + "(" + strings.Join(args, ", ") + ")", pr, ok
}

func procedureCallStmt(p *emit.Pass, b *block.Node) (string, error) {
	call, _, _ := callArgs(p, b)
	return call + "\n", nil
}

func procedureCall(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	call, pr, ok := callArgs(p, b)
	if ok && !pr.Returns {
		p.Session.Warn(diag.GenUnresolvedCall, b.ID, fmt.Sprintf("procedure %s returns nothing but is used as a value", pr.Name))
	}
	return emit.Op(call, orderMember, pr.Type), nil
}

func procedureIfReturn(p *emit.Pass, b *block.Node) (string, error) {
	name, ok := p.CurrentProcedure()
	if !ok {
		msg := "return outside of a procedure is ignored"
		p.Session.Warn(diag.GenReturnOutsideProc, b.ID, msg)
		return p.Target.Comment(msg) + "\n", nil
	}
	pr, _ := p.Session.Proc(name)
	cond := p.Value(b, "CONDITION", orderNone, emit.TypeBool)
	ret := "return"
	if pr.Returns {
		ret = "return " + p.Value(b, "VALUE", orderNone, pr.Type)
	}
	return fmt.Sprintf("if %s:\n%s", cond, p.Indent(ret+"\n")), nil
}
