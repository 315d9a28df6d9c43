package arduino

import (
	"fmt"
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

func signature(p *emit.Pass, pr emit.Proc) string {
	ret := "void"
	if pr.Returns {
		ret = CType(pr.Type)
	}
	params := make([]string, 0, len(pr.Params))
	for _, prm := range pr.Params {
		t, _ := p.Session.VarType(prm)
		params = append(params, CType(t)+" "+prm)
	}
	return fmt.Sprintf("%s %s(%s)", ret, pr.Name, strings.Join(params, ", "))
}

// procedureDef emits the function as a helper and its prototype as a
// global, so calls may precede the definition.
func procedureDef(p *emit.Pass, b *block.Node) (string, error) {
	name := p.ProcName(b)
	pr, ok := p.Session.Proc(name)
	if !ok {
		return "", fmt.Errorf("procedure %s was not declared", name)
	}
	if pr.Block != b.ID {
		// duplicate definition, already reported
		return "", nil
	}
	sig := signature(p, pr)
	body := p.Procedure(name, func() string {
		code := p.Body(b, "STACK")
		if pr.Returns {
			code += p.Indent("return " + p.Value(b, "RETURN", orderNone, pr.Type) + ";\n")
		}
		return code
	})
	p.Session.AddGlobal("proto_"+name, sig+";")
	p.Session.AddHelper("proc_"+name, sig+" {\n"+body+"}\n")
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
	return call + ";\n", nil
}

func procedureCall(p *emit.Pass, b *block.Node) (emit.Expr, error) {
	call, pr, ok := callArgs(p, b)
	if ok && !pr.Returns {
		p.Session.Warn(diag.GenUnresolvedCall, b.ID, fmt.Sprintf("procedure %s returns nothing but is used as a value", pr.Name))
	}
	return emit.Atom(call, pr.Type), nil
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
	ret := "return;"
	if pr.Returns {
		ret = "return " + p.Value(b, "VALUE", orderNone, pr.Type) + ";"
	}
	return fmt.Sprintf("if (%s) {\n%s}\n", cond, p.Indent(ret+"\n")), nil
}
