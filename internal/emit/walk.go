package emit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/trace"
)

// Pass walks one workspace through a target's rule table.
type Pass struct {
	Session *Session
	Target  Target

	ctx      context.Context
	tracer   trace.Tracer
	span     trace.SpanContext
	rules    *Table
	reserved map[string]struct{}
	loops    int
	procs    []string
}

// NewPass binds a target to a session. The tracer is taken from ctx.
func NewPass(ctx context.Context, t Target, s *Session) *Pass {
	if ctx == nil {
		ctx = context.Background()
	}
	reserved := make(map[string]struct{})
	for _, w := range t.Reserved() {
		reserved[w] = struct{}{}
	}
	return &Pass{
		Session:  s,
		Target:   t,
		ctx:      ctx,
		tracer:   trace.FromContext(ctx),
		span:     trace.CurrentSpan(ctx),
		rules:    t.Rules(),
		reserved: reserved,
	}
}

// Run walks every root block in editor order and returns the main code.
// Roots are visited until ctx is cancelled.
func (p *Pass) Run(ws *block.Workspace) string {
	if ws == nil {
		ws = p.Session.Workspace
	}
	span := trace.BeginUnder(p.tracer, trace.ScopePass, "walk", p.span)
	parent := p.span
	p.span = span.Context()
	defer func() { p.span = parent }()

	p.scan(ws)
	if pr, ok := p.Target.(Preparer); ok {
		pr.Prepare(p)
	}

	var sb strings.Builder
	roots := ws.Ordered()
	for _, root := range roots {
		if p.ctx.Err() != nil {
			break
		}
		sb.WriteString(p.StatementChain(root))
	}
	span.WithExtra("roots", strconv.Itoa(len(roots))).End("")
	return sb.String()
}

// StatementChain renders n and every block linked through Next.
func (p *Pass) StatementChain(n *block.Node) string {
	var sb strings.Builder
	for cur := n; cur != nil; cur = cur.Next {
		sb.WriteString(p.Statement(cur))
	}
	return sb.String()
}

// Statement renders a single block in statement position. Disabled blocks
// render nothing. Value blocks become expression statements.
func (p *Pass) Statement(n *block.Node) string {
	if n == nil || n.Disabled {
		return ""
	}
	span := trace.BeginBlock(p.tracer, n.Type, n.ID, p.span)
	defer span.End("")

	rule, ok := p.rules.Lookup(n.Type)
	if !ok || (rule.Stmt == nil && rule.Expr == nil) {
		return p.Target.Comment(p.unknown(n)) + "\n"
	}
	if rule.Stmt != nil {
		return withNewline(p.callStmt(n, rule.Stmt))
	}
	e := p.callExpr(n, rule.Expr)
	if e.Code == "" {
		return ""
	}
	return p.Target.ExprStatement(e.Code) + "\n"
}

// Expression renders a value block and parenthesises it when its precedence
// is looser than minPrec.
func (p *Pass) Expression(n *block.Node, minPrec Precedence) (string, Precedence) {
	e := p.Expr(n)
	if e.Prec > minPrec {
		return "(" + e.Code + ")", PrecAtomic
	}
	return e.Code, e.Prec
}

// Expr renders a value block without parenthesising it.
func (p *Pass) Expr(n *block.Node) Expr {
	if n == nil || n.Disabled {
		return Atom(p.Target.Default(TypeUnknown), TypeUnknown)
	}
	span := trace.BeginBlock(p.tracer, n.Type, n.ID, p.span)
	defer span.End("")

	rule, ok := p.rules.Lookup(n.Type)
	if !ok || (rule.Stmt == nil && rule.Expr == nil) {
		msg := p.unknown(n)
		return Atom(p.Target.Marker(msg, p.Target.Default(TypeUnknown)), TypeUnknown)
	}
	if rule.Expr == nil {
		msg := fmt.Sprintf("statement block %q cannot be used as a value", n.Type)
		p.Session.Warn(diag.GenRuleFailed, n.ID, msg)
		return Atom(p.Target.Marker(msg, p.Target.Default(TypeUnknown)), TypeUnknown)
	}
	return p.callExpr(n, rule.Expr)
}

// Value renders the block in value slot name. An empty slot yields the
// default of want and a GEN1002 note.
func (p *Pass) Value(b *block.Node, name string, minPrec Precedence, want ValueType) string {
	in := b.Input(name)
	if in == nil || in.Disabled {
		def := p.Target.Default(want)
		p.Session.Info(diag.GenMissingInput, b.ID, fmt.Sprintf("%s: input %s is empty, using %s", b.Type, name, def))
		return def
	}
	code, _ := p.Expression(in, minPrec)
	return code
}

// ValueExpr renders the block in value slot name and reports whether the
// slot was filled.
func (p *Pass) ValueExpr(b *block.Node, name string) (Expr, bool) {
	in := b.Input(name)
	if in == nil || in.Disabled {
		return Expr{}, false
	}
	return p.Expr(in), true
}

// Wrap parenthesises e when it binds looser than minPrec.
func Wrap(e Expr, minPrec Precedence) string {
	if e.Prec > minPrec {
		return "(" + e.Code + ")"
	}
	return e.Code
}

// Body renders the statement slot name indented by one level. An empty
// slot renders the target's empty body.
func (p *Pass) Body(b *block.Node, name string) string {
	code := p.StatementChain(b.Statement(name))
	if empty := p.Target.EmptyBody(); empty != "" && Inert(code, p.Target.Comment("")) {
		code += empty + "\n"
	}
	return p.Indent(code)
}

// Inert reports whether code holds nothing but blank lines and comments
// starting with commentPrefix.
func Inert(code, commentPrefix string) bool {
	commentPrefix = strings.TrimSpace(commentPrefix)
	for _, l := range strings.Split(code, "\n") {
		l = strings.TrimSpace(l)
		if l != "" && (commentPrefix == "" || !strings.HasPrefix(l, commentPrefix)) {
			return false
		}
	}
	return true
}

// Indent prefixes every non-empty line with one indentation level.
func (p *Pass) Indent(code string) string {
	return IndentLines(code, p.Target.Indent())
}

// IndentLines prefixes every non-empty line of code with prefix.
func IndentLines(code, prefix string) string {
	if code == "" {
		return ""
	}
	lines := strings.SplitAfter(code, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			sb.WriteString(prefix)
		}
		sb.WriteString(l)
	}
	return sb.String()
}

// Loop runs fn with the loop depth raised, so break/continue are legal.
func (p *Pass) Loop(fn func() string) string {
	p.loops++
	defer func() { p.loops-- }()
	return fn()
}

// InLoop reports whether the walk is inside a loop body.
func (p *Pass) InLoop() bool { return p.loops > 0 }

// LoopDepth is the number of enclosing loops in the current function.
func (p *Pass) LoopDepth() int { return p.loops }

// Procedure runs fn inside the procedure named name. Loop depth does not
// carry into procedure bodies.
func (p *Pass) Procedure(name string, fn func() string) string {
	p.procs = append(p.procs, name)
	loops := p.loops
	p.loops = 0
	defer func() {
		p.procs = p.procs[:len(p.procs)-1]
		p.loops = loops
	}()
	return fn()
}

// CurrentProcedure returns the innermost procedure being emitted.
func (p *Pass) CurrentProcedure() (string, bool) {
	if len(p.procs) == 0 {
		return "", false
	}
	return p.procs[len(p.procs)-1], true
}

// Ident sanitises a user name against the target's reserved words.
func (p *Pass) Ident(name string) string {
	return Sanitize(name, p.reserved)
}

// VarName resolves the variable referenced by field and sanitises it.
// Unresolved references raise GEN1004 and yield "unnamed".
func (p *Pass) VarName(b *block.Node, field string) string {
	name, ok := p.lookupVar(b, field)
	if !ok {
		msg := fmt.Sprintf("%s: no variable selected", b.Type)
		if id := b.VarRefs[field]; id != "" {
			msg = fmt.Sprintf("%s: variable id %s is not declared", b.Type, id)
		}
		p.Session.Warn(diag.GenUnresolvedVariable, b.ID, msg)
		name = "unnamed"
	}
	return p.Ident(name)
}

func (p *Pass) lookupVar(b *block.Node, field string) (string, bool) {
	name := b.Field(field)
	if id := b.VarRefs[field]; id != "" {
		if resolved, ok := p.Session.Workspace.VariableName(id); ok {
			name = resolved
		}
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Pin returns the trimmed pin field or an error when it is empty.
func (p *Pass) Pin(b *block.Node, field string) (string, error) {
	pin := strings.TrimSpace(b.Field(field))
	if pin == "" {
		return "", fmt.Errorf("%s: field %s has no pin", b.Type, field)
	}
	return pin, nil
}

// IntField parses an integer field, falling back to def with a GEN1006
// warning when the field is not a number.
func (p *Pass) IntField(b *block.Node, field string, def int) int {
	raw := strings.TrimSpace(b.Field(field))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			p.Session.Warn(diag.GenBadField, b.ID, fmt.Sprintf("%s: field %s=%q is not a number, using %d", b.Type, field, raw, def))
			return def
		}
		v = int(f)
	}
	return v
}

func (p *Pass) unknown(n *block.Node) string {
	msg := fmt.Sprintf("unknown block %q", n.Type)
	p.Session.Warn(diag.GenUnknownBlock, n.ID, msg)
	trace.Point(p.tracer, trace.ScopeBlock, "unknown_block", n.Type+" "+n.ID, p.span)
	return msg
}

func (p *Pass) failed(n *block.Node, err error) string {
	msg := fmt.Sprintf("block %s failed: %v", n.Label(), err)
	p.Session.Warn(diag.GenRuleFailed, n.ID, msg)
	trace.Point(p.tracer, trace.ScopeBlock, "rule_failed", n.ID+": "+err.Error(), p.span)
	return msg
}

func (p *Pass) callStmt(n *block.Node, fn StmtFunc) (code string) {
	defer func() {
		if r := recover(); r != nil {
			code = p.Target.Comment(p.failed(n, fmt.Errorf("panic: %v", r))) + "\n"
		}
	}()
	out, err := fn(p, n)
	if err != nil {
		return p.Target.Comment(p.failed(n, err)) + "\n"
	}
	return out
}

func (p *Pass) callExpr(n *block.Node, fn ExprFunc) (e Expr) {
	defer func() {
		if r := recover(); r != nil {
			msg := p.failed(n, fmt.Errorf("panic: %v", r))
			e = Atom(p.Target.Marker(msg, p.Target.Default(TypeUnknown)), TypeUnknown)
		}
	}()
	out, err := fn(p, n)
	if err != nil {
		msg := p.failed(n, err)
		return Atom(p.Target.Marker(msg, p.Target.Default(TypeUnknown)), TypeUnknown)
	}
	return out
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
