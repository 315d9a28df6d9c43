package emit

import (
	"context"
	"strings"
	"testing"

	"blockgen/internal/block"
	"blockgen/internal/diag"
	"blockgen/internal/platform"
)

type fakeTarget struct{ table *Table }

func (fakeTarget) ID() platform.Target { return "fake" }
func (f fakeTarget) Rules() *Table { return f.table }
func (fakeTarget) Indent() string { return "  " }
func (fakeTarget) Comment(text string) string { return "// " + text }
func (fakeTarget) Marker(text, fb string) string { return "/* " + text + " */ " + fb }
func (fakeTarget) ExprStatement(c string) string { return c + ";" }
func (fakeTarget) EmptyBody() string { return "" }
func (fakeTarget) Reserved() []string { return []string{"loop", "setup"} }
func (fakeTarget) Default(t ValueType) string {
	switch t {
	case TypeBool:
		return "false"
	case TypeString:
		return `""`
	case TypeFloat:
		return "0.0"
	}
	return "0"
}

func (fakeTarget) Program(s *Session, main string) string {
	init := s.Init()
	if len(init) == 0 && main == "" {
		return ""
	}
	body := ""
	if len(init) > 0 {
		body = strings.Join(init, "\n") + "\n"
	}
	return "setup {\n" + IndentLines(body, "  ") + "}\nloop {\n" + IndentLines(main, "  ") + "}\n"
}

func newFake() fakeTarget {
	t := NewTable()
	t.Expr("num", func(p *Pass, b *block.Node) (Expr, error) {
		return Atom(b.FieldOr("NUM", "0"), TypeInt), nil
	})
	t.Expr("add", func(p *Pass, b *block.Node) (Expr, error) {
		return Op(p.Value(b, "A", 4, TypeInt)+" + "+p.Value(b, "B", 3, TypeInt), 4, TypeInt), nil
	})
	t.Expr("mul", func(p *Pass, b *block.Node) (Expr, error) {
		return Op(p.Value(b, "A", 3, TypeInt)+" * "+p.Value(b, "B", 2, TypeInt), 3, TypeInt), nil
	})
	t.Stmt("say", func(p *Pass, b *block.Node) (string, error) {
		p.Session.AddInclude("io", "#include <io.h>")
		p.Session.AddGlobal("g", "int g;")
		p.Session.AddHelper("say", "void say(int v) {}")
		p.Session.PushInit("begin();")
		p.Session.AddDependency("IO Library")
		return "say(" + p.Value(b, "X", PrecNone, TypeInt) + ");\n", nil
	})
	t.Stmt("repeat", func(p *Pass, b *block.Node) (string, error) {
		return "repeat {\n" + p.Body(b, "DO") + "}\n", nil
	})
	t.Stmt("boom", func(p *Pass, b *block.Node) (string, error) {
		var m map[string]int
		m["x"] = 1
		return "", nil
	})
	return fakeTarget{table: t}
}

func num(id, v string) *block.Node {
	return &block.Node{ID: id, Type: "num", Fields: map[string]string{"NUM": v}}
}

func op(id, kind string, a, b *block.Node) *block.Node {
	return &block.Node{ID: id, Type: kind, Inputs: map[string]*block.Node{"A": a, "B": b}}
}

func say(id string, x *block.Node) *block.Node {
	n := &block.Node{ID: id, Type: "say"}
	if x != nil {
		n.Inputs = map[string]*block.Node{"X": x}
	}
	return n
}

func newPass(ws *block.Workspace) *Pass {
	s := NewSession(Options{Board: platform.Board{ID: "test", Name: "Test"}, Workspace: ws})
	return NewPass(context.Background(), newFake(), s)
}

func TestSectionFirstWriteWins(t *testing.T) {
	s := NewSection()
	if !s.InsertIfAbsent("k", "first") {
		t.Fatalf("first insert rejected")
	}
	if s.InsertIfAbsent("k", "second") {
		t.Fatalf("second insert accepted")
	}
	s.InsertIfAbsent("a", "other")
	if got := strings.Join(s.Values(), ","); got != "first,other" {
		t.Fatalf("values = %q", got)
	}
	if got := strings.Join(s.Keys(), ","); got != "k,a" {
		t.Fatalf("keys = %q", got)
	}
}

func TestListDropsExactDuplicates(t *testing.T) {
	l := NewList()
	l.Push("a();")
	l.Push("b();")
	l.Push("a();")
	l.Push("a(); ")
	if got := l.Items(); len(got) != 3 {
		t.Fatalf("items = %q", got)
	}
}

func TestListReassertMovesToEnd(t *testing.T) {
	l := NewList()
	l.Push("pinMode(13, OUTPUT);")
	l.Push("pinMode(13, INPUT);")
	l.Reassert("pinMode(13, OUTPUT);")
	l.Reassert("Serial.begin(9600);")
	got := strings.Join(l.Items(), " ")
	if got != "pinMode(13, INPUT); pinMode(13, OUTPUT); Serial.begin(9600);" {
		t.Fatalf("items = %q", got)
	}
	if l.Push("pinMode(13, OUTPUT);") {
		t.Fatalf("reasserted text pushed twice")
	}
}

func TestPrecedenceParenthesises(t *testing.T) {
	p := newPass(nil)
	cases := []struct {
		node *block.Node
		want string
	}{
		{op("m", "mul", op("a", "add", num("1", "1"), num("2", "2")), num("3", "3")), "(1 + 2) * 3"},
		{op("a", "add", num("1", "1"), op("m", "mul", num("2", "2"), num("3", "3"))), "1 + 2 * 3"},
		{op("a", "add", num("1", "1"), op("b", "add", num("2", "2"), num("3", "3"))), "1 + (2 + 3)"},
		{op("a", "add", op("b", "add", num("1", "1"), num("2", "2")), num("3", "3")), "1 + 2 + 3"},
	}
	for _, tc := range cases {
		got, _ := p.Expression(tc.node, PrecNone)
		if got != tc.want {
			t.Fatalf("got %q, want %q", got, tc.want)
		}
	}
	if got, prec := p.Expression(op("a", "add", num("1", "1"), num("2", "2")), 3); got != "(1 + 2)" || prec != PrecAtomic {
		t.Fatalf("expected wrapped atomic, got %q prec %d", got, prec)
	}
}

func TestMissingInputUsesDefault(t *testing.T) {
	p := newPass(nil)
	got := p.Statement(say("s1", nil))
	if got != "say(0);\n" {
		t.Fatalf("got %q", got)
	}
	infos := p.Session.Diagnostics().Filter(diag.SevInfo)
	if len(infos) != 1 || infos[0].Code != diag.GenMissingInput {
		t.Fatalf("expected one GEN1002 info, got %+v", infos)
	}
	if len(p.Session.Warnings()) != 0 {
		t.Fatalf("missing input must not warn: %q", p.Session.Warnings())
	}
}

func TestUnknownBlockKeepsGoing(t *testing.T) {
	p := newPass(nil)
	chain := &block.Node{ID: "u1", Type: "mystery", Next: say("s1", num("n", "5"))}
	got := p.StatementChain(chain)
	want := "// unknown block \"mystery\"\nsay(5);\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	ws := p.Session.Warnings()
	if len(ws) != 1 || !strings.Contains(ws[0], "mystery") {
		t.Fatalf("warnings = %q", ws)
	}

	expr, _ := p.Expression(&block.Node{ID: "u2", Type: "mystery_value"}, PrecNone)
	if expr != `/* unknown block "mystery_value" */ 0` {
		t.Fatalf("unknown value marker = %q", expr)
	}
}

func TestPanickingRuleIsContained(t *testing.T) {
	p := newPass(nil)
	chain := &block.Node{ID: "b1", Type: "boom", Next: say("s1", num("n", "1"))}
	got := p.StatementChain(chain)
	if !strings.HasPrefix(got, "// block boom#b1 failed: panic:") || !strings.HasSuffix(got, "say(1);\n") {
		t.Fatalf("got %q", got)
	}
	d := p.Session.Diagnostics().Items()
	if len(d) != 1 || d[0].Code != diag.GenRuleFailed || d[0].Block != "b1" {
		t.Fatalf("diagnostics = %+v", d)
	}
}

func TestDisabledBlocksAreSkipped(t *testing.T) {
	p := newPass(nil)
	off := say("s1", num("n", "1"))
	off.Disabled = true
	off.Next = say("s2", num("m", "2"))
	if got := p.StatementChain(off); got != "say(2);\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBodyIndents(t *testing.T) {
	p := newPass(nil)
	inner := say("s1", num("n", "1"))
	inner.Next = &block.Node{ID: "r2", Type: "repeat", Statements: map[string]*block.Node{"DO": say("s2", num("m", "2"))}}
	outer := &block.Node{ID: "r1", Type: "repeat", Statements: map[string]*block.Node{"DO": inner}}
	want := "repeat {\n  say(1);\n  repeat {\n    say(2);\n  }\n}\n"
	if got := p.Statement(outer); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	empty := &block.Node{ID: "r3", Type: "repeat"}
	if got := p.Statement(empty); got != "repeat {\n}\n" {
		t.Fatalf("empty body = %q", got)
	}
}

func TestValueBlockAtRootBecomesStatement(t *testing.T) {
	p := newPass(nil)
	if got := p.Statement(num("n", "7")); got != "7;\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIdempotentReEmissionAndOrdering(t *testing.T) {
	ws := &block.Workspace{Roots: []*block.Node{
		say("s1", num("a", "1")),
		say("s2", num("b", "2")),
	}}
	ws.Roots[1].Y = 50
	p := newPass(ws)
	main := p.Run(ws)
	out := Finish(p.Target, p.Session, main)

	for _, frag := range []string{"#include <io.h>", "int g;", "void say(int v) {}", "begin();"} {
		if c := strings.Count(out, frag); c != 1 {
			t.Fatalf("%q appears %d times in:\n%s", frag, c, out)
		}
	}
	inc := strings.Index(out, "#include")
	glob := strings.Index(out, "int g;")
	help := strings.Index(out, "void say")
	prog := strings.Index(out, "setup {")
	if !(inc < glob && glob < help && help < prog) {
		t.Fatalf("section order broken:\n%s", out)
	}
	if !strings.Contains(out, "loop {\n  say(1);\n  say(2);\n}") {
		t.Fatalf("main not spliced into loop:\n%s", out)
	}
	if deps := p.Session.Dependencies(); len(deps) != 1 || deps[0] != "IO Library" {
		t.Fatalf("dependencies = %q", deps)
	}
	if strings.Contains(out, "IO Library") {
		t.Fatalf("dependencies must not be inlined")
	}
}

func TestFinishEmptyAndHeader(t *testing.T) {
	p := newPass(nil)
	if out := Finish(p.Target, p.Session, ""); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
	p.Session.Banner = "Generated by blockgen"
	out := Finish(p.Target, p.Session, "")
	if out != "// Generated by blockgen\n// Board: Test (test)\n" {
		t.Fatalf("header = %q", out)
	}
}

func TestSanitize(t *testing.T) {
	reserved := map[string]struct{}{"loop": {}}
	cases := map[string]string{
		"counter":    "counter",
		"my var":     "my_var",
		"2fast":      "_2fast",
		"café":       "cafe",
		"loop":       "loop_",
		"":           "unnamed",
		"счёт":       "u0441u0447u0435u0442",
		"a-b":        "a_b",
	}
	for in, want := range cases {
		if got := Sanitize(in, reserved); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVarNameResolvesIDs(t *testing.T) {
	ws := &block.Workspace{Variables: []block.Variable{{ID: "v1", Name: "speed"}}}
	p := newPass(ws)
	get := &block.Node{ID: "g", Type: "variables_get", Fields: map[string]string{"VAR": ""}, VarRefs: map[string]string{"VAR": "v1"}}
	if got := p.VarName(get, "VAR"); got != "speed" {
		t.Fatalf("got %q", got)
	}
	missing := &block.Node{ID: "h", Type: "variables_get", VarRefs: map[string]string{"VAR": "nope"}}
	if got := p.VarName(missing, "VAR"); got != "unnamed" {
		t.Fatalf("got %q", got)
	}
	d := p.Session.Diagnostics().Items()
	if len(d) == 0 || d[0].Code != diag.GenUnresolvedVariable {
		t.Fatalf("expected GEN1004, got %+v", d)
	}
}

func TestInert(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"", true},
		{"\n  \n", true},
		{"# note\n", true},
		{"  # note\nx = 1\n", false},
		{"// note\n", false},
	}
	for _, c := range cases {
		if got := Inert(c.code, "# "); got != c.want {
			t.Fatalf("Inert(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}
