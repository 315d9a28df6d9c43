package emit

import (
	"fmt"
	"slices"

	"blockgen/internal/block"
)

// StmtFunc renders a statement block. The result ends with a newline.
type StmtFunc func(p *Pass, b *block.Node) (string, error)

// ExprFunc renders a value block.
type ExprFunc func(p *Pass, b *block.Node) (Expr, error)

// Rule is the generator for one block type. Exactly one of Stmt and Expr
// is usually set; a block with both can appear in either position.
type Rule struct {
	Stmt StmtFunc
	Expr ExprFunc
}

// Table maps block types to rules.
type Table struct {
	rules map[string]Rule
}

func NewTable() *Table {
	return &Table{rules: make(map[string]Rule)}
}

// Stmt registers a statement rule. Registering a type twice panics.
func (t *Table) Stmt(kind string, fn StmtFunc) *Table {
	r := t.rules[kind]
	if r.Stmt != nil {
		panic(fmt.Sprintf("emit: statement rule for %q registered twice", kind))
	}
	r.Stmt = fn
	t.rules[kind] = r
	return t
}

// Expr registers a value rule. Registering a type twice panics.
func (t *Table) Expr(kind string, fn ExprFunc) *Table {
	r := t.rules[kind]
	if r.Expr != nil {
		panic(fmt.Sprintf("emit: value rule for %q registered twice", kind))
	}
	r.Expr = fn
	t.rules[kind] = r
	return t
}

// Lookup returns the rule for kind.
func (t *Table) Lookup(kind string) (Rule, bool) {
	r, ok := t.rules[kind]
	return r, ok
}

// Kinds lists registered block types, sorted.
func (t *Table) Kinds() []string {
	out := make([]string, 0, len(t.rules))
	for k := range t.rules {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
