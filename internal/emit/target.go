package emit

import "blockgen/internal/platform"

// Target is a language back end: its rule table plus the textual
// conventions the walker and Finish need.
type Target interface {
	ID() platform.Target
	Rules() *Table
	// Indent is one level of block indentation.
	Indent() string
	// Comment renders a single-line comment (no trailing newline).
	Comment(text string) string
	// Marker renders a placeholder in expression position.
	Marker(text, fallback string) string
	// ExprStatement turns an expression into a statement (no trailing newline).
	ExprStatement(code string) string
	// EmptyBody is the statement used for an empty block body.
	EmptyBody() string
	// Default is the safe value for a missing input of type t.
	Default(t ValueType) string
	// Reserved lists identifiers user names must not collide with.
	Reserved() []string
	// Program wraps init statements and main code in the target skeleton.
	Program(s *Session, main string) string
}

// Preparer is implemented by targets that inspect the workspace before the
// walk starts.
type Preparer interface {
	Prepare(p *Pass)
}
