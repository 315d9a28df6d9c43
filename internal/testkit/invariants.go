// Package testkit checks layout invariants of generated source text.
package testkit

import (
	"fmt"
	"strings"
)

// Style describes the layout rules of one target.
type Style struct {
	Indent  string
	Comment string
	// Braces enables bracket balancing for C-like output.
	Braces bool
	// Colons requires every line ending in ':' to open a deeper block.
	Colons bool
}

var (
	// CStyle matches Arduino sketches.
	CStyle = Style{Indent: "  ", Comment: "//", Braces: true}
	// PythonStyle matches MicroPython scripts.
	PythonStyle = Style{Indent: "    ", Comment: "#", Colons: true}
)

// CheckOutput runs a minimal set of layout invariants on generated code:
// 1) the text ends with exactly one newline
// 2) no line has trailing blanks or tabs
// 3) every indentation is a whole number of indent units
// 4) brackets balance outside string literals and comments (Braces)
// 5) a block opener is followed by a deeper line (Colons)
func CheckOutput(code string, st Style) error {
	if code == "" {
		return nil
	}
	if !strings.HasSuffix(code, "\n") || strings.HasSuffix(code, "\n\n") {
		return fmt.Errorf("output must end with exactly one newline")
	}
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	depth := 0
	for i, line := range lines {
		n := i + 1
		if strings.ContainsRune(line, '\t') {
			return fmt.Errorf("line %d: tab character", n)
		}
		if strings.TrimRight(line, " ") != line {
			return fmt.Errorf("line %d: trailing blanks", n)
		}
		lead := len(line) - len(strings.TrimLeft(line, " "))
		if st.Indent != "" && lead%len(st.Indent) != 0 {
			return fmt.Errorf("line %d: indentation %d is not a multiple of %d", n, lead, len(st.Indent))
		}
		code := stripLiterals(line, st.Comment)
		if st.Braces {
			for _, r := range code {
				switch r {
				case '{', '(', '[':
					depth++
				case '}', ')', ']':
					depth--
				}
				if depth < 0 {
					return fmt.Errorf("line %d: unbalanced closing bracket", n)
				}
			}
		}
		if st.Colons && strings.HasSuffix(strings.TrimSpace(code), ":") {
			next := nextCodeLine(lines[i+1:], st.Comment)
			if next == "" || indentOf(next) <= lead {
				return fmt.Errorf("line %d: block opener without a body", n)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced brackets: %d left open", depth)
	}
	return nil
}

// stripLiterals blanks string literals and drops a trailing comment.
func stripLiterals(line, comment string) string {
	var sb strings.Builder
	var quote rune
	escaped := false
	for i, r := range line {
		switch {
		case quote != 0:
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case comment != "" && strings.HasPrefix(line[i:], comment):
			return sb.String()
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func nextCodeLine(lines []string, comment string) string {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || (comment != "" && strings.HasPrefix(t, comment)) {
			continue
		}
		return l
	}
	return ""
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
