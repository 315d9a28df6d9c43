// Package micropython emits MicroPython scripts for ESP32 and RP2040 boards.
package micropython

import (
	"strings"

	"blockgen/internal/emit"
	"blockgen/internal/platform"
)

// Operator precedence, tightest first.
const (
	orderAtomic         emit.Precedence = 0
	orderMember         emit.Precedence = 1 // calls, attribute access
	orderExponent       emit.Precedence = 2
	orderUnarySign      emit.Precedence = 3
	orderMultiplicative emit.Precedence = 4
	orderAdditive       emit.Precedence = 5
	orderShift          emit.Precedence = 6
	orderBitwiseAnd     emit.Precedence = 7
	orderBitwiseXor     emit.Precedence = 8
	orderBitwiseOr      emit.Precedence = 9
	orderRelational     emit.Precedence = 10
	orderLogicalNot     emit.Precedence = 11
	orderLogicalAnd     emit.Precedence = 12
	orderLogicalOr      emit.Precedence = 13
	orderConditional    emit.Precedence = 14
	orderNone           emit.Precedence = emit.PrecNone
)

const markLoop = "loop"

// Target is the MicroPython back end. It holds no per-pass state.
type Target struct {
	rules *emit.Table
}

var _ emit.Target = (*Target)(nil)

func New() *Target {
	t := emit.NewTable()
	registerControl(t)
	registerMath(t)
	registerProcedures(t)
	registerIO(t)
	return &Target{rules: t}
}

func (*Target) ID() platform.Target  { return platform.TargetMicroPython }
func (t *Target) Rules() *emit.Table { return t.rules }
func (*Target) Indent() string       { return "    " }
func (*Target) EmptyBody() string    { return "pass" }
func (*Target) Reserved() []string   { return reserved }

func (*Target) Comment(text string) string {
	return "# " + strings.ReplaceAll(text, "\n", " ")
}

// Marker cannot carry a comment inside an expression; the warning list
// already names the block.
func (*Target) Marker(_, fallback string) string { return fallback }

func (*Target) ExprStatement(code string) string { return code }

func (*Target) Default(t emit.ValueType) string {
	switch t {
	case emit.TypeFloat:
		return "0.0"
	case emit.TypeBool:
		return "False"
	case emit.TypeString:
		return `""`
	default:
		return "0"
	}
}

// Prepare claims explicitly configured PWM pins first.
func (*Target) Prepare(p *emit.Pass) {
	preparePWM(p)
}

// Program runs init at module level, then main inside "while True:" when
// a setup/loop block is present. Without one, main runs once.
func (*Target) Program(s *emit.Session, main string) string {
	var parts []string
	if init := s.Init(); len(init) > 0 {
		parts = append(parts, strings.Join(init, "\n")+"\n")
	}
	switch {
	case main == "":
	case s.Marked(markLoop):
		if emit.Inert(main, "#") {
			main += "pass\n"
		}
		parts = append(parts, "while True:\n"+emit.IndentLines(main, "    "))
	default:
		parts = append(parts, main)
	}
	return strings.Join(parts, "\n")
}

var reserved = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await", "break", "class",
	"continue", "def", "del", "elif", "else", "except", "finally", "for", "from", "global",
	"if", "import", "in", "is", "lambda", "nonlocal", "not", "or", "pass", "raise",
	"return", "try", "while", "with", "yield",
	// builtins and modules the generated code relies on
	"print", "range", "len", "str", "int", "float", "abs", "min", "max", "round",
	"machine", "time", "math", "random", "dht", "Pin", "PWM", "ADC",
}

// quote renders s as a Python string literal.
func quote(s string) string {
	s = emit.NormalizeText(s)
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
