// Package arduino emits C++ sketches for the Arduino core (ESP32 LEDC and
// classic AVR boards).
package arduino

import (
	"strings"

	"blockgen/internal/block"
	"blockgen/internal/emit"
	"blockgen/internal/platform"
)

// Operator precedence, tightest first.
const (
	orderAtomic         emit.Precedence = 0
	orderUnaryPostfix   emit.Precedence = 1
	orderUnaryPrefix    emit.Precedence = 2
	orderMultiplicative emit.Precedence = 3
	orderAdditive       emit.Precedence = 4
	orderShift          emit.Precedence = 5
	orderRelational     emit.Precedence = 6
	orderEquality       emit.Precedence = 7
	orderBitwiseAnd     emit.Precedence = 8
	orderBitwiseXor     emit.Precedence = 9
	orderBitwiseOr      emit.Precedence = 10
	orderLogicalAnd     emit.Precedence = 11
	orderLogicalOr      emit.Precedence = 12
	orderConditional    emit.Precedence = 13
	orderAssignment     emit.Precedence = 14
	orderNone           emit.Precedence = emit.PrecNone
)

// Target is the Arduino C++ back end. It holds no per-pass state.
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

func (*Target) ID() platform.Target  { return platform.TargetArduino }
func (t *Target) Rules() *emit.Table { return t.rules }
func (*Target) Indent() string       { return "  " }
func (*Target) EmptyBody() string    { return "" }
func (*Target) Reserved() []string   { return reserved }

func (*Target) Comment(text string) string {
	return "// " + strings.ReplaceAll(text, "\n", " ")
}

func (*Target) Marker(text, fallback string) string {
	return "/* " + strings.ReplaceAll(text, "*/", "* /") + " */ " + fallback
}

func (*Target) ExprStatement(code string) string { return code + ";" }

func (*Target) Default(t emit.ValueType) string {
	switch t {
	case emit.TypeFloat:
		return "0.0"
	case emit.TypeBool:
		return "false"
	case emit.TypeString:
		return `""`
	default:
		return "0"
	}
}

// Prepare adds the core include and notes an explicit serial_begin so
// print blocks do not open the port with the default speed.
func (*Target) Prepare(p *emit.Pass) {
	p.Session.AddInclude("arduino", "#include <Arduino.h>")
	emit.Visit(p.Session.Workspace, func(n *block.Node) {
		if n.Type == "serial_begin" {
			p.Session.Mark(markSerial)
		}
	})
	preparePWM(p)
}

// Program wraps init in setup() and main in loop().
func (*Target) Program(s *emit.Session, main string) string {
	var sb strings.Builder
	sb.WriteString("void setup() {\n")
	if init := s.Init(); len(init) > 0 {
		sb.WriteString(emit.IndentLines(strings.Join(init, "\n")+"\n", "  "))
	}
	sb.WriteString("}\n\nvoid loop() {\n")
	sb.WriteString(emit.IndentLines(main, "  "))
	sb.WriteString("}\n")
	return sb.String()
}

// CType is the C++ spelling of a value type.
func CType(t emit.ValueType) string {
	switch t {
	case emit.TypeFloat:
		return "float"
	case emit.TypeBool:
		return "bool"
	case emit.TypeString:
		return "String"
	default:
		return "int"
	}
}

var reserved = []string{
	"alignas", "alignof", "and", "asm", "auto", "bool", "break", "case", "catch", "char",
	"class", "const", "constexpr", "continue", "default", "delete", "do", "double", "else",
	"enum", "explicit", "extern", "false", "float", "for", "friend", "goto", "if", "inline",
	"int", "long", "mutable", "namespace", "new", "noexcept", "not", "nullptr", "operator",
	"or", "private", "protected", "public", "register", "return", "short", "signed", "sizeof",
	"static", "struct", "switch", "template", "this", "throw", "true", "try", "typedef",
	"typename", "union", "unsigned", "using", "virtual", "void", "volatile", "while", "xor",
	// Arduino core
	"setup", "loop", "HIGH", "LOW", "INPUT", "OUTPUT", "INPUT_PULLUP", "LED_BUILTIN",
	"PI", "HALF_PI", "TWO_PI", "Serial", "String", "byte", "word", "boolean",
	"map", "min", "max", "abs", "constrain", "delay", "millis", "micros", "random",
	"pinMode", "digitalWrite", "digitalRead", "analogRead", "analogWrite",
}

// quote renders s as a C string literal.
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
