package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin opens a span.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd closes a span.
	KindSpanEnd
	// KindPoint is an instant event such as a cache hit or an unknown block.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope orders events from coarse to fine.
type Scope uint8

const (
	// ScopeDriver covers a whole command or batch.
	ScopeDriver Scope = iota + 1
	// ScopePass covers decode, validate, walk and assemble.
	ScopePass
	// ScopeFile covers one workspace file.
	ScopeFile
	// ScopeBlock covers a single block dispatch.
	ScopeBlock
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeFile:
		return "file"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Event is one trace record. File and Block tie it to a workspace and a
// block id so that interleaved parallel passes can be told apart.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	File     string
	Block    string
	Name     string
	Detail   string
	Extra    map[string]string
}
