package block

import (
	"errors"
	"fmt"

	"blockgen/internal/diag"
)

var (
	ErrCycle      = errors.New("cyclic block reference")
	ErrSharedNode = errors.New("block reachable more than once")
	ErrDangling   = errors.New("dangling block link")
	ErrTooDeep    = errors.New("block tree too deep")
	ErrMalformed  = errors.New("malformed workspace")
)

// StructuralError is the one fatal condition of a generation pass: the tree
// cannot be walked meaningfully.
type StructuralError struct {
	Kind  error
	Block string
	Path  string
	Err   error
}

func (e *StructuralError) Error() string {
	msg := e.Kind.Error()
	if e.Block != "" {
		msg += " at " + e.Block
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code maps the error kind onto its diagnostic code.
func (e *StructuralError) Code() diag.Code {
	switch {
	case errors.Is(e.Kind, ErrCycle):
		return diag.StrCycle
	case errors.Is(e.Kind, ErrSharedNode):
		return diag.StrSharedNode
	case errors.Is(e.Kind, ErrDangling):
		return diag.StrDanglingLink
	case errors.Is(e.Kind, ErrTooDeep):
		return diag.StrTooDeep
	default:
		return diag.StrMalformed
	}
}

// Diagnostic renders the error for a diag.Bag.
func (e *StructuralError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code(), e.Block, e.Error())
}

func structural(kind error, block, path string, err error) *StructuralError {
	return &StructuralError{Kind: kind, Block: block, Path: path, Err: err}
}

func pathJoin(parent, seg string) string {
	if parent == "" {
		return seg
	}
	return fmt.Sprintf("%s/%s", parent, seg)
}
