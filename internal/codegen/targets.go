package codegen

import (
	"errors"
	"fmt"
	"slices"

	"blockgen/internal/emit"
	"blockgen/internal/platform"
	"blockgen/internal/target/arduino"
	"blockgen/internal/target/micropython"
)

var (
	// ErrUnknownTarget is returned for a target id with no back end.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrUnsupportedBoard is returned when a board does not list the target.
	ErrUnsupportedBoard = errors.New("board does not support target")
)

// Targets hold no per-pass state, so one instance serves every pass.
var targets = map[platform.Target]emit.Target{
	platform.TargetArduino:     arduino.New(),
	platform.TargetMicroPython: micropython.New(),
}

// LookupTarget returns the back end for id.
func LookupTarget(id platform.Target) (emit.Target, error) {
	t, ok := targets[id]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownTarget, id, Targets())
	}
	return t, nil
}

// Targets lists the registered target ids in lexical order.
func Targets() []platform.Target {
	out := make([]platform.Target, 0, len(targets))
	for id := range targets {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// BlockTypes lists the block types the target id can emit.
func BlockTypes(id platform.Target) ([]string, error) {
	t, err := LookupTarget(id)
	if err != nil {
		return nil, err
	}
	return t.Rules().Kinds(), nil
}
