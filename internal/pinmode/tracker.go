// Package pinmode records which electrical role a program assigns to each pin.
//
// The tracker never rejects a claim. A pin asserted with a different mode
// than before switches to the new mode and the clash is returned to the
// caller as a Conflict, which the generator surfaces as a warning.
package pinmode

import "fmt"

// Mode is the electrical role of a pin.
type Mode string

const (
	Output        Mode = "OUTPUT"
	Input         Mode = "INPUT"
	InputPullup   Mode = "INPUT_PULLUP"
	InputPulldown Mode = "INPUT_PULLDOWN"
	PWM           Mode = "PWM"
	AnalogIn      Mode = "ANALOG_IN"
	Servo         Mode = "SERVO"
)

// ParseMode maps a dropdown value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case Output, Input, InputPullup, InputPulldown, PWM, AnalogIn, Servo:
		return Mode(s), true
	}
	return "", false
}

// Drives reports whether the mode makes the pin an output.
func (m Mode) Drives() bool {
	return m == Output || m == PWM || m == Servo
}

// Record is the last mode asserted for a pin and the block that asserted it.
type Record struct {
	Mode  Mode
	Block string
}

// Conflict describes a pin that was claimed with two different modes.
type Conflict struct {
	Pin      string
	Previous Record
	Current  Record
}

func (c Conflict) Message() string {
	return fmt.Sprintf("pin %s is used as %s by block %s but was declared %s by block %s; %s wins",
		c.Pin, c.Current.Mode, orDash(c.Current.Block), c.Previous.Mode, orDash(c.Previous.Block), c.Current.Mode)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Tracker is rebuilt for every generation pass.
type Tracker struct {
	records   map[string]Record
	order     []string
	conflicts []Conflict
}

func New() *Tracker {
	return &Tracker{records: make(map[string]Record)}
}

// Set asserts mode for pin. It returns nil when the pin was unset or already
// in that mode, and the conflict otherwise.
func (t *Tracker) Set(pin string, mode Mode, block string) *Conflict {
	prev, ok := t.records[pin]
	if !ok {
		t.records[pin] = Record{Mode: mode, Block: block}
		t.order = append(t.order, pin)
		return nil
	}
	if prev.Mode == mode {
		return nil
	}
	cur := Record{Mode: mode, Block: block}
	t.records[pin] = cur
	c := Conflict{Pin: pin, Previous: prev, Current: cur}
	t.conflicts = append(t.conflicts, c)
	return &c
}

// Lookup returns the authoritative record for pin.
func (t *Tracker) Lookup(pin string) (Record, bool) {
	r, ok := t.records[pin]
	return r, ok
}

// Mode returns the authoritative mode for pin.
func (t *Tracker) Mode(pin string) (Mode, bool) {
	r, ok := t.records[pin]
	return r.Mode, ok
}

// Pins lists tracked pins in first-claim order.
func (t *Tracker) Pins() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Conflicts lists every clash in the order it happened.
func (t *Tracker) Conflicts() []Conflict {
	out := make([]Conflict, len(t.conflicts))
	copy(out, t.conflicts)
	return out
}
