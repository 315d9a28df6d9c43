// Package platform describes the boards blockgen can emit code for.
//
// A Board is an immutable descriptor: pin catalogs, the analog output range and
// the PWM hardware limits. Callers receive copies, so a descriptor injected into
// a generation pass cannot be changed by it.
package platform

import (
	"maps"
	"slices"
)

// Target identifies an output language/runtime.
type Target string

const (
	// TargetArduino emits C++ for the Arduino core.
	TargetArduino Target = "arduino"
	// TargetMicroPython emits MicroPython scripts.
	TargetMicroPython Target = "micropython"
)

// PWMKind selects how PWM is driven on a board.
type PWMKind string

const (
	// PWMLedc allocates explicit channels (ESP32 LEDC peripheral).
	PWMLedc PWMKind = "ledc"
	// PWMNative uses analogWrite on fixed PWM-capable pins, no channels.
	PWMNative PWMKind = "native"
	// PWMSlice maps every pin to a fixed slice channel (RP2040).
	PWMSlice PWMKind = "slice"
)

// PWMSpec captures PWM hardware limits.
type PWMSpec struct {
	Kind              PWMKind
	ClockCeiling      uint64 // max frequency * 2^resolution
	Channels          int
	ChannelsPerTimer  int // 0 disables timer sharing checks
	Timers            int
	ResolutionFloor   int
	MaxResolution     int
	DefaultFrequency  int
	DefaultResolution int
	Preferred         map[string]int
}

// Board describes what a board can do. It must not include wiring choices.
type Board struct {
	ID          string
	Name        string
	Targets     []Target
	DigitalPins []string
	AnalogPins  []string
	// InputOnly pins cannot drive a signal.
	InputOnly []string
	// PWMPins restricts PWM output; empty means every digital pin.
	PWMPins        []string
	AnalogOutMin   int
	AnalogOutMax   int
	AnalogReadBits int
	LEDPin         string
	FQBN           string
	PWM            PWMSpec
}

// PinCatalog is the collaborator contract consumed by block rules.
type PinCatalog interface {
	Digital() []string
	Analog() []string
	AnalogOutRange() (lo, hi int)
	PreferredChannels() map[string]int
}

var _ PinCatalog = Board{}

func (b Board) Digital() []string { return slices.Clone(b.DigitalPins) }

func (b Board) Analog() []string { return slices.Clone(b.AnalogPins) }

func (b Board) AnalogOutRange() (lo, hi int) { return b.AnalogOutMin, b.AnalogOutMax }

func (b Board) PreferredChannels() map[string]int { return maps.Clone(b.PWM.Preferred) }

// Supports reports whether t is a valid output for the board.
func (b Board) Supports(t Target) bool {
	return slices.Contains(b.Targets, t)
}

// HasDigital reports whether pin is in the digital catalog.
func (b Board) HasDigital(pin string) bool { return slices.Contains(b.DigitalPins, pin) }

// HasAnalog reports whether pin can be sampled by the ADC.
func (b Board) HasAnalog(pin string) bool { return slices.Contains(b.AnalogPins, pin) }

// CanDrive reports whether pin can be used as an output.
func (b Board) CanDrive(pin string) bool {
	return !slices.Contains(b.InputOnly, pin)
}

// CanPWM reports whether pin can produce a PWM signal.
func (b Board) CanPWM(pin string) bool {
	if !b.CanDrive(pin) {
		return false
	}
	if len(b.PWMPins) == 0 {
		return true
	}
	return slices.Contains(b.PWMPins, pin)
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	out := b
	out.Targets = slices.Clone(b.Targets)
	out.DigitalPins = slices.Clone(b.DigitalPins)
	out.AnalogPins = slices.Clone(b.AnalogPins)
	out.InputOnly = slices.Clone(b.InputOnly)
	out.PWMPins = slices.Clone(b.PWMPins)
	out.PWM.Preferred = maps.Clone(b.PWM.Preferred)
	return out
}
