// Package pwm validates PWM frequency/resolution pairs and hands out hardware
// channels to pins.
package pwm

import (
	"fmt"
	"math/bits"

	"fortio.org/safecast"

	"blockgen/internal/platform"
)

// Limits are the parts of a board's PWM spec the validator needs.
type Limits struct {
	Ceiling           uint64
	Floor             int
	DefaultFrequency  int
	DefaultResolution int
}

// LimitsOf extracts validation limits from a board spec.
func LimitsOf(spec platform.PWMSpec) Limits {
	return Limits{
		Ceiling:           spec.ClockCeiling,
		Floor:             spec.ResolutionFloor,
		DefaultFrequency:  spec.DefaultFrequency,
		DefaultResolution: spec.DefaultResolution,
	}
}

// Validation is the outcome of Validate.
type Validation struct {
	Frequency  int
	Resolution int
	Adjusted   bool
	Message    string
}

// fits reports freq * 2^res <= ceiling without overflowing.
func fits(freq uint64, res int, ceiling uint64) bool {
	if res < 0 || res >= 64 {
		return false
	}
	return freq <= ceiling>>uint(res)
}

// product renders freq * 2^res, or "overflow" when it does not fit in 64 bits.
func product(freq uint64, res int) string {
	if res < 0 || res >= 64 {
		return "overflow"
	}
	hi, lo := bits.Mul64(freq, uint64(1)<<uint(res))
	if hi != 0 {
		return "overflow"
	}
	return fmt.Sprintf("%d", lo)
}

// Validate checks that frequency * 2^resolution stays within the clock
// ceiling. Violating pairs keep their frequency and get the largest resolution
// that fits, never below the floor. If the floor itself does not fit, the
// frequency is lowered to ceiling >> resolution.
//
// Validate is pure: identical inputs give identical results.
func Validate(frequency, resolution int, lim Limits) Validation {
	v := Validation{Frequency: frequency, Resolution: resolution}
	var notes string
	if v.Frequency <= 0 {
		v.Frequency = lim.DefaultFrequency
		v.Adjusted = true
		notes = fmt.Sprintf("frequency %d Hz is not positive, using %d Hz; ", frequency, v.Frequency)
	}
	if v.Resolution <= 0 {
		v.Resolution = lim.DefaultResolution
		v.Adjusted = true
		notes += fmt.Sprintf("resolution %d is not positive, using %d-bit; ", resolution, v.Resolution)
	}
	freq, err := safecast.Conv[uint64](v.Frequency)
	if err != nil || lim.Ceiling == 0 {
		// без потолка проверять нечего
		v.Message = notes + fmt.Sprintf("PWM %d Hz at %d-bit: no clock ceiling", v.Frequency, v.Resolution)
		return v
	}

	if fits(freq, v.Resolution, lim.Ceiling) {
		v.Message = notes + fmt.Sprintf("PWM %d Hz at %d-bit: %d * 2^%d = %s <= %d",
			v.Frequency, v.Resolution, v.Frequency, v.Resolution, product(freq, v.Resolution), lim.Ceiling)
		return v
	}

	origRes := v.Resolution
	r := bits.Len64(lim.Ceiling/freq) - 1
	if r < lim.Floor {
		r = min(lim.Floor, origRes)
	}
	v.Resolution = r
	v.Adjusted = true
	msg := fmt.Sprintf("PWM %d Hz at %d-bit needs %d * 2^%d = %s, above the clock ceiling %d; resolution lowered to %d-bit",
		v.Frequency, origRes, v.Frequency, origRes, product(freq, origRes), lim.Ceiling, r)

	if !fits(freq, r, lim.Ceiling) {
		capped, convErr := safecast.Conv[int](lim.Ceiling >> uint(r))
		if convErr != nil {
			capped = lim.DefaultFrequency
		}
		if capped < 1 {
			capped = 1
		}
		msg += fmt.Sprintf(" and frequency lowered to %d Hz", capped)
		v.Frequency = capped
	}
	v.Message = notes + msg
	return v
}
