package pwm

import (
	"strings"
	"testing"
)

var esp32 = Limits{Ceiling: 80_000_000, Floor: 8, DefaultFrequency: 5000, DefaultResolution: 8}

func TestValidateWithinCeiling(t *testing.T) {
	v := Validate(75000, 8, esp32)
	if v.Adjusted || v.Frequency != 75000 || v.Resolution != 8 {
		t.Fatalf("Validate(75000, 8) = %+v", v)
	}
	if !strings.Contains(v.Message, "19200000 <= 80000000") {
		t.Fatalf("pass message = %q", v.Message)
	}
}

func TestValidateDowngrade(t *testing.T) {
	v := Validate(75000, 12, esp32)
	if !v.Adjusted {
		t.Fatalf("Validate(75000, 12) not adjusted: %+v", v)
	}
	if v.Resolution != 10 || v.Frequency != 75000 {
		t.Fatalf("Validate(75000, 12) = %+v, want 75000 Hz at 10-bit", v)
	}
	if 75000*(1<<v.Resolution) > 80_000_000 {
		t.Fatal("result still exceeds the ceiling")
	}
	for _, want := range []string{"75000", "12-bit", "307200000", "80000000", "10-bit"} {
		if !strings.Contains(v.Message, want) {
			t.Errorf("message %q lacks %q", v.Message, want)
		}
	}
}

func TestValidateProperties(t *testing.T) {
	freqs := []int{1, 50, 490, 1000, 5000, 20000, 75000, 100000, 312500, 312501, 1_000_000, 40_000_000}
	for _, f := range freqs {
		for r := 1; r <= 20; r++ {
			v := Validate(f, r, esp32)
			if v != Validate(f, r, esp32) {
				t.Fatalf("Validate(%d, %d) not deterministic", f, r)
			}
			within := uint64(f)<<uint(r) <= esp32.Ceiling
			if within {
				if v.Adjusted || v.Frequency != f || v.Resolution != r {
					t.Fatalf("Validate(%d, %d) changed a valid pair: %+v", f, r, v)
				}
				continue
			}
			if !v.Adjusted {
				t.Fatalf("Validate(%d, %d) must adjust", f, r)
			}
			if uint64(v.Frequency)<<uint(v.Resolution) > esp32.Ceiling {
				t.Fatalf("Validate(%d, %d) = %+v exceeds ceiling", f, r, v)
			}
			if v.Resolution > r {
				t.Fatalf("Validate(%d, %d) raised resolution to %d", f, r, v.Resolution)
			}
			if r >= esp32.Floor && v.Resolution < esp32.Floor {
				t.Fatalf("Validate(%d, %d) went below floor: %d", f, r, v.Resolution)
			}
			if v.Frequency != f && v.Resolution != min(esp32.Floor, r) {
				t.Fatalf("Validate(%d, %d) lowered frequency without pinning resolution at floor: %+v", f, r, v)
			}
		}
	}
}

func TestValidateLowersFrequencyBelowFloor(t *testing.T) {
	v := Validate(1_000_000, 10, esp32)
	if v.Resolution != 8 || v.Frequency != 312500 || !v.Adjusted {
		t.Fatalf("Validate(1MHz, 10) = %+v", v)
	}
	if !strings.Contains(v.Message, "frequency lowered to 312500 Hz") {
		t.Fatalf("message = %q", v.Message)
	}
}

func TestValidateDefaults(t *testing.T) {
	v := Validate(0, -1, esp32)
	if !v.Adjusted || v.Frequency != 5000 || v.Resolution != 8 {
		t.Fatalf("Validate(0, -1) = %+v", v)
	}
}

func TestValidateHugeResolution(t *testing.T) {
	v := Validate(5000, 70, esp32)
	if !v.Adjusted || v.Resolution != 13 {
		t.Fatalf("Validate(5000, 70) = %+v", v)
	}
	if !strings.Contains(v.Message, "overflow") {
		t.Fatalf("message = %q", v.Message)
	}
}
