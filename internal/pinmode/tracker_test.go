package pinmode

import (
	"strings"
	"testing"
)

func TestSetUnsetPin(t *testing.T) {
	tr := New()
	if c := tr.Set("13", Output, "a"); c != nil {
		t.Fatalf("unexpected conflict: %+v", c)
	}
	if m, ok := tr.Mode("13"); !ok || m != Output {
		t.Fatalf("mode = %q, %v", m, ok)
	}
}

func TestSameModeIsNoop(t *testing.T) {
	tr := New()
	tr.Set("13", Output, "a")
	if c := tr.Set("13", Output, "b"); c != nil {
		t.Fatalf("same mode must not conflict: %+v", c)
	}
	r, _ := tr.Lookup("13")
	if r.Block != "a" {
		t.Fatalf("no-op must keep the original declaring block, got %q", r.Block)
	}
	if len(tr.Conflicts()) != 0 {
		t.Fatal("conflicts recorded for identical modes")
	}
}

func TestConflictEitherOrder(t *testing.T) {
	orders := [][]Mode{{Output, Input}, {Input, Output}}
	for _, modes := range orders {
		tr := New()
		tr.Set("5", modes[0], "first")
		c := tr.Set("5", modes[1], "second")
		if c == nil {
			t.Fatalf("%v: expected conflict", modes)
		}
		if c.Previous.Mode != modes[0] || c.Current.Mode != modes[1] {
			t.Fatalf("%v: conflict = %+v", modes, c)
		}
		if m, _ := tr.Mode("5"); m != modes[1] {
			t.Fatalf("%v: final mode = %s, want last asserted %s", modes, m, modes[1])
		}
		msg := c.Message()
		for _, want := range []string{"pin 5", "first", "second", string(modes[0]), string(modes[1])} {
			if !strings.Contains(msg, want) {
				t.Errorf("message %q lacks %q", msg, want)
			}
		}
	}
}

func TestPinsKeepFirstClaimOrder(t *testing.T) {
	tr := New()
	tr.Set("19", Input, "")
	tr.Set("18", Output, "")
	tr.Set("19", Output, "")
	got := strings.Join(tr.Pins(), ",")
	if got != "19,18" {
		t.Fatalf("pins = %s", got)
	}
	if len(tr.Conflicts()) != 1 {
		t.Fatalf("expected one conflict, got %d", len(tr.Conflicts()))
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("INPUT_PULLUP"); !ok || m != InputPullup {
		t.Fatalf("ParseMode = %q %v", m, ok)
	}
	if _, ok := ParseMode("SIDEWAYS"); ok {
		t.Fatal("unknown mode accepted")
	}
	if !PWM.Drives() || Input.Drives() {
		t.Fatal("Drives mismatch")
	}
}
