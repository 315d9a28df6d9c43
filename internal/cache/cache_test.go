package cache

import (
	"testing"

	"blockgen/internal/diag"
	"blockgen/internal/platform"
)

func board(t *testing.T, id string) platform.Board {
	t.Helper()
	b, err := platform.Builtin().Lookup(id)
	if err != nil {
		t.Fatalf("board %s: %v", id, err)
	}
	return b
}

func TestKeyDependsOnEveryInput(t *testing.T) {
	ws := []byte(`{"blocks":[]}`)
	esp := board(t, "esp32dev")
	base, err := Key(ws, platform.TargetArduino, esp, "1.0.0")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	again, _ := Key(ws, platform.TargetArduino, board(t, "esp32dev"), "1.0.0")
	if base != again {
		t.Fatalf("equal inputs hash differently")
	}

	tweaked := esp.Clone()
	tweaked.PWM.Channels = 8
	variants := map[string]func() (Digest, error){
		"workspace": func() (Digest, error) { return Key([]byte(`{"blocks":[ ]}`), platform.TargetArduino, esp, "1.0.0") },
		"target":    func() (Digest, error) { return Key(ws, platform.TargetMicroPython, esp, "1.0.0") },
		"board":     func() (Digest, error) { return Key(ws, platform.TargetArduino, tweaked, "1.0.0") },
		"version":   func() (Digest, error) { return Key(ws, platform.TargetArduino, esp, "1.0.1") },
	}
	for name, fn := range variants {
		d, err := fn()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	key, _ := Key([]byte("x"), platform.TargetArduino, board(t, "uno"), "dev")

	var miss Payload
	if ok, err := c.Get(key, &miss); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := &Payload{
		Target:       "arduino",
		Board:        "uno",
		Code:         "void setup() {}\n",
		Warnings:     []string{"pin 4 conflict"},
		Dependencies: []string{"Servo"},
		Diagnostics:  []diag.Diagnostic{diag.NewWarning(diag.PinModeConflict, "r", "pin 4 conflict")},
	}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var out Payload
	ok, err := c.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.Code != in.Code || out.Schema != schemaVersion || len(out.Diagnostics) != 1 || out.Diagnostics[0].Block != "r" {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if n, size, err := c.Stats(); err != nil || n != 1 || size == 0 {
		t.Fatalf("Stats = %d, %d, %v", n, size, err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, _ := c.Get(key, &out); ok {
		t.Fatalf("entry survived DropAll")
	}
	if n, _, err := c.Stats(); err != nil || n != 0 {
		t.Fatalf("Stats after drop = %d, %v", n, err)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	if err := c.Put(Digest{}, &Payload{}); err != nil {
		t.Fatalf("Put on nil: %v", err)
	}
	if ok, err := c.Get(Digest{}, &Payload{}); ok || err != nil {
		t.Fatalf("Get on nil: %v %v", ok, err)
	}
}
