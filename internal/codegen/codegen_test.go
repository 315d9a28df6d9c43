package codegen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"blockgen/internal/block"
	"blockgen/internal/cache"
	"blockgen/internal/diag"
	"blockgen/internal/platform"
)

const blink = `{"blocks": {"languageVersion": 0, "blocks": [{
  "type": "program_setup_loop", "id": "prog", "x": 10, "y": 10,
  "inputs": {"LOOP": {"block": {
    "type": "io_digitalwrite", "id": "w1", "fields": {"PIN": "13", "STATE": "HIGH"},
    "next": {"block": {"type": "io_digitalwrite", "id": "w2", "fields": {"PIN": "13", "STATE": "LOW"}}}
  }}}
}]}}`

func request(t *testing.T, boardID string, target platform.Target, src string) *Request {
	t.Helper()
	b, err := platform.Builtin().Lookup(boardID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	return &Request{Name: boardID + ".json", Source: []byte(src), Target: target, Board: b}
}

func TestGenerateArduino(t *testing.T) {
	res, err := Generate(context.Background(), request(t, "uno", platform.TargetArduino, blink))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := `#include <Arduino.h>

void setup() {
  pinMode(13, OUTPUT);
}

void loop() {
  digitalWrite(13, HIGH);
  digitalWrite(13, LOW);
}
`
	if res.Code != want {
		t.Fatalf("got:\n%s\nwant:\n%s", res.Code, want)
	}
	for _, phase := range []string{"decode", "validate", "walk", "finish"} {
		if _, ok := res.Timings.Phase(phase); !ok {
			t.Errorf("missing %s timing", phase)
		}
	}
	if res.HasErrors() || res.Cached {
		t.Fatalf("unexpected result flags: %+v", res)
	}
}

func TestGenerateHeader(t *testing.T) {
	req := request(t, "pico", platform.TargetMicroPython, blink)
	req.Banner = "Generated by blockgen test"
	req.BuildTime = time.Unix(1700000000, 0)
	res, err := Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	head := "# Generated by blockgen test\n# Board: Raspberry Pi Pico (pico)\n# Built: 2023-11-14T22:13:20Z\n\nfrom machine import Pin\n"
	if !strings.HasPrefix(res.Code, head) {
		t.Fatalf("got:\n%s", res.Code)
	}
}

func TestGenerateRejectsTargetBoardMismatch(t *testing.T) {
	res, err := Generate(context.Background(), request(t, "uno", platform.TargetMicroPython, blink))
	if !errors.Is(err, ErrUnsupportedBoard) {
		t.Fatalf("err = %v", err)
	}
	if res.Code != "" || len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.PrjTargetBoard {
		t.Fatalf("result %+v", res)
	}

	_, err = Generate(context.Background(), request(t, "uno", "rust", blink))
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateStructuralErrorIsFatal(t *testing.T) {
	res, err := Generate(context.Background(), request(t, "uno", platform.TargetArduino, `{"blocks": [`))
	var se *block.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if res.Code != "" || !res.HasErrors() || res.Diagnostics[0].Code != diag.StrMalformed {
		t.Fatalf("result %+v", res)
	}
}

func TestGenerateUsesCache(t *testing.T) {
	c, err := cache.OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	req := request(t, "esp32dev", platform.TargetArduino, blink)
	req.Cache = c
	first, err := Generate(context.Background(), req)
	if err != nil || first.Cached {
		t.Fatalf("first pass: cached=%v err=%v", first.Cached, err)
	}
	second, err := Generate(context.Background(), req)
	if err != nil || !second.Cached {
		t.Fatalf("second pass: cached=%v err=%v", second.Cached, err)
	}
	if second.Code != first.Code {
		t.Fatalf("cached code differs:\n%s\n---\n%s", second.Code, first.Code)
	}

	req.Target = platform.TargetMicroPython
	third, err := Generate(context.Background(), req)
	if err != nil || third.Cached {
		t.Fatalf("target change must miss: cached=%v err=%v", third.Cached, err)
	}
}

func TestGenerateAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	sink := SinkFunc(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	reqs := []Request{
		*request(t, "uno", platform.TargetArduino, blink),
		*request(t, "uno", platform.TargetArduino, `not json`),
		*request(t, "esp32dev", platform.TargetMicroPython, blink),
	}
	for i := range reqs {
		reqs[i].Name = []string{"a.json", "b.json", "c.json"}[i]
		reqs[i].Progress = sink
	}
	results, err := GenerateAll(context.Background(), reqs, 2)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if len(results) != 3 || results[0].Name != "a.json" || results[2].Name != "c.json" {
		t.Fatalf("results out of order: %+v", results)
	}
	if results[1].Err == nil || results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("errors: %v %v %v", results[0].Err, results[1].Err, results[2].Err)
	}
	if !strings.Contains(results[2].Code, "pin13.value(1)") {
		t.Fatalf("micropython output:\n%s", results[2].Code)
	}

	var queued, failed int
	for _, e := range events {
		switch e.Status {
		case StatusQueued:
			queued++
		case StatusError:
			failed++
			if e.File != "b.json" {
				t.Errorf("unexpected failure event %+v", e)
			}
		}
	}
	if queued != 3 || failed != 1 {
		t.Fatalf("queued=%d failed=%d", queued, failed)
	}
}

func TestGenerateAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateAll(ctx, []Request{*request(t, "uno", platform.TargetArduino, blink)}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildTimeFromEnv(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "")
	if bt, err := BuildTimeFromEnv(); err != nil || !bt.IsZero() {
		t.Fatalf("unset: %v %v", bt, err)
	}
	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	bt, err := BuildTimeFromEnv()
	if err != nil || bt.Format(time.RFC3339) != "2023-11-14T22:13:20Z" {
		t.Fatalf("got %v %v", bt, err)
	}
	t.Setenv("SOURCE_DATE_EPOCH", "yesterday")
	if _, err := BuildTimeFromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTargetsAndBlockTypes(t *testing.T) {
	ids := Targets()
	if len(ids) != 2 || ids[0] != platform.TargetArduino || ids[1] != platform.TargetMicroPython {
		t.Fatalf("targets %v", ids)
	}
	for _, id := range ids {
		kinds, err := BlockTypes(id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		found := false
		for _, k := range kinds {
			found = found || k == "io_pwm_setup"
		}
		if !found {
			t.Fatalf("%s lacks io_pwm_setup: %v", id, kinds)
		}
	}
}
