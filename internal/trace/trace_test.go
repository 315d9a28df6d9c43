package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelGatesScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopePass, true},
		{LevelError, ScopeFile, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeBlock, false},
		{LevelDebug, ScopeBlock, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	file := BeginFile(tr, "generate", "blink.json", 0)
	walk := BeginUnder(tr, ScopePass, "walk", file.Context())
	BeginBlock(tr, "controls_if", "b1", walk.Context()).End("")
	walk.WithExtra("roots", "3").End("ok")
	file.End("")

	out := buf.String()
	if strings.Contains(out, "controls_if") {
		t.Fatalf("block span leaked at detail level:\n%s", out)
	}
	if !strings.Contains(out, "→ walk @blink.json") || !strings.Contains(out, "← walk @blink.json (ok) {roots=3}") {
		t.Fatalf("unexpected text trace:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	BeginBlock(tr, "controls_if", "b7", SpanContext{File: "a.json"}).End("")
	Point(tr, ScopeBlock, "unknown_block", "laser_fire b8", SpanContext{File: "a.json"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 events, got %d", len(lines))
	}
	var ev struct {
		Kind  string `json:"kind"`
		Scope string `json:"scope"`
		Name  string `json:"name"`
		File  string `json:"file"`
		Block string `json:"block"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Scope != "block" || ev.Name != "controls_if" || ev.File != "a.json" || ev.Block != "b7" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "point" || ev.Name != "unknown_block" {
		t.Fatalf("unexpected point %+v", ev)
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(3, LevelDetail)
	for _, f := range []string{"a.json", "b.json", "a.json"} {
		BeginFile(ring, "generate", f, 0).End("")
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("snapshot out of order: %d after %d", events[i].Seq, events[i-1].Seq)
		}
	}
	// six events were emitted; the ring holds end(b), begin(a), end(a)
	if got := ring.SnapshotFile("a.json"); len(got) != 2 || got[0].Kind != KindSpanBegin {
		t.Fatalf("SnapshotFile(a.json) = %+v", got)
	}
}

func TestDisabledSpanKeepsFile(t *testing.T) {
	s := BeginFile(Nop, "generate", "blink.json", 0)
	if s.ID() != 0 || s.Context().File != "blink.json" {
		t.Fatalf("disabled span context %+v", s.Context())
	}
}

func TestNewErrorLevelUsesRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if FindRing(tr) == nil {
		t.Fatalf("error level should record into a ring, got %T", tr)
	}
	if _, err := ParseMode("both"); err != nil {
		t.Fatalf("ParseMode: %v", err)
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestContextDefaultsToNop(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop tracer")
	}
	ring := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer not carried on context")
	}
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 7, File: "x.json"})
	if sc := CurrentSpan(ctx); sc.SpanID != 7 || sc.File != "x.json" {
		t.Fatalf("span context %+v", sc)
	}
}
