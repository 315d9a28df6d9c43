package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blockgen/internal/codegen"
	"blockgen/internal/platform"
	"blockgen/internal/pwm"
)

const blinkWorkspace = `{"blocks": {"languageVersion": 0, "blocks": [{
  "type": "program_setup_loop", "id": "prog", "x": 10, "y": 10,
  "inputs": {"LOOP": {"block": {
    "type": "io_digitalwrite", "id": "w1", "fields": {"PIN": "13", "STATE": "HIGH"},
    "next": {"block": {"type": "io_digitalwrite", "id": "w2", "fields": {"PIN": "13", "STATE": "LOW"}}}
  }}}
}]}}`

func TestOutputPath(t *testing.T) {
	if got := outputNameFromPath("workspaces/blink led.json"); got != "blink_led" {
		t.Fatalf("outputNameFromPath = %q", got)
	}
	if got := outputPath(platform.TargetArduino, "out", "blink"); got != filepath.Join("out", "blink", "blink.ino") {
		t.Fatalf("arduino path = %q", got)
	}
	if got := outputPath(platform.TargetMicroPython, "out", "blink"); got != filepath.Join("out", "blink.py") {
		t.Fatalf("micropython path = %q", got)
	}
}

func TestReadSwitchMode(t *testing.T) {
	for _, in := range []string{"", "AUTO", " on ", "off"} {
		if _, err := readSwitchMode("ui", in); err != nil {
			t.Fatalf("readSwitchMode(%q): %v", in, err)
		}
	}
	if _, err := readSwitchMode("color", "sometimes"); err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("err = %v", err)
	}
}

func TestInitProjectRefusesExistingManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "garden")
	created, err := initProject(dir, "pico", platform.TargetMicroPython)
	if err != nil {
		t.Fatalf("initProject: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %v", created)
	}
	data, err := os.ReadFile(filepath.Join(dir, "blockgen.toml"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), `name = "garden"`) || !strings.Contains(string(data), `target = "micropython"`) {
		t.Fatalf("manifest:\n%s", data)
	}
	if _, err := initProject(dir, "pico", platform.TargetMicroPython); err == nil {
		t.Fatalf("expected error on second init")
	}
}

func TestFailure(t *testing.T) {
	results := []codegen.Result{
		{Name: "a.json"},
		{Name: "b.json", Warnings: []string{"pin 4 is used as input and output"}},
	}
	if err := failure(results, false); err != nil {
		t.Fatalf("failure = %v", err)
	}
	err := failure(results, true)
	if err == nil || !strings.Contains(err.Error(), "b.json") || strings.Contains(err.Error(), "a.json") {
		t.Fatalf("failure = %v", err)
	}
}

func TestRenderValidation(t *testing.T) {
	b, err := platform.Builtin().Lookup("esp32dev")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	var buf bytes.Buffer
	renderValidation(&buf, b.ID, pwm.Validate(75000, 12, pwm.LimitsOf(b.PWM)))
	out := buf.String()
	if !strings.Contains(out, "adjusted") || !strings.Contains(out, "resolution: 10-bit") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestBuildReport(t *testing.T) {
	rep := newBuildReport(true, false)
	if rep.GitCommit == "" || rep.BuildDate != "" {
		t.Fatalf("report = %+v", rep)
	}
	var buf bytes.Buffer
	printBuildReport(&buf, rep)
	out := buf.String()
	if !strings.Contains(out, "targets: arduino, micropython") || !strings.Contains(out, "esp32dev") {
		t.Fatalf("output:\n%s", out)
	}
	if strings.Contains(out, "built:") {
		t.Fatalf("build date printed without --date:\n%s", out)
	}
}

func TestGenerateCommandWritesSketch(t *testing.T) {
	root := t.TempDir()
	if _, err := initProject(root, "uno", platform.TargetArduino); err != nil {
		t.Fatalf("initProject: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "workspaces", "blink.json"), []byte(blinkWorkspace), 0o600); err != nil {
		t.Fatalf("write workspace: %v", err)
	}
	t.Chdir(root)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"generate", "--no-cache", "--ui=off", "--color=off", "--quiet"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("generate: %v\n%s", err, stderr.String())
	}

	code, err := os.ReadFile(filepath.Join(root, "build", "blink", "blink.ino"))
	if err != nil {
		t.Fatalf("read sketch: %v", err)
	}
	if !strings.HasPrefix(string(code), "// Generated by blockgen ") {
		t.Fatalf("missing header:\n%s", code)
	}
	if !strings.HasSuffix(string(code), "void loop() {\n  digitalWrite(13, HIGH);\n  digitalWrite(13, LOW);\n}\n") {
		t.Fatalf("sketch:\n%s", code)
	}
}
