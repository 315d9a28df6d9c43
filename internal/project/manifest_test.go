package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blockgen/internal/platform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadManifestFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), Template("demo", "esp32dev", platform.TargetArduino))
	writeFile(t, filepath.Join(root, "workspaces", "b.json"), "{}")
	writeFile(t, filepath.Join(root, "workspaces", "a.json"), "{}")
	sub := filepath.Join(root, "workspaces")

	m, ok, err := LoadManifest(sub)
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Root != root || m.Config.Package.Name != "demo" || m.Config.Generate.Board != "esp32dev" {
		t.Fatalf("manifest %+v", m)
	}
	if !m.Config.Generate.Cache || m.OutDir() != filepath.Join(root, "build") {
		t.Fatalf("defaults: cache=%v out=%s", m.Config.Generate.Cache, m.OutDir())
	}
	files, err := m.WorkspaceFiles()
	if err != nil {
		t.Fatalf("WorkspaceFiles: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.json" {
		t.Fatalf("files %v", files)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	m, ok, err := LoadManifest(t.TempDir())
	if m != nil || ok || err != nil {
		t.Fatalf("got %v %v %v", m, ok, err)
	}
}

func TestLoadConfigRequiredKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"no package", "[generate]\nboard = \"uno\"\ntarget = \"arduino\"\n", ErrPackageSectionMissing},
		{"no name", "[package]\n[generate]\nboard = \"uno\"\ntarget = \"arduino\"\n", ErrPackageNameMissing},
		{"no generate", "[package]\nname = \"x\"\n", ErrGenerateSectionMissing},
		{"no target", "[package]\nname = \"x\"\n[generate]\nboard = \"uno\"\n", ErrGenerateKeyMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tt.content)
			if _, err := LoadConfig(path); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, "[package]\nname = \"x\"\n[generate]\nboard = \"uno\"\ntarget = \"arduino\"\nspeed = 3\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCatalogAppliesBoardOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, `[package]
name = "x"

[generate]
board = "tiny-esp"
target = "arduino"
cache = false

[boards.tiny-esp]
base = "esp32dev"
name = "Tiny ESP"
channels = 4
default_frequency = 1000
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Generate.Cache {
		t.Fatalf("explicit cache = false ignored")
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	c, err := m.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	b, err := c.Lookup("tiny-esp")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if b.Name != "Tiny ESP" || b.PWM.Channels != 4 || b.PWM.DefaultFrequency != 1000 || b.PWM.Kind != platform.PWMLedc {
		t.Fatalf("board %+v", b)
	}
}
