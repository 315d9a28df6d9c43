package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"blockgen/internal/platform"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrGenerateSectionMissing indicates that [generate] is missing.
	ErrGenerateSectionMissing = errors.New("missing [generate]")
	// ErrGenerateKeyMissing indicates a required [generate] key is missing.
	ErrGenerateKeyMissing = errors.New("missing [generate] key")
)

// Defaults for optional [generate] keys.
const (
	DefaultWorkspaces = "workspaces/*.json"
	DefaultOutDir     = "build"
)

// Config mirrors blockgen.toml.
type Config struct {
	Package  PackageConfig                `toml:"package"`
	Generate GenerateConfig               `toml:"generate"`
	Boards   map[string]platform.Override `toml:"boards"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type GenerateConfig struct {
	Board  string `toml:"board"`
	Target string `toml:"target"`
	// Workspaces are glob patterns relative to the manifest directory.
	Workspaces []string `toml:"workspaces"`
	OutDir     string   `toml:"out_dir"`
	Cache      bool     `toml:"cache"`
	Jobs       int      `toml:"jobs"`
}

// Manifest is a loaded blockgen.toml and its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// LoadManifest finds and parses the manifest above startDir. ok is false
// when there is none.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig parses path, checks required keys and fills defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if !meta.IsDefined("generate") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrGenerateSectionMissing)
	}
	for _, key := range []string{"board", "target"} {
		if !meta.IsDefined("generate", key) {
			return Config{}, fmt.Errorf("%s: %w %q", path, ErrGenerateKeyMissing, key)
		}
	}
	cfg.Generate.Board = strings.TrimSpace(cfg.Generate.Board)
	cfg.Generate.Target = strings.ToLower(strings.TrimSpace(cfg.Generate.Target))
	if !meta.IsDefined("generate", "workspaces") {
		cfg.Generate.Workspaces = []string{DefaultWorkspaces}
	}
	if !meta.IsDefined("generate", "out_dir") {
		cfg.Generate.OutDir = DefaultOutDir
	}
	if !meta.IsDefined("generate", "cache") {
		cfg.Generate.Cache = true
	}
	if cfg.Generate.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [generate].jobs must not be negative", path)
	}
	return cfg, nil
}

// Catalog returns the builtin boards with the manifest's [boards] applied.
func (m *Manifest) Catalog() (*platform.Catalog, error) {
	c := platform.Builtin()
	if m == nil || len(m.Config.Boards) == 0 {
		return c, nil
	}
	if err := c.Apply(m.Config.Boards); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Path, err)
	}
	return c, nil
}

// WorkspaceFiles expands the workspace globs, sorted and deduplicated.
func (m *Manifest) WorkspaceFiles() ([]string, error) {
	var out []string
	for _, pattern := range m.Config.Generate.Workspaces {
		pattern = filepath.FromSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: workspace pattern %q: %w", m.Path, pattern, err)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// OutDir is the absolute output directory.
func (m *Manifest) OutDir() string {
	dir := filepath.FromSlash(m.Config.Generate.OutDir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, dir)
}

// Template renders a starter manifest.
func Template(name, board string, target platform.Target) string {
	return fmt.Sprintf(`[package]
name = %q

[generate]
board = %q
target = %q
workspaces = [%q]
out_dir = %q
cache = true
jobs = 0

# Board overrides inherit from a builtin board:
# [boards.my-esp32]
# base = "esp32dev"
# channels = 8
`, name, board, string(target), DefaultWorkspaces, DefaultOutDir)
}
