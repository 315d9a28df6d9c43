package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	_ = GitCommit
	_ = BuildDate
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "1.2.3"
	if got := Banner(); got != "Generated by blockgen 1.2.3" {
		t.Errorf("Banner() = %q", got)
	}
}

func TestColored_PlainWithoutColor(t *testing.T) {
	origNoColor := color.NoColor
	origVersion := Version
	defer func() {
		color.NoColor = origNoColor
		Version = origVersion
	}()
	color.NoColor = true

	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"2.0.1", "2.0.1"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		Version = tt.version
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() for %q = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestColored_AddsEscapes(t *testing.T) {
	origNoColor := color.NoColor
	defer func() { color.NoColor = origNoColor }()
	color.NoColor = false

	if got := Colored(); got == Version {
		t.Errorf("Colored() = %q, expected ANSI escapes", got)
	}
}
