package main

import (
	"path/filepath"
	"strings"

	"blockgen/internal/emit"
	"blockgen/internal/platform"
)

// outputNameFromPath derives the sketch or script name from a workspace
// file, sanitised the same way as generated identifiers.
func outputNameFromPath(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return emit.Sanitize(name, nil)
}

// outputPath places generated code under outDir. Arduino sketches need a
// folder named like the sketch.
func outputPath(target platform.Target, outDir, name string) string {
	switch target {
	case platform.TargetArduino:
		return filepath.Join(outDir, name, name+".ino")
	default:
		return filepath.Join(outDir, name+".py")
	}
}
