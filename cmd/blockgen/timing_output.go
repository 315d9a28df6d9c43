package main

import (
	"fmt"
	"io"

	"blockgen/internal/codegen"
)

// printTimings writes the phase table of every workspace.
func printTimings(out io.Writer, results []codegen.Result) {
	if out == nil {
		return
	}
	for _, r := range results {
		state := ""
		if r.Cached {
			state = " (cached)"
		}
		fmt.Fprintf(out, "%s%s\n%s", r.Name, state, r.Timings.Summary())
	}
}
