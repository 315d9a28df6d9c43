// Package diagfmt renders generation diagnostics for people and machines.
package diagfmt

import "blockgen/internal/diag"

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Width truncates messages to this many terminal cells; 0 means no limit.
	Width     int
	ShowNotes bool
	// MinSeverity hides anything below it.
	MinSeverity diag.Severity
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // trims the output only, not the bag
	IncludeNotes bool
	MinSeverity  diag.Severity
	Indent       bool
}
