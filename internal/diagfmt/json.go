package diagfmt

import (
	"encoding/json"
	"io"

	"blockgen/internal/diag"
)

// NoteJSON is a secondary location of a diagnostic.
type NoteJSON struct {
	Block   string `json:"block,omitempty"`
	Message string `json:"message"`
}

// DiagnosticJSON is the machine form of a diagnostic.
type DiagnosticJSON struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Block    string     `json:"block,omitempty"`
	Notes    []NoteJSON `json:"notes,omitempty"`
}

// FileJSON groups the diagnostics of one workspace.
type FileJSON struct {
	File        string           `json:"file"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Files []FileJSON `json:"files"`
	Count int        `json:"count"`
}

// File is the input of JSON: diagnostics keyed by workspace.
type File struct {
	Name        string
	Diagnostics []diag.Diagnostic
}

// Build converts files into the JSON document without writing it.
func Build(files []File, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Files: make([]FileJSON, 0, len(files))}
	for _, f := range files {
		fj := FileJSON{File: f.Name, Diagnostics: make([]DiagnosticJSON, 0, len(f.Diagnostics))}
		for _, d := range f.Diagnostics {
			if d.Severity < opts.MinSeverity {
				continue
			}
			if opts.Max > 0 && out.Count >= opts.Max {
				break
			}
			dj := DiagnosticJSON{
				Severity: d.Severity.Label(),
				Code:     d.Code.ID(),
				Title:    d.Code.Title(),
				Message:  d.Message,
				Block:    d.Block,
			}
			if opts.IncludeNotes {
				for _, n := range d.Notes {
					dj.Notes = append(dj.Notes, NoteJSON{Block: n.Block, Message: n.Msg})
				}
			}
			fj.Diagnostics = append(fj.Diagnostics, dj)
			out.Count++
		}
		fj.Count = len(fj.Diagnostics)
		out.Files = append(out.Files, fj)
	}
	return out
}

// JSON writes the diagnostics of files as one JSON document.
func JSON(w io.Writer, files []File, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(Build(files, opts))
}
