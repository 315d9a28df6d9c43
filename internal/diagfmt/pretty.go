package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"blockgen/internal/diag"
)

type palette struct {
	err, warn, info, code, block, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan),
		code:  color.New(color.Bold),
		block: color.New(color.FgMagenta),
		note:  color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.block, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty prints one line per diagnostic:
//
//	<file>: <severity> <CODE> [<block>]: <message>
//
// followed by indented notes when opts.ShowNotes is set. An empty file
// name drops the prefix.
func Pretty(w io.Writer, file string, diags []diag.Diagnostic, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	for _, d := range diags {
		if d.Severity < opts.MinSeverity {
			continue
		}
		var sb strings.Builder
		if file != "" {
			sb.WriteString(file + ": ")
		}
		sb.WriteString(pal.severity(d.Severity).Sprint(d.Severity.Label()))
		sb.WriteString(" " + pal.code.Sprint(d.Code.ID()))
		if d.Block != "" {
			sb.WriteString(" " + pal.block.Sprint("["+d.Block+"]"))
		}
		sb.WriteString(": " + truncate(d.Message, opts.Width))
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := "  " + pal.note.Sprint("note")
			if n.Block != "" {
				line += " " + pal.block.Sprint("["+n.Block+"]")
			}
			if _, err := fmt.Fprintln(w, line+": "+truncate(n.Msg, opts.Width)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Summary renders "N errors, M warnings" with the counts coloured.
func Summary(diags []diag.Diagnostic, useColor bool) string {
	pal := newPalette(useColor)
	var errs, warns int
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return pal.err.Sprint(plural(errs, "error")) + ", " + pal.warn.Sprint(plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func truncate(msg string, width int) string {
	if width <= 0 || runewidth.StringWidth(msg) <= width {
		return msg
	}
	return runewidth.Truncate(msg, width, "…")
}
