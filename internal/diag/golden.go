package diag

import (
	"fmt"
	"strings"
)

// FormatGolden renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden comparisons. Order is preserved: warning
// order is meaningful for the UI, so no sorting happens here. Newlines inside
// messages are folded into spaces.
func FormatGolden(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeGoldenLine(&b, d.Severity.Label(), d.Code, d.Block, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteByte('\n')
			writeGoldenLine(&b, "note", d.Code, n.Block, n.Msg)
		}
	}
	return b.String()
}

func writeGoldenLine(b *strings.Builder, label string, code Code, block, msg string) {
	if block == "" {
		block = "-"
	}
	fmt.Fprintf(b, "%s %s %s %s", label, code.ID(), block, strings.Join(strings.Fields(msg), " "))
}
