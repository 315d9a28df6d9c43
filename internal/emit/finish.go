package emit

import (
	"strings"
	"time"
)

// Finish assembles the program: header comment, includes, globals,
// helpers, then the target skeleton holding init and main. Empty sections
// are left out. Dependencies are not part of the text.
func Finish(t Target, s *Session, main string) string {
	var parts []string
	if h := header(t, s); h != "" {
		parts = append(parts, h)
	}
	if inc := s.Includes(); len(inc) > 0 {
		parts = append(parts, joinTrimmed(inc, "\n"))
	}
	if g := s.Globals(); len(g) > 0 {
		parts = append(parts, joinTrimmed(g, "\n"))
	}
	if h := s.Helpers(); len(h) > 0 {
		parts = append(parts, joinTrimmed(h, "\n\n"))
	}
	if prog := strings.TrimRight(t.Program(s, main), "\n"); prog != "" {
		parts = append(parts, prog)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func header(t Target, s *Session) string {
	if s.Banner == "" {
		return ""
	}
	lines := []string{t.Comment(s.Banner), t.Comment("Board: " + s.Board.Name + " (" + s.Board.ID + ")")}
	if !s.BuildTime.IsZero() {
		lines = append(lines, t.Comment("Built: "+s.BuildTime.UTC().Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

func joinTrimmed(items []string, sep string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimRight(it, "\n"); it != "" {
			out = append(out, it)
		}
	}
	return strings.Join(out, sep)
}
