package emit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize turns an editor name into an identifier valid in both targets.
// Accents are stripped after NFKD decomposition; other non-ASCII runes are
// spelled as uXXXX.
func Sanitize(name string, reserved map[string]struct{}) string {
	var sb strings.Builder
	for _, r := range norm.NFKD.String(strings.TrimSpace(name)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark
		case r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))):
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r < unicode.MaxASCII:
			sb.WriteByte('_')
		default:
			fmt.Fprintf(&sb, "u%04X", r)
		}
	}
	out := sb.String()
	if out == "" {
		out = "unnamed"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	if _, bad := reserved[out]; bad {
		out += "_"
	}
	return out
}

// NormalizeText puts user text in NFC so equal strings compare equal.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}
