package intelligence

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize turns an extracted cell or page text into a single trimmed line.
// Compatibility forms (full-width digits, micro sign, superscripts) are folded
// with NFKC and every whitespace run, line breaks included, becomes one space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// fold is the comparison form of a literal or an item name
func fold(s string) string {
	return strings.ToLower(Normalize(s))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
