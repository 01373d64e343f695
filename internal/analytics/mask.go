package analytics

import "strings"

// MaskLastname hides all but the first and last character of a last name.
// Names of up to two characters keep only the first one. Counts runes, not
// bytes.
func MaskLastname(name string) string {
	r := []rune(name)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 2:
		return string(r[0]) + "*"
	default:
		return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
	}
}
