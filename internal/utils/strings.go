package utils

import "strings"

// NormalizeCode upper-cases and trims a ticker or currency code so store keys compare equal
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseCSV splits a comma-separated list, dropping blanks. An empty list is nil.
func ParseCSV(s string) []string {
	var out []string
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
