package config

import "strings"

// ParseComponents splits a component selection list into lowercase entries.
// The timemory convention accepts semicolons, commas, colons and spaces as
// delimiters; empty entries are dropped.
func ParseComponents(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		switch r {
		case ';', ',', ':', ' ', '\t':
			return true
		}
		return false
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
