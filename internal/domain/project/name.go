package project

import "unicode"

// ValidName reports whether name can be used as a feedback tag: one or
// more letters, digits or underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !IsTagRune(r) {
			return false
		}
	}
	return true
}

// IsTagRune reports whether r may appear in a project tag.
func IsTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
