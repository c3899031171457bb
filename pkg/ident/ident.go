// Package ident provides case-insensitive identifier helpers shared by the
// lexer, symbol table, and semantic analyzer. Pascal identifiers and
// keywords are compared without regard to case; this package centralizes
// that rule instead of scattering strings.ToLower/EqualFold calls.
package ident

import "strings"

// Normalize lowercases name for use as a map key.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// Equal reports whether a and b are the same identifier, ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Compare orders a and b case-insensitively, returning <0, 0, >0.
func Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Contains reports whether name appears in list, ignoring case.
func Contains(list []string, name string) bool {
	return Index(list, name) >= 0
}

// Index returns the index of name in list, ignoring case, or -1.
func Index(list []string, name string) int {
	for i, v := range list {
		if Equal(v, name) {
			return i
		}
	}
	return -1
}

// IsKeyword reports whether name matches any of keywords, ignoring case.
func IsKeyword(name string, keywords ...string) bool {
	return Contains(keywords, name)
}
