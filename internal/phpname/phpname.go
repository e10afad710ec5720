// Package phpname validates PHP identifiers and namespaces.
package phpname

import (
	"regexp"
	"strings"
)

// identifier follows the PHP label grammar; bytes 0x80-0xff there become any
// non-ASCII rune here.
var identifier = regexp.MustCompile(`^[a-zA-Z_\x{80}-\x{10FFFF}][a-zA-Z0-9_\x{80}-\x{10FFFF}]*$`)

// IsIdentifier reports whether s is a valid class, function or namespace
// segment name.
func IsIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// IsNamespace reports whether every backslash-separated segment of s is an
// identifier. Leading and trailing separators are rejected.
func IsNamespace(s string) bool {
	for _, seg := range strings.Split(s, `\`) {
		if !IsIdentifier(seg) {
			return false
		}
	}
	return true
}

// Escape doubles every backslash, for namespaces embedded in JSON or PHP
// string literals.
func Escape(ns string) string {
	return strings.ReplaceAll(ns, `\`, `\\`)
}
