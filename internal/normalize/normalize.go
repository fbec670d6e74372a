// Package normalize derives canonical matching keys from catalog and search records.
//
// Two records whose titles and authors differ only in case or surrounding
// whitespace normalize to the same Key and are treated as the same book.
package normalize

import "strings"

// Key is a canonical (title, author) pair used for cross-source matching.
type Key struct {
	Title  string
	Author string
}

// NewKey normalizes a raw title and author into a canonical key:
// lower-cased, trimmed, with null bytes stripped. No locale-aware folding
// beyond ASCII case is performed.
func NewKey(title, author string) Key {
	return Key{
		Title:  normalize(title),
		Author: normalize(author),
	}
}

// String renders the key in its index form: "title::author".
func (k Key) String() string {
	return k.Title + "::" + k.Author
}

// IsZero reports whether both components are empty.
func (k Key) IsZero() bool {
	return k.Title == "" && k.Author == ""
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(sanitizeString(s)))
}

// sanitizeString removes null bytes, which can cause issues in databases
// and JSON parsing. Some upstream metadata sources include null terminators
// in strings.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}
