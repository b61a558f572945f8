// Package access implements attribute-path compilation and retrieval for
// goshape schemas. Field names use a double-underscore micro-syntax to reach
// nested attributes ("a__b" means attribute b of attribute a); segments that
// consist only of underscores never open a new path hop, so private-style
// names such as "_a___c" still split correctly into "_a"."_c".
package access

import "strings"

const delimiter = "__"

// ConstructPath expands the double-underscore syntax of a declared field name
// into a dot-separated attribute path.
//
// Examples:
//
//	"a__b"    -> "a.b"
//	"a__b__c" -> "a.b.c"
//	"_a___c"  -> "_a._c"
//	"__priv"  -> "__priv"
func ConstructPath(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	constructPath(name, &b)
	return b.String()
}

func constructPath(name string, b *strings.Builder) {
	before, after, found := strings.Cut(name, delimiter)
	if !found {
		b.WriteString(name)
		return
	}
	if validSegment(before) && validSegment(after) {
		b.WriteString(before)
		b.WriteByte('.')
		constructPath(after, b)
		return
	}
	// The delimiter sits next to an underscore-only run; keep it literal so
	// leading-underscore names survive unsplit.
	b.WriteString(before)
	b.WriteString(delimiter)
	if validSegment(after) {
		constructPath(after, b)
		return
	}
	b.WriteString(after)
}

// validSegment reports whether s is non-empty and not made of underscores only.
func validSegment(s string) bool {
	return strings.Trim(s, "_") != ""
}
