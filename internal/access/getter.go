package access

import (
	"fmt"
	"strings"
)

// Getter retrieves a value from a source object. A tolerant getter reports a
// failed lookup by returning the missing marker instead of an error.
type Getter func(obj any) (any, error)

type missingMarker struct{}

// missing is the process-wide marker for attributes that failed to resolve on
// an optional field. It is compared by identity and is never equal to any real
// attribute value, including nil.
var missing any = &missingMarker{}

// Missing returns the missing marker.
func Missing() any { return missing }

// IsMissing reports whether v is the missing marker.
func IsMissing(v any) bool { return v == missing }

// Strict builds a getter that walks the dot-separated path and fails on the
// first segment that does not resolve. The path is split once, at build time.
func Strict(path string) Getter {
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		seg := segments[0]
		return func(obj any) (any, error) {
			v, ok := lookupAttr(obj, seg)
			if !ok {
				return nil, &AttributeError{Path: path, Segment: seg, Target: typeName(obj)}
			}
			return v, nil
		}
	}
	return func(obj any) (any, error) {
		cur := obj
		for _, seg := range segments {
			v, ok := lookupAttr(cur, seg)
			if !ok {
				return nil, &AttributeError{Path: path, Segment: seg, Target: typeName(cur)}
			}
			cur = v
		}
		return cur, nil
	}
}

// Tolerant builds a getter that substitutes the missing marker for any segment
// that fails to resolve and short-circuits the remaining segments.
func Tolerant(path string) Getter {
	segments := strings.Split(path, ".")
	return func(obj any) (any, error) {
		cur := obj
		for _, seg := range segments {
			v, ok := lookupAttr(cur, seg)
			if !ok {
				return missing, nil
			}
			cur = v
		}
		return cur, nil
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
