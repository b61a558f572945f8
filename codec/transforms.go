package codec

import (
	"fmt"
	"time"
)

// TimeRFC3339 returns a transform formatting time.Time values as canonical
// RFC3339 strings (UTC, nanoseconds trimmed).
func TimeRFC3339() func(any) (any, error) {
	return func(v any) (any, error) {
		switch t := v.(type) {
		case time.Time:
			return formatRFC3339Canonical(t), nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return formatRFC3339Canonical(*t), nil
		default:
			return nil, fmt.Errorf("codec: TimeRFC3339 expects time.Time, got %T", v)
		}
	}
}

// Stringer returns a transform rendering values through fmt.Stringer when
// implemented, falling back to fmt.Sprint.
func Stringer() func(any) (any, error) {
	return func(v any) (any, error) {
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), nil
		}
		return fmt.Sprint(v), nil
	}
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC; RFC3339Nano trims trailing zeros.
	return t.UTC().Format(time.RFC3339Nano)
}
