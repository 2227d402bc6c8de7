package contact

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/roach88/ensemble/internal/value"
)

// normalizeDate converts a raw date value to a value.Time or Null.
//
// Strings go through a permissive parser; anything it cannot read becomes
// Null rather than an error. Numbers are Unix milliseconds; a fractional
// part is dropped.
func normalizeDate(field string, v value.Value) (value.Value, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return value.Null{}, nil
	case value.Time:
		return value.NewTime(val.Std()), nil
	case value.Int:
		return value.NewTime(time.UnixMilli(int64(val))), nil
	case value.Float:
		return value.NewTime(time.UnixMilli(int64(val))), nil
	case value.String:
		t, ok := parseDate(string(val))
		if !ok {
			return value.Null{}, nil
		}
		return value.NewTime(t), nil
	default:
		return nil, violation(field, "", "expected a date, got %s", value.Kind(v))
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
