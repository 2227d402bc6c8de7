package contact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ensemble/internal/value"
)

func mustNormalize(t *testing.T, raw RawMap) *Record {
	t.Helper()
	r, err := Normalize(raw)
	require.NoError(t, err)
	return r
}

// assertEquivalent fails with a readable diff when two Records differ
// beyond list order.
func assertEquivalent(t *testing.T, want, got *Record) {
	t.Helper()
	if !want.Equivalent(got) {
		t.Errorf("records differ (-want +got):\n%s",
			cmp.Diff(value.ToGo(want.Object()), value.ToGo(got.Object())))
	}
}

func assertSameValue(t *testing.T, want, got value.Value) {
	t.Helper()
	if !value.Equal(want, got) {
		t.Errorf("values differ (-want +got):\n%s", cmp.Diff(value.ToGo(want), value.ToGo(got)))
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func tel(kind, number string) value.Object {
	return value.Obj(value.O("type", value.Strings(kind)), value.O("value", value.String(number)))
}

func email(kind, addr string) value.Object {
	return value.Obj(value.O("type", value.Strings(kind)), value.O("value", value.String(addr)))
}

// fixtures is a small corpus of raw contacts used by the law tests.
func fixtures() map[string]RawMap {
	return map[string]RawMap{
		"empty": {},
		"house": {
			"name": "House",
			"tel":  []any{map[string]any{"type": "Work", "value": "555-0100"}},
		},
		"wilson": {
			"givenName":  "James",
			"familyName": "Wilson",
			"sex":        "Male",
			"bday":       "1959-09-12",
			"email": []any{
				map[string]any{"type": "work", "value": "wilson@ppth.org"},
				map[string]any{"type": []any{"home", "pref"}, "value": "jw@example.com"},
			},
			"category": []any{"oncology", "friends"},
		},
		"cuddy": {
			"givenName":  "Lisa",
			"familyName": "Cuddy",
			"sex":        "Female",
			"popularity": 7,
			"email":      map[string]any{"type": "work", "value": "cuddy@ppth.org"},
			"tel":        []any{map[string]any{"type": "Work", "value": "555-0100"}},
			"category":   []any{"admin", "friends"},
			"defaults": map[string]any{
				"email": map[string]any{"type": "work", "value": "cuddy@ppth.org"},
			},
		},
		"doubled": {
			"nickname": []any{"Bob", "Bob"},
			"email": []any{
				map[string]any{"type": "home", "value": "bob@example.com"},
				map[string]any{"type": "home", "value": "bob@example.com"},
			},
		},
		"single": {
			"nickname": "Bob",
			"email":    map[string]any{"type": "home", "value": "bob@example.com"},
		},
		"fractional": {
			"givenName":  "Rene\u0301",
			"popularity": 2.5,
			"note":       []any{1.5, "see \u00e9t\u00e9 notes"},
		},
		"repeats": {
			"nickname": []any{"Doc", "Doc", "Greg"},
			"tel": []any{
				map[string]any{"type": "Cell", "value": "555-0199"},
				map[string]any{"type": "Home", "value": "555-0123"},
			},
		},
	}
}

// count returns how many elements of list are equal to v.
func count(list value.List, v value.Value) int {
	n := 0
	for _, elem := range list {
		if value.Equal(elem, v) {
			n++
		}
	}
	return n
}
