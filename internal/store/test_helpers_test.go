package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ensemble/internal/contact"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord normalizes raw or fails the test.
func createTestRecord(t *testing.T, raw contact.RawMap) *contact.Record {
	t.Helper()
	r, err := contact.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	return r
}

func houseRecord(t *testing.T) *contact.Record {
	return createTestRecord(t, contact.RawMap{
		"givenName":  "Gregory",
		"familyName": "House",
		"bday":       "1959-06-11",
		"email": []any{
			map[string]any{"type": "work", "value": "house@ppth.org"},
			map[string]any{"type": "home", "value": "greg@example.com"},
		},
		"tel":      map[string]any{"type": "Work", "value": "555-0100"},
		"nickname": []any{"Doc", "Greg"},
	})
}
