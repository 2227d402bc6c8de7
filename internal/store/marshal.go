package store

import (
	"fmt"

	"github.com/roach88/ensemble/internal/contact"
	"github.com/roach88/ensemble/internal/value"
)

// marshalRecord converts a Record to canonical JSON TEXT for storage.
func marshalRecord(rec *contact.Record) (string, error) {
	data, err := rec.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses canonical JSON TEXT back into a Record.
// Dates come back as strings and are re-read by the Normalizer.
func unmarshalRecord(data string) (*contact.Record, error) {
	obj, err := unmarshalObject(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	rec, err := contact.FromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// marshalDiff converts a Diff to canonical JSON TEXT for storage.
func marshalDiff(d contact.Diff) (string, error) {
	data, err := d.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal diff: %w", err)
	}
	return string(data), nil
}

// unmarshalDiff parses canonical JSON TEXT back into a Diff.
func unmarshalDiff(data string) (contact.Diff, error) {
	obj, err := unmarshalObject(data)
	if err != nil {
		return contact.Diff{}, fmt.Errorf("unmarshal diff: %w", err)
	}
	d, err := contact.DiffFromObject(obj)
	if err != nil {
		return contact.Diff{}, fmt.Errorf("unmarshal diff: %w", err)
	}
	return d, nil
}

// marshalValue converts one field element to canonical JSON TEXT.
func marshalValue(v value.Value) (string, error) {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

func unmarshalObject(data string) (value.Object, error) {
	if data == "" || data == "{}" {
		return value.Object{}, nil
	}
	var obj value.Object
	if err := obj.UnmarshalJSON([]byte(data)); err != nil {
		return nil, err
	}
	return obj, nil
}
