package contact

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ensemble/internal/schema"
	"github.com/roach88/ensemble/internal/value"
)

// RawMap is a field map as produced by decoders and importers.
// Values may be nil, strings, bools, numbers, time.Time, value.Value,
// slices and string-keyed maps of those.
type RawMap map[string]any

// Normalize converts raw into a canonical Record for the built-in catalog.
//
// Unknown keys are ignored and missing fields take their empty value. A value
// whose shape the field cannot hold is a *SchemaViolationError; the only
// coercions applied are wrapping a single value into a one-element list and
// composing strings to Unicode NFC.
// Normalizing a canonical Record's Object again yields an equal Record.
func Normalize(raw RawMap) (*Record, error) {
	return NormalizeWith(schema.Default(), raw)
}

// NormalizeWith is Normalize against catalog s.
func NormalizeWith(s *schema.Schema, raw RawMap) (*Record, error) {
	obj := make(value.Object, len(raw))
	for key, rv := range raw {
		if _, known := s.Lookup(key); !known && !isLegacyDefaultKey(s, key) {
			continue
		}
		v, err := value.FromGo(rv)
		if err != nil {
			return nil, violation(key, "", "%v", err)
		}
		obj[key] = v
	}
	return normalizer{schema: s}.record(obj)
}

// FromObject rebuilds a Record from its flattened Object form.
func FromObject(obj value.Object) (*Record, error) {
	return normalizer{schema: schema.Default()}.record(obj)
}

type normalizer struct {
	schema *schema.Schema
}

func (n normalizer) record(obj value.Object) (*Record, error) {
	r := &Record{schema: n.schema, values: make(value.Object)}
	for _, f := range n.schema.Fields() {
		raw, ok := obj[f.Name]
		if !ok {
			raw = value.Null{}
		}

		var (
			v   value.Value
			err error
		)
		if f.Shape == schema.Defaults {
			v, err = n.defaults(f.Name, raw, obj)
		} else {
			v, err = n.field(f, raw)
		}
		if err != nil {
			return nil, err
		}
		r.values[f.Name] = v
	}
	return r, nil
}

// field normalizes one top-level field value.
func (n normalizer) field(f schema.Field, v value.Value) (value.Value, error) {
	switch f.Shape {
	case schema.ListOfScalar:
		return scalarList(f.Name, "", v)
	case schema.ListOfStruct:
		return structList(f, v)
	case schema.Defaults:
		return n.defaults(f.Name, v, nil)
	default:
		if f.Date {
			return normalizeDate(f.Name, v)
		}
		return scalar(f.Name, "", v)
	}
}

// scalar checks that v is not a container. Strings are stored in NFC so a
// Record survives a round trip through canonical JSON unchanged.
func scalar(field, path string, v value.Value) (value.Value, error) {
	switch val := v.(type) {
	case nil:
		return value.Null{}, nil
	case value.String:
		return value.String(norm.NFC.String(string(val))), nil
	case value.List, value.Object:
		return nil, violation(field, path, "expected a scalar, got %s", value.Kind(v))
	}
	return v, nil
}

// scalarList wraps a single scalar and drops null elements.
func scalarList(field, path string, v value.Value) (value.List, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return value.List{}, nil
	case value.Object:
		return nil, violation(field, path, "expected a list of scalars, got object")
	case value.List:
		out := make(value.List, 0, len(val))
		for i, elem := range val {
			if value.IsNull(elem) {
				continue
			}
			s, err := scalar(field, fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return value.List{v}, nil
	}
}

// structList wraps a single object and normalizes each sub-record.
func structList(f schema.Field, v value.Value) (value.List, error) {
	switch val := v.(type) {
	case nil, value.Null:
		return value.List{}, nil
	case value.Object:
		elem, err := structElem(f, "[0]", val)
		if err != nil {
			return nil, err
		}
		return value.List{elem}, nil
	case value.List:
		out := make(value.List, 0, len(val))
		for i, elem := range val {
			if value.IsNull(elem) {
				continue
			}
			path := fmt.Sprintf("[%d]", i)
			obj, ok := elem.(value.Object)
			if !ok {
				return nil, violation(f.Name, path, "expected an object, got %s", value.Kind(elem))
			}
			s, err := structElem(f, path, obj)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, violation(f.Name, "", "expected a list of objects, got %s", value.Kind(v))
	}
}

// structElem normalizes the sub-attributes of one sub-record.
// Null sub-attributes are dropped.
func structElem(f schema.Field, path string, obj value.Object) (value.Object, error) {
	out := make(value.Object, len(obj))
	for _, attr := range obj.SortedKeys() {
		sv := obj[attr]
		if value.IsNull(sv) {
			continue
		}
		subPath := path + "." + attr

		var (
			nv  value.Value
			err error
		)
		if f.SubShape(attr) == schema.ListOfScalar {
			nv, err = scalarList(f.Name, subPath, sv)
		} else {
			nv, err = scalar(f.Name, subPath, sv)
		}
		if err != nil {
			return nil, err
		}
		out[norm.NFC.String(attr)] = nv
	}
	return out, nil
}

// defaults builds the per-pointer default map. legacy holds the raw record,
// whose defaultEmail-style keys are consulted when the defaults object does
// not name a pointer field.
func (n normalizer) defaults(field string, v value.Value, legacy value.Object) (value.Object, error) {
	var explicit value.Object
	switch val := v.(type) {
	case nil, value.Null:
	case value.Object:
		for _, key := range val.SortedKeys() {
			if !n.schema.IsPointer(key) {
				return nil, violation(field, "."+key, "not a pointer-capable field")
			}
		}
		explicit = val
	default:
		return nil, violation(field, "", "expected an object, got %s", value.Kind(v))
	}

	out := emptyDefaults(n.schema)
	for _, name := range n.schema.PointerFields() {
		candidate, where, path := explicit[name], field, "."+name
		if isUnset(candidate) {
			candidate, where, path = legacy[legacyDefaultKey(name)], legacyDefaultKey(name), ""
		}
		if isUnset(candidate) {
			continue
		}

		f, _ := n.schema.Lookup(name)
		var (
			nv  value.Value
			err error
		)
		if f.Shape == schema.ListOfStruct {
			obj, ok := candidate.(value.Object)
			if !ok {
				return nil, violation(where, path, "expected an object, got %s", value.Kind(candidate))
			}
			nv, err = structElem(f, path, obj)
			var sv *SchemaViolationError
			if errors.As(err, &sv) {
				sv.Field = where
			}
		} else {
			nv, err = scalar(where, path, candidate)
		}
		if err != nil {
			return nil, err
		}
		if !isUnset(nv) {
			out[name] = nv
		}
	}
	return out, nil
}

// isUnset reports whether v is Null or an empty object.
func isUnset(v value.Value) bool {
	if value.IsNull(v) {
		return true
	}
	obj, ok := v.(value.Object)
	return ok && len(obj) == 0
}

// legacyDefaultKey returns the older top-level key for a pointer field's
// default, e.g. "defaultEmail".
func legacyDefaultKey(field string) string {
	return "default" + strings.ToUpper(field[:1]) + field[1:]
}

func isLegacyDefaultKey(s *schema.Schema, key string) bool {
	for _, name := range s.PointerFields() {
		if legacyDefaultKey(name) == key {
			return true
		}
	}
	return false
}
