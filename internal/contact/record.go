package contact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/ensemble/internal/schema"
	"github.com/roach88/ensemble/internal/value"
)

// Record is a canonical contact: every catalog field is present and holds a
// value of its declared shape.
//
// Scalar fields hold a scalar or Null, list fields hold a value.List (empty
// when unset), and the defaults field holds a value.Object keyed by every
// pointer-capable field.
type Record struct {
	schema *schema.Schema
	values value.Object
}

// New returns an empty canonical Record for the built-in catalog.
func New() *Record {
	return NewWith(schema.Default())
}

// NewWith returns an empty canonical Record for s.
func NewWith(s *schema.Schema) *Record {
	r := &Record{schema: s, values: make(value.Object)}
	for _, f := range s.Fields() {
		r.values[f.Name] = emptyValue(s, f)
	}
	return r
}

func emptyValue(s *schema.Schema, f schema.Field) value.Value {
	switch f.Shape {
	case schema.ListOfScalar, schema.ListOfStruct:
		return value.List{}
	case schema.Defaults:
		return emptyDefaults(s)
	default:
		return value.Null{}
	}
}

func emptyDefaults(s *schema.Schema) value.Object {
	d := make(value.Object)
	for _, name := range s.PointerFields() {
		d[name] = value.Null{}
	}
	return d
}

// Schema returns the catalog the Record conforms to.
func (r *Record) Schema() *schema.Schema {
	if r.schema == nil {
		return schema.Default()
	}
	return r.schema
}

// Get returns the value of field, or Null for fields outside the catalog.
// The returned value is shared with the Record and must not be modified.
func (r *Record) Get(field string) value.Value {
	v, ok := r.values[field]
	if !ok {
		return value.Null{}
	}
	return v
}

// List returns a list field's elements, or nil for non-list fields.
func (r *Record) List(field string) value.List {
	l, _ := r.values[field].(value.List)
	return l
}

// Set normalizes raw for field and stores it.
// The Record is unchanged when an error is returned.
func (r *Record) Set(field string, raw any) error {
	f, ok := r.Schema().Lookup(field)
	if !ok {
		return violation(field, "", "unknown field")
	}
	v, err := value.FromGo(raw)
	if err != nil {
		return violation(field, "", "%v", err)
	}
	n := normalizer{schema: r.Schema()}
	norm, err := n.field(f, v)
	if err != nil {
		return err
	}
	r.ensure()
	r.values[field] = norm
	return nil
}

// ensure gives a zero Record its empty canonical values.
func (r *Record) ensure() {
	if r.values == nil {
		*r = *NewWith(r.Schema())
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	r.ensure()
	return &Record{schema: r.schema, values: value.CloneObject(r.values)}
}

// Object flattens the Record to a field-name keyed Object. The result is a
// copy; FromObject turns it back into a Record.
func (r *Record) Object() value.Object {
	r.ensure()
	return value.CloneObject(r.values)
}

// Equal reports whether both Records hold deeply equal values for every
// field, list order included.
func (r *Record) Equal(other *Record) bool {
	r.ensure()
	other.ensure()
	return value.Equal(r.values, other.values)
}

// Equivalent is like Equal but compares list fields as multisets: every
// element must occur the same number of times on both sides, in any order.
// Patching other with r.Diff(other) yields a Record equivalent to r.
func (r *Record) Equivalent(other *Record) bool {
	r.ensure()
	other.ensure()
	for _, f := range r.Schema().Fields() {
		a, b := r.values[f.Name], other.values[f.Name]
		if f.Shape.IsList() {
			al, _ := a.(value.List)
			bl, _ := b.(value.List)
			added, removed := listDelta(al, bl)
			if len(added) > 0 || len(removed) > 0 {
				return false
			}
			continue
		}
		if !value.Equal(a, b) {
			return false
		}
	}
	return true
}

// Canonical returns the canonical JSON encoding of the Record.
func (r *Record) Canonical() ([]byte, error) {
	r.ensure()
	return value.MarshalCanonical(r.values)
}

// Hash returns the content hash identifying this revision of the Record.
func (r *Record) Hash() (string, error) {
	r.ensure()
	return value.Hash(value.DomainRecord, r.values)
}

// MarshalJSON encodes the Record with fields in catalog order.
func (r *Record) MarshalJSON() ([]byte, error) {
	r.ensure()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Schema().Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		b, err := value.Marshal(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes and normalizes a Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := value.Unmarshal(data)
	if err != nil {
		return err
	}
	obj, ok := v.(value.Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", value.Kind(v))
	}
	rec, err := normalizer{schema: r.Schema()}.record(obj)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}
