package contact

import (
	"fmt"

	"github.com/roach88/ensemble/internal/schema"
	"github.com/roach88/ensemble/internal/value"
)

// Diff partitions the differences between two Records.
//
// Added and Removed hold list fields only, each mapped to the elements
// missing from the other side. Changed holds scalar fields (and defaults)
// mapped to the new value. A field absent from all three did not change.
type Diff struct {
	Added   value.Object
	Removed value.Object
	Changed value.Object
}

// Diff computes what separates r from other. Applying the result to a copy
// of other yields a Record whose scalar fields equal r's and whose list
// fields hold exactly r's elements, each with r's multiplicity. Only the
// order of list elements may differ.
//
// Diff is not symmetric; r.Diff(other).Added equals other.Diff(r).Removed.
// Added and Removed keep the order of elements in their source Record.
func (r *Record) Diff(other *Record) Diff {
	r.ensure()
	other.ensure()

	d := Diff{
		Added:   value.Object{},
		Removed: value.Object{},
		Changed: value.Object{},
	}
	for _, f := range r.Schema().Fields() {
		self, theirs := r.values[f.Name], other.values[f.Name]

		if !f.Shape.IsList() {
			if !value.Equal(self, theirs) {
				d.Changed[f.Name] = value.Clone(self)
			}
			continue
		}

		selfList, _ := self.(value.List)
		theirList, _ := theirs.(value.List)
		added, removed := listDelta(selfList, theirList)
		if len(added) > 0 {
			d.Added[f.Name] = added
		}
		if len(removed) > 0 {
			d.Removed[f.Name] = removed
		}
	}
	return d
}

// listDelta returns the elements of self left over after pairing each with
// at most one deeply equal element of other, and the unpaired elements of
// other. A value repeated in self is only paired as many times as it
// occurs in other.
func listDelta(self, other value.List) (added, removed value.List) {
	paired := make([]bool, len(other))
	for _, elem := range self {
		match := -1
		for j, candidate := range other {
			if !paired[j] && value.Equal(elem, candidate) {
				match = j
				break
			}
		}
		if match < 0 {
			added = append(added, value.Clone(elem))
			continue
		}
		paired[match] = true
	}
	for j, candidate := range other {
		if !paired[j] {
			removed = append(removed, value.Clone(candidate))
		}
	}
	return added, removed
}

// IsEmpty reports whether the Diff records no change.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Equal reports whether both Diffs hold deeply equal partitions.
func (d Diff) Equal(other Diff) bool {
	return value.Equal(d.Object(), other.Object())
}

// Fields returns the names of every field the Diff touches, in catalog
// order.
func (d Diff) Fields(s *schema.Schema) []string {
	var names []string
	for _, name := range s.Names() {
		_, a := d.Added[name]
		_, r := d.Removed[name]
		_, c := d.Changed[name]
		if a || r || c {
			names = append(names, name)
		}
	}
	return names
}

// Object returns the Diff as {"added", "removed", "changed"}.
func (d Diff) Object() value.Object {
	return value.Obj(
		value.O("added", partition(d.Added)),
		value.O("removed", partition(d.Removed)),
		value.O("changed", partition(d.Changed)),
	)
}

func partition(p value.Object) value.Object {
	if p == nil {
		return value.Object{}
	}
	return value.CloneObject(p)
}

// DiffFromObject rebuilds a Diff from its Object form. Missing partitions
// are empty. Field names and value shapes are checked by ApplyDiff.
func DiffFromObject(obj value.Object) (Diff, error) {
	d := Diff{Added: value.Object{}, Removed: value.Object{}, Changed: value.Object{}}
	for _, key := range obj.SortedKeys() {
		var dst *value.Object
		switch key {
		case "added":
			dst = &d.Added
		case "removed":
			dst = &d.Removed
		case "changed":
			dst = &d.Changed
		default:
			return Diff{}, violation(key, "", "unknown diff partition")
		}

		v := obj[key]
		if value.IsNull(v) {
			continue
		}
		p, ok := v.(value.Object)
		if !ok {
			return Diff{}, violation(key, "", "expected an object, got %s", value.Kind(v))
		}
		*dst = value.CloneObject(p)
	}
	return d, nil
}

// Canonical returns the canonical JSON encoding of the Diff.
func (d Diff) Canonical() ([]byte, error) {
	return value.MarshalCanonical(d.Object())
}

// Hash returns the content hash identifying the Diff.
func (d Diff) Hash() (string, error) {
	return value.Hash(value.DomainDiff, d.Object())
}

// MarshalJSON implements json.Marshaler.
func (d Diff) MarshalJSON() ([]byte, error) {
	return d.Object().MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Diff) UnmarshalJSON(data []byte) error {
	var obj value.Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode diff: %w", err)
	}
	parsed, err := DiffFromObject(obj)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
