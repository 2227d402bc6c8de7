package contact

import "github.com/roach88/ensemble/internal/value"

// ApplyDiff patches r with d and returns r.
//
// For each field, a changed value replaces the current one, then each
// removed element takes out one deeply equal element, then every added
// element is appended. Added entries are never checked against the list:
// a Diff computed against the same base already accounts for what the list
// holds, and skipping a repeat would lose it.
//
// Every field name and value in d is validated and normalized before r is
// touched; on error r is unchanged.
func (r *Record) ApplyDiff(d Diff) (*Record, error) {
	r.ensure()

	p, err := r.planPatch(d)
	if err != nil {
		return nil, err
	}

	for _, f := range r.Schema().Fields() {
		if v, ok := p.changed[f.Name]; ok {
			r.values[f.Name] = v
		}
		removed, hasRemoved := p.removed[f.Name]
		added, hasAdded := p.added[f.Name]
		if !hasRemoved && !hasAdded {
			continue
		}

		cur, _ := r.values[f.Name].(value.List)
		cur = removeEach(cur, removed)
		cur = appendAll(cur, added)
		r.values[f.Name] = cur
	}
	return r, nil
}

type patchPlan struct {
	changed map[string]value.Value
	added   map[string]value.List
	removed map[string]value.List
}

func (r *Record) planPatch(d Diff) (patchPlan, error) {
	n := normalizer{schema: r.Schema()}
	p := patchPlan{
		changed: make(map[string]value.Value, len(d.Changed)),
		added:   make(map[string]value.List, len(d.Added)),
		removed: make(map[string]value.List, len(d.Removed)),
	}

	for _, name := range d.Changed.SortedKeys() {
		f, ok := n.schema.Lookup(name)
		if !ok {
			return p, violation(name, "", "unknown field in changed")
		}
		v, err := n.field(f, d.Changed[name])
		if err != nil {
			return p, err
		}
		p.changed[name] = v
	}

	lists := []struct {
		label string
		src   value.Object
		dst   map[string]value.List
	}{
		{"added", d.Added, p.added},
		{"removed", d.Removed, p.removed},
	}
	for _, part := range lists {
		for _, name := range part.src.SortedKeys() {
			f, ok := n.schema.Lookup(name)
			if !ok {
				return p, violation(name, "", "unknown field in %s", part.label)
			}
			if !f.Shape.IsList() {
				return p, violation(name, "", "%s field cannot appear in %s", f.Shape, part.label)
			}
			v, err := n.field(f, part.src[name])
			if err != nil {
				return p, err
			}
			part.dst[name] = v.(value.List)
		}
	}
	return p, nil
}

// removeEach drops one deeply equal element of list per entry in removed.
// Entries with no match are ignored.
func removeEach(list, removed value.List) value.List {
	out := append(value.List{}, list...)
	for _, elem := range removed {
		if i := value.IndexOf(out, elem); i >= 0 {
			out = append(out[:i], out[i+1:]...)
		}
	}
	return out
}

// appendAll appends a copy of every entry of added.
func appendAll(list, added value.List) value.List {
	for _, elem := range added {
		list = append(list, value.Clone(elem))
	}
	return list
}
