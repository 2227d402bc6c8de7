package contact

import (
	"github.com/roach88/ensemble/internal/schema"
	"github.com/roach88/ensemble/internal/value"
)

// Merge folds other into r and returns r. other is not modified.
//
// List fields become r's elements followed by every element of other not
// already present in the accumulated result. Scalar fields keep r's value
// unless it is null. Each pointer field's default is chosen the same way.
// Both Records must share a catalog.
func (r *Record) Merge(other *Record) *Record {
	r.ensure()
	other.ensure()

	for _, f := range r.Schema().Fields() {
		self, theirs := r.values[f.Name], other.values[f.Name]

		switch {
		case f.Shape.IsList():
			acc, _ := self.(value.List)
			theirList, _ := theirs.(value.List)
			for _, elem := range theirList {
				if !value.Contains(acc, elem) {
					acc = append(acc, value.Clone(elem))
				}
			}
			if acc == nil {
				acc = value.List{}
			}
			r.values[f.Name] = acc

		case f.Shape == schema.Defaults:
			selfDefaults, _ := self.(value.Object)
			theirDefaults, _ := theirs.(value.Object)
			merged := emptyDefaults(r.Schema())
			for name := range merged {
				merged[name] = preferSelf(selfDefaults[name], theirDefaults[name])
			}
			r.values[f.Name] = merged

		default:
			r.values[f.Name] = preferSelf(self, theirs)
		}
	}
	return r
}

func preferSelf(self, other value.Value) value.Value {
	if !value.IsNull(self) {
		return self
	}
	return value.Clone(other)
}
