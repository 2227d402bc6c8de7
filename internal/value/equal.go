package value

// Equal reports deep structural equality of a and b.
//
// Lists compare element-wise in order, Objects compare by key set regardless
// of insertion order, Times compare by instant, and a nil interface equals
// Null. This is the only equality used for set-like comparison of record
// fields.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}

	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && av.Std().Equal(bv.Std())
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aElem := range av {
			bElem, present := bv[k]
			if !present || !Equal(aElem, bElem) {
				return false
			}
		}
		return true
	}
	return false
}

// IndexOf returns the index of the first element of list deeply equal to v,
// or -1.
func IndexOf(list List, v Value) int {
	for i, elem := range list {
		if Equal(elem, v) {
			return i
		}
	}
	return -1
}

// Contains reports whether list holds an element deeply equal to v.
func Contains(list List, v Value) bool {
	return IndexOf(list, v) >= 0
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case List:
		return CloneList(val)
	case Object:
		return CloneObject(val)
	default:
		return val
	}
}

// CloneList returns a deep copy of l. A nil list clones to an empty list.
func CloneList(l List) List {
	out := make(List, len(l))
	for i, elem := range l {
		out[i] = Clone(elem)
	}
	return out
}

// CloneObject returns a deep copy of obj.
func CloneObject(obj Object) Object {
	out := make(Object, len(obj))
	for k, elem := range obj {
		out[k] = Clone(elem)
	}
	return out
}
