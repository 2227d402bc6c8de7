package contact

import (
	"strconv"
	"strings"

	"github.com/roach88/ensemble/internal/value"
)

// NameOrder selects how DisplayName combines name parts.
type NameOrder int

const (
	// GivenFirst renders "Given Family".
	GivenFirst NameOrder = iota
	// FamilyFirst renders "Family, Given".
	FamilyFirst
)

// DisplayName returns the name to show for the contact.
//
// A non-empty name field is used as-is for both orderings. Otherwise the
// givenName and familyName parts are each joined with spaces and combined
// per order.
func (r *Record) DisplayName(order NameOrder) string {
	if name := joinText(r.List("name")); name != "" {
		return name
	}

	given := joinText(r.List("givenName"))
	family := joinText(r.List("familyName"))
	if given == "" || family == "" {
		return given + family
	}
	if order == FamilyFirst {
		return family + ", " + given
	}
	return given + " " + family
}

func joinText(list value.List) string {
	parts := make([]string, 0, len(list))
	for _, elem := range list {
		if s := text(elem); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// text renders a scalar for display.
func text(v value.Value) string {
	switch val := v.(type) {
	case value.String:
		return strings.TrimSpace(string(val))
	case value.Int:
		return strconv.FormatInt(int64(val), 10)
	case value.Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case value.Bool:
		return strconv.FormatBool(bool(val))
	case value.Time:
		return val.String()
	default:
		return ""
	}
}

// DefaultFor resolves the default entry of a pointer-capable field: the
// designated default if one is set, else the field's first element.
// It returns value.Null{} and false when there is neither.
func (r *Record) DefaultFor(field string) (value.Value, bool) {
	if !r.Schema().IsPointer(field) {
		return value.Null{}, false
	}
	if defaults, ok := r.Get("defaults").(value.Object); ok {
		if d := defaults[field]; !value.IsNull(d) {
			return d, true
		}
	}
	if list := r.List(field); len(list) > 0 {
		return list[0], true
	}
	return value.Null{}, false
}

// DefaultEmail resolves the default email sub-record.
func (r *Record) DefaultEmail() (value.Value, bool) { return r.DefaultFor("email") }

// DefaultTel resolves the default telephone sub-record.
func (r *Record) DefaultTel() (value.Value, bool) { return r.DefaultFor("tel") }

// DefaultImpp resolves the default instant messaging sub-record.
func (r *Record) DefaultImpp() (value.Value, bool) { return r.DefaultFor("impp") }

// DefaultPhoto resolves the default photo.
func (r *Record) DefaultPhoto() (value.Value, bool) { return r.DefaultFor("photo") }
