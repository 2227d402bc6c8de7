package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed fields.cue
var fieldsCUE []byte

// Shape is the value shape of a field or sub-attribute.
type Shape int

const (
	// Scalar holds a single value or null.
	Scalar Shape = iota + 1
	// ListOfScalar holds an ordered sequence of scalars.
	ListOfScalar
	// ListOfStruct holds an ordered sequence of sub-records.
	ListOfStruct
	// Defaults holds the per-pointer-field default selections.
	// The Differ and Patcher treat it as Scalar.
	Defaults
)

var shapeNames = map[string]Shape{
	"scalar":       Scalar,
	"listOfScalar": ListOfScalar,
	"listOfStruct": ListOfStruct,
	"defaults":     Defaults,
}

func (s Shape) String() string {
	for name, shape := range shapeNames {
		if shape == s {
			return name
		}
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// IsList reports whether the shape is one of the list kinds.
func (s Shape) IsList() bool {
	return s == ListOfScalar || s == ListOfStruct
}

// Field is one entry of the catalog.
type Field struct {
	Name  string
	Shape Shape

	// Date marks date-bearing scalar fields (bday, anniversary).
	Date bool

	// Pointer marks fields whose entries can be chosen as the default.
	Pointer bool

	// Sub declares sub-attribute shapes for ListOfStruct fields.
	Sub map[string]Shape
}

// SubShape returns the declared shape of a sub-attribute.
// Undeclared sub-attributes are Scalar.
func (f Field) SubShape(attr string) Shape {
	if s, ok := f.Sub[attr]; ok {
		return s
	}
	return Scalar
}

// Schema is an ordered, immutable field catalog.
type Schema struct {
	fields []Field
	byName map[string]int
}

// LoadError reports a problem in a catalog source with its position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
)

// Default returns the built-in contact catalog.
// Panics if the embedded catalog fails to compile; tests guard against that.
func Default() *Schema {
	defaultOnce.Do(func() {
		s, err := Load(fieldsCUE)
		if err != nil {
			panic(fmt.Sprintf("schema: embedded catalog: %v", err))
		}
		defaultSchema = s
	})
	return defaultSchema
}

// Load compiles a CUE catalog source into a Schema.
func Load(src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename("fields.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &LoadError{Field: "fields", Message: "fields list is required", Pos: v.Pos()}
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{byName: make(map[string]int)}
	for iter.Next() {
		f, err := parseField(iter.Value())
		if err != nil {
			return nil, err
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, &LoadError{Field: f.Name, Message: "duplicate field", Pos: iter.Value().Pos()}
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	if len(s.fields) == 0 {
		return nil, &LoadError{Field: "fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}

	return s, nil
}

// parseField extracts a single Field from its CUE struct.
func parseField(v cue.Value) (Field, error) {
	var f Field

	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Name = name

	shapeName, err := v.LookupPath(cue.ParsePath("shape")).String()
	if err != nil {
		return f, formatCUEError(err)
	}
	shape, ok := shapeNames[shapeName]
	if !ok {
		return f, &LoadError{Field: name, Message: fmt.Sprintf("unknown shape %q", shapeName), Pos: v.Pos()}
	}
	f.Shape = shape

	if f.Date, err = lookupBool(v, "date"); err != nil {
		return f, err
	}
	if f.Pointer, err = lookupBool(v, "pointer"); err != nil {
		return f, err
	}

	if f.Date && f.Shape != Scalar {
		return f, &LoadError{Field: name, Message: "date fields must be scalar", Pos: v.Pos()}
	}
	if f.Pointer && !f.Shape.IsList() {
		return f, &LoadError{Field: name, Message: "pointer fields must be lists", Pos: v.Pos()}
	}

	subVal := v.LookupPath(cue.ParsePath("sub"))
	if !subVal.Exists() {
		return f, nil
	}
	subIter, err := subVal.Fields()
	if err != nil {
		return f, formatCUEError(err)
	}
	for subIter.Next() {
		if f.Shape != ListOfStruct {
			return f, &LoadError{Field: name, Message: "only listOfStruct fields declare sub-attributes", Pos: v.Pos()}
		}
		subName, err := subIter.Value().String()
		if err != nil {
			return f, formatCUEError(err)
		}
		if f.Sub == nil {
			f.Sub = make(map[string]Shape)
		}
		subShape, ok := shapeNames[subName]
		if !ok || (subShape != Scalar && subShape != ListOfScalar) {
			return f, &LoadError{Field: name + "." + subIter.Label(), Message: fmt.Sprintf("unknown sub-attribute shape %q", subName), Pos: subIter.Value().Pos()}
		}
		f.Sub[subIter.Label()] = subShape
	}

	return f, nil
}

// lookupBool reads an optional boolean, resolving CUE defaults.
func lookupBool(v cue.Value, path string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(path))
	if !bv.Exists() {
		return false, nil
	}
	if d, ok := bv.Default(); ok {
		bv = d
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

// Lookup returns the field named name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns the catalog in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// IsPointer reports whether name is a pointer-capable field.
func (s *Schema) IsPointer(name string) bool {
	f, ok := s.Lookup(name)
	return ok && f.Pointer
}

// PointerFields returns the pointer-capable field names in declaration order.
func (s *Schema) PointerFields() []string {
	var names []string
	for _, f := range s.fields {
		if f.Pointer {
			names = append(names, f.Name)
		}
	}
	return names
}
