package registry

import (
	"encoding/json"
	"reflect"
	"time"
)

// Factory constructs an instance of a registered type from its decoded
// fields. Fields holding back-references are nil while the factory runs and
// are assigned on the returned instance once references are resolved.
//
// For that assignment the instance must be a pointer to a struct or
// implement FieldSetter. A struct returned by value cannot receive
// references and the decode fails with TYPE_MISMATCH.
type Factory func(fields Fields) (any, error)

// Descriptor associates a type name with a Go type and its construction
// capability.
type Descriptor struct {
	Name    string
	Type    reflect.Type // always the non-pointer type
	Factory Factory      // optional
}

// HasFactory reports whether instances are built by a Factory.
func (d Descriptor) HasFactory() bool { return d.Factory != nil }

// UsesSetter reports whether decoded fields are assigned through
// FieldSetter rather than struct reflection.
func (d Descriptor) UsesSetter() bool {
	return d.Factory == nil && reflect.PointerTo(d.Type).Implements(fieldSetterType)
}

// Describer reports whether values of the type enumerate their own fields.
func (d Descriptor) Describer() bool {
	return d.Type.Implements(fieldDescriberType) || reflect.PointerTo(d.Type).Implements(fieldDescriberType)
}

// New allocates a zero instance and returns a pointer to it.
func (d Descriptor) New() reflect.Value { return reflect.New(d.Type) }

// Field is a single named value of a record, in declaration order.
type Field struct {
	Name  string
	Value any
}

// FieldDescriber lets a record type enumerate its own fields instead of
// having them discovered by reflection.
type FieldDescriber interface {
	DescribeFields() []Field
}

// FieldSetter lets a record type accept decoded fields one by one. Types
// that are not structs need it (or a Factory) to be decodable.
type FieldSetter interface {
	SetField(name string, value any) error
}

var (
	fieldDescriberType = reflect.TypeFor[FieldDescriber]()
	fieldSetterType    = reflect.TypeFor[FieldSetter]()
)

// describable reports whether values of t can be enumerated as records.
func describable(t reflect.Type) bool {
	return t.Kind() == reflect.Struct ||
		t.Implements(fieldDescriberType) ||
		reflect.PointerTo(t).Implements(fieldDescriberType)
}

// constructible reports whether t can be built without a factory.
func constructible(t reflect.Type) bool {
	return t.Kind() == reflect.Struct || reflect.PointerTo(t).Implements(fieldSetterType)
}

// Fields holds the decoded field values handed to a Factory.
//
// Values are generic: nil, bool, string, float64 (or json.Number when the
// codec uses numbers), time.Time, []any, or a pointer to a decoded record.
type Fields map[string]any

// Get returns the raw value of a field.
func (f Fields) Get(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// String returns a string field, or "" if absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Float returns a numeric field as float64, or 0.
func (f Fields) Float(name string) float64 {
	switch v := f[name].(type) {
	case float64:
		return v
	case json.Number:
		n, _ := v.Float64()
		return n
	}
	return 0
}

// Int returns a numeric field as int64, or 0.
func (f Fields) Int(name string) int64 {
	switch v := f[name].(type) {
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		n, _ := v.Float64()
		return int64(n)
	}
	return 0
}

// Bool returns a boolean field, or false.
func (f Fields) Bool(name string) bool {
	b, _ := f[name].(bool)
	return b
}

// Time returns a date field, or the zero time.
func (f Fields) Time(name string) time.Time {
	t, _ := f[name].(time.Time)
	return t
}

// Slice returns an array field, or nil.
func (f Fields) Slice(name string) []any {
	s, _ := f[name].([]any)
	return s
}
