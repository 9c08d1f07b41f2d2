package tagged

import (
	"encoding/json"
	"fmt"
	"time"
)

// Transport keys and discriminators.
const (
	TypeKey  = "__type"
	ValueKey = "__value"

	TagNull      = "null"
	TagUndefined = "undefined"
	TagNumber    = "Number"
	TagString    = "String"
	TagBoolean   = "Boolean"
	TagDate      = "Date"
	TagArray     = "Array"
	TagRef       = "ref"
)

// DateLayout is the rendering of Date values: UTC with millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindNumber
	KindString
	KindBoolean
	KindDate
	KindArray
	KindRecord
	KindRef
)

// String returns the discriminator for the kind. Records have no fixed
// discriminator and report "record".
func (k Kind) String() string {
	switch k {
	case KindNull:
		return TagNull
	case KindUndefined:
		return TagUndefined
	case KindNumber:
		return TagNumber
	case KindString:
		return TagString
	case KindBoolean:
		return TagBoolean
	case KindDate:
		return TagDate
	case KindArray:
		return TagArray
	case KindRecord:
		return "record"
	case KindRef:
		return TagRef
	default:
		return "unknown"
	}
}

// Value is a node of the tagged tree.
type Value struct {
	kind Kind

	// Scalars (only one valid based on kind)
	str  string      // String and Date literals
	num  json.Number // Number literal
	bool bool

	// Containers
	items  []*Value
	fields []Field

	// Records and refs
	typeName string
	index    int
}

// Field is a named member of a record, in document order.
type Field struct {
	Name  string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Null returns a null value.
func Null() *Value { return &Value{kind: KindNull} }

// Undefined returns an undefined value. It is produced only by parsing.
func Undefined() *Value { return &Value{kind: KindUndefined} }

// Number returns a number value from its literal.
func Number(n json.Number) *Value { return &Value{kind: KindNumber, num: n} }

// String returns a string value.
func String(s string) *Value { return &Value{kind: KindString, str: s} }

// Bool returns a boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBoolean, bool: b} }

// Date returns a date value for the instant t.
func Date(t time.Time) *Value { return &Value{kind: KindDate, str: t.UTC().Format(DateLayout)} }

// DateLiteral returns a date value from an already formatted instant.
func DateLiteral(s string) *Value { return &Value{kind: KindDate, str: s} }

// Array returns an array value.
func Array(items ...*Value) *Value { return &Value{kind: KindArray, items: items} }

// Record returns a record of the given type.
func Record(typeName string, fields ...Field) *Value {
	return &Value{kind: KindRecord, typeName: typeName, fields: fields}
}

// Ref returns a back-reference to the index-th record of typeName.
func Ref(typeName string, index int) *Value {
	return &Value{kind: KindRef, typeName: typeName, index: index}
}

// FieldVal builds a record field.
func FieldVal(name string, v *Value) Field { return Field{Name: name, Value: v} }

// ============================================================
// Accessors
// ============================================================

// Kind returns the variant of v.
func (v *Value) Kind() Kind { return v.kind }

// Discriminator returns the __type of v: the kind tag, or the type name for
// records.
func (v *Value) Discriminator() string {
	if v.kind == KindRecord {
		return v.typeName
	}
	return v.kind.String()
}

// TypeName returns the type name of a record or ref.
func (v *Value) TypeName() string { return v.typeName }

// Index returns the index of a ref.
func (v *Value) Index() int { return v.index }

// Items returns the elements of an array.
func (v *Value) Items() []*Value { return v.items }

// Fields returns the fields of a record in document order.
func (v *Value) Fields() []Field { return v.fields }

// Field returns the named field of a record.
func (v *Value) Field(name string) (*Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Num returns the literal of a number.
func (v *Value) Num() json.Number { return v.num }

// Str returns the literal of a string or date.
func (v *Value) Str() string { return v.str }

// Boolean returns the value of a boolean.
func (v *Value) Boolean() bool { return v.bool }

// Time parses the instant of a date.
func (v *Value) Time() (time.Time, error) {
	if v.kind != KindDate {
		return time.Time{}, fmt.Errorf("value is %s, not Date", v.kind)
	}
	return time.Parse(time.RFC3339Nano, v.str)
}

// Len returns the number of items or fields.
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindRecord:
		return len(v.fields)
	}
	return 0
}

// String renders v as compact transport JSON.
func (v *Value) String() string {
	b, err := Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.Discriminator(), err)
	}
	return string(b)
}

// ============================================================
// Documents
// ============================================================

// Document is the root of a transport text: one value or a list of values.
type Document struct {
	list   bool
	values []*Value
}

// Single returns a document holding one value.
func Single(v *Value) Document { return Document{values: []*Value{v}} }

// List returns a document holding a bare array of values.
func List(values ...*Value) Document { return Document{list: true, values: values} }

// IsList reports whether the document is a bare array.
func (d Document) IsList() bool { return d.list }

// Values returns the root values in order.
func (d Document) Values() []*Value { return d.values }

// Root returns the single root value, or nil for list documents.
func (d Document) Root() *Value {
	if d.list || len(d.values) == 0 {
		return nil
	}
	return d.values[0]
}
