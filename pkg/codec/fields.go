package codec

import (
	"reflect"
	"strings"
	"sync"
)

// structField is one encodable field of a struct type.
type structField struct {
	name      string
	index     []int
	typ       reflect.Type
	omitEmpty bool
}

// structFields is the field plan of a struct type, in declaration order.
type structFields struct {
	list   []structField
	byName map[string]int
}

var fieldCache sync.Map // map[reflect.Type]*structFields

// cachedFields returns the field plan for the struct type t.
func cachedFields(t reflect.Type) *structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structFields)
	}
	f, _ := fieldCache.LoadOrStore(t, typeFields(t))
	return f.(*structFields)
}

// lookup finds a field by its encoded name, falling back to a
// case-insensitive match.
func (f *structFields) lookup(name string) (structField, bool) {
	if i, ok := f.byName[name]; ok {
		return f.list[i], true
	}
	for _, sf := range f.list {
		if strings.EqualFold(sf.name, name) {
			return sf, true
		}
	}
	return structField{}, false
}

// tagsWithNames are consulted in order for a field's encoded name.
var tagsWithNames = []string{"typegraph", "json"}

func typeFields(t reflect.Type) *structFields {
	f := &structFields{byName: map[string]int{}}
	collectFields(t, nil, f)
	return f
}

func collectFields(t reflect.Type, parent []int, f *structFields) {
	for i := range t.NumField() {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		name, opts, named := fieldTag(&sf)
		if name == "-" && opts == "" {
			continue
		}

		// Embedded structs without a name of their own are flattened.
		if sf.Anonymous && !named && sf.Type.Kind() == reflect.Struct {
			if sf.IsExported() {
				collectFields(sf.Type, index, f)
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, dup := f.byName[name]; dup {
			continue
		}
		f.byName[name] = len(f.list)
		f.list = append(f.list, structField{
			name:      name,
			index:     index,
			typ:       sf.Type,
			omitEmpty: hasOption(opts, "omitempty"),
		})
	}
}

// fieldTag returns the name and options from the first tag that carries
// them, and whether that tag set an explicit name.
func fieldTag(sf *reflect.StructField) (name, opts string, named bool) {
	for _, key := range tagsWithNames {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, opts, _ = strings.Cut(tag, ",")
		if name == "-" && opts == "" {
			return name, "", true
		}
		if name != "" || opts != "" {
			return name, opts, name != ""
		}
	}
	return "", "", false
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

// isEmptyValue reports whether v is empty in the omitempty sense.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	case reflect.Struct:
		return v.IsZero()
	}
	return false
}
