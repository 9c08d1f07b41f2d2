package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/registry"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

var (
	timeType       = reflect.TypeFor[time.Time]()
	jsonNumberType = reflect.TypeFor[json.Number]()
	anySliceType   = reflect.TypeFor[[]any]()
)

// identityKey identifies a pointer or map during one encode pass.
type identityKey struct {
	typ reflect.Type
	ptr uintptr
}

// encodeState is the identity table of one encode call.
type encodeState struct {
	c       *Codec
	seen    map[identityKey]int
	next    map[string]int
	records int
	refs    int
}

func newEncodeState(c *Codec) *encodeState {
	return &encodeState{
		c:    c,
		seen: make(map[identityKey]int),
		next: make(map[string]int),
	}
}

func (s *encodeState) finish(root string, d time.Duration, err error) {
	if err != nil {
		s.c.logger.Debug("encode failed", "root", root, "err", err)
	} else {
		s.c.logger.Debug("encoded graph", "root", root, "records", s.records, "refs", s.refs, "duration", d)
	}
	observability.Codec().OnEncode(root, s.records, s.refs, d, err)
}

// reserve hands out the next index for typeName.
func (s *encodeState) reserve(typeName string) int {
	idx := s.next[typeName]
	s.next[typeName] = idx + 1
	s.records++
	return idx
}

// isTopLevelList reports whether v renders as a bare JSON array.
func (s *encodeState) isTopLevelList(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return false
		}
	case reflect.Array:
	default:
		return false
	}
	_, record := s.c.reg.LookupByType(v.Type())
	return !record
}

// encode converts v. The second result reports an absent value, which
// callers drop instead of emitting.
func (s *encodeState) encode(v reflect.Value, path string) (*tagged.Value, bool, error) {
	if !v.IsValid() {
		return tagged.Null(), false, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return tagged.Null(), false, nil
		}
		return s.encode(v.Elem(), path)
	}
	if isAbsent(v) {
		return nil, true, nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return tagged.Null(), false, nil
		}
	}

	t := v.Type()
	switch t {
	case timeType:
		return tagged.Date(v.Interface().(time.Time)), false, nil
	case jsonNumberType:
		n := v.String()
		if n == "" {
			n = "0"
		}
		return tagged.Number(json.Number(n)), false, nil
	}

	if d, ok := s.c.reg.LookupByType(t); ok {
		tv, err := s.record(d, v, path)
		return tv, false, err
	}

	switch v.Kind() {
	case reflect.Pointer:
		return s.encode(v.Elem(), path)
	case reflect.Slice, reflect.Array:
		items, err := s.items(v, path)
		if err != nil {
			return nil, false, err
		}
		return tagged.Array(items...), false, nil
	case reflect.Bool:
		return tagged.Bool(v.Bool()), false, nil
	case reflect.String:
		return tagged.String(v.String()), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tagged.Number(json.Number(strconv.FormatInt(v.Int(), 10))), false, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return tagged.Number(json.Number(strconv.FormatUint(v.Uint(), 10))), false, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false, errors.New(errors.ErrCodeUnsupportedValue, "%s: unsupported number %v", path, f)
		}
		return tagged.Number(json.Number(formatFloat(f, t.Bits()))), false, nil
	case reflect.Struct, reflect.Map:
		s.c.logger.Debug("unregistered type", "type", t, "registered", s.c.reg.Names())
		return nil, false, errors.TypeNotRegistered(t.String())
	default:
		return nil, false, errors.New(errors.ErrCodeUnsupportedValue, "%s: unsupported kind %s", path, v.Kind())
	}
}

// items encodes the elements of a slice or array, dropping absent ones.
func (s *encodeState) items(v reflect.Value, path string) ([]*tagged.Value, error) {
	out := make([]*tagged.Value, 0, v.Len())
	for i := range v.Len() {
		tv, absent, err := s.encode(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if absent {
			continue
		}
		out = append(out, tv)
	}
	return out, nil
}

// record emits v as a record of d, or as a ref if this pointer or map was
// already reached in the current pass.
func (s *encodeState) record(d registry.Descriptor, v reflect.Value, path string) (*tagged.Value, error) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		key := identityKey{typ: v.Type(), ptr: v.Pointer()}
		if idx, ok := s.seen[key]; ok {
			s.refs++
			return tagged.Ref(d.Name, idx), nil
		}
		s.seen[key] = s.reserve(d.Name)
	default:
		s.reserve(d.Name)
	}

	fields, err := s.fields(d, v, path)
	if err != nil {
		return nil, err
	}
	return tagged.Record(d.Name, fields...), nil
}

func (s *encodeState) fields(d registry.Descriptor, v reflect.Value, path string) ([]tagged.Field, error) {
	if fd, ok := describer(v); ok {
		var out []tagged.Field
		for _, f := range fd.DescribeFields() {
			tv, absent, err := s.encode(reflect.ValueOf(f.Value), path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			if absent {
				continue
			}
			out = append(out, tagged.FieldVal(f.Name, tv))
		}
		return out, nil
	}

	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.NotEnumerable(d.Name)
	}

	plan := cachedFields(v.Type())
	out := make([]tagged.Field, 0, len(plan.list))
	for _, sf := range plan.list {
		fv := v.FieldByIndex(sf.index)
		if sf.omitEmpty && isEmptyValue(fv) {
			continue
		}
		tv, absent, err := s.encode(fv, path+"."+sf.name)
		if err != nil {
			return nil, err
		}
		if absent {
			continue
		}
		out = append(out, tagged.FieldVal(sf.name, tv))
	}
	return out, nil
}

// describer returns the FieldDescriber implemented by v or by a pointer
// to it.
func describer(v reflect.Value) (registry.FieldDescriber, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if fd, ok := v.Interface().(registry.FieldDescriber); ok {
		return fd, true
	}
	if v.Kind() == reflect.Pointer {
		return nil, false
	}
	var p reflect.Value
	if v.CanAddr() {
		p = v.Addr()
	} else {
		p = reflect.New(v.Type())
		p.Elem().Set(v)
	}
	fd, ok := p.Interface().(registry.FieldDescriber)
	return fd, ok
}

// formatFloat renders f the way encoding/json does: plain notation
// between 1e-6 and 1e21, exponent notation outside.
func formatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	b := strconv.AppendFloat(nil, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return string(b)
}
