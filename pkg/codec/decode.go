package codec

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/registry"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

// slot is one entry of the decode identity table.
type slot struct {
	v     reflect.Value // pointer for reflect-built records, instance for factories
	deref bool          // hand out v.Elem() (non-struct setter types)
}

func (s slot) filled() bool { return s.v.IsValid() }

func (s slot) value() reflect.Value {
	if s.deref {
		return s.v.Elem()
	}
	return s.v
}

// fixup is a ref waiting for its target.
type fixup struct {
	typeName string
	index    int
	assign   func(target reflect.Value) error
}

// valueCopy stores *src in dst once the graph is complete.
type valueCopy struct {
	dst, src reflect.Value
	done     bool
}

// decodeState holds the identity table and queued work of one decode call.
type decodeState struct {
	c        *Codec
	table    map[string][]slot
	fixups   []fixup
	deferred []func() error
	copies   []*valueCopy
	records  int
}

func newDecodeState(c *Codec) *decodeState {
	return &decodeState{c: c, table: make(map[string][]slot)}
}

func (s *decodeState) finish(root string, d time.Duration, err error) {
	if err != nil {
		s.c.logger.Debug("decode failed", "root", root, "err", err)
	} else {
		s.c.logger.Debug("decoded graph", "root", root, "records", s.records, "refs", len(s.fixups), "duration", d)
	}
	observability.Codec().OnDecode(root, s.records, len(s.fixups), d, err)
}

// reserve appends an empty slot for typeName and returns its index.
func (s *decodeState) reserve(typeName string) int {
	idx := len(s.table[typeName])
	s.table[typeName] = append(s.table[typeName], slot{})
	s.records++
	return idx
}

func (s *decodeState) fill(typeName string, idx int, sl slot) {
	s.table[typeName][idx] = sl
}

// placeholder queues a fix-up for ref.
func (s *decodeState) placeholder(ref *tagged.Value, assign func(reflect.Value) error) {
	s.fixups = append(s.fixups, fixup{
		typeName: ref.TypeName(),
		index:    ref.Index(),
		assign:   assign,
	})
}

// resolve applies every fix-up in recording order, then the deferred
// assignments, then the value copies.
func (s *decodeState) resolve() error {
	for _, fx := range s.fixups {
		slots := s.table[fx.typeName]
		if fx.index >= len(slots) || !slots[fx.index].filled() {
			return errors.ReferenceNotFound(fx.typeName, fx.index)
		}
		if err := fx.assign(slots[fx.index].value()); err != nil {
			return err
		}
	}
	// Deferred work may queue more deferred work.
	for i := 0; i < len(s.deferred); i++ {
		if err := s.deferred[i](); err != nil {
			return err
		}
	}
	s.runCopies()
	return nil
}

// runCopies performs the queued value copies. A copy whose source memory
// holds the destination of other copies runs after them, so chains of
// value fields see their complete targets.
func (s *decodeState) runCopies() {
	slices.SortFunc(s.copies, func(a, b *valueCopy) int {
		return cmp.Compare(a.dst.UnsafeAddr(), b.dst.UnsafeAddr())
	})
	for _, vc := range s.copies {
		s.copyValue(vc)
	}
}

func (s *decodeState) copyValue(vc *valueCopy) {
	if vc.done {
		return
	}
	vc.done = true
	lo := vc.src.Pointer()
	hi := lo + vc.src.Type().Elem().Size()
	i := sort.Search(len(s.copies), func(i int) bool {
		return s.copies[i].dst.UnsafeAddr() >= lo
	})
	for ; i < len(s.copies) && s.copies[i].dst.UnsafeAddr() < hi; i++ {
		s.copyValue(s.copies[i])
	}
	vc.dst.Set(vc.src.Elem())
}

// decode materializes tv into dst, which must be settable.
func (s *decodeState) decode(tv *tagged.Value, dst reflect.Value, path string) error {
	switch tv.Kind() {
	case tagged.KindUndefined:
		return nil
	case tagged.KindNull:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	case tagged.KindRef:
		s.placeholder(tv, func(target reflect.Value) error {
			return s.assign(dst, target, path)
		})
		return nil
	case tagged.KindRecord:
		return s.record(tv, dst, path)
	}

	switch dst.Kind() {
	case reflect.Interface:
		v, err := s.generic(tv, path)
		if err != nil {
			return err
		}
		return setInterface(dst, v, path)
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return s.decode(tv, dst.Elem(), path)
	}

	switch tv.Kind() {
	case tagged.KindNumber:
		return setNumber(dst, tv.Num(), path)
	case tagged.KindString:
		if dst.Kind() != reflect.String {
			return mismatch(path, tagged.TagString, dst.Type())
		}
		dst.SetString(tv.Str())
		return nil
	case tagged.KindBoolean:
		if dst.Kind() != reflect.Bool {
			return mismatch(path, tagged.TagBoolean, dst.Type())
		}
		dst.SetBool(tv.Boolean())
		return nil
	case tagged.KindDate:
		if dst.Type() != timeType {
			return mismatch(path, tagged.TagDate, dst.Type())
		}
		t, err := tv.Time()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: invalid date", path)
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	case tagged.KindArray:
		return s.array(tv, dst, path)
	}
	return errors.New(errors.ErrCodeInternal, "%s: unknown value kind %s", path, tv.Kind())
}

// generic converts a non-record value to the form handed to interface
// destinations.
func (s *decodeState) generic(tv *tagged.Value, path string) (reflect.Value, error) {
	switch tv.Kind() {
	case tagged.KindNumber:
		if s.c.useNumber {
			return reflect.ValueOf(tv.Num()), nil
		}
		f, err := strconv.ParseFloat(string(tv.Num()), 64)
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.ErrCodeUnsupportedValue, err, "%s: number %s", path, tv.Num())
		}
		return reflect.ValueOf(f), nil
	case tagged.KindString:
		return reflect.ValueOf(tv.Str()), nil
	case tagged.KindBoolean:
		return reflect.ValueOf(tv.Boolean()), nil
	case tagged.KindDate:
		t, err := tv.Time()
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: invalid date", path)
		}
		return reflect.ValueOf(t), nil
	case tagged.KindArray:
		list := reflect.MakeSlice(anySliceType, tv.Len(), tv.Len())
		if err := s.elements(tv, list, path); err != nil {
			return reflect.Value{}, err
		}
		return list, nil
	}
	return reflect.Value{}, errors.New(errors.ErrCodeInternal, "%s: no generic form for %s", path, tv.Kind())
}

// array decodes an Array node into a slice or array destination.
func (s *decodeState) array(tv *tagged.Value, dst reflect.Value, path string) error {
	switch dst.Kind() {
	case reflect.Slice:
		list := reflect.MakeSlice(dst.Type(), tv.Len(), tv.Len())
		dst.Set(list)
		return s.elements(tv, list, path)
	case reflect.Array:
		dst.Set(reflect.Zero(dst.Type()))
		return s.elements(tv, dst, path)
	}
	return mismatch(path, tagged.TagArray, dst.Type())
}

// elements decodes the items of tv into list in place. Items beyond the
// length of a fixed-size array are ignored.
func (s *decodeState) elements(tv *tagged.Value, list reflect.Value, path string) error {
	for i, item := range tv.Items() {
		if i >= list.Len() {
			break
		}
		if err := s.decode(item, list.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// record materializes a Record node. The index is reserved before any
// field is visited so it matches the encoder's pre-order numbering.
func (s *decodeState) record(tv *tagged.Value, dst reflect.Value, path string) error {
	d, ok := s.c.reg.LookupByName(tv.TypeName())
	if !ok {
		s.c.logger.Debug("unknown record type", "type", tv.TypeName(), "registered", s.c.reg.Names())
		return errors.TypeNotRegistered(strconv.Quote(tv.TypeName()))
	}
	idx := s.reserve(d.Name)

	if d.HasFactory() || d.UsesSetter() {
		inst, err := s.construct(d, idx, tv, path)
		if err != nil {
			return err
		}
		return s.assign(dst, inst, path)
	}

	// Value-typed destinations of the record type are filled in place.
	if dst.Kind() == reflect.Struct && dst.Type() == d.Type && dst.CanAddr() {
		s.fill(d.Name, idx, slot{v: dst.Addr()})
		return s.structFields(tv, dst, path)
	}

	ptr := d.New()
	s.fill(d.Name, idx, slot{v: ptr})
	if err := s.assign(dst, ptr, path); err != nil {
		return err
	}
	return s.structFields(tv, ptr.Elem(), path)
}

// structFields decodes the fields of tv into the struct dst. Fields the
// struct does not have are still materialized so that nested records keep
// their indices and unregistered types are reported.
func (s *decodeState) structFields(tv *tagged.Value, dst reflect.Value, path string) error {
	plan := cachedFields(dst.Type())
	for _, f := range tv.Fields() {
		fpath := path + "." + f.Name
		sf, ok := plan.lookup(f.Name)
		if !ok {
			var discard any
			if err := s.decode(f.Value, reflect.ValueOf(&discard).Elem(), fpath); err != nil {
				return err
			}
			continue
		}
		if err := s.decode(f.Value, dst.FieldByIndex(sf.index), fpath); err != nil {
			return err
		}
	}
	return nil
}

// construct builds a record through its factory or FieldSetter. Fields are
// materialized generically; fields that held refs are assigned by name on
// the instance once the refs resolve.
func (s *decodeState) construct(d registry.Descriptor, idx int, tv *tagged.Value, path string) (reflect.Value, error) {
	var inst reflect.Value
	setLater := func(name string, v reflect.Value, fpath string) error {
		return s.setNamed(inst, name, v, fpath)
	}

	fields := make(registry.Fields, tv.Len())
	var order []string
	for _, f := range tv.Fields() {
		name, fpath := f.Name, path+"."+f.Name
		switch f.Value.Kind() {
		case tagged.KindUndefined:
			continue
		case tagged.KindRef:
			fields[name] = nil
			s.placeholder(f.Value, func(target reflect.Value) error {
				return setLater(name, target, fpath)
			})
			continue
		}

		var holder any
		if err := s.decode(f.Value, reflect.ValueOf(&holder).Elem(), fpath); err != nil {
			return reflect.Value{}, err
		}
		fields[name] = holder
		order = append(order, name)
		if holdsRefs(f.Value) {
			s.deferred = append(s.deferred, func() error {
				return setLater(name, reflect.ValueOf(holder), fpath)
			})
		}
	}

	if d.HasFactory() {
		obj, err := d.Factory(fields)
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.ErrCodeInternal, err, "%s: factory for %q", path, d.Name)
		}
		if obj == nil {
			return reflect.Value{}, errors.New(errors.ErrCodeInternal, "%s: factory for %q returned nil", path, d.Name)
		}
		inst = reflect.ValueOf(obj)
		s.fill(d.Name, idx, slot{v: inst})
		return inst, nil
	}

	inst = d.New()
	sl := slot{v: inst, deref: d.Type.Kind() != reflect.Struct}
	s.fill(d.Name, idx, sl)
	setter := inst.Interface().(registry.FieldSetter)
	for _, name := range order {
		if err := setter.SetField(name, fields[name]); err != nil {
			return reflect.Value{}, errors.Wrap(errors.ErrCodeTypeMismatch, err, "%s.%s", path, name)
		}
	}
	return sl.value(), nil
}

// setNamed assigns v to the field called name on inst, through SetField
// when available. Fields the instance does not have are skipped. An
// instance that is neither a FieldSetter nor a settable struct cannot
// receive refs and fails with TYPE_MISMATCH.
func (s *decodeState) setNamed(inst reflect.Value, name string, v reflect.Value, path string) error {
	if !inst.IsValid() {
		return nil
	}
	if inst.CanInterface() {
		if fs, ok := inst.Interface().(registry.FieldSetter); ok {
			var arg any
			if v.IsValid() {
				arg = v.Interface()
			}
			if err := fs.SetField(name, arg); err != nil {
				return errors.Wrap(errors.ErrCodeTypeMismatch, err, "%s", path)
			}
			return nil
		}
	}

	target := inst
	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			return nil
		}
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct || !target.CanSet() {
		return errors.New(errors.ErrCodeTypeMismatch,
			"%s: cannot set reference field %q on %s, return a pointer or implement FieldSetter", path, name, inst.Type())
	}
	sf, ok := cachedFields(target.Type()).lookup(name)
	if !ok {
		return nil
	}
	return s.assign(target.FieldByIndex(sf.index), v, path)
}

// holdsRefs reports whether an array contains refs, directly or through
// nested arrays.
func holdsRefs(tv *tagged.Value) bool {
	if tv.Kind() != tagged.KindArray {
		return false
	}
	for _, item := range tv.Items() {
		if item.Kind() == tagged.KindRef || holdsRefs(item) {
			return true
		}
	}
	return false
}
