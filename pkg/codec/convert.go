package codec

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"github.com/matzehuels/typegraph/pkg/errors"
)

// assign stores src in dst. A pointer landing in a field of its element
// type is queued as a value copy, see runCopies.
func (s *decodeState) assign(dst, src reflect.Value, path string) error {
	if src.IsValid() && src.Kind() == reflect.Interface {
		if src.IsNil() {
			src = reflect.Value{}
		} else {
			src = src.Elem()
		}
	}
	if !src.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	st, dt := src.Type(), dst.Type()
	switch {
	case st.AssignableTo(dt):
		dst.Set(src)
		return nil
	case st.Kind() == reflect.Pointer && st.Elem().AssignableTo(dt):
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		s.copies = append(s.copies, &valueCopy{dst: dst, src: src})
		return nil
	case dt.Kind() == reflect.Pointer && st.AssignableTo(dt.Elem()):
		p := reflect.New(dt.Elem())
		p.Elem().Set(src)
		dst.Set(p)
		return nil
	}
	return s.convert(dst, src, path)
}

// convert stores a generic value in a typed destination.
func (s *decodeState) convert(dst, src reflect.Value, path string) error {
	switch v := src.Interface().(type) {
	case json.Number:
		return setNumber(dst, v, path)
	case float64:
		if isNumberKind(dst.Kind()) {
			return setNumber(dst, json.Number(strconv.FormatFloat(v, 'f', -1, 64)), path)
		}
	case []any:
		switch dst.Kind() {
		case reflect.Slice:
			list := reflect.MakeSlice(dst.Type(), len(v), len(v))
			dst.Set(list)
			for i, item := range v {
				if err := s.assign(list.Index(i), reflect.ValueOf(item), path); err != nil {
					return err
				}
			}
			return nil
		case reflect.Array:
			dst.Set(reflect.Zero(dst.Type()))
			for i := 0; i < len(v) && i < dst.Len(); i++ {
				if err := s.assign(dst.Index(i), reflect.ValueOf(v[i]), path); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if src.Kind() == dst.Kind() && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return mismatch(path, src.Type().String(), dst.Type())
}

// setNumber parses a number literal into a numeric destination. Integer
// destinations only accept integral values that fit.
func setNumber(dst reflect.Value, n json.Number, path string) error {
	lit := string(n)
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(lit, 64)
			if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return overflow(path, lit, dst.Type())
			}
			i = int64(f)
		}
		if dst.OverflowInt(i) {
			return overflow(path, lit, dst.Type())
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(lit, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(lit, 64)
			if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return overflow(path, lit, dst.Type())
			}
			u = uint64(f)
		}
		if dst.OverflowUint(u) {
			return overflow(path, lit, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(lit, dst.Type().Bits())
		if err != nil {
			return overflow(path, lit, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.String:
		if dst.Type() == jsonNumberType {
			dst.SetString(lit)
			return nil
		}
	}
	return mismatch(path, "Number", dst.Type())
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func setInterface(dst, v reflect.Value, path string) error {
	if !v.Type().AssignableTo(dst.Type()) {
		return mismatch(path, v.Type().String(), dst.Type())
	}
	dst.Set(v)
	return nil
}

func mismatch(path, what string, dst reflect.Type) error {
	return errors.New(errors.ErrCodeTypeMismatch, "%s: cannot decode %s into %s", path, what, dst)
}

func overflow(path, lit string, dst reflect.Type) error {
	return errors.New(errors.ErrCodeTypeMismatch, "%s: number %s does not fit %s", path, lit, dst)
}
