package tagged

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/matzehuels/typegraph/pkg/errors"
)

// ============================================================
// Marshal
// ============================================================

// Marshal renders v as compact transport JSON.
func Marshal(v *Value) ([]byte, error) {
	w := newWriter()
	if err := w.value(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// MarshalDocument renders a document. List documents become a bare JSON
// array of tagged values.
func MarshalDocument(d Document) ([]byte, error) {
	w := newWriter()
	if err := w.document(d); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// WriteDocument streams the rendering of d to out.
func WriteDocument(out io.Writer, d Document) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

type writer struct {
	buf     bytes.Buffer
	scratch bytes.Buffer
	enc     *json.Encoder
}

func newWriter() *writer {
	w := &writer{}
	w.enc = json.NewEncoder(&w.scratch)
	w.enc.SetEscapeHTML(false)
	return w
}

func (w *writer) document(d Document) error {
	if !d.list {
		if len(d.values) != 1 {
			return errors.New(errors.ErrCodeInvalidFormat, "single-value document holds %d values", len(d.values))
		}
		return w.value(d.values[0])
	}
	w.buf.WriteByte('[')
	for i, v := range d.values {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.value(v); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *writer) value(v *Value) error {
	if v == nil {
		v = Null()
	}
	w.buf.WriteString(`{"` + TypeKey + `":`)
	if err := w.string(v.Discriminator()); err != nil {
		return err
	}
	w.buf.WriteString(`,"` + ValueKey + `":`)
	if err := w.payload(v); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}

func (w *writer) payload(v *Value) error {
	switch v.kind {
	case KindNull, KindUndefined:
		w.buf.WriteString("null")
	case KindNumber:
		if !validNumber(string(v.num)) {
			return errors.New(errors.ErrCodeUnsupportedValue, "invalid number literal %q", string(v.num))
		}
		w.buf.WriteString(string(v.num))
	case KindString, KindDate:
		return w.string(v.str)
	case KindBoolean:
		w.buf.WriteString(strconv.FormatBool(v.bool))
	case KindArray:
		w.buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.value(item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
	case KindRef:
		w.buf.WriteString(`{"type":`)
		if err := w.string(v.typeName); err != nil {
			return err
		}
		w.buf.WriteString(`,"index":`)
		w.buf.WriteString(strconv.Itoa(v.index))
		w.buf.WriteByte('}')
	case KindRecord:
		w.buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.string(f.Name); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.value(f.Value); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
	default:
		return errors.New(errors.ErrCodeInternal, "unknown value kind %d", v.kind)
	}
	return nil
}

func (w *writer) string(s string) error {
	w.scratch.Reset()
	if err := w.enc.Encode(s); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode string")
	}
	w.buf.Write(bytes.TrimSuffix(w.scratch.Bytes(), []byte{'\n'}))
	return nil
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	return json.Valid([]byte(s)) && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}

// ============================================================
// Parse
// ============================================================

// Parse reads a transport text. A bare JSON array yields a list document;
// an object yields a single-value document. Empty or whitespace-only input
// fails with UNDEFINED_INPUT, anything else malformed with INVALID_FORMAT.
func Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, errors.UndefinedInput("parse")
	}
	p := newParser(bytes.NewReader(data))

	tok, err := p.token("$")
	if err != nil {
		return Document{}, err
	}
	var doc Document
	switch tok {
	case json.Delim('['):
		values, err := p.list("$")
		if err != nil {
			return Document{}, err
		}
		doc = List(values...)
	case json.Delim('{'):
		v, err := p.object("$")
		if err != nil {
			return Document{}, err
		}
		doc = Single(v)
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "$: expected a tagged object or array, got %v", tok)
	}

	if _, err := p.dec.Token(); err != io.EOF {
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unexpected data after document")
	}
	return doc, nil
}

// ParseValue reads a transport text holding exactly one tagged value.
func ParseValue(data []byte) (*Value, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if doc.IsList() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected a single tagged value, got an array")
	}
	return doc.Root(), nil
}

type parser struct {
	dec *json.Decoder
}

func newParser(r io.Reader) *parser {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &parser{dec: dec}
}

func (p *parser) token(path string) (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: malformed JSON", path)
	}
	return tok, nil
}

func (p *parser) expect(path string, want json.Delim) error {
	tok, err := p.token(path)
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.New(errors.ErrCodeInvalidFormat, "%s: expected %q, got %v", path, want, tok)
	}
	return nil
}

// value reads one tagged object including its opening brace.
func (p *parser) value(path string) (*Value, error) {
	if err := p.expect(path, '{'); err != nil {
		return nil, err
	}
	return p.object(path)
}

// list reads tagged objects up to the closing bracket.
func (p *parser) list(path string) ([]*Value, error) {
	values := []*Value{}
	for i := 0; p.dec.More(); i++ {
		v, err := p.value(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := p.expect(path, ']'); err != nil {
		return nil, err
	}
	return values, nil
}

// object reads the members of a tagged object after its opening brace.
// The payload is decoded straight from the stream when __type came first,
// and buffered otherwise.
func (p *parser) object(path string) (*Value, error) {
	var (
		typ      string
		haveType bool
		v        *Value
		pending  json.RawMessage
	)
	for p.dec.More() {
		key, err := p.key(path)
		if err != nil {
			return nil, err
		}
		switch key {
		case TypeKey:
			tok, err := p.token(path)
			if err != nil {
				return nil, err
			}
			s, ok := tok.(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: %s must be a string, got %v", path, TypeKey, tok)
			}
			typ, haveType = s, true
		case ValueKey:
			if haveType {
				if v, err = p.payload(typ, path); err != nil {
					return nil, err
				}
				continue
			}
			if err := p.dec.Decode(&pending); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: malformed JSON", path)
			}
		default:
			var skip json.RawMessage
			if err := p.dec.Decode(&skip); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: malformed JSON", path)
			}
		}
	}
	if err := p.expect(path, '}'); err != nil {
		return nil, err
	}
	if !haveType {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: missing %s", path, TypeKey)
	}
	if v != nil {
		return v, nil
	}
	if pending == nil {
		pending = json.RawMessage("null")
	}
	return newParser(bytes.NewReader(pending)).payload(typ, path)
}

func (p *parser) key(path string) (string, error) {
	tok, err := p.token(path)
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "%s: expected object key, got %v", path, tok)
	}
	return key, nil
}

// payload reads the __value of a node with the given discriminator.
func (p *parser) payload(typ, path string) (*Value, error) {
	switch typ {
	case TagNull, TagUndefined:
		var skip json.RawMessage
		if err := p.dec.Decode(&skip); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: malformed JSON", path)
		}
		if typ == TagNull {
			return Null(), nil
		}
		return Undefined(), nil
	case TagNumber, TagString, TagBoolean, TagDate:
		tok, err := p.token(path)
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: %s payload must be a scalar, got %v", path, typ, d)
		}
		return scalar(typ, tok, path)
	case TagArray:
		if err := p.expect(path, '['); err != nil {
			return nil, err
		}
		items, err := p.list(path)
		if err != nil {
			return nil, err
		}
		return Array(items...), nil
	case TagRef:
		var ref struct {
			Type  string `json:"type"`
			Index *int   `json:"index"`
		}
		if err := p.dec.Decode(&ref); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: malformed reference", path)
		}
		if ref.Type == "" || ref.Index == nil || *ref.Index < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: reference needs a type and a non-negative index", path)
		}
		return Ref(ref.Type, *ref.Index), nil
	default:
		if typ == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: empty %s", path, TypeKey)
		}
		if err := p.expect(path, '{'); err != nil {
			return nil, err
		}
		fields := []Field{}
		for p.dec.More() {
			name, err := p.key(path)
			if err != nil {
				return nil, err
			}
			fv, err := p.value(path + "." + name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: name, Value: fv})
		}
		if err := p.expect(path, '}'); err != nil {
			return nil, err
		}
		return Record(typ, fields...), nil
	}
}

// scalar coerces a JSON scalar to the kind named by typ.
func scalar(typ string, tok json.Token, path string) (*Value, error) {
	switch typ {
	case TagNumber:
		switch t := tok.(type) {
		case json.Number:
			return Number(t), nil
		case string:
			if _, err := strconv.ParseFloat(t, 64); err != nil || !validNumber(t) {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: %q is not a number", path, t)
			}
			return Number(json.Number(t)), nil
		case bool:
			if t {
				return Number("1"), nil
			}
			return Number("0"), nil
		}
	case TagString:
		switch t := tok.(type) {
		case string:
			return String(t), nil
		case json.Number:
			return String(t.String()), nil
		case bool:
			return String(strconv.FormatBool(t)), nil
		case nil:
			return String("null"), nil
		}
	case TagBoolean:
		switch t := tok.(type) {
		case bool:
			return Bool(t), nil
		case json.Number:
			f, err := t.Float64()
			return Bool(err == nil && f != 0 && !math.IsNaN(f)), nil
		case string:
			return Bool(t != ""), nil
		case nil:
			return Bool(false), nil
		}
	case TagDate:
		switch t := tok.(type) {
		case string:
			if _, err := time.Parse(time.RFC3339Nano, t); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: invalid date", path)
			}
			return DateLiteral(t), nil
		case json.Number:
			ms, err := t.Int64()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: invalid date", path)
			}
			return Date(time.UnixMilli(ms)), nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: cannot read %v as %s", path, tok, typ)
}
