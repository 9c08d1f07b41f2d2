// Package codec converts Go object graphs to and from the tagged transport.
//
// A [Codec] walks a value, names every record through a
// [registry.Registry] and collapses repeated pointers into back-references,
// so shared sub-objects and cycles survive the round trip:
//
//	reg := registry.New()
//	registry.MustRegister[Model](reg)
//
//	c := codec.New(reg)
//	text, err := c.Serialize(model)
//	...
//	v, err := c.Deserialize(text) // *Model
//
// # Identity
//
// Pointers and maps have identity: the second time the encoder reaches the
// same pointer it emits a ref to the index the first visit reserved. Struct
// values are copied and always produce a fresh record. Indices are counted
// per type name in pre-order on both sides, so the n-th record of type T in
// the text is always the object refs to (T, n) point at.
//
// # Decoding
//
// Decoding runs in two phases. The first materializes every record into its
// destination and queues a fix-up for each ref it meets. The second applies
// the queued fix-ups in order, once every referent exists. Refs that landed
// in value-typed fields are copied last, innermost first, so a copy never
// observes a target that is still waiting for its own copies.
//
// Interface destinations receive generic values: float64 (or json.Number
// with [WithUseNumber]), string, bool, time.Time, []any and record
// instances. Struct records are always handed out as pointers.
//
// A Codec is safe for concurrent use. Each call owns its identity tables.
package codec

import (
	"bytes"
	"io"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/registry"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

// Undefined marks a value as absent. Struct fields, map entries and slice
// elements holding it are left out of the output.
var Undefined any = undefined{}

type undefined struct{}

var undefinedType = reflect.TypeOf(undefined{})

// Codec encodes and decodes object graphs for the types of one registry.
type Codec struct {
	reg       *registry.Registry
	logger    *log.Logger
	useNumber bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUseNumber makes interface destinations receive numbers as
// json.Number instead of float64, keeping their literal exactly.
func WithUseNumber() Option {
	return func(c *Codec) { c.useNumber = true }
}

// New returns a codec reading type descriptors from reg.
func New(reg *registry.Registry, opts ...Option) *Codec {
	c := &Codec{
		reg:    reg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the codec reads from.
func (c *Codec) Registry() *registry.Registry { return c.reg }

// ============================================================
// Encoding entry points
// ============================================================

// Serialize renders v as transport text. Slices and arrays at the top level
// become a bare JSON array of tagged values; anything else a single tagged
// value.
func (c *Codec) Serialize(v any) (string, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SerializeTo writes the transport text of v to w.
func (c *Codec) SerializeTo(w io.Writer, v any) error {
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal is Serialize returning bytes.
func (c *Codec) Marshal(v any) ([]byte, error) {
	doc, err := c.EncodeDocument(v)
	if err != nil {
		return nil, err
	}
	return tagged.MarshalDocument(doc)
}

// EncodeDocument converts v to a tagged document, applying the top-level
// array rule of Serialize.
func (c *Codec) EncodeDocument(v any) (doc tagged.Document, err error) {
	start := time.Now()
	s := newEncodeState(c)
	defer func() { s.finish(rootName(v), time.Since(start), err) }()

	rv := reflect.ValueOf(v)
	if isAbsent(rv) {
		return tagged.Document{}, errors.UndefinedInput("serialize")
	}
	if s.isTopLevelList(rv) {
		items, err := s.items(rv, "$")
		if err != nil {
			return tagged.Document{}, err
		}
		return tagged.List(items...), nil
	}
	tv, _, err := s.encode(rv, "$")
	if err != nil {
		return tagged.Document{}, err
	}
	return tagged.Single(tv), nil
}

// Encode converts v to a single tagged value. Slices become Array nodes.
func (c *Codec) Encode(v any) (tv *tagged.Value, err error) {
	start := time.Now()
	s := newEncodeState(c)
	defer func() { s.finish(rootName(v), time.Since(start), err) }()

	rv := reflect.ValueOf(v)
	if isAbsent(rv) {
		return nil, errors.UndefinedInput("encode")
	}
	tv, _, err = s.encode(rv, "$")
	return tv, err
}

// ============================================================
// Decoding entry points
// ============================================================

// Deserialize rebuilds the graph held by data. A bare JSON array yields
// []any; a single value yields its generic form, which is a pointer for
// struct records.
func (c *Codec) Deserialize(data string) (any, error) {
	return c.Unmarshal([]byte(data))
}

// DeserializeFrom reads transport text from r and deserializes it.
func (c *Codec) DeserializeFrom(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read input")
	}
	return c.Unmarshal(data)
}

// Unmarshal is Deserialize taking bytes.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	doc, err := c.parse(data)
	if err != nil {
		return nil, err
	}
	return c.DecodeDocument(doc)
}

// DeserializeInto decodes data into the value dst points to. List documents
// need a slice, array or interface destination.
func (c *Codec) DeserializeInto(data string, dst any) error {
	doc, err := c.parse([]byte(data))
	if err != nil {
		return err
	}
	return c.DecodeDocumentInto(doc, dst)
}

// DecodeDocument materializes a parsed document.
func (c *Codec) DecodeDocument(doc tagged.Document) (any, error) {
	var out any
	if err := c.DecodeDocumentInto(doc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeDocumentInto materializes a parsed document into dst, which must be
// a non-nil pointer.
func (c *Codec) DecodeDocumentInto(doc tagged.Document, dst any) (err error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.ErrCodeTypeMismatch, "destination must be a non-nil pointer, got %T", dst)
	}

	root := doc.Root()
	if doc.IsList() {
		root = tagged.Array(doc.Values()...)
	}
	if root == nil {
		return errors.UndefinedInput("deserialize")
	}

	start := time.Now()
	s := newDecodeState(c)
	defer func() { s.finish(root.Discriminator(), time.Since(start), err) }()

	target := rv.Elem()
	if doc.IsList() && target.Kind() == reflect.Interface {
		// Top-level lists always come back as []any.
		list := reflect.MakeSlice(anySliceType, len(doc.Values()), len(doc.Values()))
		if err := s.elements(root, list, "$"); err != nil {
			return err
		}
		if err := s.resolve(); err != nil {
			return err
		}
		return setInterface(target, list, "$")
	}

	if err := s.decode(root, target, "$"); err != nil {
		return err
	}
	return s.resolve()
}

// Decode materializes a single tagged value.
func (c *Codec) Decode(v *tagged.Value) (any, error) {
	if v == nil {
		return nil, errors.UndefinedInput("decode")
	}
	return c.DecodeDocument(tagged.Single(v))
}

func (c *Codec) parse(data []byte) (tagged.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return tagged.Document{}, errors.UndefinedInput("deserialize")
	}
	return tagged.Parse(data)
}

// ============================================================
// Helpers shared by both directions
// ============================================================

func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Func, reflect.Chan:
		return true
	}
	return v.Type() == undefinedType
}

func rootName(v any) string {
	if v == nil {
		return tagged.TagNull
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.Kind().String()
}
