package codec

import (
	"fmt"
	"slices"
	"testing"

	"github.com/matzehuels/typegraph/pkg/registry"
)

type Model struct {
	Name     string `json:"name"`
	Submodel *Model `json:"submodel,omitempty"`
}

type Submodel struct {
	Name string `json:"name"`
}

type Parent struct {
	Name     string    `json:"name"`
	Submodel *Submodel `json:"submodel"`
}

// Looped is registered as "Model" in cycle tests.
type Looped struct {
	Name string  `json:"name"`
	Mod  *Looped `json:"mod"`
}

type OtherModel struct {
	Model *Model `json:"model"`
}

type A struct {
	B *B `json:"b"`
}

type B struct {
	C *C `json:"c"`
}

type C struct {
	A *A `json:"a"`
	D *D `json:"d"`
}

type D struct {
	B *B `json:"b"`
}

type ArrayModel struct {
	Name string `json:"name"`
}

func newArrayModel(f registry.Fields) (any, error) {
	return &ArrayModel{Name: f.String("name")}, nil
}

type Holder struct {
	Primitive []any         `json:"primitive"`
	Mixed     []any         `json:"mixed"`
	Single    []*ArrayModel `json:"single"`
}

type Nullable struct {
	Name *string `json:"name"`
}

type Loose struct {
	Name any `json:"name"`
}

// Pair holds one record by pointer and one by value.
type Pair struct {
	First *Model `json:"first"`
	Copy  Model  `json:"copy"`
}

type Person struct {
	Name   string  `json:"name"`
	Friend *Person `json:"friend"`
}

// Outer, Middle and Leaf nest by value, so refs between them are copies.
type Outer struct {
	Mid Middle `json:"mid"`
}

type Middle struct {
	Leaf Leaf `json:"leaf"`
}

type Leaf struct {
	N int `json:"n"`
}

type Team struct {
	Lead    *Person   `json:"lead"`
	Members []*Person `json:"members"`
}

// Tags is a map-backed record with its own field enumeration.
type Tags map[string]string

func (t Tags) DescribeFields() []registry.Field {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]registry.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, registry.Field{Name: k, Value: t[k]})
	}
	return fields
}

func (t *Tags) SetField(name string, value any) error {
	if *t == nil {
		*t = Tags{}
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("tag %q: want string, got %T", name, value)
	}
	(*t)[name] = s
	return nil
}

type Resource struct {
	Name string `json:"name"`
	Tags Tags   `json:"tags"`
	Also Tags   `json:"also"`
}

type Base struct {
	ID int `json:"id"`
}

type Document struct {
	Base
	Title   string   `typegraph:"title" json:"heading"`
	Draft   bool     `json:"draft,omitempty"`
	Secret  string   `json:"-"`
	OnSave  func()   `json:"onSave"`
	Updates chan int `json:"updates"`
	hidden  string
}

type Numbers struct {
	I8    int8     `json:"i8"`
	I64   int64    `json:"i64"`
	U8    uint8    `json:"u8"`
	U64   uint64   `json:"u64"`
	F32   float32  `json:"f32"`
	F64   float64  `json:"f64"`
	Ratio *float64 `json:"ratio"`
}

// newRegistry returns a registry with the given registrations applied.
func newRegistry(t testing.TB, regs ...func(*registry.Registry) error) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, reg := range regs {
		if err := reg(r); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return r
}

func reg[T any](opts ...registry.Option) func(*registry.Registry) error {
	return func(r *registry.Registry) error { return registry.Register[T](r, opts...) }
}
