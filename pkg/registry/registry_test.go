package registry

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/typegraph/pkg/errors"
)

type model struct {
	Name string
}

type otherModel struct {
	Model *model
}

// tags is a map-backed record: it describes and sets its own fields.
type tags map[string]string

func (t tags) DescribeFields() []Field {
	return []Field{{Name: "env", Value: t["env"]}}
}

func (t *tags) SetField(name string, value any) error {
	if *t == nil {
		*t = tags{}
	}
	s, _ := value.(string)
	(*t)[name] = s
	return nil
}

// labels can be described but has no way to be constructed.
type labels []string

func (l labels) DescribeFields() []Field { return nil }

type celsius float64

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *Registry) error
		wantName string
		wantCode errors.Code
	}{
		{
			name:     "derived name",
			register: func(r *Registry) error { return Register[model](r) },
			wantName: "model",
		},
		{
			name:     "pointer type derives element name",
			register: func(r *Registry) error { return Register[*model](r) },
			wantName: "model",
		},
		{
			name:     "explicit name",
			register: func(r *Registry) error { return Register[model](r, WithName("foobar")) },
			wantName: "foobar",
		},
		{
			name:     "setter type without factory",
			register: func(r *Registry) error { return Register[tags](r) },
			wantName: "tags",
		},
		{
			name: "factory type",
			register: func(r *Registry) error {
				return Register[labels](r, WithFactory(func(Fields) (any, error) { return labels{}, nil }))
			},
			wantName: "labels",
		},
		{
			name:     "non constructible without factory",
			register: func(r *Registry) error { return Register[labels](r) },
			wantCode: errors.ErrCodeMissingConstructor,
		},
		{
			name:     "not describable",
			register: func(r *Registry) error { return Register[celsius](r, WithFactory(func(Fields) (any, error) { return nil, nil })) },
			wantCode: errors.ErrCodeNotEnumerable,
		},
		{
			name:     "anonymous type",
			register: func(r *Registry) error { return Register[struct{ A int }](r) },
			wantCode: errors.ErrCodeMissingName,
		},
		{
			name:     "reserved name",
			register: func(r *Registry) error { return Register[model](r, WithName("ref")) },
			wantCode: errors.ErrCodeInvalidTypeName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := tt.register(r)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("Register() error = %v, want code %s", err, tt.wantCode)
				}
				if r.Len() != 0 {
					t.Errorf("Len() = %d after failed registration, want 0", r.Len())
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if _, ok := r.LookupByName(tt.wantName); !ok {
				t.Errorf("LookupByName(%q) not found, names = %v", tt.wantName, r.Names())
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	MustRegister[model](r)

	t.Run("same name", func(t *testing.T) {
		err := Register[otherModel](r, WithName("model"))
		if !errors.Is(err, errors.ErrCodeDuplicateType) {
			t.Errorf("error = %v, want DUPLICATE_TYPE", err)
		}
	})

	t.Run("same type under new name", func(t *testing.T) {
		err := Register[model](r, WithName("model2"))
		if !errors.Is(err, errors.ErrCodeDuplicateType) {
			t.Errorf("error = %v, want DUPLICATE_TYPE", err)
		}
	})

	if got := r.Names(); !reflect.DeepEqual(got, []string{"model"}) {
		t.Errorf("Names() = %v, want [model]", got)
	}
}

func TestMustRegisterPanics(t *testing.T) {
	r := New()
	MustRegister[model](r)

	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic on duplicate registration")
		}
	}()
	MustRegister[model](r)
}

func TestLookupByInstance(t *testing.T) {
	r := New()
	MustRegister[model](r, WithName("Model"))
	MustRegister[tags](r, WithName("Tags"))

	tests := []struct {
		name     string
		value    any
		wantName string
		wantOK   bool
	}{
		{"pointer", &model{}, "Model", true},
		{"value", model{}, "Model", true},
		{"map type", tags{}, "Tags", true},
		{"unregistered", &otherModel{}, "", false},
		{"primitive", 42, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.LookupByInstance(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("LookupByInstance() ok = %v, want %v", ok, tt.wantOK)
			}
			if d.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", d.Name, tt.wantName)
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	r := New()
	MustRegister[model](r)
	MustRegister[tags](r)

	d, _ := r.LookupByName("model")
	if d.HasFactory() || d.UsesSetter() {
		t.Errorf("struct descriptor: HasFactory=%v UsesSetter=%v, want false/false", d.HasFactory(), d.UsesSetter())
	}
	if got := d.New().Type(); got != reflect.TypeFor[*model]() {
		t.Errorf("New() type = %v, want *model", got)
	}

	d, _ = r.LookupByName("tags")
	if !d.UsesSetter() {
		t.Error("map descriptor should use FieldSetter")
	}
}

func TestReset(t *testing.T) {
	r := New()
	MustRegister[model](r)
	r.Reset()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", r.Len())
	}
	if _, ok := r.LookupByInstance(&model{}); ok {
		t.Error("type lookup should miss after Reset")
	}
	if err := Register[model](r); err != nil {
		t.Errorf("re-register after Reset: %v", err)
	}
}

func TestConcurrentLookup(t *testing.T) {
	r := New()
	MustRegister[model](r)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := r.LookupByInstance(&model{}); !ok {
					t.Error("lookup missed")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestFieldsAccessors(t *testing.T) {
	when := time.Date(2017, 2, 1, 14, 0, 0, 50*int(time.Millisecond), time.UTC)
	f := Fields{
		"name":   "foobar",
		"count":  float64(3),
		"big":    json.Number("9007199254740993"),
		"ratio":  json.Number("0.5"),
		"ok":     true,
		"when":   when,
		"items":  []any{"a", "b"},
		"absent": nil,
	}

	if got := f.String("name"); got != "foobar" {
		t.Errorf("String = %q", got)
	}
	if got := f.Int("count"); got != 3 {
		t.Errorf("Int(count) = %d", got)
	}
	if got := f.Int("big"); got != 9007199254740993 {
		t.Errorf("Int(big) = %d", got)
	}
	if got := f.Float("ratio"); got != 0.5 {
		t.Errorf("Float(ratio) = %v", got)
	}
	if !f.Bool("ok") {
		t.Error("Bool(ok) = false")
	}
	if !f.Time("when").Equal(when) {
		t.Errorf("Time = %v", f.Time("when"))
	}
	if got := f.Slice("items"); len(got) != 2 {
		t.Errorf("Slice len = %d", len(got))
	}
	if got := f.String("missing"); got != "" {
		t.Errorf("String(missing) = %q", got)
	}
	if v, ok := f.Get("absent"); !ok || v != nil {
		t.Errorf("Get(absent) = %v, %v", v, ok)
	}
}
