package registry

import (
	"reflect"

	"github.com/matzehuels/typegraph/pkg/errors"
)

// Option configures a type registration.
type Option func(*options)

type options struct {
	name    string
	factory Factory
}

// WithName registers the type under an explicit name instead of its Go
// type name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithFactory registers a construction function for types that cannot be
// built by assigning fields onto a zero value.
func WithFactory(f Factory) Option {
	return func(o *options) { o.factory = f }
}

// Register adds T to r. The name is taken from WithName or derived from the
// Go type name; pointer types are registered as their element type.
func Register[T any](r *Registry, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := o.name
	if name == "" {
		name = t.Name()
	}
	if name == "" {
		return errors.MissingName(t.String())
	}

	return r.Register(Descriptor{Name: name, Type: t, Factory: o.factory})
}

// MustRegister is like Register but panics on error. It is meant for
// package init blocks.
func MustRegister[T any](r *Registry, opts ...Option) {
	if err := Register[T](r, opts...); err != nil {
		panic(err)
	}
}
