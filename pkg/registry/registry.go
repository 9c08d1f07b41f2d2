package registry

import (
	"reflect"
	"slices"
	"sync"

	"github.com/matzehuels/typegraph/pkg/errors"
)

// Registry is a lookup from type name to Descriptor.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
	byType map[reflect.Type]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]Descriptor),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds a descriptor. It fails if the name is already present, if
// the Go type is already registered under another name, or if the type can
// be neither enumerated nor constructed.
func (r *Registry) Register(d Descriptor) error {
	if err := errors.ValidateTypeName(d.Name); err != nil {
		return err
	}
	if d.Type == nil {
		return errors.New(errors.ErrCodeInternal, "descriptor %q has no type", d.Name)
	}
	for d.Type.Kind() == reflect.Pointer {
		d.Type = d.Type.Elem()
	}
	if !describable(d.Type) {
		return errors.NotEnumerable(d.Name)
	}
	if d.Factory == nil && !constructible(d.Type) {
		return errors.MissingConstructor(d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[d.Name]; ok {
		return errors.DuplicateType(d.Name)
	}
	if other, ok := r.byType[d.Type]; ok {
		return errors.New(errors.ErrCodeDuplicateType, "the type %s is already registered as %q", d.Type, other)
	}
	r.byName[d.Name] = d
	r.byType[d.Type] = d.Name
	return nil
}

// LookupByName returns the descriptor registered under name.
func (r *Registry) LookupByName(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// LookupByInstance returns the descriptor whose type matches the dynamic
// type of v. Both T and *T match the descriptor registered for T.
func (r *Registry) LookupByInstance(v any) (Descriptor, bool) {
	if v == nil {
		return Descriptor{}, false
	}
	return r.LookupByType(reflect.TypeOf(v))
}

// LookupByType is LookupByInstance for a reflect.Type.
func (r *Registry) LookupByType(t reflect.Type) (Descriptor, bool) {
	if t == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.byType[t]; ok {
		return r.byName[name], true
	}
	if t.Kind() == reflect.Pointer {
		if name, ok := r.byType[t.Elem()]; ok {
			return r.byName[name], true
		}
	}
	return Descriptor{}, false
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Reset clears all registrations. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]Descriptor)
	r.byType = make(map[reflect.Type]string)
}
