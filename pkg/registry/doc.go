// Package registry maps record type names to Go types and their
// construction capability.
//
// A [Registry] is populated once at program start and then consulted by the
// codec on every encode and decode:
//
//	reg := registry.New()
//	registry.MustRegister[Model](reg)
//	registry.MustRegister[Point](reg, registry.WithFactory(func(f registry.Fields) (any, error) {
//	    return NewPoint(f.Float("x"), f.Float("y")), nil
//	}))
//
// # Names
//
// A type is registered under an explicit name ([WithName]) or under its Go
// type name. Names are unique per registry and may not shadow the
// discriminators of the transport format ("null", "Date", "ref", ...).
//
// # Construction
//
// Struct types are built by allocating a zero value and assigning the
// decoded fields. Other types must either implement [FieldSetter] or be
// registered with a [Factory], which receives the decoded [Fields] and
// returns the instance.
//
// # Concurrency
//
// A Registry is safe for concurrent lookups. Registration takes an exclusive
// lock; calling [Registry.Reset] while an encode or decode is in flight is
// not supported.
package registry
