// Package pkg provides the libraries behind typegraph.
//
// # Overview
//
// typegraph turns graphs of Go values, shared pointers and cycles included,
// into a type-tagged JSON transport format and back. Every record carries the
// name its type was registered under; a value met a second time is written as
// a back-reference to the first occurrence. The pkg directory is organized
// into three areas:
//
//  1. Core: [registry], [tagged] and [codec] implement the format
//  2. Tooling: [graph] exports documents as reference graphs (JSON, DOT, SVG)
//  3. Infrastructure: [cache], [docstore], [server], [config] and [observability]
//
// # Architecture
//
//	Go values
//	    ↓
//	[codec] (walk, tag and index records using [registry])
//	    ↓
//	[tagged] document ⇄ transport text
//	    ↓
//	[docstore] over [cache] (file, Redis, MongoDB) ⇄ [server] HTTP API
//
// # Quick Start
//
//	reg := registry.New()
//	registry.MustRegister[Model](reg)
//	c := codec.New(reg)
//
//	text, err := c.Serialize(&Model{Name: "foobar"})
//	...
//	v, err := c.Deserialize(text)
//
// Errors from every package carry a code from [errors]; branch on them with
// errors.Is.
package pkg
