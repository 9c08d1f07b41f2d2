// Package tagged defines the Tagged Value tree that sits between native Go
// values and transport text, and the JSON-compatible rendering of that tree.
//
// Every node is an object with two fixed keys:
//
//	{"__type":"String","__value":"foobar"}
//	{"__type":"Model","__value":{"name":{"__type":"String","__value":"foobar"}}}
//	{"__type":"ref","__value":{"type":"Model","index":0}}
//
// # Kinds
//
// A [Value] is one of a closed set of kinds:
//
//	KindNull       "null"       payload null
//	KindUndefined  "undefined"  payload ignored (decode only)
//	KindNumber     "Number"     JSON number literal
//	KindString     "String"     JSON string
//	KindBoolean    "Boolean"    true / false
//	KindDate       "Date"       ISO-8601 instant string
//	KindArray      "Array"      list of tagged values
//	KindRef        "ref"        {"type": T, "index": N}
//	KindRecord     <type name>  object of field name → tagged value
//
// # Documents
//
// A transport text holds either one tagged value or a bare JSON array of
// them; [Document] models both. [Marshal] and [Parse] convert between
// documents and bytes, preserving record field order in both directions.
//
// Output is compact and keys are emitted as __type then __value, so the
// same tree always renders to the same bytes.
package tagged
