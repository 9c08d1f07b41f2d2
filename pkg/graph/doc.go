// Package graph provides a node-link view of transport documents.
//
// The view needs no type registry: it works directly on a parsed
// tagged.Document, which makes it useful for inspecting, validating and
// drawing documents whose Go types are not linked into the current binary.
//
// # Core Types
//
//   - [Graph]: nodes and edges of one document
//   - [Node]: one record, identified as "Type#index"
//   - [Edge]: containment (a record nested in a field) or reference
//
// Indices are assigned per type in pre-order, the numbering the codec uses,
// so a ref to ("Model", 1) becomes an edge to node "Model#1".
//
// # Serialization
//
//	g := graph.FromDocument(doc)
//	if err := g.Validate(); err != nil { ... }   // dangling refs
//	data, _ := graph.MarshalGraph(g)             // Graph → JSON
//	g, _ = graph.ReadGraph(r)                    // JSON → Graph (validated)
//
// # Rendering
//
//	dot := graph.ToDOT(g, graph.Options{Detailed: true})
//	svg, err := graph.RenderSVG(ctx, dot)
//
// RenderSVG runs Graphviz in-process through [github.com/goccy/go-graphviz].
package graph
