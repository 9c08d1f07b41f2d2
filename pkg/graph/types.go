package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/typegraph/pkg/tagged"
)

// RootID is the pseudo node that top-level values hang off.
// It never appears in [Graph.Nodes].
const RootID = "$"

// Graph is the node-link view of a transport document.
// Each record becomes a node; containment and references become edges.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one record of the document.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Type   string         `json:"type" bson:"type"`
	Index  int            `json:"index" bson:"index"`
	Path   string         `json:"path,omitempty" bson:"path,omitempty"`     // Where the record appears
	Depth  int            `json:"depth,omitempty" bson:"depth,omitempty"`   // Record nesting, 0 for top-level
	Fields map[string]any `json:"fields,omitempty" bson:"fields,omitempty"` // Scalar fields only
}

// Edge links a record (or [RootID]) to a record it contains or refers to.
type Edge struct {
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Field string `json:"field,omitempty" bson:"field,omitempty"`
	Ref   bool   `json:"ref,omitempty" bson:"ref,omitempty"`
}

// NodeID formats the identity of the index-th record of typeName.
func NodeID(typeName string, index int) string {
	return typeName + "#" + strconv.Itoa(index)
}

// ParseID splits a node ID into its type name and index.
func ParseID(id string) (typeName string, index int, ok bool) {
	i := strings.LastIndexByte(id, '#')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// Node returns the node with the given ID.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Refs returns the reference edges in document order.
func (g Graph) Refs() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Ref {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Document → Graph
// =============================================================================

// FromDocument builds the graph of d. Record indices are reserved per type
// in pre-order, the same numbering the codec uses, so every ref edge points
// at the node its (type, index) pair names.
//
// FromDocument never fails: dangling refs still produce edges, and
// [Graph.Validate] reports them.
func FromDocument(d tagged.Document) Graph {
	b := builder{next: map[string]int{}}
	for i, v := range d.Values() {
		field, path := "", tagged.RootPath
		if d.IsList() {
			field = fmt.Sprintf("[%d]", i)
			path = tagged.RootPath + field
		}
		b.value(v, RootID, field, path, 0)
	}
	return b.g
}

type builder struct {
	g    Graph
	next map[string]int
}

func (b *builder) value(v *tagged.Value, from, field, path string, depth int) {
	if v == nil {
		return
	}
	switch v.Kind() {
	case tagged.KindRef:
		b.g.Edges = append(b.g.Edges, Edge{From: from, To: NodeID(v.TypeName(), v.Index()), Field: field, Ref: true})
	case tagged.KindArray:
		for i, item := range v.Items() {
			b.value(item, from, fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("%s[%d]", path, i), depth)
		}
	case tagged.KindRecord:
		b.record(v, from, field, path, depth)
	}
}

func (b *builder) record(v *tagged.Value, from, field, path string, depth int) {
	idx := b.next[v.TypeName()]
	b.next[v.TypeName()] = idx + 1

	id := NodeID(v.TypeName(), idx)
	b.g.Nodes = append(b.g.Nodes, Node{ID: id, Type: v.TypeName(), Index: idx, Path: path, Depth: depth})
	pos := len(b.g.Nodes) - 1
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: id, Field: field})

	for _, f := range v.Fields() {
		if s, ok := scalar(f.Value); ok {
			n := &b.g.Nodes[pos]
			if n.Fields == nil {
				n.Fields = map[string]any{}
			}
			n.Fields[f.Name] = s
			continue
		}
		b.value(f.Value, id, f.Name, path+"."+f.Name, depth+1)
	}
}

// scalar returns the JSON-native form of a leaf value.
func scalar(v *tagged.Value) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch v.Kind() {
	case tagged.KindNull:
		return nil, true
	case tagged.KindNumber:
		return json.Number(v.Num()), true
	case tagged.KindString, tagged.KindDate:
		return v.Str(), true
	case tagged.KindBoolean:
		return v.Boolean(), true
	}
	return nil, false
}
