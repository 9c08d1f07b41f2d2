package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/typegraph/pkg/errors"
)

// =============================================================================
// Validation and Statistics
// =============================================================================

// Validate checks that node IDs match their type and index, that no ID
// repeats, and that every edge ends at a known node. A ref edge with no
// target yields REFERENCE_NOT_FOUND, the same failure the codec raises when
// decoding the document.
func (g Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID != NodeID(n.Type, n.Index) {
			return errors.New(errors.ErrCodeInvalidFormat, "node %q does not match %s", n.ID, NodeID(n.Type, n.Index))
		}
		if ids[n.ID] {
			return errors.New(errors.ErrCodeInvalidFormat, "node %q appears twice", n.ID)
		}
		ids[n.ID] = true
	}

	for _, e := range g.Edges {
		if e.From != RootID && !ids[e.From] {
			return errors.New(errors.ErrCodeInvalidFormat, "edge from unknown node %q", e.From)
		}
		if ids[e.To] {
			continue
		}
		if typ, idx, ok := ParseID(e.To); ok && e.Ref {
			return errors.ReferenceNotFound(typ, idx)
		}
		return errors.New(errors.ErrCodeInvalidFormat, "edge to unknown node %q", e.To)
	}
	return nil
}

// Stats summarizes a graph.
type Stats struct {
	Records  int            `json:"records"`
	Types    map[string]int `json:"types"`
	Refs     int            `json:"refs"`
	Shared   int            `json:"shared"` // Records targeted by at least one ref
	MaxDepth int            `json:"max_depth"`
}

// Stats counts records per type, references and the deepest record nesting.
func (g Graph) Stats() Stats {
	s := Stats{Records: len(g.Nodes), Types: map[string]int{}}
	for _, n := range g.Nodes {
		s.Types[n.Type]++
		s.MaxDepth = max(s.MaxDepth, n.Depth)
	}
	shared := map[string]bool{}
	for _, e := range g.Edges {
		if e.Ref {
			s.Refs++
			shared[e.To] = true
		}
	}
	s.Shared = len(shared)
	return s
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// WriteGraphFile writes a graph to a JSON file.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// ReadGraph decodes and validates a JSON graph.
func ReadGraph(r io.Reader) (Graph, error) {
	return readGraphFrom(r)
}

// ReadGraphFile reads and validates a JSON graph file.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g Graph, w io.Writer) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (Graph, error) {
	var g Graph
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&g); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}
