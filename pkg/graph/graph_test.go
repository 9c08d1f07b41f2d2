package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

const forwardRef = `[{"__type":"OtherModel","__value":{"model":{"__type":"Model","__value":{"name":{"__type":"String","__value":"foobar"}}}}},{"__type":"ref","__value":{"type":"Model","index":0}}]`

func parse(t *testing.T, text string) tagged.Document {
	t.Helper()
	doc, err := tagged.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return doc
}

func TestFromDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  tagged.Document
		want Graph
	}{
		{
			name: "Empty",
			doc:  tagged.List(),
			want: Graph{},
		},
		{
			name: "Primitive",
			doc:  tagged.Single(tagged.String("plain")),
			want: Graph{},
		},
		{
			name: "ForwardReference",
			doc:  parse(t, forwardRef),
			want: Graph{
				Nodes: []Node{
					{ID: "OtherModel#0", Type: "OtherModel", Index: 0, Path: "$[0]"},
					{ID: "Model#0", Type: "Model", Index: 0, Path: "$[0].model", Depth: 1, Fields: map[string]any{"name": "foobar"}},
				},
				Edges: []Edge{
					{From: RootID, To: "OtherModel#0", Field: "[0]"},
					{From: "OtherModel#0", To: "Model#0", Field: "model"},
					{From: RootID, To: "Model#0", Field: "[1]", Ref: true},
				},
			},
		},
		{
			name: "SameTypeNesting",
			doc: tagged.Single(tagged.Record("Model",
				tagged.FieldVal("name", tagged.String("outer")),
				tagged.FieldVal("submodel", tagged.Record("Model",
					tagged.FieldVal("name", tagged.String("inner")),
				)),
			)),
			want: Graph{
				Nodes: []Node{
					{ID: "Model#0", Type: "Model", Index: 0, Path: "$", Fields: map[string]any{"name": "outer"}},
					{ID: "Model#1", Type: "Model", Index: 1, Path: "$.submodel", Depth: 1, Fields: map[string]any{"name": "inner"}},
				},
				Edges: []Edge{
					{From: RootID, To: "Model#0"},
					{From: "Model#0", To: "Model#1", Field: "submodel"},
				},
			},
		},
		{
			name: "ArrayField",
			doc: tagged.Single(tagged.Record("Holder",
				tagged.FieldVal("items", tagged.Array(
					tagged.Record("A"),
					tagged.Ref("A", 0),
					tagged.Number("1"),
				)),
			)),
			want: Graph{
				Nodes: []Node{
					{ID: "Holder#0", Type: "Holder", Index: 0, Path: "$"},
					{ID: "A#0", Type: "A", Index: 0, Path: "$.items[0]", Depth: 1},
				},
				Edges: []Edge{
					{From: RootID, To: "Holder#0"},
					{From: "Holder#0", To: "A#0", Field: "items[0]"},
					{From: "Holder#0", To: "A#0", Field: "items[1]", Ref: true},
				},
			},
		},
		{
			name: "ScalarFields",
			doc: tagged.Single(tagged.Record("R",
				tagged.FieldVal("n", tagged.Number("1.5")),
				tagged.FieldVal("s", tagged.String("x")),
				tagged.FieldVal("b", tagged.Bool(true)),
				tagged.FieldVal("d", tagged.DateLiteral("2020-01-02T03:04:05.000Z")),
				tagged.FieldVal("z", tagged.Null()),
			)),
			want: Graph{
				Nodes: []Node{{
					ID: "R#0", Type: "R", Index: 0, Path: "$",
					Fields: map[string]any{
						"n": json.Number("1.5"),
						"s": "x",
						"b": true,
						"d": "2020-01-02T03:04:05.000Z",
						"z": nil,
					},
				}},
				Edges: []Edge{{From: RootID, To: "R#0"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDocument(tt.doc)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromDocument() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dangling := FromDocument(tagged.List(tagged.Record("Model"), tagged.Ref("Model", 3)))

	tests := []struct {
		name     string
		g        Graph
		code     errors.Code
		contains string
	}{
		{name: "Valid", g: FromDocument(parse(t, forwardRef))},
		{name: "Empty", g: Graph{}},
		{name: "Dangling", g: dangling, code: errors.ErrCodeReferenceNotFound, contains: "Model#3"},
		{
			name:     "MismatchedID",
			g:        Graph{Nodes: []Node{{ID: "X#1", Type: "X", Index: 0}}},
			code:     errors.ErrCodeInvalidFormat,
			contains: "X#0",
		},
		{
			name:     "Duplicate",
			g:        Graph{Nodes: []Node{{ID: "X#0", Type: "X"}, {ID: "X#0", Type: "X"}}},
			code:     errors.ErrCodeInvalidFormat,
			contains: "twice",
		},
		{
			name: "UnknownSource",
			g: Graph{
				Nodes: []Node{{ID: "X#0", Type: "X"}},
				Edges: []Edge{{From: "Y#0", To: "X#0"}},
			},
			code:     errors.ErrCodeInvalidFormat,
			contains: "Y#0",
		},
		{
			name:     "UnknownTarget",
			g:        Graph{Edges: []Edge{{From: RootID, To: "X#0"}}},
			code:     errors.ErrCodeInvalidFormat,
			contains: "X#0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Validate() = %q, should contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestStats(t *testing.T) {
	got := FromDocument(parse(t, forwardRef)).Stats()
	want := Stats{
		Records:  2,
		Types:    map[string]int{"OtherModel": 1, "Model": 1},
		Refs:     1,
		Shared:   1,
		MaxDepth: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		id    string
		typ   string
		index int
		ok    bool
	}{
		{"Model#0", "Model", 0, true},
		{"a#b#12", "a#b", 12, true},
		{"Model", "", 0, false},
		{"#1", "", 0, false},
		{"Model#-1", "", 0, false},
		{"Model#x", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			typ, index, ok := ParseID(tt.id)
			if typ != tt.typ || index != tt.index || ok != tt.ok {
				t.Errorf("ParseID(%q) = %q, %d, %v, want %q, %d, %v", tt.id, typ, index, ok, tt.typ, tt.index, tt.ok)
			}
		})
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g := FromDocument(tagged.Single(tagged.Record("R",
		tagged.FieldVal("n", tagged.Number("42")),
		tagged.FieldVal("s", tagged.String("x")),
		tagged.FieldVal("z", tagged.Null()),
		tagged.FieldVal("self", tagged.Ref("R", 0)),
	)))

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph() error: %v", err)
	}
	got, err := ReadGraph(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadGraph() error: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalGraphEmpty(t *testing.T) {
	data, err := MarshalGraph(Graph{})
	if err != nil {
		t.Fatalf("MarshalGraph() error: %v", err)
	}
	want := "{\n  \"nodes\": [],\n  \"edges\": []\n}\n"
	if string(data) != want {
		t.Errorf("MarshalGraph() = %q, want %q", data, want)
	}
}

func TestReadGraphErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"Malformed", `{"nodes": [`, errors.ErrCodeInvalidFormat},
		{"Dangling", `{"nodes": [], "edges": [{"from": "$", "to": "Model#0", "ref": true}]}`, errors.ErrCodeReferenceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadGraph() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	g := FromDocument(parse(t, forwardRef))

	if err := WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile() error: %v", err)
	}
	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile() error: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("file round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadGraphFile() succeeded for a missing file")
	}
}

func TestToDOT(t *testing.T) {
	g := FromDocument(parse(t, forwardRef))

	t.Run("Plain", func(t *testing.T) {
		dot := ToDOT(g, Options{})
		for _, want := range []string{
			"digraph G {",
			`"$" [shape=point];`,
			`"OtherModel#0" [label="OtherModel#0"];`,
			`"Model#0" [label="Model#0"];`,
			`"OtherModel#0" -> "Model#0" [label="model"];`,
			`"$" -> "Model#0" [label="[1]", style=dashed, color=grey40];`,
		} {
			if !strings.Contains(dot, want) {
				t.Errorf("DOT missing %q:\n%s", want, dot)
			}
		}
	})

	t.Run("Detailed", func(t *testing.T) {
		dot := ToDOT(g, Options{Detailed: true})
		want := `"Model#0" [label="Model#0\nname: foobar"];`
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	})
}

func TestRenderSVG(t *testing.T) {
	g := FromDocument(parse(t, forwardRef))
	svg, err := RenderSVG(context.Background(), ToDOT(g, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("RenderSVG() output is not SVG: %.100s", svg)
	}
}
