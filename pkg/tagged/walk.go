package tagged

import (
	stderrors "errors"
	"fmt"
)

// RootPath addresses the root of a document in walk paths.
const RootPath = "$"

// SkipChildren may be returned by a WalkFunc to skip the children of the
// current node.
var SkipChildren = stderrors.New("skip children")

// WalkFunc is called for every node in pre-order. path locates the node:
// "$" for a root, "$[2]" for list items, "$.model.tags[0]" for nested
// fields and array items.
type WalkFunc func(path string, v *Value) error

// Walk visits v and its descendants in pre-order, the same order in which
// the codec assigns record indices.
func Walk(v *Value, fn WalkFunc) error {
	return walk(RootPath, v, fn)
}

// WalkDocument walks every root of d. List roots are addressed as "$[i]".
func WalkDocument(d Document, fn WalkFunc) error {
	if !d.IsList() {
		return Walk(d.Root(), fn)
	}
	for i, v := range d.Values() {
		if err := walk(fmt.Sprintf("%s[%d]", RootPath, i), v, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(path string, v *Value, fn WalkFunc) error {
	if v == nil {
		return nil
	}
	if err := fn(path, v); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	switch v.kind {
	case KindArray:
		for i, item := range v.items {
			if err := walk(fmt.Sprintf("%s[%d]", path, i), item, fn); err != nil {
				return err
			}
		}
	case KindRecord:
		for _, f := range v.fields {
			if err := walk(path+"."+f.Name, f.Value, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Counts summarizes a document: records per type, references per target
// type and the deepest nesting level reached.
type Counts struct {
	Records  map[string]int
	Refs     map[string]int
	Nulls    int
	MaxDepth int
}

// Count walks d and tallies its nodes.
func Count(d Document) Counts {
	c := Counts{Records: map[string]int{}, Refs: map[string]int{}}
	var visit func(v *Value, depth int)
	visit = func(v *Value, depth int) {
		if v == nil {
			return
		}
		if depth > c.MaxDepth {
			c.MaxDepth = depth
		}
		switch v.kind {
		case KindNull:
			c.Nulls++
		case KindRef:
			c.Refs[v.typeName]++
		case KindArray:
			for _, item := range v.items {
				visit(item, depth+1)
			}
		case KindRecord:
			c.Records[v.typeName]++
			for _, f := range v.fields {
				visit(f.Value, depth+1)
			}
		}
	}
	for _, v := range d.Values() {
		visit(v, 1)
	}
	return c
}
