package tagged

import (
	"bytes"
	"strconv"

	"github.com/matzehuels/typegraph/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MarshalYAML renders d as YAML. The tree is the same as the JSON
// transport, with __type and __value on every node and record fields in
// document order.
func MarshalYAML(d Document) ([]byte, error) {
	var root *yaml.Node
	if d.IsList() {
		root = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range d.Values() {
			root.Content = append(root.Content, yamlNode(v))
		}
	} else {
		root = yamlNode(d.Root())
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}

func yamlNode(v *Value) *yaml.Node {
	if v == nil {
		v = Null()
	}
	return mapping(
		scalarNode("!!str", TypeKey), scalarNode("!!str", v.Discriminator()),
		scalarNode("!!str", ValueKey), yamlPayload(v),
	)
}

func yamlPayload(v *Value) *yaml.Node {
	switch v.kind {
	case KindNumber:
		tag := "!!int"
		if _, err := v.num.Int64(); err != nil {
			tag = "!!float"
		}
		return scalarNode(tag, string(v.num))
	case KindString, KindDate:
		return scalarNode("!!str", v.str)
	case KindBoolean:
		if v.bool {
			return scalarNode("!!bool", "true")
		}
		return scalarNode("!!bool", "false")
	case KindArray:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			seq.Content = append(seq.Content, yamlNode(item))
		}
		return seq
	case KindRef:
		n := mapping(
			scalarNode("!!str", "type"), scalarNode("!!str", v.typeName),
			scalarNode("!!str", "index"), scalarNode("!!int", strconv.Itoa(v.index)),
		)
		n.Style = yaml.FlowStyle
		return n
	case KindRecord:
		m := mapping()
		for _, f := range v.fields {
			m.Content = append(m.Content, scalarNode("!!str", f.Name), yamlNode(f.Value))
		}
		return m
	}
	return scalarNode("!!null", "null")
}

func mapping(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: content}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
