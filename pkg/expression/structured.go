package expression

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseStructured decodes JSON or YAML text into canonical values. Objects
// become *OrderedMap so key order survives, arrays become []interface{}.
func ParseStructured(text string) (interface{}, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("invalid structured text: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return fromYAMLNode(doc.Content[0])
}

func fromYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.MappingNode:
		out := NewOrderedMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			value, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(key, value)
		}
		return out, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(node)
	}
	return nil, fmt.Errorf("unsupported structured node at line %d", node.Line)
}

func fromYAMLScalar(node *yaml.Node) (interface{}, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		if n, err := strconv.Atoi(node.Value); err == nil {
			return n, nil
		}
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		return int(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return node.Value, nil
}
