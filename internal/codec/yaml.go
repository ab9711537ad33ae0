package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/solatis/schemamend/internal/types"
	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a single YAML document into a Value.
// Mapping order is kept; a duplicate key keeps its first position and its last
// value, as in DecodeJSON. Scalar tags map to the JSON type tags
// (!!str string, !!int bigint, !!float double, !!bool boolean, !!null null).
func DecodeYAML(data []byte) (types.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	return fromNode(&doc)
}

// DecodeYAMLStream decodes every document of a multi-document YAML stream,
// one record per document.
func DecodeYAMLStream(r io.Reader, fn func(types.Value) error) error {
	dec := yaml.NewDecoder(r)
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
		v, err := fromNode(&doc)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func fromNode(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case 0:
		return types.Null(""), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return types.Null(""), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		fields := make([]types.Field, 0, len(n.Content)/2)
		index := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return types.Value{}, err
			}
			key := n.Content[i].Value
			if j, dup := index[key]; dup {
				fields[j].Value = v
				continue
			}
			index[key] = len(fields)
			fields = append(fields, types.F(key, v))
		}
		return types.Struct(fields...), nil
	case yaml.SequenceNode:
		elems := make([]types.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return types.Value{}, err
			}
			elems = append(elems, v)
		}
		return types.Array(elems...), nil
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return types.Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func scalarValue(n *yaml.Node) (types.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return types.Null(""), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return types.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return types.Prim(TagBoolean, b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return types.Prim(TagBigint, i), nil
		}
		// Out of int64 range: keep the magnitude as a double
		var f float64
		if err := n.Decode(&f); err != nil {
			return types.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return types.Prim(TagDouble, f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return types.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return types.Prim(TagDouble, f), nil
	default:
		return types.Prim(TagString, n.Value), nil
	}
}
