package element

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/fiber/internal/errors"
)

// Decode parses a YAML or JSON element document.
func Decode(data []byte) (*Element, error) {
	return decode(data, "")
}

// DecodeFile reads and parses an element document from disk. Errors carry
// the file location of the offending node.
func DecodeFile(path string) (*Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E105").Wrap(err)
	}
	return decode(data, path)
}

func decode(data []byte, file string) (*Element, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("E101").Wrap(err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("E101").WithDetail("The document is empty.")
	}
	d := &decoder{file: file}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, d.fail("E104", root).WithDetail("The document root must be an element mapping.")
	}
	return d.node(root)
}

type decoder struct {
	file string
}

func (d *decoder) fail(code string, n *yaml.Node) *errors.FiberError {
	err := errors.New(code)
	if d.file != "" {
		return err.WithLocation(d.file, n.Line, n.Column)
	}
	err.Location = &errors.Location{File: "<input>", Line: n.Line, Column: n.Column}
	return err
}

func (d *decoder) node(n *yaml.Node) (*Element, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.node(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, d.fail("E104", n)
		}
		return Text(n.Value), nil
	case yaml.MappingNode:
		return d.mapping(n)
	default:
		return nil, d.fail("E104", n)
	}
}

func (d *decoder) mapping(n *yaml.Node) (*Element, error) {
	var (
		typ      string
		props    Props
		children []*Element
	)

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "type":
			if val.Kind != yaml.ScalarNode {
				return nil, d.fail("E103", val)
			}
			typ = val.Value
			if typ != "" && !ValidType(typ) {
				return nil, d.fail("E103", val).WithSuggestion("Use a host tag name such as div, or " + TextType + " for text")
			}
		case "props":
			if val.Kind != yaml.MappingNode {
				return nil, d.fail("E101", val).WithDetail("props must be a mapping.")
			}
			if err := val.Decode(&props); err != nil {
				return nil, d.fail("E101", val).Wrap(err)
			}
		case "children":
			if val.Kind != yaml.SequenceNode {
				return nil, d.fail("E104", val).WithDetail("children must be a list.")
			}
			for _, c := range val.Content {
				child, err := d.node(c)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		default:
			return nil, d.fail("E101", key).WithDetail("Unknown element field " + key.Value + "; expected type, props or children.")
		}
	}

	if typ == "" {
		return nil, d.fail("E102", n).WithSuggestion("Give every node a type, for example `type: div`")
	}
	if typ == TextType {
		return Text(props.Text()), nil
	}
	return Create(typ, props, children), nil
}
