package element

import (
	"fmt"
	"regexp"
)

// TextType is the type sentinel of text elements. It cannot collide with a
// host tag because tag names must start with a letter.
const TextType = "#text"

// Reserved prop names.
const (
	ChildrenProp = "children"
	TextProp     = "text"
)

var tagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// Props holds attributes and the reserved children and text entries.
type Props map[string]any

// Element describes one node of the tree.
type Element struct {
	Type  string
	Props Props
}

// Attr is a single named prop passed to the tag helpers.
type Attr struct {
	Key   string
	Value any
}

// Create builds an element of the given type. The props map is copied.
// Children may be *Element, []*Element, nil (skipped) or any scalar, which
// becomes a text element.
func Create(typ string, props Props, children ...any) *Element {
	p := make(Props, len(props)+1)
	for k, v := range props {
		if k == ChildrenProp {
			continue
		}
		p[k] = v
	}
	p[ChildrenProp] = normalizeChildren(children)
	return &Element{Type: typ, Props: p}
}

// Text creates a text element.
func Text(text string) *Element {
	return &Element{
		Type: TextType,
		Props: Props{
			TextProp:     text,
			ChildrenProp: []*Element{},
		},
	}
}

// Textf creates a formatted text element.
func Textf(format string, args ...any) *Element {
	return Text(fmt.Sprintf(format, args...))
}

func normalizeChildren(children []any) []*Element {
	out := make([]*Element, 0, len(children))
	for _, child := range children {
		switch v := child.(type) {
		case nil:
			continue
		case *Element:
			if v != nil {
				out = append(out, v)
			}
		case []*Element:
			for _, c := range v {
				if c != nil {
					out = append(out, c)
				}
			}
		case string:
			out = append(out, Text(v))
		default:
			out = append(out, Text(fmt.Sprint(v)))
		}
	}
	return out
}

// IsText reports whether the element is a text element.
func (e *Element) IsText() bool {
	return e != nil && e.Type == TextType
}

// Children returns the element's child list.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	return e.Props.Children()
}

// Text returns the text of a text element, or "" for other elements.
func (e *Element) Text() string {
	if !e.IsText() {
		return ""
	}
	return e.Props.Text()
}

// Children returns the children stored in the props, or nil.
func (p Props) Children() []*Element {
	children, _ := p[ChildrenProp].([]*Element)
	return children
}

// Text returns the text prop as a string.
func (p Props) Text() string {
	switch v := p[TextProp].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ValidType reports whether typ is the text sentinel or a well-formed tag name.
func ValidType(typ string) bool {
	return typ == TextType || tagPattern.MatchString(typ)
}
