package fiber

import (
	"fmt"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// Tag classifies a fiber. The zero value is not a valid tag; fibers
// carrying it are inert.
type Tag uint8

const (
	TagRoot Tag = iota + 1 // Synthetic tree root
	TagHost                // Host element (div, span, ...)
	TagText                // Plain text
)

// String returns the string representation of the Tag.
func (t Tag) String() string {
	switch t {
	case TagRoot:
		return "Root"
	case TagHost:
		return "Host"
	case TagText:
		return "Text"
	default:
		return "Unknown"
	}
}

// EffectTag is the host mutation a fiber needs at commit.
type EffectTag uint8

const (
	EffectNone EffectTag = iota
	EffectPlacement
	EffectUpdate
	EffectDeletion
)

// String returns the string representation of the EffectTag.
func (e EffectTag) String() string {
	switch e {
	case EffectNone:
		return "None"
	case EffectPlacement:
		return "Placement"
	case EffectUpdate:
		return "Update"
	case EffectDeletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// Fiber is one node of one generation of the render tree.
type Fiber struct {
	Tag   Tag
	Type  string
	Props element.Props

	// StateNode is the bound host node. The host surface owns it.
	StateNode host.Node

	Return  *Fiber // Parent, used to walk upward; not an owner
	Child   *Fiber // First child
	Sibling *Fiber // Next sibling

	// Alternate is the same logical node in the other generation.
	Alternate *Fiber

	EffectTag   EffectTag
	FirstEffect *Fiber
	LastEffect  *Fiber
	NextEffect  *Fiber
}

// NewRoot wraps an element in a root fiber bound to a host container.
func NewRoot(container host.Node, el *element.Element) *Fiber {
	children := []*element.Element{}
	if el != nil {
		children = append(children, el)
	}
	return &Fiber{
		Tag:       TagRoot,
		StateNode: container,
		Props:     element.Props{element.ChildrenProp: children},
	}
}

func (f *Fiber) String() string {
	if f == nil {
		return "<nil>"
	}
	if f.Tag == TagText {
		return fmt.Sprintf("Text(%q)", f.Props.Text())
	}
	return fmt.Sprintf("%s(%s)", f.Tag, f.Type)
}

func (f *Fiber) resetEffects() {
	f.FirstEffect = nil
	f.LastEffect = nil
	f.NextEffect = nil
}

// EffectList returns the fibers on root's effect list, in commit order.
func EffectList(root *Fiber) []*Fiber {
	var out []*Fiber
	if root == nil {
		return out
	}
	for f := root.FirstEffect; f != nil; f = f.NextEffect {
		out = append(out, f)
	}
	return out
}

// tagFor classifies an element.
func tagFor(el *element.Element) Tag {
	if el.Type == element.TextType {
		return TagText
	}
	if element.ValidType(el.Type) {
		return TagHost
	}
	return 0
}
