package host

import "github.com/vango-dev/fiber/pkg/element"

// Tee fans every mutation out to several bindings. The handle it returns
// for a created node is a TeeNode holding one handle per binding.
type Tee struct {
	bindings []Binding
}

// TeeNode pairs the handles of one logical node across a Tee's bindings.
type TeeNode []Node

// NewTee creates a Tee over the given bindings.
func NewTee(bindings ...Binding) *Tee {
	return &Tee{bindings: bindings}
}

// Wrap returns the TeeNode for a node that already exists in every binding,
// such as each surface's container.
func (t *Tee) Wrap(nodes ...Node) TeeNode {
	return TeeNode(nodes)
}

func (t *Tee) CreateNode(tag string) Node {
	out := make(TeeNode, len(t.bindings))
	for i, b := range t.bindings {
		out[i] = b.CreateNode(tag)
	}
	return out
}

func (t *Tee) CreateText(text string) Node {
	out := make(TeeNode, len(t.bindings))
	for i, b := range t.bindings {
		out[i] = b.CreateText(text)
	}
	return out
}

func (t *Tee) SetAttributes(node Node, oldProps, newProps element.Props) {
	n := node.(TeeNode)
	for i, b := range t.bindings {
		b.SetAttributes(n[i], oldProps, newProps)
	}
}

func (t *Tee) SetTextContent(node Node, text string) {
	n := node.(TeeNode)
	for i, b := range t.bindings {
		b.SetTextContent(n[i], text)
	}
}

func (t *Tee) InsertChild(parent, child Node) {
	p, c := parent.(TeeNode), child.(TeeNode)
	for i, b := range t.bindings {
		b.InsertChild(p[i], c[i])
	}
}

// InsertBefore inserts before the anchor in bindings that support it and
// appends in the others.
func (t *Tee) InsertBefore(parent, child, before Node) {
	p, c, a := parent.(TeeNode), child.(TeeNode), before.(TeeNode)
	for i, b := range t.bindings {
		if ins, ok := b.(Inserter); ok {
			ins.InsertBefore(p[i], c[i], a[i])
		} else {
			b.InsertChild(p[i], c[i])
		}
	}
}

func (t *Tee) RemoveChild(parent, child Node) {
	p, c := parent.(TeeNode), child.(TeeNode)
	for i, b := range t.bindings {
		b.RemoveChild(p[i], c[i])
	}
}
