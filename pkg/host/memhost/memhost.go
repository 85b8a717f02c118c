// Package memhost is an in-memory host surface. It keeps a plain node tree,
// counts every mutation it receives and serializes the tree to HTML.
//
// It is the surface the CLI renders into and the one the tests observe.
package memhost

import (
	"fmt"
	"slices"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// Kind distinguishes element nodes from text nodes.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
)

// Node is one node of the in-memory surface.
type Node struct {
	Kind     Kind
	Tag      string
	Text     string
	Attrs    map[string]string
	Parent   *Node
	Children []*Node
}

// Stats counts mutations received by a Surface.
type Stats struct {
	ElementsCreated int
	TextsCreated    int
	Inserts         int
	Removes         int
	AttrsSet        int
	AttrsRemoved    int
	TextUpdates     int
}

// Mutations returns the number of changes made to existing nodes,
// excluding node creation.
func (s Stats) Mutations() int {
	return s.Inserts + s.Removes + s.AttrsSet + s.AttrsRemoved + s.TextUpdates
}

// Mutation is one entry of the surface's mutation log.
type Mutation struct {
	Op     string
	Target string
	Detail string
}

func (m Mutation) String() string {
	if m.Detail == "" {
		return m.Op + " " + m.Target
	}
	return m.Op + " " + m.Target + " " + m.Detail
}

// Surface is an in-memory host surface rooted at a container node.
type Surface struct {
	container *Node
	stats     Stats
	log       []Mutation
}

var (
	_ host.Binding  = (*Surface)(nil)
	_ host.Inserter = (*Surface)(nil)
)

// New creates a surface whose container is a detached element with the given tag.
func New(containerTag string) *Surface {
	return &Surface{
		container: &Node{Kind: KindElement, Tag: containerTag, Attrs: map[string]string{}},
	}
}

// Container returns the root node the reconciler renders into.
func (s *Surface) Container() *Node {
	return s.container
}

// Stats returns the mutation counters.
func (s *Surface) Stats() Stats {
	return s.stats
}

// Log returns the ordered mutation log.
func (s *Surface) Log() []Mutation {
	return s.log
}

// ResetStats clears the counters and the mutation log.
func (s *Surface) ResetStats() {
	s.stats = Stats{}
	s.log = nil
}

func (s *Surface) record(op string, n *Node, detail string) {
	s.log = append(s.log, Mutation{Op: op, Target: n.label(), Detail: detail})
}

func (s *Surface) CreateNode(tag string) host.Node {
	s.stats.ElementsCreated++
	n := &Node{Kind: KindElement, Tag: tag, Attrs: map[string]string{}}
	s.record("create", n, "")
	return n
}

func (s *Surface) CreateText(text string) host.Node {
	s.stats.TextsCreated++
	n := &Node{Kind: KindText, Text: text}
	s.record("create", n, "")
	return n
}

func (s *Surface) SetAttributes(node host.Node, oldProps, newProps element.Props) {
	n := mustNode(node)
	set, removed := host.DiffProps(oldProps, newProps)
	for _, key := range removed {
		delete(n.Attrs, key)
		s.stats.AttrsRemoved++
		s.record("remove-attr", n, key)
	}
	for _, c := range set {
		n.Attrs[c.Key] = c.Value
		s.stats.AttrsSet++
		s.record("set-attr", n, c.Key+"="+c.Value)
	}
}

func (s *Surface) SetTextContent(node host.Node, text string) {
	n := mustNode(node)
	n.Text = text
	s.stats.TextUpdates++
	s.record("set-text", n, text)
}

func (s *Surface) InsertChild(parent, child host.Node) {
	p, c := mustNode(parent), mustNode(child)
	detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	s.stats.Inserts++
	s.record("insert", c, "into "+p.label())
}

func (s *Surface) InsertBefore(parent, child, before host.Node) {
	p, c, b := mustNode(parent), mustNode(child), mustNode(before)
	if b.Parent != p {
		panic(errors.New("E302").WithDetail(fmt.Sprintf("anchor %s is not a child of %s", b.label(), p.label())))
	}
	detach(c)
	idx := slices.Index(p.Children, b)
	c.Parent = p
	p.Children = slices.Insert(p.Children, idx, c)
	s.stats.Inserts++
	s.record("insert", c, "into "+p.label()+" before "+b.label())
}

func (s *Surface) RemoveChild(parent, child host.Node) {
	p, c := mustNode(parent), mustNode(child)
	if c.Parent != p {
		panic(errors.New("E302").WithDetail(fmt.Sprintf("%s is not a child of %s", c.label(), p.label())))
	}
	detach(c)
	s.stats.Removes++
	s.record("remove", c, "from "+p.label())
}

func detach(n *Node) {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	if i := slices.Index(siblings, n); i >= 0 {
		n.Parent.Children = slices.Delete(siblings, i, i+1)
	}
	n.Parent = nil
}

func mustNode(h host.Node) *Node {
	n, ok := h.(*Node)
	if !ok || n == nil {
		panic(errors.New("E303").WithDetail(fmt.Sprintf("memhost: got %T", h)))
	}
	return n
}

func (n *Node) label() string {
	if n.Kind == KindText {
		return fmt.Sprintf("%q", n.Text)
	}
	return "<" + n.Tag + ">"
}
