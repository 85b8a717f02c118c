// Package wirehost is a host binding that records every mutation as a
// protocol patch. Patches accumulate until Flush, which the scheduler
// triggers after each commit, and are sent to a Sink as encoded frames.
package wirehost

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/protocol"
)

// ContainerID is the node ID of the stream's container.
const ContainerID = "root"

// Node is a handle to a remote node.
type Node struct {
	ID     string
	parent *Node
}

// Sink receives encoded frames. Send is called on the scheduler's
// goroutine, so it should hand the frame off rather than wait on I/O.
// Frames are not reused after Send returns.
type Sink interface {
	Send(frame []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame []byte) error

// Send calls f.
func (f SinkFunc) Send(frame []byte) error { return f(frame) }

// Stream is a host binding that turns mutations into patches.
// It is not safe for concurrent use.
type Stream struct {
	sink      Sink
	logger    *slog.Logger
	container *Node

	nextID  uint64
	seq     uint64
	pending []protocol.Patch
	created map[string]*Node
}

var (
	_ host.Binding         = (*Stream)(nil)
	_ host.Inserter        = (*Stream)(nil)
	_ fiber.CommitObserver = (*Stream)(nil)
)

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger used for sink errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stream. sink may be nil, in which case frames are only
// available through Flush.
func New(sink Sink, opts ...Option) *Stream {
	s := &Stream{
		sink:      sink,
		logger:    slog.Default(),
		container: &Node{ID: ContainerID},
		created:   make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Container returns the container node.
func (s *Stream) Container() *Node { return s.container }

// Seq returns the sequence number of the last flushed frame.
func (s *Stream) Seq() uint64 { return s.seq }

// Pending returns the number of unflushed patches.
func (s *Stream) Pending() int { return len(s.pending) }

func (s *Stream) newNode() *Node {
	s.nextID++
	n := &Node{ID: "n" + strconv.FormatUint(s.nextID, 10)}
	s.created[n.ID] = n
	return n
}

func (s *Stream) emit(p protocol.Patch) {
	s.pending = append(s.pending, p)
}

func (s *Stream) CreateNode(tag string) host.Node {
	n := s.newNode()
	s.emit(protocol.Patch{Op: protocol.PatchCreateElement, ID: n.ID, Value: tag})
	return n
}

func (s *Stream) CreateText(text string) host.Node {
	n := s.newNode()
	s.emit(protocol.Patch{Op: protocol.PatchCreateText, ID: n.ID, Value: text})
	return n
}

func (s *Stream) SetAttributes(node host.Node, oldProps, newProps element.Props) {
	n := mustNode(node)
	set, removed := host.DiffProps(oldProps, newProps)
	for _, key := range removed {
		s.emit(protocol.Patch{Op: protocol.PatchRemoveAttr, ID: n.ID, Key: key})
	}
	for _, c := range set {
		s.emit(protocol.Patch{Op: protocol.PatchSetAttr, ID: n.ID, Key: c.Key, Value: c.Value})
	}
}

func (s *Stream) SetTextContent(node host.Node, text string) {
	n := mustNode(node)
	s.emit(protocol.Patch{Op: protocol.PatchSetText, ID: n.ID, Value: text})
}

func (s *Stream) InsertChild(parent, child host.Node) {
	p, c := mustNode(parent), mustNode(child)
	c.parent = p
	s.emit(protocol.Patch{Op: protocol.PatchInsertNode, ID: c.ID, ParentID: p.ID})
}

func (s *Stream) InsertBefore(parent, child, before host.Node) {
	p, c, b := mustNode(parent), mustNode(child), mustNode(before)
	if b.parent != p {
		panic(errors.New("E302").WithDetail(fmt.Sprintf("anchor %s is not a child of %s", b.ID, p.ID)))
	}
	c.parent = p
	s.emit(protocol.Patch{Op: protocol.PatchInsertNode, ID: c.ID, ParentID: p.ID, Before: b.ID})
}

func (s *Stream) RemoveChild(parent, child host.Node) {
	p, c := mustNode(parent), mustNode(child)
	if c.parent != p {
		panic(errors.New("E302").WithDetail(fmt.Sprintf("%s is not a child of %s", c.ID, p.ID)))
	}
	c.parent = nil
	s.emit(protocol.Patch{Op: protocol.PatchRemoveNode, ID: c.ID, ParentID: p.ID})
}

// Flush returns the pending patches as the next frame, or nil if there are
// none. Patches for nodes created since the last flush that never got
// attached to the container are dropped; they belong to an abandoned pass.
func (s *Stream) Flush() *protocol.PatchesFrame {
	patches := s.pending[:0:0]
	for _, p := range s.pending {
		if n, ok := s.created[p.ID]; ok && !s.attached(n) {
			continue
		}
		patches = append(patches, p)
	}
	s.pending = nil
	clear(s.created)

	if len(patches) == 0 {
		return nil
	}
	s.seq++
	return &protocol.PatchesFrame{Seq: s.seq, Patches: patches}
}

func (s *Stream) attached(n *Node) bool {
	for ; n != nil; n = n.parent {
		if n == s.container {
			return true
		}
	}
	return false
}

// OnCommit flushes the pending patches to the sink.
func (s *Stream) OnCommit(_ *fiber.Fiber, _ fiber.CommitCounts) {
	pf := s.Flush()
	if pf == nil || s.sink == nil {
		return
	}
	frames, err := protocol.EncodeFrames(pf)
	if err != nil {
		s.logger.Error("encode patches", "seq", pf.Seq, "error", err)
		return
	}
	for _, frame := range frames {
		if err := s.sink.Send(frame); err != nil {
			s.logger.Warn("send patches", "seq", pf.Seq, "error", err)
			return
		}
	}
}

func mustNode(h host.Node) *Node {
	n, ok := h.(*Node)
	if !ok || n == nil {
		panic(errors.New("E303").WithDetail(fmt.Sprintf("wirehost: got %T", h)))
	}
	return n
}
