package fiber

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// commitRoot applies the finished pass to the host and makes it current.
// It runs to completion; nothing else observes a half-applied tree.
func (s *Scheduler) commitRoot() {
	root, deletions := s.workInProgressRoot, s.deletions
	s.workInProgressRoot, s.deletions = nil, nil
	// A panic below must not leave the pass to be committed again.
	defer func() {
		for _, f := range deletions {
			if f.EffectTag == EffectDeletion {
				f.EffectTag = EffectNone
			}
		}
	}()

	start := time.Now()
	_, span := s.tracer.Start(context.Background(), "fiber.commit",
		trace.WithAttributes(attribute.Int("fiber.deletions", len(deletions))))
	defer span.End()

	var counts CommitCounts
	for _, f := range deletions {
		s.commitDeletion(f)
		counts.Deletions++
	}
	for f := root.FirstEffect; f != nil; f = f.NextEffect {
		s.commitWork(f, &counts)
	}

	s.currentRoot = root
	s.stats.Commits++

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("fiber.effects", counts.Total()),
		attribute.Int("fiber.placements", counts.Placements),
		attribute.Int("fiber.updates", counts.Updates),
	)
	s.recorder.ObserveCommit(elapsed, counts)
	s.logger.Debug("commit finished",
		"placements", counts.Placements,
		"updates", counts.Updates,
		"deletions", counts.Deletions,
		"duration", elapsed)

	for _, o := range s.observers {
		o.OnCommit(root, counts)
	}
}

func (s *Scheduler) commitWork(f *Fiber, counts *CommitCounts) {
	switch f.EffectTag {
	case EffectPlacement:
		if f.StateNode == nil {
			return
		}
		parent := hostParent(f)
		if before := hostSibling(f); before != nil && s.inserter != nil {
			s.inserter.InsertBefore(parent, f.StateNode, before)
		} else {
			s.binding.InsertChild(parent, f.StateNode)
		}
		counts.Placements++
	case EffectUpdate:
		switch f.Tag {
		case TagText:
			if f.Alternate == nil || f.Alternate.Props.Text() != f.Props.Text() {
				s.binding.SetTextContent(f.StateNode, f.Props.Text())
			}
		case TagHost:
			var oldProps element.Props
			if f.Alternate != nil {
				oldProps = f.Alternate.Props
			}
			s.binding.SetAttributes(f.StateNode, oldProps, f.Props)
		}
		counts.Updates++
	case EffectDeletion:
		s.commitDeletion(f)
		counts.Deletions++
	}
}

// commitDeletion detaches f's host node from its host parent. The mark is
// cleared so the node is removed once.
func (s *Scheduler) commitDeletion(f *Fiber) {
	if f.EffectTag != EffectDeletion {
		return
	}
	f.EffectTag = EffectNone
	if f.StateNode == nil {
		return
	}
	s.binding.RemoveChild(hostParent(f), f.StateNode)
}

// hostParent returns the host node of the nearest ancestor that has one.
func hostParent(f *Fiber) host.Node {
	for p := f.Return; p != nil; p = p.Return {
		if (p.Tag == TagHost || p.Tag == TagRoot) && p.StateNode != nil {
			return p.StateNode
		}
	}
	panic(errors.New("E301").WithDetail(fmt.Sprintf("%s has no ancestor with a host node", f)))
}

// hostSibling returns the first following sibling already attached to the
// host, used as the insertion anchor for a placement.
func hostSibling(f *Fiber) host.Node {
	for sib := f.Sibling; sib != nil; sib = sib.Sibling {
		if sib.EffectTag != EffectPlacement && sib.StateNode != nil {
			return sib.StateNode
		}
	}
	return nil
}
