package fiber

import "github.com/vango-dev/fiber/pkg/element"

// reconcileChildren rebuilds parent's child list from children, pairing
// them by position with the children of parent's alternate.
//
// Same-type pairs become UPDATE fibers sharing the old host node. Any
// other pair yields a PLACEMENT fiber for the new element and/or a
// DELETION mark on the old fiber.
func (s *Scheduler) reconcileChildren(parent *Fiber, children []*element.Element) {
	var oldFiber *Fiber
	if parent.Alternate != nil {
		oldFiber = parent.Alternate.Child
	}
	parent.Child = nil

	var prev *Fiber
	for i := 0; i < len(children) || oldFiber != nil; i++ {
		var el *element.Element
		if i < len(children) {
			el = children[i]
		}

		var newFiber *Fiber
		if el != nil && oldFiber != nil && el.Type == oldFiber.Type {
			newFiber = s.reuse(oldFiber, el, parent)
		} else {
			if el != nil {
				newFiber = &Fiber{
					Tag:       tagFor(el),
					Type:      el.Type,
					Props:     el.Props,
					Return:    parent,
					EffectTag: EffectPlacement,
				}
			}
			if oldFiber != nil {
				oldFiber.EffectTag = EffectDeletion
				s.deletions = append(s.deletions, oldFiber)
			}
		}

		if oldFiber != nil {
			oldFiber = oldFiber.Sibling
		}
		if newFiber == nil {
			continue
		}
		if prev == nil {
			parent.Child = newFiber
		} else {
			prev.Sibling = newFiber
		}
		prev = newFiber
	}
}

// reuse returns an UPDATE fiber for el in old's position. The fiber that
// old was paired with is recycled when there is one.
func (s *Scheduler) reuse(old *Fiber, el *element.Element, parent *Fiber) *Fiber {
	f := old.Alternate
	if f == nil {
		f = &Fiber{Tag: old.Tag, Type: old.Type}
		old.Alternate = f
	}
	f.Props = el.Props
	f.StateNode = old.StateNode
	f.Return = parent
	f.Sibling = nil
	f.Alternate = old
	f.EffectTag = EffectUpdate
	f.resetEffects()
	return f
}
