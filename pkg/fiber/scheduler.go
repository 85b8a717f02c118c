package fiber

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/idle"
)

// DefaultMinRemaining is the idle time below which the work loop yields.
const DefaultMinRemaining = time.Millisecond

// TracerName is the instrumentation name used for commit spans.
const TracerName = "github.com/vango-dev/fiber"

// Scheduler owns the reconciliation session for one host surface: the
// committed tree, the tree being built, the next fiber to process and
// the deletions found so far.
//
// A Scheduler is not safe for concurrent use. Drive it from a single
// goroutine, typically the one running an idle.Loop.
type Scheduler struct {
	binding  host.Binding
	inserter host.Inserter

	logger       *slog.Logger
	recorder     Recorder
	tracer       trace.Tracer
	observers    []CommitObserver
	minRemaining time.Duration

	nextUnitOfWork     *Fiber
	workInProgressRoot *Fiber
	currentRoot        *Fiber
	deletions          []*Fiber

	stats Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for commit spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCommitObserver adds an observer notified after each commit.
// Observers run in the order they were added.
func WithCommitObserver(o CommitObserver) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithMinRemaining sets the yield threshold of the work loop.
func WithMinRemaining(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.minRemaining = d
		}
	}
}

// NewScheduler creates a scheduler that mutates the given host binding.
func NewScheduler(binding host.Binding, opts ...Option) *Scheduler {
	s := &Scheduler{
		binding:      binding,
		logger:       slog.Default(),
		recorder:     nopRecorder{},
		tracer:       otel.Tracer(TracerName),
		minRemaining: DefaultMinRemaining,
	}
	s.inserter, _ = binding.(host.Inserter)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "fiber")
	return s
}

// ScheduleRoot starts a new render pass rooted at root.
//
// The first pass uses root as is. Once a tree has been committed, root is
// paired with it as its alternate; from the third pass on, the buffer
// that was current two passes ago is recycled instead, with root's props.
// A pass still in flight is abandoned and its pending deletions dropped.
// Passing the committed root again schedules a copy of it, since a fiber
// is never its own alternate.
func (s *Scheduler) ScheduleRoot(root *Fiber) {
	if s.workInProgressRoot != nil {
		s.abandon()
	}

	if root == s.currentRoot {
		root = &Fiber{Tag: TagRoot, Props: root.Props, StateNode: root.StateNode}
	}

	wip := root
	if current := s.currentRoot; current != nil {
		if buf := current.Alternate; buf != nil {
			buf.Props = root.Props
			buf.StateNode = root.StateNode
			buf.resetEffects()
			wip = buf
		}
		wip.Alternate = current
		current.Alternate = wip
	}
	wip.Tag = TagRoot
	wip.EffectTag = EffectNone

	s.workInProgressRoot = wip
	s.nextUnitOfWork = wip
	s.logger.Debug("render scheduled", "reused_buffer", wip != root)
}

// abandon drops the in-flight pass. Nothing reached the host yet, so only
// the deletion marks on the current tree need undoing.
func (s *Scheduler) abandon() {
	for _, f := range s.deletions {
		if f.EffectTag == EffectDeletion {
			f.EffectTag = EffectNone
		}
	}
	s.deletions = nil
	s.workInProgressRoot = nil
	s.nextUnitOfWork = nil
	s.stats.Superseded++
	s.recorder.ObserveSuperseded()
	s.logger.Debug("in-flight render superseded")
}

// WorkLoop processes fibers until the deadline asks it to yield, then
// commits if the whole tree has been processed. It reports whether a
// commit happened.
func (s *Scheduler) WorkLoop(d idle.Deadline) bool {
	if s.workInProgressRoot == nil {
		return false
	}
	s.stats.Slices++

	shouldYield := false
	for s.nextUnitOfWork != nil && !shouldYield {
		s.nextUnitOfWork = s.performUnitOfWork(s.nextUnitOfWork)
		s.stats.Units++
		s.recorder.ObserveUnitOfWork()
		shouldYield = d.TimeRemaining() < s.minRemaining
	}

	yielded := s.nextUnitOfWork != nil
	s.recorder.ObserveSlice(yielded)
	if yielded {
		s.stats.Yields++
		return false
	}

	s.logger.Debug("reconciliation finished", "units", s.stats.Units)
	s.commitRoot()
	return true
}

// Flush runs the pending pass to completion and commits it.
func (s *Scheduler) Flush() bool {
	return s.WorkLoop(idle.Unbounded())
}

// Start registers the work loop with an idle loop. The work loop
// re-registers itself after every slice, even one that panicked. A pass
// whose commit panicked is dropped; the next ScheduleRoot diffs against
// the last tree that committed in full.
func (s *Scheduler) Start(loop *idle.Loop, maxWait time.Duration) {
	var work func(idle.Deadline)
	work = func(d idle.Deadline) {
		defer loop.RequestIdle(work, maxWait)
		s.WorkLoop(d)
	}
	loop.RequestIdle(work, maxWait)
}

// performUnitOfWork begins work on f and returns the next fiber in
// depth-first order, completing every fiber it climbs past.
func (s *Scheduler) performUnitOfWork(f *Fiber) *Fiber {
	s.beginWork(f)
	if f.Child != nil {
		return f.Child
	}
	for cur := f; cur != nil; cur = cur.Return {
		s.completeUnitOfWork(cur)
		if cur.Sibling != nil {
			return cur.Sibling
		}
	}
	return nil
}

func (s *Scheduler) beginWork(f *Fiber) {
	switch f.Tag {
	case TagRoot:
		s.reconcileChildren(f, f.Props.Children())
	case TagText:
		if f.StateNode == nil {
			f.StateNode = s.binding.CreateText(f.Props.Text())
		}
	case TagHost:
		if f.StateNode == nil {
			node := s.binding.CreateNode(f.Type)
			s.binding.SetAttributes(node, nil, f.Props)
			f.StateNode = node
		}
		s.reconcileChildren(f, f.Props.Children())
	default:
		f.Child = nil
		s.logger.Warn("skipping fiber with unknown tag", "type", f.Type)
	}
}

// completeUnitOfWork splices f's effect list, then f itself if it carries
// an effect, onto the end of its parent's effect list.
func (s *Scheduler) completeUnitOfWork(f *Fiber) {
	parent := f.Return
	if parent == nil {
		return
	}
	if parent.FirstEffect == nil {
		parent.FirstEffect = f.FirstEffect
	}
	if f.LastEffect != nil {
		if parent.LastEffect != nil {
			parent.LastEffect.NextEffect = f.FirstEffect
		}
		parent.LastEffect = f.LastEffect
	}
	if f.EffectTag != EffectNone {
		if parent.LastEffect != nil {
			parent.LastEffect.NextEffect = f
		} else {
			parent.FirstEffect = f
		}
		parent.LastEffect = f
	}
}

// CurrentRoot returns the last committed root, or nil.
func (s *Scheduler) CurrentRoot() *Fiber { return s.currentRoot }

// WorkInProgressRoot returns the root of the pass in flight, or nil.
func (s *Scheduler) WorkInProgressRoot() *Fiber { return s.workInProgressRoot }

// NextUnitOfWork returns the next fiber the work loop will process.
func (s *Scheduler) NextUnitOfWork() *Fiber { return s.nextUnitOfWork }

// PendingDeletions returns the old fibers marked for removal in the pass
// in flight.
func (s *Scheduler) PendingDeletions() []*Fiber {
	out := make([]*Fiber, len(s.deletions))
	copy(out, s.deletions)
	return out
}

// HasPendingWork reports whether a pass is in flight.
func (s *Scheduler) HasPendingWork() bool { return s.workInProgressRoot != nil }

// Stats returns the cumulative counters.
func (s *Scheduler) Stats() Stats { return s.stats }
