package fiber_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/idle"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, opts ...fiber.Option) (*fiber.Scheduler, *memhost.Surface) {
	t.Helper()
	surface := memhost.New("body")
	opts = append([]fiber.Option{fiber.WithLogger(quietLogger())}, opts...)
	return fiber.NewScheduler(surface, opts...), surface
}

// renderAndFlush renders el and runs the pass to commit.
func renderAndFlush(t *testing.T, s *fiber.Scheduler, surface *memhost.Surface, el *element.Element) {
	t.Helper()
	fiber.Render(el, surface.Container(), s)
	require.True(t, s.Flush(), "pass did not commit")
	require.False(t, s.HasPendingWork())
}

func TestInitialRender(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.ID("app"),
		element.H1("Title"),
		element.P("count: ", 3),
	))

	assert.Equal(t, `<div id="app"><h1>Title</h1><p>count: 3</p></div>`, surface.HTML())

	st := surface.Stats()
	assert.Equal(t, 3, st.ElementsCreated)
	assert.Equal(t, 3, st.TextsCreated)
	assert.Equal(t, 1, st.AttrsSet)

	root := s.CurrentRoot()
	require.NotNil(t, root)
	assert.Equal(t, fiber.TagRoot, root.Tag)
	assert.Nil(t, s.WorkInProgressRoot())
}

func TestIdempotentRerender(t *testing.T) {
	s, surface := newTestScheduler(t)
	tree := func() *element.Element {
		return element.Ul(element.Class("list"), element.Li("a"), element.Li("b"), element.Li(element.Strong("c")))
	}

	renderAndFlush(t, s, surface, tree())
	before := surface.HTML()
	surface.ResetStats()

	fiber.Render(tree(), surface.Container(), s)
	require.True(t, s.Flush())

	assert.Equal(t, 0, surface.Stats().Mutations(), "log: %v", surface.Log())
	assert.Equal(t, before, surface.HTML())
	for _, f := range fiber.EffectList(s.CurrentRoot()) {
		assert.Equal(t, fiber.EffectUpdate, f.EffectTag, "%s", f)
	}
}

func TestPositionalReplacement(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.Div("x"), element.Span("y")))
	oldSpan := surface.Container().Children[0].Children[1]
	surface.ResetStats()

	renderAndFlush(t, s, surface, element.Div(element.P("x"), element.Span("y")))

	assert.Equal(t, `<div><p>x</p><span>y</span></div>`, surface.HTML())
	assert.Same(t, oldSpan, surface.Container().Children[0].Children[1], "span must be reused")

	st := surface.Stats()
	assert.Equal(t, 1, st.Removes)
	assert.Equal(t, 1, st.ElementsCreated)
	assert.Equal(t, 0, st.TextUpdates)
}

// Matching is by position only: the surviving y is compared against the
// old x at position 0, so both old nodes go and a new y is created.
func TestPositionalReplacementDoesNotMatchShiftedChild(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.El("x", "A"), element.El("y", "B")))
	oldDiv := s.CurrentRoot().Child
	oldX, oldY := oldDiv.Child, oldDiv.Child.Sibling
	oldYNode := surface.Container().Children[0].Children[1]
	surface.ResetStats()

	fiber.Render(element.Div(element.El("y", "B2")), surface.Container(), s)
	require.False(t, s.WorkLoop(idle.NewCountdown(2)))
	pending := s.PendingDeletions()
	require.Len(t, pending, 2)
	assert.Same(t, oldX, pending[0])
	assert.Same(t, oldY, pending[1])
	require.True(t, s.Flush())

	assert.Equal(t, `<div><y>B2</y></div>`, surface.HTML())
	assert.NotSame(t, oldYNode, surface.Container().Children[0].Children[0])
	st := surface.Stats()
	assert.Equal(t, 2, st.Removes)
	assert.Equal(t, 1, st.ElementsCreated)
	assert.Empty(t, s.PendingDeletions())
}

func TestTypeChangeAtSamePositionInsertsBeforeNextSibling(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.Span("a"), element.Span("b"), element.Span("c")))
	renderAndFlush(t, s, surface, element.Div(element.Span("a"), element.Em("b"), element.Span("c")))

	assert.Equal(t, `<div><span>a</span><em>b</em><span>c</span></div>`, surface.HTML())
}

func TestGrowingList(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Ul(element.Li("1"), element.Li("2")))
	surface.ResetStats()
	renderAndFlush(t, s, surface, element.Ul(element.Li("1"), element.Li("2"), element.Li("3"), element.Li("4")))

	assert.Equal(t, `<ul><li>1</li><li>2</li><li>3</li><li>4</li></ul>`, surface.HTML())
	st := surface.Stats()
	assert.Equal(t, 2, st.ElementsCreated)
	assert.Equal(t, 0, st.Removes)
}

func TestShrinkingList(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Ul(element.Li("1"), element.Li("2"), element.Li("3"), element.Li("4")))
	surface.ResetStats()

	fiber.Render(element.Ul(element.Li("1")), surface.Container(), s)
	require.False(t, s.WorkLoop(idle.NewCountdown(3)))
	assert.Len(t, s.PendingDeletions(), 3)
	require.True(t, s.Flush())

	assert.Equal(t, `<ul><li>1</li></ul>`, surface.HTML())
	st := surface.Stats()
	assert.Equal(t, 3, st.Removes)
	assert.Equal(t, 0, st.ElementsCreated)
	assert.Empty(t, s.PendingDeletions())
}

func TestTextOnlyUpdate(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.Span("hello")))
	textNode := surface.Container().Children[0].Children[0].Children[0]
	surface.ResetStats()

	renderAndFlush(t, s, surface, element.Div(element.Span("world")))

	assert.Equal(t, `<div><span>world</span></div>`, surface.HTML())
	assert.Same(t, textNode, surface.Container().Children[0].Children[0].Children[0])
	st := surface.Stats()
	assert.Equal(t, 1, st.TextUpdates)
	assert.Equal(t, 1, st.Mutations())
}

func TestAttributeDelta(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.Class("a"), element.ID("x"), element.Data("k", "v")))
	surface.ResetStats()
	renderAndFlush(t, s, surface, element.Div(element.Class("b"), element.Data("k", "v")))

	assert.Equal(t, `<div class="b" data-k="v"></div>`, surface.HTML())
	st := surface.Stats()
	assert.Equal(t, 1, st.AttrsSet)
	assert.Equal(t, 1, st.AttrsRemoved)
}

func TestDoubleBufferReuse(t *testing.T) {
	s, surface := newTestScheduler(t)
	container := surface.Container()

	r1 := fiber.NewRoot(container, element.Div("1"))
	s.ScheduleRoot(r1)
	require.True(t, s.Flush())
	require.Same(t, r1, s.CurrentRoot())
	div1 := r1.Child

	r2 := fiber.NewRoot(container, element.Div("2"))
	s.ScheduleRoot(r2)
	require.Same(t, r2, s.WorkInProgressRoot())
	require.Same(t, r1, r2.Alternate)
	require.True(t, s.Flush())
	require.Same(t, r2, s.CurrentRoot())

	r3 := fiber.NewRoot(container, element.Div("3"))
	s.ScheduleRoot(r3)
	assert.Same(t, r1, s.WorkInProgressRoot(), "third pass must recycle the first buffer")
	assert.Same(t, r2, r1.Alternate)
	assert.Same(t, r1, r2.Alternate)
	assert.Nil(t, r1.FirstEffect)
	assert.Nil(t, r1.LastEffect)
	require.True(t, s.Flush())

	assert.Same(t, r1, s.CurrentRoot())
	assert.Same(t, div1, r1.Child, "child fibers are recycled too")
	assert.Equal(t, `<div>3</div>`, surface.HTML())
}

func TestAlternatesArePaired(t *testing.T) {
	s, surface := newTestScheduler(t)

	for _, label := range []string{"a", "b", "c", "d"} {
		renderAndFlush(t, s, surface, element.Div(element.Span(label), element.P(label)))

		walk(s.CurrentRoot(), func(f *fiber.Fiber) {
			if f.Alternate != nil {
				assert.Same(t, f, f.Alternate.Alternate, "%s", f)
				assert.Equal(t, f.Type, f.Alternate.Type)
			}
		})
	}
}

func TestEffectListCompleteAndOrdered(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.Span("a"), element.Ul(element.Li("1"), element.Li("2"))))
	renderAndFlush(t, s, surface, element.Div(element.P("a"), element.Ul(element.Li("1"), element.Li("two"), element.Li("3")), "tail"))

	root := s.CurrentRoot()
	list := fiber.EffectList(root)

	index := map[*fiber.Fiber]int{}
	for i, f := range list {
		_, dup := index[f]
		require.False(t, dup, "%s appears twice", f)
		index[f] = i
	}

	walk(root, func(f *fiber.Fiber) {
		if f == root {
			return
		}
		_, listed := index[f]
		assert.Equal(t, f.EffectTag != fiber.EffectNone, listed, "%s", f)

		// Every fiber comes after all of its descendants.
		walk(f, func(d *fiber.Fiber) {
			if d != f {
				assert.Less(t, index[d], index[f], "%s before %s", d, f)
			}
		})
	})

	// Siblings are listed left to right: the list is exactly the
	// post-order walk of the tree restricted to tagged fibers.
	var want []*fiber.Fiber
	postOrder(root, func(f *fiber.Fiber) {
		if f != root && f.EffectTag != fiber.EffectNone {
			want = append(want, f)
		}
	})
	require.Len(t, list, len(want))
	for i := range want {
		assert.Same(t, want[i], list[i], "effect %d: got %s, want %s", i, list[i], want[i])
	}

	assert.Nil(t, root.LastEffect.NextEffect)
	assert.Equal(t, `<div><p>a</p><ul><li>1</li><li>two</li><li>3</li></ul>tail</div>`, surface.HTML())
}

func TestRescheduleCommittedRoot(t *testing.T) {
	s, surface := newTestScheduler(t)

	r1 := fiber.NewRoot(surface.Container(), element.Div(element.Span("same")))
	s.ScheduleRoot(r1)
	require.True(t, s.Flush())
	surface.ResetStats()

	s.ScheduleRoot(r1)
	wip := s.WorkInProgressRoot()
	require.NotNil(t, wip)
	assert.NotSame(t, r1, wip)
	assert.Same(t, r1, wip.Alternate)
	assert.Same(t, wip, r1.Alternate)
	require.True(t, s.Flush())

	assert.Same(t, wip, s.CurrentRoot())
	assert.Equal(t, `<div><span>same</span></div>`, surface.HTML())
	assert.Equal(t, 0, surface.Stats().Mutations())
	walk(s.CurrentRoot(), func(f *fiber.Fiber) {
		assert.NotSame(t, f, f.Alternate, "%s is its own alternate", f)
	})
}

func TestUnknownTagIsInert(t *testing.T) {
	s, surface := newTestScheduler(t)

	renderAndFlush(t, s, surface, element.Div(element.El("9lives", "ignored"), element.Span("ok")))

	assert.Equal(t, `<div><span>ok</span></div>`, surface.HTML())
	assert.Equal(t, 2, surface.Stats().ElementsCreated)
}

func TestMissingHostParentPanics(t *testing.T) {
	s, _ := newTestScheduler(t)
	fiber.Render(element.Div("x"), nil, s)

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok)
		assert.Contains(t, err.Error(), "E301")
	}()
	s.Flush()
}

func TestPanickedCommitIsDropped(t *testing.T) {
	s, surface := newTestScheduler(t)

	fiber.Render(element.P("lost"), nil, s)
	require.Panics(t, func() { s.Flush() })

	assert.False(t, s.HasPendingWork())
	assert.False(t, s.WorkLoop(idle.Unbounded()), "a dropped pass must not commit again")
	assert.Empty(t, s.PendingDeletions())
	assert.Nil(t, s.CurrentRoot())

	renderAndFlush(t, s, surface, element.Div("next"))
	assert.Equal(t, `<div>next</div>`, surface.HTML())
	assert.Equal(t, 1, s.Stats().Commits)
}

func TestRecycledRootTakesNewContainer(t *testing.T) {
	s, surface := newTestScheduler(t)
	for _, label := range []string{"a", "b"} {
		renderAndFlush(t, s, surface, element.Span(label))
	}

	// The third pass recycles the first root buffer.
	first := s.CurrentRoot().Alternate
	container := surface.CreateNode("section")
	s.ScheduleRoot(fiber.NewRoot(container, element.Span("c")))

	require.Same(t, first, s.WorkInProgressRoot())
	assert.Same(t, container, s.WorkInProgressRoot().StateNode)
}

// postOrder visits f's descendants left to right, then f.
func postOrder(f *fiber.Fiber, fn func(*fiber.Fiber)) {
	for c := f.Child; c != nil; c = c.Sibling {
		postOrder(c, fn)
	}
	fn(f)
}

// walk visits f and its descendants depth first.
func walk(f *fiber.Fiber, fn func(*fiber.Fiber)) {
	fn(f)
	for c := f.Child; c != nil; c = c.Sibling {
		walk(c, fn)
	}
}
