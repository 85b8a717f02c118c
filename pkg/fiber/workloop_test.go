package fiber_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/idle"
)

type countingRecorder struct {
	units, slices, yields, commits, superseded int
	last                                       fiber.CommitCounts
}

func (r *countingRecorder) ObserveUnitOfWork() { r.units++ }

func (r *countingRecorder) ObserveSlice(yielded bool) {
	r.slices++
	if yielded {
		r.yields++
	}
}

func (r *countingRecorder) ObserveCommit(_ time.Duration, c fiber.CommitCounts) {
	r.commits++
	r.last = c
}

func (r *countingRecorder) ObserveSuperseded() { r.superseded++ }

func TestWorkLoopYieldsAndResumes(t *testing.T) {
	rec := &countingRecorder{}
	s, surface := newTestScheduler(t, fiber.WithRecorder(rec))

	// root, div, span, "a", span, "b"
	fiber.Render(element.Div(element.Span("a"), element.Span("b")), surface.Container(), s)

	for i := 0; i < 2; i++ {
		require.False(t, s.WorkLoop(idle.NewCountdown(2)), "slice %d", i)
		require.True(t, s.HasPendingWork())
		require.NotNil(t, s.NextUnitOfWork())
		assert.Empty(t, surface.Container().Children, "host touched before commit")
	}
	require.True(t, s.WorkLoop(idle.NewCountdown(2)))

	assert.Equal(t, `<div><span>a</span><span>b</span></div>`, surface.HTML())
	st := s.Stats()
	assert.Equal(t, 6, st.Units)
	assert.Equal(t, 3, st.Slices)
	assert.Equal(t, 2, st.Yields)
	assert.Equal(t, 1, st.Commits)

	assert.Equal(t, 6, rec.units)
	assert.Equal(t, 3, rec.slices)
	assert.Equal(t, 2, rec.yields)
	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, 5, rec.last.Placements)
}

func TestWorkLoopWithoutWork(t *testing.T) {
	s, _ := newTestScheduler(t)

	assert.False(t, s.WorkLoop(idle.Unbounded()))
	assert.Equal(t, fiber.Stats{}, s.Stats())
}

func TestMinRemainingControlsYield(t *testing.T) {
	s, surface := newTestScheduler(t, fiber.WithMinRemaining(time.Hour+time.Minute))
	fiber.Render(element.Div("x"), surface.Container(), s)

	// A Countdown reports an hour while it has units left, which is
	// below the threshold: one unit per slice.
	require.False(t, s.WorkLoop(idle.NewCountdown(100)))
	assert.Equal(t, 1, s.Stats().Units)
}

func TestScheduleRootSupersedesInFlightPass(t *testing.T) {
	rec := &countingRecorder{}
	s, surface := newTestScheduler(t, fiber.WithRecorder(rec))
	container := surface.Container()

	renderAndFlush(t, s, surface, element.Div(element.Span("keep"), element.Span("me")))
	want := surface.HTML()
	surface.ResetStats()

	// Start a pass that would replace everything, then abandon it.
	fiber.Render(element.P("gone"), container, s)
	require.False(t, s.WorkLoop(idle.NewCountdown(1)))
	require.Len(t, s.PendingDeletions(), 1)
	deleted := s.PendingDeletions()[0]
	assert.Equal(t, fiber.EffectDeletion, deleted.EffectTag)

	fiber.Render(element.Div(element.Span("keep"), element.Span("me")), container, s)
	assert.Empty(t, s.PendingDeletions())
	assert.Equal(t, fiber.EffectNone, deleted.EffectTag)
	require.True(t, s.Flush())

	assert.Equal(t, want, surface.HTML())
	assert.Equal(t, 0, surface.Stats().Mutations(), "log: %v", surface.Log())
	assert.Equal(t, 1, s.Stats().Superseded)
	assert.Equal(t, 1, rec.superseded)
}

func TestSupersedeBeforeFirstCommit(t *testing.T) {
	s, surface := newTestScheduler(t)

	r1 := fiber.NewRoot(surface.Container(), element.Div("first"))
	s.ScheduleRoot(r1)
	require.False(t, s.WorkLoop(idle.NewCountdown(2)))

	r2 := fiber.NewRoot(surface.Container(), element.Div("second"))
	s.ScheduleRoot(r2)
	require.Same(t, r2, s.WorkInProgressRoot())
	require.True(t, s.Flush())

	assert.Same(t, r2, s.CurrentRoot())
	assert.Equal(t, `<div>second</div>`, surface.HTML())
}

func TestCommitObserversRunInOrder(t *testing.T) {
	var calls []string
	var got fiber.CommitCounts
	var s *fiber.Scheduler
	first := fiber.CommitObserverFunc(func(root *fiber.Fiber, c fiber.CommitCounts) {
		calls = append(calls, "first")
		got = c
		assert.Same(t, s.CurrentRoot(), root)
		assert.False(t, s.HasPendingWork())
	})
	second := fiber.CommitObserverFunc(func(root *fiber.Fiber, c fiber.CommitCounts) {
		calls = append(calls, "second")
	})

	s, surface := newTestScheduler(t,
		fiber.WithCommitObserver(first),
		fiber.WithCommitObserver(second),
	)

	renderAndFlush(t, s, surface, element.Ul(element.Li("a"), element.Li("b")))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 5, got.Placements)

	renderAndFlush(t, s, surface, element.Ul(element.Li("a")))
	assert.Equal(t, fiber.CommitCounts{Updates: 3, Deletions: 1}, got)
}

func TestRendererOnIdleLoop(t *testing.T) {
	surface := memhost.New("body")
	s := fiber.NewScheduler(surface, fiber.WithLogger(quietLogger()))

	loop := idle.New(idle.Config{PollInterval: time.Millisecond, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	r := fiber.NewRenderer(s, loop, surface.Container(), 50*time.Millisecond)
	require.True(t, r.Render(element.Div(element.Span("one"))))

	html := func() string {
		var out string
		require.NoError(t, r.Do(ctx, func(*fiber.Scheduler) { out = surface.HTML() }))
		return out
	}
	require.Eventually(t, func() bool {
		return html() == `<div><span>one</span></div>`
	}, 2*time.Second, 5*time.Millisecond)

	require.True(t, r.Render(element.Div(element.Span("two"))))
	require.Eventually(t, func() bool {
		return html() == `<div><span>two</span></div>`
	}, 2*time.Second, 5*time.Millisecond)

	var commits int
	require.NoError(t, r.Do(ctx, func(s *fiber.Scheduler) { commits = s.Stats().Commits }))
	assert.Equal(t, 2, commits)
}

func TestRendererAfterLoopClosed(t *testing.T) {
	surface := memhost.New("body")
	s := fiber.NewScheduler(surface, fiber.WithLogger(quietLogger()))
	loop := idle.New(idle.Config{Logger: quietLogger()})
	r := fiber.NewRenderer(s, loop, surface.Container(), 0)

	loop.Close()

	assert.False(t, r.Render(element.Div()))
	assert.ErrorIs(t, r.Do(context.Background(), func(*fiber.Scheduler) {}), fiber.ErrStopped)
}

func TestStartSurvivesPanickedCommit(t *testing.T) {
	surface := memhost.New("body")
	s := fiber.NewScheduler(surface, fiber.WithLogger(quietLogger()))

	loop := idle.New(idle.Config{PollInterval: time.Millisecond, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	r := fiber.NewRenderer(s, loop, surface.Container(), 20*time.Millisecond)

	// A pass without a container panics at commit with E301.
	require.NoError(t, r.Do(ctx, func(s *fiber.Scheduler) {
		fiber.Render(element.P("lost"), nil, s)
	}))
	require.Eventually(t, func() bool {
		var pending bool
		require.NoError(t, r.Do(ctx, func(s *fiber.Scheduler) { pending = s.HasPendingWork() }))
		return !pending
	}, 2*time.Second, 5*time.Millisecond)

	require.True(t, r.Render(element.Div("after")))
	require.Eventually(t, func() bool {
		var html string
		require.NoError(t, r.Do(ctx, func(*fiber.Scheduler) { html = surface.HTML() }))
		return html == `<div>after</div>`
	}, 2*time.Second, 5*time.Millisecond)

	var stats fiber.Stats
	require.NoError(t, r.Do(ctx, func(s *fiber.Scheduler) { stats = s.Stats() }))
	assert.Equal(t, 1, stats.Commits)
}
