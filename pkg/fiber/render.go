package fiber

import (
	"context"
	"errors"
	"time"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/idle"
)

// Render schedules a pass that makes container show el. Nothing reaches
// the host until the work loop commits.
func Render(el *element.Element, container host.Node, s *Scheduler) {
	s.ScheduleRoot(NewRoot(container, el))
}

// ErrStopped is returned by Renderer.Do once the loop has stopped.
var ErrStopped = errors.New("fiber: renderer loop stopped")

// Renderer runs a Scheduler on an idle.Loop so renders can be requested
// from any goroutine.
type Renderer struct {
	sched     *Scheduler
	loop      *idle.Loop
	container host.Node
}

// NewRenderer starts s on loop. maxWait bounds how long a pending slice
// may wait for idle time; zero means idle.DefaultMaxWait.
func NewRenderer(s *Scheduler, loop *idle.Loop, container host.Node, maxWait time.Duration) *Renderer {
	if maxWait <= 0 {
		maxWait = idle.DefaultMaxWait
	}
	s.Start(loop, maxWait)
	return &Renderer{sched: s, loop: loop, container: container}
}

// Render queues a render of el. It returns false if the loop has stopped.
func (r *Renderer) Render(el *element.Element) bool {
	return r.loop.Dispatch(func() {
		Render(el, r.container, r.sched)
	})
}

// Do runs fn on the loop goroutine and waits for it to return.
func (r *Renderer) Do(ctx context.Context, fn func(*Scheduler)) error {
	done := make(chan struct{})
	ok := r.loop.Dispatch(func() {
		defer close(done)
		fn(r.sched)
	})
	if !ok {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-r.loop.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scheduler returns the underlying scheduler. Only touch it from the loop
// goroutine, for example inside Do.
func (r *Renderer) Scheduler() *Scheduler { return r.sched }
