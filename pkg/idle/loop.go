package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default loop timing.
const (
	DefaultSliceBudget  = 16 * time.Millisecond
	DefaultPollInterval = 5 * time.Millisecond
	DefaultMaxWait      = 500 * time.Millisecond
	DefaultQueueSize    = 256
)

// Config configures a Loop.
type Config struct {
	// SliceBudget is the time each idle slice may use.
	SliceBudget time.Duration

	// PollInterval is how often the loop checks whether it is idle.
	PollInterval time.Duration

	// QueueSize is the capacity of the dispatch queue.
	QueueSize int

	// Logger receives panics recovered from tasks and callbacks.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.SliceBudget <= 0 {
		c.SliceBudget = DefaultSliceBudget
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type request struct {
	cb  func(Deadline)
	due time.Time
}

// Loop is a single-goroutine task and idle-callback runner.
type Loop struct {
	cfg      Config
	logger   *slog.Logger
	dispatch chan func()
	wake     chan struct{}
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	pending []request
}

// New creates a loop. Call Run to start it.
func New(cfg Config) *Loop {
	cfg.applyDefaults()
	return &Loop{
		cfg:      cfg,
		logger:   cfg.Logger,
		dispatch: make(chan func(), cfg.QueueSize),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// RequestIdle registers cb to run once, in the next idle slice or after
// timeout has elapsed, whichever comes first. A non-positive timeout means
// DefaultMaxWait. Safe to call from any goroutine, including from cb.
func (l *Loop) RequestIdle(cb func(Deadline), timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultMaxWait
	}
	l.mu.Lock()
	l.pending = append(l.pending, request{cb: cb, due: time.Now().Add(timeout)})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Dispatch queues fn to run on the loop goroutine. It blocks while the
// queue is full and returns false once the loop is closed. Calling it from
// the loop goroutine with a full queue deadlocks.
func (l *Loop) Dispatch(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.dispatch <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Close stops the loop. Pending tasks and callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done returns a channel that's closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes tasks and idle callbacks until ctx is done or Close is
// called. It returns ctx.Err() or nil.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		var timeout <-chan time.Time
		if due, ok := l.nextDue(); ok {
			timer.Reset(time.Until(due))
			timeout = timer.C
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-l.done:
			return nil

		case fn := <-l.dispatch:
			l.safely("task", fn)

		case <-l.wake:
			// Recompute the timeout for the new request.

		case <-ticker.C:
			if len(l.dispatch) == 0 {
				l.runIdle(false)
			}

		case <-timeout:
			l.runIdle(true)
		}
	}
}

func (l *Loop) nextDue() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return time.Time{}, false
	}
	due := l.pending[0].due
	for _, r := range l.pending[1:] {
		if r.due.Before(due) {
			due = r.due
		}
	}
	return due, true
}

// runIdle runs pending callbacks in one slice. On a timeout only the
// overdue callbacks run.
func (l *Loop) runIdle(timedOut bool) {
	now := time.Now()

	l.mu.Lock()
	var run, keep []request
	for _, r := range l.pending {
		if !timedOut || !r.due.After(now) {
			run = append(run, r)
		} else {
			keep = append(keep, r)
		}
	}
	l.pending = keep
	l.mu.Unlock()

	if len(run) == 0 {
		return
	}
	d := &sliceDeadline{end: now.Add(l.cfg.SliceBudget), timedOut: timedOut, now: time.Now}
	for _, r := range run {
		cb := r.cb
		l.safely("idle callback", func() { cb(d) })
	}
}

// safely runs fn, recovering and logging a panic so the loop keeps going.
func (l *Loop) safely(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("idle loop: recovered panic", "kind", kind, "panic", r)
		}
	}()
	fn()
}
