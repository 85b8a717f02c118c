package fiber

import "time"

// CommitCounts tallies the effects applied by one commit.
type CommitCounts struct {
	Placements int
	Updates    int
	Deletions  int
}

// Total returns the number of effects applied.
func (c CommitCounts) Total() int {
	return c.Placements + c.Updates + c.Deletions
}

// Recorder receives scheduler measurements.
// Implementations are called from the goroutine that runs the work loop.
type Recorder interface {
	ObserveUnitOfWork()
	ObserveSlice(yielded bool)
	ObserveCommit(d time.Duration, counts CommitCounts)
	ObserveSuperseded()
}

type nopRecorder struct{}

func (nopRecorder) ObserveUnitOfWork()                        {}
func (nopRecorder) ObserveSlice(bool)                         {}
func (nopRecorder) ObserveCommit(time.Duration, CommitCounts) {}
func (nopRecorder) ObserveSuperseded()                        {}

// CommitObserver is notified after every commit, once the committed tree
// has become current.
type CommitObserver interface {
	OnCommit(root *Fiber, counts CommitCounts)
}

// CommitObserverFunc adapts a function to CommitObserver.
type CommitObserverFunc func(root *Fiber, counts CommitCounts)

// OnCommit calls f.
func (f CommitObserverFunc) OnCommit(root *Fiber, counts CommitCounts) {
	f(root, counts)
}

// Stats are cumulative scheduler counters.
type Stats struct {
	Units      int // Fibers processed
	Slices     int // Work loop invocations that had work
	Yields     int // Slices that ended with work remaining
	Commits    int
	Superseded int // In-flight generations abandoned by a newer render
}
