package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/fiber/pkg/fiber"
)

// DefaultTimeout bounds a single upload.
const DefaultTimeout = 30 * time.Second

// Snapshotter publishes the host surface after each commit. Capturing the
// HTML happens on the committing goroutine; uploads happen in Run, and
// only the newest snapshot waiting to be uploaded is kept.
type Snapshotter struct {
	pub     *Publisher
	name    string
	source  func() string
	logger  *slog.Logger
	timeout time.Duration

	latest chan string
	done   chan struct{}
}

var _ fiber.CommitObserver = (*Snapshotter)(nil)

// SnapshotOption configures a Snapshotter.
type SnapshotOption func(*Snapshotter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SnapshotOption {
	return func(s *Snapshotter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout sets the per-upload timeout.
func WithTimeout(d time.Duration) SnapshotOption {
	return func(s *Snapshotter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSnapshotter creates a snapshotter that uploads source() as name.
func NewSnapshotter(pub *Publisher, name string, source func() string, opts ...SnapshotOption) *Snapshotter {
	s := &Snapshotter{
		pub:     pub,
		name:    name,
		source:  source,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		latest:  make(chan string, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnCommit captures the surface and queues it for upload. It never blocks.
func (s *Snapshotter) OnCommit(_ *fiber.Fiber, _ fiber.CommitCounts) {
	html := s.source()
	select {
	case <-s.latest:
	default:
	}
	s.latest <- html
}

// Run uploads queued snapshots until ctx is done.
func (s *Snapshotter) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case html := <-s.latest:
			s.upload(ctx, html)
		}
	}
}

// Done is closed when Run returns.
func (s *Snapshotter) Done() <-chan struct{} {
	return s.done
}

func (s *Snapshotter) upload(ctx context.Context, html string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	key, err := s.pub.Publish(ctx, s.name, []byte(html))
	if err != nil {
		s.logger.Error("snapshot publish failed", "error", err)
		return
	}
	s.logger.Info("snapshot published",
		"key", key,
		"bytes", len(html),
		"duration", time.Since(start))
}
